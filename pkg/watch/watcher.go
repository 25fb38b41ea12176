// Package watch observes a search request until it reaches a terminal state.
//
// Two triggers feed the same fetch: a fixed-interval poll and push
// notifications from the server's change channel. Both paths go through one
// singleflight group, so a timer tick racing a push event produces a single
// request instead of two.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/trendscout/trendscout/pkg/client"
	"github.com/trendscout/trendscout/pkg/models"
)

// DefaultInterval is the polling interval while a request is processing.
const DefaultInterval = 5 * time.Second

// Fetcher fetches the current representation of a search request.
// *client.Client satisfies this.
type Fetcher interface {
	GetSearch(ctx context.Context, requestID int64) (*client.SearchResults, error)
}

// Options configures a Watcher.
type Options struct {
	// Interval between polls; DefaultInterval when zero.
	Interval time.Duration
	// Enabled gates all fetching. When false, Run returns immediately and
	// no fetch is ever issued.
	Enabled bool
	// OnUpdate is called after every successful fetch.
	OnUpdate func(*client.SearchResults)
	// OnError is called for failed fetches. Errors never stop the loop;
	// only a terminal status (or ctx cancellation) does.
	OnError func(error)
}

// Watcher polls one search request until its status leaves "processing".
type Watcher struct {
	fetcher   Fetcher
	requestID int64
	opts      Options

	kick chan struct{}
	sf   singleflight.Group

	mu   sync.Mutex
	last *client.SearchResults
}

// New creates a Watcher for requestID. Call Run to start it.
func New(fetcher Fetcher, requestID int64, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Watcher{
		fetcher:   fetcher,
		requestID: requestID,
		opts:      opts,
		kick:      make(chan struct{}, 1),
	}
}

// Run polls until the request reaches a terminal status or ctx is cancelled.
// The stop decision is taken from each freshly fetched status, never from a
// separately tracked flag. Returns nil on a terminal status, ctx.Err() on
// cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.opts.Enabled || w.requestID <= 0 {
		return nil
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		res, err := w.Refresh(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if w.opts.OnError != nil {
				w.opts.OnError(err)
			}
		default:
			if w.opts.OnUpdate != nil {
				w.opts.OnUpdate(res)
			}
			if isTerminal(res.Status) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-w.kick:
		}
	}
}

// Notify requests an immediate refetch, short-circuiting the poll interval.
// It is safe to call from any goroutine and never blocks; notifications
// arriving while one is already pending are coalesced.
func (w *Watcher) Notify() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Refresh fetches the request's current representation. Concurrent callers
// are coalesced into a single in-flight fetch per request id.
func (w *Watcher) Refresh(ctx context.Context) (*client.SearchResults, error) {
	v, err, _ := w.sf.Do(fmt.Sprintf("search:%d", w.requestID), func() (any, error) {
		res, err := w.fetcher.GetSearch(ctx, w.requestID)
		if err != nil {
			return nil, err
		}
		w.mu.Lock()
		w.last = res
		w.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*client.SearchResults), nil
}

// Last returns the most recently fetched representation, or nil before the
// first successful fetch.
func (w *Watcher) Last() *client.SearchResults {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func isTerminal(status string) bool {
	return status == models.StatusCompleted || status == models.StatusFailed
}
