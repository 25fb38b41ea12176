package watch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trendscout/trendscout/pkg/client"
	"github.com/trendscout/trendscout/pkg/models"
)

type fetchFunc func(ctx context.Context, requestID int64) (*client.SearchResults, error)

func (f fetchFunc) GetSearch(ctx context.Context, requestID int64) (*client.SearchResults, error) {
	return f(ctx, requestID)
}

func result(id int64, status string) *client.SearchResults {
	return &client.SearchResults{RequestID: id, Query: "q", Status: status}
}

func TestRun_StopsOnTerminalStatus(t *testing.T) {
	var calls int32
	fetcher := fetchFunc(func(_ context.Context, id int64) (*client.SearchResults, error) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			return result(id, models.StatusProcessing), nil
		}
		return result(id, models.StatusCompleted), nil
	})

	var statuses []string
	w := New(fetcher, 7, Options{
		Interval: time.Millisecond,
		Enabled:  true,
		OnUpdate: func(r *client.SearchResults) { statuses = append(statuses, r.Status) },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 fetches, got %d", got)
	}
	if len(statuses) != 3 || statuses[2] != models.StatusCompleted {
		t.Errorf("unexpected status sequence: %v", statuses)
	}
}

func TestRun_StopsOnFailedStatus(t *testing.T) {
	fetcher := fetchFunc(func(_ context.Context, id int64) (*client.SearchResults, error) {
		return result(id, models.StatusFailed), nil
	})

	w := New(fetcher, 1, Options{Interval: time.Millisecond, Enabled: true})
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_DisabledNeverFetches(t *testing.T) {
	var calls int32
	fetcher := fetchFunc(func(_ context.Context, id int64) (*client.SearchResults, error) {
		atomic.AddInt32(&calls, 1)
		return result(id, models.StatusCompleted), nil
	})

	w := New(fetcher, 1, Options{Interval: time.Millisecond, Enabled: false})
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("expected no fetches while disabled, got %d", got)
	}
}

func TestRun_InvalidRequestIDNeverFetches(t *testing.T) {
	var calls int32
	fetcher := fetchFunc(func(_ context.Context, id int64) (*client.SearchResults, error) {
		atomic.AddInt32(&calls, 1)
		return result(id, models.StatusCompleted), nil
	})

	w := New(fetcher, 0, Options{Interval: time.Millisecond, Enabled: true})
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("expected no fetches for id 0, got %d", got)
	}
}

func TestRun_ErrorDoesNotStopLoop(t *testing.T) {
	var calls int32
	fetcher := fetchFunc(func(_ context.Context, id int64) (*client.SearchResults, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return nil, errors.New("transient")
		}
		return result(id, models.StatusCompleted), nil
	})

	var errs int32
	w := New(fetcher, 1, Options{
		Interval: time.Millisecond,
		Enabled:  true,
		OnError:  func(error) { atomic.AddInt32(&errs, 1) },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&errs); got != 1 {
		t.Errorf("expected 1 error callback, got %d", got)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 fetches, got %d", got)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	fetcher := fetchFunc(func(_ context.Context, id int64) (*client.SearchResults, error) {
		return result(id, models.StatusProcessing), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	w := New(fetcher, 1, Options{Interval: time.Hour, Enabled: true})

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestNotify_TriggersImmediateFetch(t *testing.T) {
	var calls int32
	fetcher := fetchFunc(func(_ context.Context, id int64) (*client.SearchResults, error) {
		if atomic.AddInt32(&calls, 1) >= 2 {
			return result(id, models.StatusCompleted), nil
		}
		return result(id, models.StatusProcessing), nil
	})

	// Interval is far longer than the test timeout, so the second fetch can
	// only come from Notify.
	w := New(fetcher, 1, Options{Interval: time.Hour, Enabled: true})

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	for atomic.LoadInt32(&calls) == 0 {
		time.Sleep(time.Millisecond)
	}
	w.Notify()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Notify did not trigger a refetch")
	}
}

func TestNotify_NeverBlocks(t *testing.T) {
	w := New(fetchFunc(func(_ context.Context, id int64) (*client.SearchResults, error) {
		return result(id, models.StatusCompleted), nil
	}), 1, Options{Enabled: true})

	// No Run loop draining the channel; repeated calls must still return.
	for i := 0; i < 10; i++ {
		w.Notify()
	}
}

func TestRefresh_CoalescesConcurrentCalls(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	fetcher := fetchFunc(func(_ context.Context, id int64) (*client.SearchResults, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return result(id, models.StatusCompleted), nil
	})

	w := New(fetcher, 1, Options{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.Refresh(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	// Let every goroutine reach the singleflight gate before releasing.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 coalesced fetch, got %d", got)
	}
}

func TestLast_TracksMostRecentResult(t *testing.T) {
	fetcher := fetchFunc(func(_ context.Context, id int64) (*client.SearchResults, error) {
		return result(id, models.StatusCompleted), nil
	})

	w := New(fetcher, 9, Options{Enabled: true})
	if w.Last() != nil {
		t.Error("expected nil before first fetch")
	}

	if _, err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := w.Last()
	if last == nil || last.RequestID != 9 {
		t.Errorf("unexpected last result: %+v", last)
	}
}
