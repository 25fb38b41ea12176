package watch

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Subscriber listens on the server's Redis change channels and invokes a
// callback per event. Pair it with a Watcher: the callback calls Notify so a
// push event turns into an immediate refetch instead of waiting out the poll
// interval.
type Subscriber struct {
	rdb *redis.Client
}

// NewSubscriber creates a Subscriber from a Redis URL.
func NewSubscriber(redisURL string) (*Subscriber, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &Subscriber{rdb: redis.NewClient(opts)}, nil
}

// NewSubscriberFromClient wraps an existing Redis client.
func NewSubscriberFromClient(rdb *redis.Client) *Subscriber {
	return &Subscriber{rdb: rdb}
}

// WatchSearch invokes fn each time a change event for requestID arrives.
// Blocks until ctx is cancelled, then returns ctx.Err().
func (s *Subscriber) WatchSearch(ctx context.Context, requestID int64, fn func()) error {
	return s.watch(ctx, SearchChannel(requestID), fn)
}

// WatchHistory invokes fn each time the search list changes (a request is
// created, finishes, or is deleted). Blocks until ctx is cancelled.
func (s *Subscriber) WatchHistory(ctx context.Context, fn func()) error {
	return s.watch(ctx, SearchesChannel(), fn)
}

func (s *Subscriber) watch(ctx context.Context, channel string, fn func()) error {
	sub := s.rdb.Subscribe(ctx, channel)
	defer sub.Close()

	// Fail fast if the subscription itself could not be established.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			fn()
		}
	}
}

// Close releases the underlying Redis connection.
func (s *Subscriber) Close() error {
	return s.rdb.Close()
}
