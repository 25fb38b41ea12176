// Package notify is the server side of the change-notification channel.
// Handlers publish here whenever a search request or its results change;
// clients subscribe via pkg/watch and react by refetching.
package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/trendscout/trendscout/pkg/watch"
)

// Publisher broadcasts change events over Redis pub/sub.
type Publisher struct {
	client *redis.Client
}

// NewPublisher creates a Publisher from a Redis URL.
func NewPublisher(redisURL string) (*Publisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: redis.NewClient(opts)}, nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

// SearchChanged signals that one request's results changed (clusters appeared
// or the request reached a terminal state).
func (p *Publisher) SearchChanged(ctx context.Context, requestID int64) error {
	return p.client.Publish(ctx, watch.SearchChannel(requestID), "changed").Err()
}

// SearchesChanged signals that the set of search requests changed (one was
// created, completed, or deleted); history views should refetch.
func (p *Publisher) SearchesChanged(ctx context.Context) error {
	return p.client.Publish(ctx, watch.SearchesChannel(), "changed").Err()
}
