package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventDedupeRepository remembers processed external event ids.
type EventDedupeRepository interface {
	// MarkProcessed returns false when the id was already recorded.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type eventDedupeRepository struct {
	client *redis.Client
	prefix string
}

// NewEventDedupeRepository returns a Redis-backed dedupe store.
func NewEventDedupeRepository(client *redis.Client, namespace string) EventDedupeRepository {
	return &eventDedupeRepository{client: client, prefix: "events:" + namespace + ":"}
}

func (r *eventDedupeRepository) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+eventID, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

func (r *eventDedupeRepository) Forget(ctx context.Context, eventID string) error {
	return r.client.Del(ctx, r.prefix+eventID).Err()
}
