package repository

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginAttemptRepository counts failed logins per subject inside a sliding window.
type LoginAttemptRepository interface {
	Failures(ctx context.Context, subject string) (int64, error)
	RecordFailure(ctx context.Context, subject string, window time.Duration) (int64, error)
	Reset(ctx context.Context, subject string) error
}

type loginAttemptRepository struct {
	client *redis.Client
	prefix string
}

// NewLoginAttemptRepository returns a Redis-backed counter store.
func NewLoginAttemptRepository(client *redis.Client) LoginAttemptRepository {
	return &loginAttemptRepository{client: client, prefix: "login:failures:"}
}

func (r *loginAttemptRepository) key(subject string) string {
	return r.prefix + strings.ToLower(strings.TrimSpace(subject))
}

func (r *loginAttemptRepository) Failures(ctx context.Context, subject string) (int64, error) {
	n, err := r.client.Get(ctx, r.key(subject)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// RecordFailure increments the counter. The window starts at the first failure.
func (r *loginAttemptRepository) RecordFailure(ctx context.Context, subject string, window time.Duration) (int64, error) {
	key := r.key(subject)
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *loginAttemptRepository) Reset(ctx context.Context, subject string) error {
	return r.client.Del(ctx, r.key(subject)).Err()
}
