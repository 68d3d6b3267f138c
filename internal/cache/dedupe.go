package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "stockcalc:command:"

// Deduplicator records applied command ids in Redis
type Deduplicator struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewClient opens a Redis client and verifies the connection
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewDeduplicator creates a Deduplicator whose claims expire after ttl
func NewDeduplicator(client redis.Cmdable, ttl time.Duration) *Deduplicator {
	return &Deduplicator{
		client: client,
		prefix: defaultPrefix,
		ttl:    ttl,
	}
}

// Claim marks id as applied. It returns false when id was already claimed.
func (d *Deduplicator) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(id), time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim command %s: %w", id, err)
	}
	return ok, nil
}

// Release forgets a claim so the command can be applied again
func (d *Deduplicator) Release(ctx context.Context, id string) error {
	if err := d.client.Del(ctx, d.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to release command %s: %w", id, err)
	}
	return nil
}

func (d *Deduplicator) key(id string) string {
	return d.prefix + id
}
