package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// Mirror keeps a copy of the last good snapshot outside the process so a
// terminal that restarts while the shop API is down still has numbers to
// gate sales on.
type Mirror interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

func NewRedisMirror(client *redis.Client, terminalID string) *RedisMirror {
	return &RedisMirror{
		client: client,
		key:    fmt.Sprintf("pos:%s:inventory", terminalID),
		ttl:    12 * time.Hour,
	}
}

type RedisMirror struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func (r RedisMirror) Load(ctx context.Context) (Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrCacheMiss
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis get failed: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot failed: %w", err)
	}
	if snap.Levels == nil {
		snap.Levels = map[int64]int{}
	}
	return snap, nil
}

func (r RedisMirror) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
