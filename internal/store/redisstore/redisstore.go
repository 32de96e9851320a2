package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps the redis client used for per-session turn locks.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func turnKey(sessionID string) string {
	return fmt.Sprintf("chat:turn:%s", sessionID)
}

// AcquireTurn takes the single-exchange-in-flight lock for a session.
// The TTL bounds how long a crashed relay invocation can hold the slot.
func (s *Store) AcquireTurn(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, turnKey(sessionID), 1, ttl).Result()
}

func (s *Store) ReleaseTurn(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, turnKey(sessionID)).Err()
}
