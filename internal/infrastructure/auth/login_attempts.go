package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/erp/console/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// AttemptTracker counts failed logins per username inside a sliding lockout
// window. The window starts at the first failure and the count resets when
// it elapses.
type AttemptTracker interface {
	// RecordFailure counts one failed login and returns the failures so far
	RecordFailure(ctx context.Context, username string, window time.Duration) (int64, error)

	// Failures returns the failures recorded in the current window
	Failures(ctx context.Context, username string) (int64, error)

	// Reset forgets every failure of username (after a successful login)
	Reset(ctx context.Context, username string) error
}

// RedisAttemptTracker implements AttemptTracker using Redis
type RedisAttemptTracker struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisAttemptTracker creates a Redis-based tracker and checks the connection
func NewRedisAttemptTracker(cfg config.RedisConfig) (*RedisAttemptTracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for login attempts: %w", err)
	}

	return NewRedisAttemptTrackerWithClient(client), nil
}

// NewRedisAttemptTrackerWithClient creates a tracker with an existing Redis client
func NewRedisAttemptTrackerWithClient(client *redis.Client) *RedisAttemptTracker {
	return &RedisAttemptTracker{
		client:    client,
		keyPrefix: "auth:attempts:",
	}
}

func (t *RedisAttemptTracker) key(username string) string {
	return t.keyPrefix + username
}

// RecordFailure increments the failure counter; the first failure starts the window
func (t *RedisAttemptTracker) RecordFailure(ctx context.Context, username string, window time.Duration) (int64, error) {
	key := t.key(username)

	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record login failure: %w", err)
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("failed to set lockout window: %w", err)
		}
	}
	return count, nil
}

// Failures returns the failures recorded in the current window
func (t *RedisAttemptTracker) Failures(ctx context.Context, username string) (int64, error) {
	raw, err := t.client.Get(ctx, t.key(username)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read login failures: %w", err)
	}

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse login failures: %w", err)
	}
	return count, nil
}

// Reset forgets every failure of username
func (t *RedisAttemptTracker) Reset(ctx context.Context, username string) error {
	if err := t.client.Del(ctx, t.key(username)).Err(); err != nil {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (t *RedisAttemptTracker) Close() error {
	return t.client.Close()
}

// Ensure RedisAttemptTracker implements AttemptTracker
var _ AttemptTracker = (*RedisAttemptTracker)(nil)

// InMemoryAttemptTracker keeps failures in process memory.
// It is not shared between instances.
type InMemoryAttemptTracker struct {
	mu       sync.Mutex
	attempts map[string]attemptWindow
	now      func() time.Time
}

type attemptWindow struct {
	count     int64
	expiresAt time.Time
}

// NewInMemoryAttemptTracker creates a new in-memory tracker
func NewInMemoryAttemptTracker() *InMemoryAttemptTracker {
	return &InMemoryAttemptTracker{
		attempts: make(map[string]attemptWindow),
		now:      time.Now,
	}
}

// RecordFailure counts one failed login
func (t *InMemoryAttemptTracker) RecordFailure(_ context.Context, username string, window time.Duration) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	w, ok := t.attempts[username]
	if !ok || !now.Before(w.expiresAt) {
		w = attemptWindow{expiresAt: now.Add(window)}
	}
	w.count++
	t.attempts[username] = w
	return w.count, nil
}

// Failures returns the failures recorded in the current window
func (t *InMemoryAttemptTracker) Failures(_ context.Context, username string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.attempts[username]
	if !ok {
		return 0, nil
	}
	if !t.now().Before(w.expiresAt) {
		delete(t.attempts, username)
		return 0, nil
	}
	return w.count, nil
}

// Reset forgets every failure of username
func (t *InMemoryAttemptTracker) Reset(_ context.Context, username string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, username)
	return nil
}

// Ensure InMemoryAttemptTracker implements AttemptTracker
var _ AttemptTracker = (*InMemoryAttemptTracker)(nil)
