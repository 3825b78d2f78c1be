// Package redis implements ports.RunJournal on Redis, for setups where
// several operators watch one long batch from different machines.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

type entry struct {
	OK     bool      `json:"ok"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Journal stores per-combination outcomes in a single Redis hash.
type Journal struct {
	client *backend.Client
	key    string
	ttl    time.Duration
}

// Option configures a Journal.
type Option func(*Journal)

// WithKey overrides the hash key the ledger lives under.
func WithKey(key string) Option {
	return func(j *Journal) { j.key = key }
}

// WithTTL expires the ledger after the given duration, refreshed on every
// write.
func WithTTL(ttl time.Duration) Option {
	return func(j *Journal) { j.ttl = ttl }
}

// New creates a Journal talking to the given address.
func New(address, password string, db int, opts ...Option) *Journal {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient creates a Journal from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Journal {
	j := &Journal{
		client: client,
		key:    "stencil:journal",
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Record stores the outcome for one combination key.
func (j *Journal) Record(ctx context.Context, key string, ok bool, reason string) error {
	data, err := json.Marshal(entry{OK: ok, Reason: reason, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	pipe := j.client.Pipeline()
	pipe.HSet(ctx, j.key, key, data)
	if j.ttl > 0 {
		pipe.Expire(ctx, j.key, j.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record to redis: %w", err)
	}
	return nil
}

// Summary returns all recorded outcomes keyed by combination.
func (j *Journal) Summary(ctx context.Context) (map[string]bool, error) {
	raw, err := j.client.HGetAll(ctx, j.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal from redis: %w", err)
	}

	out := make(map[string]bool, len(raw))
	for key, val := range raw {
		var e entry
		if err := json.Unmarshal([]byte(val), &e); err != nil {
			return nil, fmt.Errorf("corrupt journal entry %q: %w", key, err)
		}
		out[key] = e.OK
	}
	return out, nil
}

// Close closes the redis client.
func (j *Journal) Close() error {
	return j.client.Close()
}
