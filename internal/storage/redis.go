// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Prefix is prepended to the document key and the change channel
	Prefix string

	// Key is the document key
	Key string

	// ConnectTimeout is the timeout for establishing a connection
	ConnectTimeout time.Duration

	Logger *slog.Logger
}

// DefaultRedisOptions returns sensible defaults.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Prefix:         "agrisite:",
		Key:            DefaultKey,
		ConnectTimeout: 5 * time.Second,
	}
}

// Redis stores the document in a Redis string and announces every write on
// a pub/sub channel so other instances can pick it up.
type Redis struct {
	client *redis.Client
	prefix string
	key    string
	origin string
	logger *slog.Logger
	closed atomic.Bool
}

// redisChange is the message published on the change channel.
type redisChange struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
	Value  []byte `json:"value"`
}

// NewRedis connects to Redis and returns a backend.
func NewRedis(opts RedisOptions) (*Redis, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	def := DefaultRedisOptions()
	if opts.Key == "" {
		opts.Key = def.Key
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = def.ConnectTimeout
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewRedisWithClient(client, opts), nil
}

// NewRedisWithClient wraps an existing client. Close closes the client.
func NewRedisWithClient(client *redis.Client, opts RedisOptions) *Redis {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Redis{
		client: client,
		prefix: opts.Prefix,
		key:    opts.Key,
		origin: uuid.NewString(),
		logger: opts.Logger,
	}
}

// Key implements Backend.
func (r *Redis) Key() string { return r.key }

func (r *Redis) docKey() string  { return r.prefix + r.key }
func (r *Redis) channel() string { return r.prefix + "changes" }

// Load implements Backend.
func (r *Redis) Load(ctx context.Context) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	data, err := r.client.Get(ctx, r.docKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	return data, nil
}

// Save implements Backend.
func (r *Redis) Save(ctx context.Context, data []byte) error {
	if r.closed.Load() {
		return ErrClosed
	}
	msg, err := json.Marshal(redisChange{Key: r.key, Origin: r.origin, Value: data})
	if err != nil {
		return fmt.Errorf("encoding change: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.docKey(), data, 0)
		p.Publish(ctx, r.channel(), msg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Clear implements Backend.
func (r *Redis) Clear(ctx context.Context) error {
	if r.closed.Load() {
		return ErrClosed
	}
	msg, err := json.Marshal(redisChange{Key: r.key, Origin: r.origin})
	if err != nil {
		return fmt.Errorf("encoding change: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.docKey())
		p.Publish(ctx, r.channel(), msg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("clearing document: %w", err)
	}
	return nil
}

// Watch implements Backend.
func (r *Redis) Watch(ctx context.Context) (<-chan Change, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	sub := r.client.Subscribe(ctx, r.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", r.channel(), err)
	}

	out := make(chan Change, 1)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c redisChange
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					r.logger.Warn("redis storage: malformed change message", "error", err)
					continue
				}
				if c.Origin == r.origin {
					continue
				}
				offer(out, Change{Key: c.Key, Value: c.Value})
			}
		}
	}()

	return out, nil
}

// Close implements Backend.
func (r *Redis) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.client.Close()
}
