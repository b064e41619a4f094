package audit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ListAppender is the part of the redis client used by RedisSink.
type ListAppender interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisSink appends one line per entry to a Redis list.
type RedisSink struct {
	client ListAppender
	key    string
	closer func() error
}

// NewRedisSink returns a sink pushing to the list under key.
func NewRedisSink(client ListAppender, key string) *RedisSink {
	return &RedisSink{client: client, key: key}
}

// DialRedisSink connects to the Redis server at url and returns a sink owning the connection.
func DialRedisSink(ctx context.Context, url, key string) (*RedisSink, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisSink{client: client, key: key, closer: client.Close}, nil
}

// Record appends e to the list.
func (s *RedisSink) Record(ctx context.Context, e Entry) error {
	return s.client.RPush(ctx, s.key, e.Line()).Err()
}

// Close releases the connection if the sink owns it.
func (s *RedisSink) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer()
}
