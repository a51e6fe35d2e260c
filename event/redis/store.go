// Package redis provides a Redis-backed implementation of event.Store.
//
// Each request's event history is stored as a Redis list under key
// "workflow:events:{request_id}". Append uses RPUSH so list order is
// exactly append order; EventsForRequest uses LRANGE 0 -1 to replay the
// full history, matching the event.Store contract.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
)

// Store implements event.Store on top of a Redis client.
type Store struct {
	rdb *redis.Client
	// KeyPrefix namespaces the Redis keys this store owns, allowing
	// multiple workflows to share a Redis instance.
	KeyPrefix string
}

// Options configures New.
type Options struct {
	// Client is the Redis client used for all operations. Required.
	Client *redis.Client

	// KeyPrefix namespaces event-log keys. Defaults to "workflow:events".
	KeyPrefix string
}

// New returns a Redis-backed event store.
func New(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("event/redis: redis client is required")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "workflow:events"
	}
	return &Store{rdb: opts.Client, KeyPrefix: prefix}, nil
}

func (s *Store) key(id ident.RequestID) string {
	return fmt.Sprintf("%s:%s", s.KeyPrefix, id)
}

// Append implements event.Store.
func (s *Store) Append(ctx context.Context, e *event.Event) error {
	payload, err := event.MarshalEvent(e)
	if err != nil {
		return err
	}
	key := s.key(e.InvokeContext.AssistantRequestID)
	if err := s.rdb.RPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("event/redis: rpush %s: %w", key, err)
	}
	return nil
}

// EventsForRequest implements event.Store.
func (s *Store) EventsForRequest(ctx context.Context, id ident.RequestID) ([]*event.Event, error) {
	key := s.key(id)
	raw, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("event/redis: lrange %s: %w", key, err)
	}
	out := make([]*event.Event, 0, len(raw))
	for _, r := range raw {
		e, err := event.UnmarshalEvent([]byte(r))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// HasEventsForRequest implements event.Store.
func (s *Store) HasEventsForRequest(ctx context.Context, id ident.RequestID) (bool, error) {
	key := s.key(id)
	n, err := s.rdb.LLen(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("event/redis: llen %s: %w", key, err)
	}
	return n > 0, nil
}
