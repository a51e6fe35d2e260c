// Package pulse wraps goa.design/pulse streams behind a narrow interface so
// the engine's stream fan-out depends only on the handful of operations it
// actually needs: publishing an entry and opening a consumer-group sink.
package pulse

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"
)

// Options configures a Client.
type Options struct {
	// Redis backs every Pulse stream the client opens. Required.
	Redis *redis.Client

	// MaxLen bounds the number of retained entries per stream. Zero uses
	// Pulse's own default.
	MaxLen int
}

// Client opens named Pulse streams. It is the seam the streamout package
// tests against; production code backs it with Redis, tests can supply a
// fake.
type Client interface {
	// Stream returns a handle to name, creating it on first use.
	Stream(name string) (Stream, error)
	// Close releases client-owned resources. Callers that supplied their
	// own Redis connection remain responsible for closing it.
	Close(ctx context.Context) error
}

// Stream is a single named Pulse stream.
type Stream interface {
	// Add appends payload under event and returns the assigned entry ID.
	Add(ctx context.Context, event string, payload []byte) (string, error)
	// Sink opens a consumer group named name on this stream.
	Sink(ctx context.Context, name string) (Sink, error)
}

// Sink is a consumer group reading a Stream.
type Sink interface {
	// Events delivers entries as they arrive. Closed when the sink is
	// closed or the underlying stream is destroyed.
	Events() <-chan *streaming.Event
	// Ack acknowledges e, removing it from the group's pending list.
	Ack(ctx context.Context, e *streaming.Event) error
	// Close stops delivery and releases the sink's resources.
	Close(ctx context.Context)
}

type client struct {
	redis  *redis.Client
	maxLen int
}

// New constructs a Client backed by opts.Redis.
func New(opts Options) (Client, error) {
	if opts.Redis == nil {
		return nil, errors.New("streamout/pulse: redis client is required")
	}
	return &client{redis: opts.Redis, maxLen: opts.MaxLen}, nil
}

func (c *client) Stream(name string) (Stream, error) {
	if name == "" {
		return nil, errors.New("streamout/pulse: stream name is required")
	}
	var opts []streamopts.Stream
	if c.maxLen > 0 {
		opts = append(opts, streamopts.WithStreamMaxLen(c.maxLen))
	}
	s, err := streaming.NewStream(name, c.redis, opts...)
	if err != nil {
		return nil, fmt.Errorf("streamout/pulse: open stream %q: %w", name, err)
	}
	return &stream{s}, nil
}

func (c *client) Close(context.Context) error { return nil }

type stream struct{ s *streaming.Stream }

func (s *stream) Add(ctx context.Context, event string, payload []byte) (string, error) {
	if event == "" {
		return "", errors.New("streamout/pulse: event name is required")
	}
	id, err := s.s.Add(ctx, event, payload)
	if err != nil {
		return "", fmt.Errorf("streamout/pulse: add: %w", err)
	}
	return id, nil
}

func (s *stream) Sink(ctx context.Context, name string) (Sink, error) {
	sink, err := s.s.NewSink(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("streamout/pulse: sink %q: %w", name, err)
	}
	return &sinkAdapter{sink}, nil
}

type sinkAdapter struct{ *streaming.Sink }

func (s *sinkAdapter) Events() <-chan *streaming.Event { return s.Sink.Subscribe() }
func (s *sinkAdapter) Close(ctx context.Context)        { s.Sink.Close(ctx) }
