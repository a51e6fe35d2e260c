package streamout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/streamout/clients/pulse"
)

// Subscriber tails a request's stream-output Pulse stream and decodes each
// entry back into an Envelope.
type Subscriber struct {
	client pulse.Client
	group  string
}

// NewSubscriber constructs a Subscriber. group names the Pulse consumer
// group; distinct groups each receive every entry independently.
func NewSubscriber(client pulse.Client, group string) *Subscriber {
	if group == "" {
		group = "workflow-engine"
	}
	return &Subscriber{client: client, group: group}
}

// Tail opens the stream for requestID and returns a channel of decoded
// envelopes plus a cancel function. The channel closes when ctx is done or
// the sink is closed; decode failures are sent on errs and stop tailing.
func (s *Subscriber) Tail(ctx context.Context, requestID ident.RequestID) (<-chan Envelope, <-chan error, context.CancelFunc, error) {
	str, err := s.client.Stream(StreamName(requestID))
	if err != nil {
		return nil, nil, nil, err
	}
	sink, err := str.Sink(ctx, s.group)
	if err != nil {
		return nil, nil, nil, err
	}

	out := make(chan Envelope, 64)
	errs := make(chan error, 1)
	runCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(out)
		defer close(errs)
		for {
			select {
			case <-runCtx.Done():
				return
			case entry, ok := <-sink.Events():
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal(entry.Payload, &env); err != nil {
					errs <- fmt.Errorf("streamout: decode entry: %w", err)
					return
				}
				select {
				case out <- env:
				case <-runCtx.Done():
					return
				}
				if err := sink.Ack(runCtx, entry); err != nil {
					errs <- fmt.Errorf("streamout: ack entry: %w", err)
					return
				}
			}
		}
	}()

	return out, errs, func() {
		cancel()
		sink.Close(context.Background())
	}, nil
}
