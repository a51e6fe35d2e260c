package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/goadesign/workflow-engine/ancestor"
	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
	"github.com/goadesign/workflow-engine/node"
	"github.com/goadesign/workflow-engine/subscription"
	"github.com/goadesign/workflow-engine/toolspec"
	"github.com/goadesign/workflow-engine/topic"
)

// Initialize starts or resumes a request: if the event store has no
// events for invoke_context.assistant_request_id, input_messages
// are published to the reserved input topic and a WorkflowInvoke event is
// recorded. Otherwise the stored history is replayed (restore path) and
// any node whose NodeInvoke has no matching NodeRespond is re-enqueued.
// Either way, Drive must be called afterward to run the dispatch loop to
// completion.
func (w *Workflow) Initialize(ctx context.Context, ic invoke.Context, inputMessages []*message.Message) error {
	requestID := ident.RequestID(ic.AssistantRequestID)

	has, err := w.Store.HasEventsForRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("workflow: checking request history: %w", err)
	}

	r := w.runFor(requestID)

	if !has {
		inv := event.New(event.TypeWorkflowInvoke, ic)
		if err := w.Store.Append(ctx, inv); err != nil {
			return err
		}

		pub, err := r.input.Publish(ctx, ic, "facade", "facade", inputMessages, nil)
		if err != nil {
			return err
		}
		if pub != nil {
			if err := w.Store.Append(ctx, pub); err != nil {
				return err
			}
		}
		return nil
	}

	return w.restore(ctx, ic, r)
}

// Drive runs the dispatch loop to completion: it pops ready nodes,
// processes them, and terminates when the ready queue drains. It records
// WorkflowRespond on a clean drain. Call with Workers
// goroutines already implied by Mode/Workers; Drive manages its own
// worker pool internally.
func (w *Workflow) Drive(ctx context.Context, ic invoke.Context) error {
	requestID := ident.RequestID(ic.AssistantRequestID)
	r := w.runFor(requestID)

	workers := w.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		firstErr error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				name, ok := r.queue.pop()
				if !ok {
					return
				}
				err := w.runNode(ctx, ic, r, name)
				r.queue.done()
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		fail := event.New(event.TypeWorkflowFailed, ic)
		fail.Error = firstErr.Error()
		_ = w.Store.Append(ctx, fail)
		return firstErr
	}

	respond := event.New(event.TypeWorkflowRespond, ic)
	return w.Store.Append(ctx, respond)
}

// runNode enforces the at-most-one-instance guard (P5), then dispatches
// to processNode.
func (w *Workflow) runNode(ctx context.Context, ic invoke.Context, r *run, name ident.Node) error {
	r.inFlightMu.Lock()
	if r.inFlight[name] {
		r.inFlightMu.Unlock()
		// Another instance is already executing; the node will be
		// re-evaluated for readiness when that instance completes (see
		// the deferred check below), so dropping this duplicate dispatch
		// is safe.
		return nil
	}
	r.inFlight[name] = true
	r.inFlightMu.Unlock()

	defer func() {
		r.inFlightMu.Lock()
		delete(r.inFlight, name)
		r.inFlightMu.Unlock()
		if n := w.NodeDefs[name]; n != nil && w.nodeReady(r, n) {
			r.queue.enqueue(name)
		}
	}()

	n := w.NodeDefs[name]
	if n == nil {
		return nil
	}
	return w.processNode(ctx, ic, r, n)
}

// processNode collects a node's unread input, records NodeInvoke,
// invokes its command, and on success records the ConsumeFromTopic events
// for that input, NodeRespond, and a PublishToTopic event for each
// publish_to topic. A failed invocation writes no ConsumeFromTopic
// records, so the stored history still shows its input as unread.
func (w *Workflow) processNode(ctx context.Context, ic invoke.Context, r *run, n *node.Node) error {
	if !w.nodeReady(r, n) {
		// Readiness changed between enqueue and dispatch (stale wakeup in
		// parallel mode); nothing to do.
		return nil
	}

	requestID := ident.RequestID(ic.AssistantRequestID)
	subscribedTopics := subscription.Topics(n.Subscription)

	var inputEvents, consumeEvents []*event.Event
	for _, topicName := range subscribedTopics {
		t, ok := r.topics[topicName]
		if !ok {
			continue
		}
		if !w.topicHasFreshInput(r, n, topicName, t) {
			continue
		}
		consumed, err := t.Consume(ctx, n.Name, n.Type)
		if err != nil {
			return &ProtocolError{Reason: fmt.Sprintf("consume from %q", topicName), Cause: err}
		}
		for _, pub := range consumed {
			ce := event.New(event.TypeConsume, ic)
			ce.TopicName = topicName
			ce.Offset = pub.Offset
			ce.ConsumerName = string(n.Name)
			ce.ConsumerType = n.Type
			consumeEvents = append(consumeEvents, ce)
		}
		inputEvents = append(inputEvents, consumed...)
	}

	if len(inputEvents) == 0 {
		return nil
	}

	invokeEvt := event.New(event.TypeNodeInvoke, ic)
	invokeEvt.NodeID = n.ID
	invokeEvt.NodeName = n.Name
	invokeEvt.NodeType = n.Type
	invokeEvt.SubscribedTopics = subscribedTopics
	invokeEvt.PublishToTopics = n.PublishTo
	invokeEvt.InputData = inputEvents
	if err := w.Store.Append(ctx, invokeEvt); err != nil {
		return err
	}
	w.Logger.Info(ctx, "node invoke", "node", string(n.Name))

	if len(n.FunctionSpecs) > 0 {
		if err := validateToolCalls(inputEvents, n.FunctionSpecs); err != nil {
			failEvt := event.New(event.TypeNodeFailed, ic)
			failEvt.NodeID = n.ID
			failEvt.NodeName = n.Name
			failEvt.NodeType = n.Type
			failEvt.Error = (&CommandError{Node: string(n.Name), Cause: err}).Error()
			w.Logger.Error(ctx, "node call rejected by schema", "node", string(n.Name), "error", err)
			return w.Store.Append(ctx, failEvt)
		}
	}

	history, err := w.Store.EventsForRequest(ctx, requestID)
	if err != nil {
		return err
	}
	ordered, err := ancestor.Build(inputEvents, ancestor.MapLookup(history))
	if err != nil {
		return &ProtocolError{Reason: "ancestor graph assembly", Cause: err}
	}

	output, cmdErr := n.Command.Run(ctx, ic, ordered)
	if cmdErr != nil {
		failEvt := event.New(event.TypeNodeFailed, ic)
		failEvt.NodeID = n.ID
		failEvt.NodeName = n.Name
		failEvt.NodeType = n.Type
		failEvt.Error = (&CommandError{Node: string(n.Name), Cause: cmdErr}).Error()
		w.Logger.Error(ctx, "node failed", "node", string(n.Name), "error", cmdErr)
		return w.Store.Append(ctx, failEvt)
	}

	for _, ce := range consumeEvents {
		if err := w.Store.Append(ctx, ce); err != nil {
			return err
		}
	}

	respondEvt := event.New(event.TypeNodeRespond, ic)
	respondEvt.NodeID = n.ID
	respondEvt.NodeName = n.Name
	respondEvt.NodeType = n.Type
	respondEvt.OutputData = output
	if err := w.Store.Append(ctx, respondEvt); err != nil {
		return err
	}

	consumedIDs := make([]string, len(inputEvents))
	for i, e := range inputEvents {
		consumedIDs[i] = e.ID
	}

	stamped := stampFunctions(output, n.DiscoveredFunctions)
	for _, topicName := range n.PublishTo {
		pub, err := w.publishToTopic(ctx, r, topicName, ic, string(n.Name), n.Type, stamped, consumedIDs)
		if err != nil {
			return err
		}
		if pub != nil {
			if err := w.Store.Append(ctx, pub); err != nil {
				return err
			}
		}
	}

	return nil
}

// publishToTopic dispatches a node's result to one publish_to topic,
// routing human_request_topic publishes through AskUser so they are
// tagged HumanAsk instead of the generic Publish path every other topic
// uses.
func (w *Workflow) publishToTopic(ctx context.Context, r *run, topicName ident.Topic, ic invoke.Context, publisherName, publisherType string, messages []*message.Message, consumedEventIDs []string) (*event.Event, error) {
	if topicName == HumanRequestName {
		if len(messages) == 0 {
			return nil, nil
		}
		return r.human.AskUser(ctx, ic, publisherName, publisherType, messages[0])
	}
	t, ok := r.topics[topicName]
	if !ok {
		return nil, nil
	}
	return t.Publish(ctx, ic, publisherName, publisherType, messages, consumedEventIDs)
}

// topicHasFreshInput special-cases the human-request topic: it counts as
// fresh for a node only while a user reply (not merely an ask) is unread.
// The Consume that follows still takes every unread event on the topic,
// asks included.
func (w *Workflow) topicHasFreshInput(r *run, n *node.Node, topicName ident.Topic, t *topic.Topic) bool {
	if topicName == HumanRequestName {
		return r.human.HasUnreadReply(n.Name)
	}
	return t.CanConsume(n.Name)
}

// validateToolCalls checks every ToolCall carried on events' messages
// against specs, rejecting the node's invocation before its command runs
// if an upstream LLM-caller requested a call with arguments that don't
// match the advertised JSON Schema.
func validateToolCalls(events []*event.Event, specs []node.FunctionSpec) error {
	for _, e := range events {
		for _, m := range e.Data {
			for _, call := range m.ToolCalls {
				if err := toolspec.ValidateCall(call, specs); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// stampFunctions attaches discovered function specs to every outbound
// message, returning a copy so the command's original result slice is
// left untouched.
func stampFunctions(messages []*message.Message, specs []node.FunctionSpec) []*message.Message {
	if len(specs) == 0 || len(messages) == 0 {
		return messages
	}
	out := make([]*message.Message, len(messages))
	for i, m := range messages {
		cp := *m
		cp.AvailableFunctions = specs
		out[i] = &cp
	}
	return out
}
