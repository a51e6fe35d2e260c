package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
)

var resumeCmd = &cobra.Command{
	Use:   "resume TOPOLOGY.yaml REQUEST_ID",
	Short: "Restore a request from the event store and drive it to completion",
	Long: `resume replays a request's stored history (requires --redis-addr,
since the in-memory store does not survive process restarts), surfaces
any outstanding human-in-the-loop ask with --reply, and drives the
request's ready queue to completion.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storeFor(cmd)
		if err != nil {
			return err
		}
		b, _, err := loadTopology(args[0], "", store)
		if err != nil {
			return err
		}
		wf, err := b.Build()
		if err != nil {
			return err
		}

		requestID := ident.RequestID(args[1])
		ic := invoke.Context{AssistantRequestID: requestID}
		ctx := context.Background()

		if err := wf.Initialize(ctx, ic, nil); err != nil {
			return fmt.Errorf("restore: %w", err)
		}

		reply, _ := cmd.Flags().GetString("reply")
		if reply != "" {
			asks, err := wf.PendingAsks(ctx, ic)
			if err != nil {
				return fmt.Errorf("pending asks: %w", err)
			}
			if len(asks) == 0 {
				return fmt.Errorf("no pending human-in-the-loop ask to reply to")
			}
			if err := wf.Reply(ctx, ic, asks[0], []*message.Message{message.New(message.RoleUser, reply)}); err != nil {
				return fmt.Errorf("reply: %w", err)
			}
		}

		if err := wf.Drive(ctx, ic); err != nil {
			return fmt.Errorf("drive: %w", err)
		}

		history, err := store.EventsForRequest(ctx, requestID)
		if err != nil {
			return err
		}
		printHistory(history)
		return nil
	},
}

func init() {
	resumeCmd.Flags().String("reply", "", "Answer an outstanding human-in-the-loop ask with this text before driving")
}
