package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
)

var runCmd = &cobra.Command{
	Use:   "run TOPOLOGY.yaml \"input text\"",
	Short: "Initialize a fresh request against a topology and drive it to completion",
	Args:  cobra.ExactArgs(2),
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

		requestID := ident.RequestID(uuid.NewString())
		ic := invoke.Context{AssistantRequestID: requestID}
		ctx := context.Background()

		input := []*message.Message{message.New(message.RoleUser, args[1])}
		if err := wf.Initialize(ctx, ic, input); err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		if err := wf.Drive(ctx, ic); err != nil {
			return fmt.Errorf("drive: %w", err)
		}

		fmt.Printf("request_id: %s\n", requestID)
		history, err := store.EventsForRequest(ctx, requestID)
		if err != nil {
			return err
		}
		printHistory(history)
		return nil
	},
}
