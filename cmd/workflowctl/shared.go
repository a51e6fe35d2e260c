package main

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/goadesign/workflow-engine/config"
	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/event/inmem"
	eventredis "github.com/goadesign/workflow-engine/event/redis"
	"github.com/goadesign/workflow-engine/node"
	"github.com/goadesign/workflow-engine/workflow"
)

// storeFor returns the in-memory store, or a Redis-backed one when
// --redis-addr is set on the root command.
func storeFor(cmd *cobra.Command) (event.Store, error) {
	addr, _ := cmd.Root().PersistentFlags().GetString("redis-addr")
	if addr == "" {
		return inmem.New(), nil
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	store, err := eventredis.New(eventredis.Options{Client: client})
	if err != nil {
		return nil, fmt.Errorf("connect redis store at %s: %w", addr, err)
	}
	return store, nil
}

// echoRegistry builds a config.CommandRegistry with one echo command per
// node named in doc: each republishes its input content, prefixed, so a
// topology can be driven and inspected without Go code.
func echoRegistry(doc *config.Document, prefix string) config.CommandRegistry {
	commands := make(config.CommandRegistry, len(doc.Nodes))
	for _, nd := range doc.Nodes {
		commands[nd.Name] = node.EchoCommand(prefix + nd.Name + ": ")
	}
	return commands
}

// loadTopology parses path and compiles it into a ready-to-build
// workflow.Builder backed by store, wired with an echo command per node.
func loadTopology(path, echoPrefix string, store event.Store) (*workflow.Builder, *config.Document, error) {
	doc, err := config.ParseFile(path)
	if err != nil {
		return nil, nil, err
	}
	b, err := config.Compile(doc, nil, echoRegistry(doc, echoPrefix))
	if err != nil {
		return nil, nil, err
	}
	b.WithStore(store)
	return b, doc, nil
}
