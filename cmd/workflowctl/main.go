// Command workflowctl loads a declarative workflow topology from YAML and
// drives it against input text given on the command line, printing the
// resulting event log.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "workflowctl",
	Short: "Load and drive a workflow-engine topology from a YAML document",
	Long: `workflowctl loads a declarative workflow topology (topics, admission
predicates, nodes, subscriptions) from a YAML file and drives it to
completion, printing the recorded event log.

Node commands are not expressible in YAML; workflowctl wires every node
named in the document to an echo command (it republishes its input
content, joined by spaces and prefixed with the node's name), which is
enough to exercise and inspect a topology's dispatch behavior without
writing Go.`,
	Version: "dev",
}

func init() {
	rootCmd.PersistentFlags().String("redis-addr", "", "Redis address for a durable event store (defaults to an in-memory store)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(validateCmd)
}
