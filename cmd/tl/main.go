package main

import (
	"context"
	"fmt"
	"os"

	"task-list/internal/cli"
)

func main() {
	factory := NewRuntimeFactory(getEnvironment())

	root := cli.NewRootCommand(factory.Build)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}

	if cfg := root.Config(); cfg != nil && cfg.Application.Verbose {
		fmt.Fprintf(os.Stderr, "Storage: %s\n", databaseLabel(cfg))
	}
}
