// Package main is the entry point for the Mirage campaign simulation
// engine.
package main

import (
	"context"
	"fmt"
	"os"

	"mirage/bootstrap"
	"mirage/cmd"
)

// serve initializes the full application and runs the HTTP API.
func serve() error {
	ctx := context.Background()

	app, err := bootstrap.NewApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Serve(ctx)
}

func main() {
	// CLI mode: mirage run [flags]
	if len(os.Args) > 1 && os.Args[1] == "run" {
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
		runCmd := cmd.NewRunCmd()
		if err := runCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	// Otherwise run as the API server
	if err := serve(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
