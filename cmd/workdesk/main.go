// Package main provides the workdesk command: the HTTP API and the SLA watcher.
package main

import (
	"context"
	"os"

	"github.com/workdesk/workdesk/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("workdesk")

	cmd := &cli.Command{
		Name:                  "workdesk",
		Usage:                 "Run human-in-the-loop workflows",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			RunAPICommand(),
			RunSLAWatchCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("workdesk failed", "error", err)
		os.Exit(1)
	}
}
