// Package main provides the entry point for the foundry CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/foundry/internal/cli"
)

// Set by the linker at release time.
//
//nolint:gochecknoglobals // ldflags targets
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx := context.Background()
	err := cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err != nil {
		os.Exit(cli.ExitCodeForError(err))
	}
}
