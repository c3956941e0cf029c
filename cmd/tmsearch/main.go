// Command tmsearch serves and queries the trademark register.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/trademark-search/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		cli.PrintError(root, err)
		stop()
		os.Exit(1)
	}
}
