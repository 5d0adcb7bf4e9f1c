package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/uptix/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	err := c.RootCommand().ExecuteContext(ctx)
	if err != nil && ctx.Err() != nil {
		// Standard shell convention for SIGINT, whatever the cancellation
		// surfaced as.
		return cli.ExitInterrupted
	}
	cli.PrintError(os.Stderr, err)
	return cli.ExitCode(err)
}
