package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

// contextWithTimeout derives the search context: the --timeout deadline,
// cancelled early on SIGINT or SIGTERM.
func contextWithTimeout(c *cli.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	if d := c.Duration("timeout"); d > 0 {
		tctx, cancel := context.WithTimeout(ctx, d)
		return tctx, func() {
			cancel()
			stop()
		}
	}
	return ctx, stop
}
