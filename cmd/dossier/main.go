// Command dossier runs scans and maintenance operations against the
// personnel document store from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cc := &commandContext{}
	err := newRootCommand(cc).ExecuteContext(ctx)
	if cerr := cc.close(); cerr != nil {
		fmt.Fprintln(os.Stderr, "shutdown:", cerr)
	}
	stop()

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
