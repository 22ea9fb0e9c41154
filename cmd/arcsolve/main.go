// Command arcsolve runs the ARC solver from the terminal: batch evaluation,
// interactive solving with analyst critiques, and fine-tuning job management.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, in: os.Stdin}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "arcsolve:", err)
		os.Exit(1)
	}
}
