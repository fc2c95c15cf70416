package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	novelistcmder "github.com/papercomputeco/novelist/cmd/novelist"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := novelistcmder.NewNovelistCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
