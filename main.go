package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alpha19/ginst/internal/ginst"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	// First signal cancels the pipeline gracefully, a second one
	// forces an immediate exit.
	go func() {
		sig := <-sigs
		fmt.Printf("\n[INFO] Received %v. Cancelling...\n", sig)
		cancel()
		<-sigs
		fmt.Println("\n[FATAL] Second interrupt received. Forcing immediate exit.")
		os.Exit(130)
	}()

	os.Exit(ginst.Run(ctx, os.Args[1:]))
}
