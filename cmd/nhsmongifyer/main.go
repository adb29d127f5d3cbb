// Package main provides the entry point for the nhsmongifyer CLI.
package main

import (
	"context"
	"os"
	"time"

	"github.com/panevka/nhsmongifyer/cmd/nhsmongifyer/app"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	runErr := application.Execute(ctx, os.Args[1:])

	// The signal context may already be cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		application.Logger().Error().Err(err).Msg("Shutdown error")
	}

	app.ExitOnError(runErr)
}
