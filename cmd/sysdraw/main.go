package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sysdraw",
		Short:        "Inspect, render and sync sysdraw diagrams",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(validateCmd())
	root.AddCommand(thumbnailCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(routeCmd())
	root.AddCommand(pullCmd())
	root.AddCommand(pushCmd())
	root.AddCommand(draftsCmd())
	root.AddCommand(tokenCmd())
	return root
}
