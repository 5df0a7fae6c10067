// Package main provides the main entry point for the study assistant admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"studyapp/cmd/adm/commands"
	"studyapp/internal/config"
	"studyapp/internal/observability"
	"studyapp/internal/store"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Admin runs are short lived; keep them quiet and offline.
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableLogging = false

	_, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "studyapp-admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	db, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		logger.Error(ctx, "Failed to open object store", err, map[string]interface{}{"path": cfg.Store.Path})
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn(ctx, "Failed to close object store", map[string]interface{}{"error": err.Error()})
		}
	}()

	library := store.NewLibrary(db)

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Study Assistant Administration Tool",
		Long: `Study Assistant Administration Tool

A CLI tool for inspecting and maintaining the study assistant's object store.
Provides commands for saved books, summaries, tasks, and the resume session.`,

		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.BookCommands(library, logger))
	rootCmd.AddCommand(commands.SummaryCommands(library, logger))
	rootCmd.AddCommand(commands.TaskCommands(library, logger))
	rootCmd.AddCommand(commands.SessionCommands(library, logger))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
