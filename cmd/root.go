/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nova-jack/novafusion/config"
	"github.com/nova-jack/novafusion/internal/log"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "novafusion",
	Short: "NovaFusion site API and admin tooling",
	Long: `NovaFusion serves the public site API and the admin panel API for
blogs, portfolio projects, services and enquiries.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it with a
// context that is cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadRuntime reads the environment and builds the process logger.
func loadRuntime() (config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, log.New(cfg.Env, cfg.LogLevel), nil
}
