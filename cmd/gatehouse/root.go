// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gatehouse/gatehouse/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Gatehouse CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatehouse",
		Short: "Gatehouse - user registration and session authentication",
		Long: `Gatehouse is a self-hosted registration and login service.
Users sign up behind a CAPTCHA gate, authenticate with email and
password, and manage their account through a session cookie.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

// registerConfigFlags declares the flags that override config file values.
// Flag names match the koanf keys so posflag can map them directly.
func registerConfigFlags(flags *pflag.FlagSet) {
	flags.String("http_addr", config.DefaultHTTPAddr, "web server listen address")
	flags.String("metrics_addr", config.DefaultMetricsAddr, "observability server listen address")
	flags.String("database_url", "", "PostgreSQL connection URL")
	flags.String("log_format", config.DefaultLogFormat, "log output format (json or text)")
}

// loadConfig builds the effective configuration for a command from
// defaults, the --config file, and the command's own flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}
