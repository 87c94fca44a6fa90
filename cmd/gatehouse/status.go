// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/store"
)

// serviceStatus holds the health information the status command reports.
type serviceStatus struct {
	DatabaseReachable bool   `json:"database_reachable"`
	DatabaseError     string `json:"database_error,omitempty"`
	MigrationVersion  uint   `json:"migration_version"`
	MigrationDirty    bool   `json:"migration_dirty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check database connectivity and schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	registerConfigFlags(cmd.Flags())

	return cmd
}

func runStatus(cmd *cobra.Command, statusCfg *statusConfig) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	status := serviceStatus{}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	pool, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		status.DatabaseError = err.Error()
	} else {
		status.DatabaseReachable = true
		pool.Close()

		m, migErr := store.NewMigrator(cfg.DatabaseURL)
		if migErr != nil {
			status.DatabaseError = migErr.Error()
		} else {
			v, dirty, verErr := m.Version()
			if verErr != nil {
				status.DatabaseError = verErr.Error()
			} else {
				status.MigrationVersion = v
				status.MigrationDirty = dirty
			}
			//nolint:errcheck // read-only inspection, close failure is not actionable
			m.Close()
		}
	}

	if statusCfg.jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return oops.With("operation", "marshal status").Wrap(err)
		}
		cmd.Println(string(data))
		return nil
	}

	if status.DatabaseReachable {
		cmd.Println("database: reachable")
	} else {
		cmd.Printf("database: unreachable (%s)\n", status.DatabaseError)
	}
	if status.MigrationDirty {
		cmd.Printf("schema version: %d (dirty)\n", status.MigrationVersion)
	} else {
		cmd.Printf("schema version: %d\n", status.MigrationVersion)
	}

	return nil
}
