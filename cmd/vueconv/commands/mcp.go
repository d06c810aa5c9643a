package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/vueconv/pkg/mcp"
	"github.com/Sumatoshi-tech/vueconv/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the converter as tools that AI agents can discover
and invoke:
  - vue_convert: Convert a class component to the Composition API
  - vue_inspect: Classify the members of a class component`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			opts, err := cfg.ConvertOptions()
			if err != nil {
				return err
			}

			cfg.Logging.JSON = true

			providers, err := initObservability(cmd, cfg, observability.ModeMCP, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer shutdown(providers)

			red, conversion, err := newMetrics(providers)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:     providers.Logger,
				Metrics:    red,
				Conversion: conversion,
				Tracer:     providers.Tracer,
				Options:    &opts,
			})

			return srv.Run(cmd.Context())
		},
	}

	return cmd
}
