package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcpadapter "github.com/netharden/netharden/internal/adapters/inbound/mcp"
	"github.com/netharden/netharden/internal/adapters/outbound/config"
	policyadapter "github.com/netharden/netharden/internal/adapters/outbound/policy"
	"github.com/netharden/netharden/internal/adapters/outbound/scan"
	"github.com/netharden/netharden/internal/adapters/outbound/unifi"
	"github.com/netharden/netharden/internal/application"
	"github.com/netharden/netharden/internal/log"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the netharden MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd())
	return cmd
}

func newMCPServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the netharden MCP server (stdio)",
		Long:  "Start the netharden MCP server using stdio transport, exposing the audit, plan apply, and change request tools to AI assistants.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdio carries the protocol, so logging is discarded.
			logger := log.Discard()

			settings, err := config.Load(".")
			if err != nil {
				return err
			}
			if err := settings.Validate(); err != nil {
				return err
			}

			client, err := unifi.NewClient(unifi.Config{
				BaseURL:   settings.ControllerURL,
				Username:  settings.Username,
				Password:  settings.Password,
				Site:      settings.Site,
				VerifySSL: settings.VerifySSL,
				Timeout:   settings.Timeout(),
			}, logger)
			if err != nil {
				return err
			}

			scanner := scan.NewNmap(logger)
			if settings.NmapPath != "" {
				scanner.Path = settings.NmapPath
			}

			s := mcpadapter.NewServer(version, mcpadapter.Deps{
				Audit: application.NewAuditService(client, policyadapter.NewFileSource(), scanner, logger),
				Apply: application.NewApplyService(client, logger),
			})
			return server.ServeStdio(s)
		},
	}

	return cmd
}
