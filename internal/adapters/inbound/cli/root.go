// Package cli wires the hardening engine into a cobra command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netharden/netharden/internal/adapters/outbound/config"
	policyadapter "github.com/netharden/netharden/internal/adapters/outbound/policy"
	"github.com/netharden/netharden/internal/adapters/outbound/scan"
	"github.com/netharden/netharden/internal/adapters/outbound/unifi"
	"github.com/netharden/netharden/internal/application"
	"github.com/netharden/netharden/internal/log"
)

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "netharden",
		Short:         "Audit and harden your UniFi network",
		Long:          "netharden audits a UniFi controller against a security policy, plans the fixes, and applies them phase by phase with connectivity checks.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newAuditCmd(&logLevel))
	cmd.AddCommand(newApplyCmd(&logLevel))
	cmd.AddCommand(newChangesCmd(&logLevel))
	cmd.AddCommand(newDevicesCmd(&logLevel))
	cmd.AddCommand(newMCPCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}

// services bundles everything a command needs against one controller.
type services struct {
	settings config.Settings
	audit    *application.AuditService
	apply    *application.ApplyService
	client   *unifi.Client
}

// newServices loads the configuration and builds the standard adapter
// and service stack.
func newServices(cmd *cobra.Command, logLevel string) (*services, error) {
	logger := log.New(cmd.ErrOrStderr(), logLevel)

	settings, err := config.Load(".")
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
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
		return nil, fmt.Errorf("building controller client: %w", err)
	}

	scanner := scan.NewNmap(logger)
	if settings.NmapPath != "" {
		scanner.Path = settings.NmapPath
	}
	if settings.NmapTimeoutSecs > 0 {
		scanner.Timeout = settings.NmapTimeout()
	}

	return &services{
		settings: settings,
		audit:    application.NewAuditService(client, policyadapter.NewFileSource(), scanner, logger),
		apply:    application.NewApplyService(client, logger),
		client:   client,
	}, nil
}
