package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netharden/netharden/internal/adapters/outbound/tui"
	"github.com/netharden/netharden/internal/domain/plan"
)

func newChangesCmd(logLevel *string) *cobra.Command {
	var (
		changesFile string
		dryRun      bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "changes",
		Short: "Diff and apply an edit set against the live configuration",
		Long:  "Read a JSON edit set (wifi_edits, firewall_edits, vlan_edits, upnp_edits), diff it against the live controller configuration, and apply the difference.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(changesFile)
			if err != nil {
				return fmt.Errorf("reading changes: %w", err)
			}
			var edits plan.EditSet
			if err := json.Unmarshal(data, &edits); err != nil {
				return fmt.Errorf("parsing changes: %w", err)
			}

			svcs, err := newServices(cmd, *logLevel)
			if err != nil {
				return err
			}
			defer svcs.client.Logout(cmd.Context())

			result := svcs.apply.ApplyChanges(cmd.Context(), edits, dryRun)

			if jsonOutput {
				return writeJSON(cmd, result)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderApplyResult(result))
			if !result.Success {
				return fmt.Errorf("apply failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&changesFile, "file", "", "Edit set JSON file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and show the diff without applying anything")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
