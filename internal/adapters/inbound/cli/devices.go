package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netharden/netharden/internal/adapters/outbound/tui"
)

func newDevicesCmd(logLevel *string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List adopted controller devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := newServices(cmd, *logLevel)
			if err != nil {
				return err
			}
			defer svcs.client.Logout(cmd.Context())

			devices, err := svcs.client.GetDevices(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching devices: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd, devices)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderDevices(devices))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output devices as JSON")

	return cmd
}
