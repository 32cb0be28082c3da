package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netharden/netharden/internal/adapters/outbound/tui"
	"github.com/netharden/netharden/internal/application"
	"github.com/netharden/netharden/internal/domain"
)

func newApplyCmd(logLevel *string) *cobra.Command {
	var (
		planFile      string
		confirm       bool
		phased        bool
		stopOnFailure bool
		jsonOutput    bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Preview or apply a hardening plan",
		Long:  "Apply a hardening plan produced by the audit, phase by phase with connectivity checks. Without --confirm the plan is only previewed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(planFile)
			if err != nil {
				return fmt.Errorf("reading plan: %w", err)
			}
			var hp domain.HardeningPlan
			if err := json.Unmarshal(data, &hp); err != nil {
				return fmt.Errorf("parsing plan: %w", err)
			}

			svcs, err := newServices(cmd, *logLevel)
			if err != nil {
				return err
			}
			defer svcs.client.Logout(cmd.Context())

			result := svcs.apply.ApplyPlan(cmd.Context(), hp, application.ApplyPlanOptions{
				Confirm:       confirm,
				Phased:        phased,
				StopOnFailure: stopOnFailure,
			})

			if jsonOutput {
				return writeJSON(cmd, result)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderPlanResult(result))
			if !result.Success {
				return fmt.Errorf("plan apply failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&planFile, "plan", "", "Hardening plan JSON file")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Actually apply the changes")
	cmd.Flags().BoolVar(&phased, "phased", true, "Apply phase by phase in ascending order")
	cmd.Flags().BoolVar(&stopOnFailure, "stop-on-failure", true, "Stop after the first failed phase")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}
