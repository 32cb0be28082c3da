package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netharden/netharden/internal/adapters/outbound/tui"
	"github.com/netharden/netharden/internal/application"
)

func newAuditCmd(logLevel *string) *cobra.Command {
	var (
		policyFile string
		runScan    bool
		subnets    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit the controller configuration against a security policy",
		Long:  "Fetch the live controller configuration, evaluate it against a security policy, and print findings with a phased hardening plan.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := newServices(cmd, *logLevel)
			if err != nil {
				return err
			}
			defer svcs.client.Logout(cmd.Context())

			req := application.AuditRequest{
				PolicyRef: policyFile,
				RunScan:   runScan,
			}
			for _, s := range strings.Split(subnets, ",") {
				if s = strings.TrimSpace(s); s != "" {
					req.ScanSubnets = append(req.ScanSubnets, s)
				}
			}

			report := svcs.audit.Run(cmd.Context(), req)

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderAuditReport(report))
			if !report.Success {
				return fmt.Errorf("audit failed: %s", report.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&policyFile, "policy", "", "Policy file (YAML or JSON); empty uses the built-in default")
	cmd.Flags().BoolVar(&runScan, "scan", false, "Also run a local nmap scan")
	cmd.Flags().StringVar(&subnets, "subnets", "", "Comma-separated subnets in CIDR notation to scan")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")

	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
