package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/netharden/netharden/internal/application"
	"github.com/netharden/netharden/internal/domain"
	"github.com/netharden/netharden/internal/domain/plan"
)

// registerTools registers the netharden MCP tools on the given server.
func registerTools(s *server.MCPServer, deps Deps) {
	// 1. network_hardening_audit
	s.AddTool(
		mcplib.NewTool("network_hardening_audit",
			mcplib.WithDescription("Audit the network controller configuration against a security policy and return findings with a phased hardening plan"),
			mcplib.WithString("policy_file",
				mcplib.Description("Path to a YAML or JSON policy file (empty uses the built-in default policy)"),
			),
			mcplib.WithBoolean("run_scan",
				mcplib.Description("Also run a local nmap scan of the given subnets"),
			),
			mcplib.WithArray("scan_subnets",
				mcplib.Description("Subnets in CIDR notation to scan (e.g. 192.168.1.0/24)"),
				mcplib.WithStringItems(),
			),
		),
		handleAudit(deps.Audit),
	)

	// 2. network_apply_hardening_plan
	s.AddTool(
		mcplib.NewTool("network_apply_hardening_plan",
			mcplib.WithDescription("Preview or apply a hardening plan produced by the audit, phase by phase with connectivity checks"),
			mcplib.WithString("plan",
				mcplib.Required(),
				mcplib.Description("The hardening plan as a JSON object with a changes array"),
			),
			mcplib.WithBoolean("confirm",
				mcplib.Description("Actually apply the changes (default is a preview)"),
			),
			mcplib.WithBoolean("phased",
				mcplib.Description("Apply phase by phase in ascending order (default true)"),
			),
			mcplib.WithBoolean("stop_on_failure",
				mcplib.Description("Stop after the first failed phase (default true)"),
			),
		),
		handleApplyPlan(deps.Apply),
	)

	// 3. unifi_apply_changes
	s.AddTool(
		mcplib.NewTool("unifi_apply_changes",
			mcplib.WithDescription("Diff requested WiFi, firewall, VLAN, and UPnP edits against the live configuration and apply them"),
			mcplib.WithString("changes",
				mcplib.Required(),
				mcplib.Description("The edit set as a JSON object with wifi_edits, firewall_edits, vlan_edits, and/or upnp_edits"),
			),
			mcplib.WithBoolean("dry_run",
				mcplib.Description("Compute and return the diff without applying anything (default true; set false to apply)"),
			),
		),
		handleApplyChanges(deps.Apply),
	)
}

func handleAudit(svc *application.AuditService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		req := application.AuditRequest{
			PolicyRef:   request.GetString("policy_file", ""),
			RunScan:     request.GetBool("run_scan", false),
			ScanSubnets: request.GetStringSlice("scan_subnets", nil),
		}

		return jsonResult(svc.Run(ctx, req))
	}
}

func handleApplyPlan(svc *application.ApplyService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		raw, err := request.RequireString("plan")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		var hp domain.HardeningPlan
		if err := validateAndDecode(compiledPlanSchema, raw, &hp); err != nil {
			return errorResult(fmt.Sprintf("invalid plan: %v", err)), nil
		}

		result := svc.ApplyPlan(ctx, hp, application.ApplyPlanOptions{
			Confirm:       request.GetBool("confirm", false),
			Phased:        request.GetBool("phased", true),
			StopOnFailure: request.GetBool("stop_on_failure", true),
		})
		return jsonResult(result)
	}
}

func handleApplyChanges(svc *application.ApplyService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		raw, err := request.RequireString("changes")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		var edits plan.EditSet
		if err := validateAndDecode(compiledEditSetSchema, raw, &edits); err != nil {
			return errorResult(fmt.Sprintf("invalid changes: %v", err)), nil
		}

		// Previews by default: mutating the controller takes an
		// explicit dry_run=false.
		result := svc.ApplyChanges(ctx, edits, request.GetBool("dry_run", true))
		return jsonResult(result)
	}
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
