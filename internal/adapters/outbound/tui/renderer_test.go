package tui_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netharden/netharden/internal/adapters/outbound/tui"
	"github.com/netharden/netharden/internal/application"
	"github.com/netharden/netharden/internal/domain"
	"github.com/netharden/netharden/internal/domain/diff"
)

func TestRenderAuditReport_WithFindings(t *testing.T) {
	report := &application.AuditReport{
		Success: true,
		Findings: []domain.Finding{
			{ID: "F001", Severity: domain.SeverityHigh, Title: "Open wireless network",
				Description: "SSID Cafe has no encryption", Remediation: "Enable WPA2 or WPA3"},
		},
		FindingsBySeverity: map[string]int{"high": 1},
		RecommendedChanges: []domain.RecommendedChange{
			{Category: domain.CategoryWifi, ChangeType: "update", Target: "Cafe", Phase: 1},
		},
		ScanResults: &domain.ScanResult{
			HostsUp: 1, HostsTotal: 1,
			Hosts: []domain.ScanHost{{IP: "192.168.1.10", Hostname: "printer",
				Ports: []domain.ScanPort{{Port: 9100, Protocol: "tcp", Service: "jetdirect"}}}},
		},
		Notes: []string{"Scanned 1 subnet"},
	}

	out := tui.RenderAuditReport(report)

	assert.Contains(t, out, "1 ISSUES FOUND")
	assert.Contains(t, out, "F001")
	assert.Contains(t, out, "Open wireless network")
	assert.Contains(t, out, "fix: Enable WPA2 or WPA3")
	assert.Contains(t, out, "Recommended changes")
	assert.Contains(t, out, "phase 1")
	assert.Contains(t, out, "192.168.1.10 (printer)")
	assert.Contains(t, out, "9100/tcp")
	assert.Contains(t, out, "Scanned 1 subnet")
}

func TestRenderAuditReport_Clean(t *testing.T) {
	out := tui.RenderAuditReport(&application.AuditReport{Success: true})
	assert.Contains(t, out, "NO ISSUES FOUND")
}

func TestRenderAuditReport_Failure(t *testing.T) {
	out := tui.RenderAuditReport(&application.AuditReport{Success: false, Error: "Authentication error: invalid credentials"})
	assert.Contains(t, out, "AUDIT FAILED")
	assert.Contains(t, out, "Authentication error")
}

func TestRenderDiff(t *testing.T) {
	result := diff.Result{
		HasChanges: true,
		Summary:    "1 WiFi change(s) planned",
		Changes: []diff.ConfigChange{
			{Action: diff.ActionUpdate, ItemType: "wifi", ItemName: "Cafe",
				Changes: []diff.FieldChange{{Field: "security", OldValue: "open", NewValue: "wpapsk"}}},
		},
	}

	out := tui.RenderDiff(result)

	assert.Contains(t, out, "UPDATE")
	assert.Contains(t, out, "Cafe")
	assert.Contains(t, out, "security:")
	assert.Contains(t, out, "wpapsk")
}

func TestRenderDiff_NoChanges(t *testing.T) {
	out := tui.RenderDiff(diff.Result{Summary: "No changes needed"})
	assert.Contains(t, out, "No changes needed")
}

func TestRenderApplyResult(t *testing.T) {
	result := &application.ApplyChangesResult{
		Success: false,
		Diff:    diff.Result{HasChanges: true, Summary: "2 change(s) planned"},
		Results: []application.ChangeResult{
			{Success: true, ItemType: "upnp", ItemName: "upnp_settings", Action: "update"},
			{Success: false, ItemType: "wifi", ItemName: "Cafe", Action: "update", Error: "api.err.Invalid"},
		},
		ChangesApplied: 1,
		ChangesFailed:  1,
	}

	out := tui.RenderApplyResult(result)

	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "api.err.Invalid")
	assert.Contains(t, out, "1 applied, 1 failed")
}

func TestRenderApplyResult_DryRun(t *testing.T) {
	out := tui.RenderApplyResult(&application.ApplyChangesResult{
		Success: true,
		DryRun:  true,
		Diff:    diff.Result{HasChanges: true, Summary: "1 change(s) planned"},
	})
	assert.Contains(t, out, "Dry run: nothing was applied.")
}

func TestRenderPlanResult_Preview(t *testing.T) {
	out := tui.RenderPlanResult(&application.PlanResult{
		Success:      true,
		PreviewOnly:  true,
		TotalChanges: 3,
		Phases: []application.PhaseResult{
			{PhaseNumber: 1, Description: "Low-risk changes", ChangeCount: 2},
			{PhaseNumber: 3, Description: "VLAN changes", ChangeCount: 1},
		},
		Warnings: []string{"This is a preview. Set confirm=true to apply changes."},
	})

	assert.Contains(t, out, "Hardening plan preview")
	assert.Contains(t, out, "Phase 1")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "Set confirm=true")
}

func TestRenderPlanResult_AppliedWithSkip(t *testing.T) {
	out := tui.RenderPlanResult(&application.PlanResult{
		Success:      false,
		TotalApplied: 1,
		TotalFailed:  1,
		Phases: []application.PhaseResult{
			{PhaseNumber: 1, Description: "Low-risk changes", ChangeCount: 1, Applied: true, Success: true},
			{PhaseNumber: 2, Description: "Firewall rule changes", ChangeCount: 1, Applied: true, Success: false},
			{PhaseNumber: 3, Description: "VLAN changes", ChangeCount: 1, Applied: false,
				Warnings: []string{"Skipped due to previous phase failure"}},
		},
	})

	assert.Contains(t, out, "1 applied, 1 failed")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "Skipped due to previous phase failure")
}

func TestRenderDevices(t *testing.T) {
	out := tui.RenderDevices([]domain.Device{
		{Name: "Dream Machine", Model: "UDM-Pro", Type: "gateway", IP: "192.168.1.1"},
	})
	assert.Contains(t, out, "1 found")
	assert.Contains(t, out, "Dream Machine")
	assert.Contains(t, out, "UDM-Pro")
}
