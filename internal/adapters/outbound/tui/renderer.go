// Package tui renders audit reports, diffs, and apply results for the
// terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/netharden/netharden/internal/application"
	"github.com/netharden/netharden/internal/domain"
	"github.com/netharden/netharden/internal/domain/diff"
)

// ── Claude-inspired warm palette ──
var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
	info    = lipgloss.Color("#8B949E") // soft blue-gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	severityStyles = map[domain.Severity]lipgloss.Style{
		domain.SeverityCritical: lipgloss.NewStyle().Foreground(danger).Bold(true),
		domain.SeverityHigh:     lipgloss.NewStyle().Foreground(danger),
		domain.SeverityMedium:   lipgloss.NewStyle().Foreground(warning),
		domain.SeverityLow:      lipgloss.NewStyle().Foreground(info),
	}

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	okStyle       = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

func severityStyle(s domain.Severity) lipgloss.Style {
	if style, ok := severityStyles[s]; ok {
		return style
	}
	return dimStyle
}

// RenderAuditReport renders a full audit: header box, findings grouped
// by severity, recommended changes, and notes.
func RenderAuditReport(report *application.AuditReport) string {
	var b strings.Builder

	title := headerStyle.Render("netharden")
	subtitle := dimStyle.Render("Network Security Audit")

	var verdict string
	if !report.Success {
		verdict = failStyle.Bold(true).Render("AUDIT FAILED")
	} else if len(report.Findings) == 0 {
		verdict = okStyle.Bold(true).Render("NO ISSUES FOUND")
	} else {
		verdict = warnStyle.Bold(true).Render(fmt.Sprintf("%d ISSUES FOUND", len(report.Findings)))
	}

	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + verdict))
	b.WriteString("\n\n")

	if !report.Success {
		b.WriteString("  " + failStyle.Render(report.Error) + "\n")
		return b.String()
	}

	if len(report.Findings) > 0 {
		b.WriteString("  " + titleStyle.Render("Findings") + "  ")
		for _, sev := range []domain.Severity{domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow} {
			if n := report.FindingsBySeverity[string(sev)]; n > 0 {
				b.WriteString(severityStyle(sev).Render(fmt.Sprintf("%d %s", n, sev)))
				b.WriteString("  ")
			}
		}
		b.WriteString("\n\n")

		for _, f := range report.Findings {
			renderFinding(&b, f)
		}
	}

	if len(report.RecommendedChanges) > 0 {
		b.WriteString("  " + separatorLine + "\n\n")
		b.WriteString("  " + titleStyle.Render("Recommended changes") + "\n\n")
		for _, c := range report.RecommendedChanges {
			b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
				dimStyle.Render(fmt.Sprintf("phase %d", c.Phase)),
				warnStyle.Render(c.ChangeType),
				titleStyle.Render(c.Target),
				faintStyle.Render("("+c.Category+")")))
		}
		b.WriteString("\n")
	}

	if report.ScanResults != nil {
		b.WriteString("  " + separatorLine + "\n\n")
		b.WriteString("  " + titleStyle.Render("Network scan") + "  ")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d host(s) up of %d scanned",
			report.ScanResults.HostsUp, report.ScanResults.HostsTotal)))
		b.WriteString("\n\n")
		for _, h := range report.ScanResults.Hosts {
			renderScanHost(&b, h)
		}
	}

	for _, note := range report.Notes {
		b.WriteString("  " + dimStyle.Render(note) + "\n")
	}

	return b.String()
}

func renderFinding(b *strings.Builder, f domain.Finding) {
	tag := severityStyle(f.Severity).Render(strings.ToUpper(string(f.Severity)))
	b.WriteString(fmt.Sprintf("  %s %s %s\n",
		faintStyle.Render(f.ID), tag, titleStyle.Render(f.Title)))
	b.WriteString("       " + dimStyle.Render(f.Description) + "\n")
	if f.Remediation != "" {
		b.WriteString("       " + faintStyle.Render("fix: "+f.Remediation) + "\n")
	}
	b.WriteString("\n")
}

func renderScanHost(b *strings.Builder, h domain.ScanHost) {
	name := h.IP
	if h.Hostname != "" {
		name += " (" + h.Hostname + ")"
	}
	b.WriteString("  " + titleStyle.Render(name))
	if h.Vendor != "" {
		b.WriteString("  " + faintStyle.Render(h.Vendor))
	}
	b.WriteString("\n")
	for _, p := range h.Ports {
		b.WriteString(fmt.Sprintf("       %s %s\n",
			warnStyle.Render(fmt.Sprintf("%d/%s", p.Port, p.Protocol)),
			dimStyle.Render(p.Service)))
	}
}

var actionStyles = map[diff.Action]lipgloss.Style{
	diff.ActionCreate: lipgloss.NewStyle().Foreground(success).Bold(true),
	diff.ActionUpdate: lipgloss.NewStyle().Foreground(warning).Bold(true),
	diff.ActionDelete: lipgloss.NewStyle().Foreground(danger).Bold(true),
}

// RenderDiff renders a planned change set field by field.
func RenderDiff(result diff.Result) string {
	var b strings.Builder

	if !result.HasChanges {
		b.WriteString("  " + okStyle.Render(result.Summary) + "\n")
		return b.String()
	}

	b.WriteString("  " + titleStyle.Render("Planned changes") + "  " + dimStyle.Render(result.Summary) + "\n\n")

	for _, change := range result.Changes {
		style, ok := actionStyles[change.Action]
		if !ok {
			style = dimStyle
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(strings.ToUpper(string(change.Action))),
			faintStyle.Render(change.ItemType),
			titleStyle.Render(change.ItemName)))

		for _, fc := range change.Changes {
			b.WriteString(fmt.Sprintf("       %s %s %s %s\n",
				dimStyle.Render(fc.Field+":"),
				failStyle.Render(fmt.Sprintf("%v", fc.OldValue)),
				faintStyle.Render("→"),
				okStyle.Render(fmt.Sprintf("%v", fc.NewValue))))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderApplyResult renders a change tool outcome: the diff plus the
// per-change results.
func RenderApplyResult(result *application.ApplyChangesResult) string {
	var b strings.Builder

	if result.Error != "" {
		b.WriteString("  " + failStyle.Render(result.Error) + "\n")
		return b.String()
	}

	b.WriteString(RenderDiff(result.Diff))

	if result.DryRun {
		b.WriteString("  " + dimStyle.Render("Dry run: nothing was applied.") + "\n")
		return b.String()
	}

	for _, r := range result.Results {
		mark := okStyle.Render("✓")
		if !r.Success {
			mark = failStyle.Render("✗")
		}
		b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
			mark, dimStyle.Render(r.Action), faintStyle.Render(r.ItemType), titleStyle.Render(r.ItemName)))
		if r.Error != "" {
			b.WriteString("       " + failStyle.Render(r.Error) + "\n")
		}
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("%d applied, %d failed", result.ChangesApplied, result.ChangesFailed)
	if result.Success {
		b.WriteString("  " + okStyle.Render(summary) + "\n")
	} else {
		b.WriteString("  " + failStyle.Render(summary) + "\n")
	}
	return b.String()
}

// RenderPlanResult renders a phased plan preview or apply outcome.
func RenderPlanResult(result *application.PlanResult) string {
	var b strings.Builder

	if result.Error != "" {
		b.WriteString("  " + failStyle.Render(result.Error) + "\n")
		return b.String()
	}

	if result.PreviewOnly {
		b.WriteString("  " + titleStyle.Render("Hardening plan preview") + "  ")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d change(s)", result.TotalChanges)) + "\n\n")
	} else {
		b.WriteString("  " + titleStyle.Render("Hardening plan") + "  ")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d applied, %d failed", result.TotalApplied, result.TotalFailed)) + "\n\n")
	}

	for _, phase := range result.Phases {
		var status string
		switch {
		case result.PreviewOnly:
			status = dimStyle.Render("pending")
		case !phase.Applied:
			status = faintStyle.Render("skipped")
		case phase.Success:
			status = okStyle.Render("ok")
		default:
			status = failStyle.Render("failed")
		}
		b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
			titleStyle.Render(fmt.Sprintf("Phase %d", phase.PhaseNumber)),
			dimStyle.Render(phase.Description),
			faintStyle.Render(fmt.Sprintf("%d change(s)", phase.ChangeCount)),
			status))
		for _, w := range phase.Warnings {
			b.WriteString("       " + warnStyle.Render(w) + "\n")
		}
	}

	if len(result.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range result.Warnings {
			b.WriteString("  " + warnStyle.Render(w) + "\n")
		}
	}
	return b.String()
}

// RenderDevices renders the controller device inventory.
func RenderDevices(devices []domain.Device) string {
	var b strings.Builder
	b.WriteString("  " + titleStyle.Render("Devices") + "  ")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d found", len(devices))) + "\n\n")
	for _, d := range devices {
		b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
			titleStyle.Render(d.Name),
			dimStyle.Render(d.Model),
			faintStyle.Render(d.Type),
			dimStyle.Render(d.IP)))
	}
	return b.String()
}
