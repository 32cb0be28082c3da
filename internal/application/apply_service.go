package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/netharden/netharden/internal/domain"
	"github.com/netharden/netharden/internal/domain/diff"
	"github.com/netharden/netharden/internal/domain/plan"
)

// ApplyService is the mutation side of the engine: the change request
// tool (fetch current state, diff against requested edits, apply) and
// the phased plan orchestrator on top of it. It never retries a failed
// controller call; apply is idempotent and re-runnable by the caller.
type ApplyService struct {
	controller domain.Controller
	logger     *slog.Logger

	// PhasePause is the settle time between phases of a real phased
	// apply. Zero it in tests.
	PhasePause time.Duration
}

func NewApplyService(controller domain.Controller, logger *slog.Logger) *ApplyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplyService{
		controller: controller,
		logger:     logger,
		PhasePause: time.Second,
	}
}

// ChangeResult records the outcome of one attempted mutation.
type ChangeResult struct {
	Success  bool   `json:"success"`
	ItemType string `json:"item_type"`
	ItemName string `json:"item_name"`
	Action   string `json:"action"`
	Error    string `json:"error,omitempty"`
}

// ApplyChangesResult is the change request tool's structured result.
// The diff is always populated; Results stays empty on a dry run.
type ApplyChangesResult struct {
	Success        bool           `json:"success"`
	DryRun         bool           `json:"dry_run"`
	Diff           diff.Result    `json:"diff"`
	Results        []ChangeResult `json:"results,omitempty"`
	ChangesApplied int            `json:"changes_applied"`
	ChangesFailed  int            `json:"changes_failed"`
	Warnings       []string       `json:"warnings,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// ApplyChanges is the single mutation entry point. It fetches current
// state for each touched category, recomputes the diff against the
// requested edits, and (unless dryRun) issues the corresponding
// controller mutations. Categories are mutated independently: one
// category failing does not stop the others.
func (s *ApplyService) ApplyChanges(ctx context.Context, edits plan.EditSet, dryRun bool) *ApplyChangesResult {
	log := s.logger.With("tool", "unifi_apply_changes", "dry_run", dryRun)
	log.Info("apply changes started",
		"wifi_edits", len(edits.Wifi),
		"firewall_edits", len(edits.Firewall),
		"vlan_edits", len(edits.Vlan),
		"has_upnp_edits", edits.Upnp != nil)

	combined, err := s.computeDiff(ctx, edits)
	if err != nil {
		msg := domain.DescribeError(err)
		log.Error("apply changes failed", "error", msg)
		return &ApplyChangesResult{Success: false, DryRun: dryRun, Error: msg}
	}

	if dryRun {
		log.Info("dry run complete", "total_changes", len(combined.Changes))
		return &ApplyChangesResult{Success: true, DryRun: true, Diff: combined}
	}

	var results []ChangeResult
	var warnings []string
	for _, change := range combined.Changes {
		result := s.applyChange(ctx, change)
		results = append(results, result)
		if !result.Success {
			warnings = append(warnings, fmt.Sprintf("Failed to apply %s change %q: %s",
				change.ItemType, change.ItemName, result.Error))
		}
	}

	applied, failed := 0, 0
	for _, r := range results {
		if r.Success {
			applied++
		} else {
			failed++
		}
	}

	log.Info("apply changes completed", "changes_applied", applied, "changes_failed", failed)

	return &ApplyChangesResult{
		Success:        failed == 0,
		DryRun:         false,
		Diff:           combined,
		Results:        results,
		ChangesApplied: applied,
		ChangesFailed:  failed,
		Warnings:       warnings,
	}
}

// computeDiff fetches current state for each category with edits and
// diffs it against the requested changes. Nothing is fetched for
// categories the edit set does not touch.
func (s *ApplyService) computeDiff(ctx context.Context, edits plan.EditSet) (diff.Result, error) {
	var diffs []diff.Result

	if len(edits.Wifi) > 0 {
		current, err := s.controller.GetWLANs(ctx)
		if err != nil {
			return diff.Result{}, err
		}
		desired := make([]domain.Record, 0, len(edits.Wifi))
		for _, e := range edits.Wifi {
			desired = append(desired, e.Record())
		}
		diffs = append(diffs, diff.PlanWifiChanges(current, desired))
	}

	if len(edits.Firewall) > 0 {
		current, err := s.controller.GetFirewallRules(ctx)
		if err != nil {
			return diff.Result{}, err
		}
		desired := make([]domain.Record, 0, len(edits.Firewall))
		for _, e := range edits.Firewall {
			desired = append(desired, e.Record())
		}
		diffs = append(diffs, diff.PlanFirewallChanges(current, desired))
	}

	if len(edits.Vlan) > 0 {
		current, err := s.controller.GetNetworks(ctx)
		if err != nil {
			return diff.Result{}, err
		}
		desired := make([]domain.Record, 0, len(edits.Vlan))
		for _, e := range edits.Vlan {
			desired = append(desired, e.Record())
		}
		diffs = append(diffs, diff.PlanVlanChanges(current, desired))
	}

	if edits.Upnp != nil {
		current, err := s.controller.GetUpnpSettings(ctx)
		if err != nil {
			return diff.Result{}, err
		}
		diffs = append(diffs, diff.PlanUpnpChanges(current, edits.Upnp.Record()))
	}

	return diff.Combine(diffs...), nil
}

// Wire-name mappings between edit-request field names and the
// controller's record schema.
var (
	firewallFieldNames = map[string]string{"rule_action": "action"}
	vlanFieldNames     = map[string]string{"subnet": "ip_subnet", "dhcp_enabled": "dhcpd_enabled"}

	wifiCreateNames     = map[string]string{"ssid": "name"}
	firewallCreateNames = map[string]string{"rule_action": "action", "rule_name": "name"}
	vlanCreateNames     = map[string]string{"network_name": "name", "subnet": "ip_subnet", "dhcp_enabled": "dhcpd_enabled"}

	// Addressing and edit-control keys that must never reach the wire.
	createDropKeys = map[string]bool{"action": true, "_id": true, "rule_id": true, "network_id": true}
)

func updatePayload(change diff.ConfigChange, nameMap map[string]string) domain.Record {
	updates := make(domain.Record, len(change.Changes))
	for _, fc := range change.Changes {
		name := fc.Field
		if mapped, ok := nameMap[name]; ok {
			name = mapped
		}
		updates[name] = fc.NewValue
	}
	return updates
}

// createPayload rewrites an edit-shaped full config into the record the
// controller expects for a create.
func createPayload(full domain.Record, nameMap map[string]string) domain.Record {
	payload := make(domain.Record, len(full))
	for k, v := range full {
		if createDropKeys[k] {
			continue
		}
		if mapped, ok := nameMap[k]; ok {
			k = mapped
		}
		payload[k] = v
	}
	return payload
}

// applyChange dispatches one ConfigChange to the matching controller
// mutation. Unknown type/action combinations are recorded failures, not
// faults.
func (s *ApplyService) applyChange(ctx context.Context, change diff.ConfigChange) ChangeResult {
	result := ChangeResult{
		Success:  true,
		ItemType: change.ItemType,
		ItemName: change.ItemName,
		Action:   string(change.Action),
	}

	var err error
	switch change.ItemType {
	case "wifi":
		switch change.Action {
		case diff.ActionCreate:
			err = s.controller.CreateWLAN(ctx, createPayload(change.FullConfig, wifiCreateNames))
		case diff.ActionUpdate:
			err = s.controller.UpdateWLAN(ctx, change.ItemID, updatePayload(change, nil))
		case diff.ActionDelete:
			err = s.controller.DeleteWLAN(ctx, change.ItemID)
		}
	case "firewall_rule":
		switch change.Action {
		case diff.ActionCreate:
			err = s.controller.CreateFirewallRule(ctx, createPayload(change.FullConfig, firewallCreateNames))
		case diff.ActionUpdate:
			err = s.controller.UpdateFirewallRule(ctx, change.ItemID, updatePayload(change, firewallFieldNames))
		case diff.ActionDelete:
			err = s.controller.DeleteFirewallRule(ctx, change.ItemID)
		}
	case "vlan":
		switch change.Action {
		case diff.ActionCreate:
			err = s.controller.CreateNetwork(ctx, createPayload(change.FullConfig, vlanCreateNames))
		case diff.ActionUpdate:
			err = s.controller.UpdateNetwork(ctx, change.ItemID, updatePayload(change, vlanFieldNames))
		case diff.ActionDelete:
			err = s.controller.DeleteNetwork(ctx, change.ItemID)
		}
	case "upnp":
		if change.Action == diff.ActionUpdate {
			err = s.controller.UpdateUpnpSettings(ctx, updatePayload(change, nil))
		} else {
			err = fmt.Errorf("action %q not supported for UPnP settings", change.Action)
		}
	default:
		err = fmt.Errorf("unknown item type: %s", change.ItemType)
	}

	if err != nil {
		result.Success = false
		result.Error = err.Error()
	}
	return result
}

// PhaseResult is the per-phase outcome of a plan apply.
type PhaseResult struct {
	PhaseNumber    int      `json:"phase_number"`
	Description    string   `json:"description"`
	ChangeCount    int      `json:"change_count"`
	Applied        bool     `json:"applied"`
	Success        bool     `json:"success"`
	ChangesApplied int      `json:"changes_applied"`
	ChangesFailed  int      `json:"changes_failed"`
	Warnings       []string `json:"warnings,omitempty"`
	ConnectivityOK *bool    `json:"connectivity_check,omitempty"`
}

// PlanResult is the overall outcome of previewing or applying a
// hardening plan.
type PlanResult struct {
	Success      bool          `json:"success"`
	PreviewOnly  bool          `json:"preview_only"`
	Phases       []PhaseResult `json:"phases"`
	TotalChanges int           `json:"total_changes"`
	TotalApplied int           `json:"total_applied"`
	TotalFailed  int           `json:"total_failed"`
	Warnings     []string      `json:"warnings,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// ApplyPlanOptions control how a hardening plan is executed.
type ApplyPlanOptions struct {
	Confirm       bool `json:"confirm"`
	Phased        bool `json:"phased"`
	StopOnFailure bool `json:"stop_on_failure"`
}

func phaseDescription(n int) string {
	if d, ok := domain.PhaseDescriptions[n]; ok {
		return d
	}
	return fmt.Sprintf("Phase %d", n)
}

// ApplyPlan previews or applies a hardening plan. Without Confirm it
// returns the phase breakdown with nothing applied. With Phased, phases
// run in ascending order; a phase failure under StopOnFailure leaves the
// remaining phases unattempted in the result. Without Phased, all
// changes flatten into a single change-tool invocation.
func (s *ApplyService) ApplyPlan(ctx context.Context, hp domain.HardeningPlan, opts ApplyPlanOptions) *PlanResult {
	log := s.logger.With("tool", "network_apply_hardening_plan",
		"confirm", opts.Confirm, "phased", opts.Phased)
	log.Info("apply plan started", "total_changes", len(hp.Changes))

	phases, phaseNumbers := plan.GroupByPhase(hp.Changes)
	totalChanges := len(hp.Changes)

	if totalChanges == 0 {
		return &PlanResult{
			Success:     true,
			PreviewOnly: !opts.Confirm,
			Warnings:    []string{"No changes in plan"},
		}
	}

	if !opts.Confirm {
		preview := make([]PhaseResult, 0, len(phaseNumbers))
		for _, n := range phaseNumbers {
			preview = append(preview, PhaseResult{
				PhaseNumber: n,
				Description: phaseDescription(n),
				ChangeCount: len(phases[n]),
			})
		}
		log.Info("plan preview complete", "phases", len(preview))
		return &PlanResult{
			Success:      true,
			PreviewOnly:  true,
			Phases:       preview,
			TotalChanges: totalChanges,
			Warnings:     []string{"This is a preview. Set confirm=true to apply changes."},
		}
	}

	if !opts.Phased {
		return s.applyFlat(ctx, hp, totalChanges, log)
	}
	return s.applyPhased(ctx, phases, phaseNumbers, totalChanges, opts, log)
}

func (s *ApplyService) applyFlat(ctx context.Context, hp domain.HardeningPlan, totalChanges int, log *slog.Logger) *PlanResult {
	edits, warnings := plan.ConvertToEdits(hp.Changes)
	applyResult := s.ApplyChanges(ctx, edits, false)
	if applyResult.Error != "" {
		return &PlanResult{
			Success:      false,
			TotalChanges: totalChanges,
			Warnings:     warnings,
			Error:        applyResult.Error,
		}
	}

	connectivity := s.checkConnectivity(ctx)
	phase := PhaseResult{
		PhaseNumber:    0,
		Description:    "All changes (non-phased)",
		ChangeCount:    totalChanges,
		Applied:        true,
		Success:        applyResult.Success && connectivity,
		ChangesApplied: applyResult.ChangesApplied,
		ChangesFailed:  applyResult.ChangesFailed,
		Warnings:       applyResult.Warnings,
		ConnectivityOK: &connectivity,
	}

	result := &PlanResult{
		Success:      applyResult.ChangesFailed == 0,
		Phases:       []PhaseResult{phase},
		TotalChanges: totalChanges,
		TotalApplied: applyResult.ChangesApplied,
		TotalFailed:  applyResult.ChangesFailed,
		Warnings:     warnings,
	}
	log.Info("plan applied", "total_applied", result.TotalApplied, "total_failed", result.TotalFailed)
	return result
}

func (s *ApplyService) applyPhased(
	ctx context.Context,
	phases map[int][]domain.RecommendedChange,
	phaseNumbers []int,
	totalChanges int,
	opts ApplyPlanOptions,
	log *slog.Logger,
) *PlanResult {
	var results []PhaseResult
	var warnings []string
	totalApplied, totalFailed := 0, 0

	for i, n := range phaseNumbers {
		phaseChanges := phases[n]
		edits, convertWarnings := plan.ConvertToEdits(phaseChanges)
		warnings = append(warnings, convertWarnings...)

		applyResult := s.ApplyChanges(ctx, edits, false)
		connectivity := s.checkConnectivity(ctx)

		phaseResult := PhaseResult{
			PhaseNumber:    n,
			Description:    phaseDescription(n),
			ChangeCount:    len(phaseChanges),
			Applied:        true,
			Success:        applyResult.Success && applyResult.Error == "" && connectivity,
			ChangesApplied: applyResult.ChangesApplied,
			ChangesFailed:  applyResult.ChangesFailed,
			Warnings:       applyResult.Warnings,
			ConnectivityOK: &connectivity,
		}
		if applyResult.Error != "" {
			phaseResult.Warnings = append(phaseResult.Warnings, applyResult.Error)
			phaseResult.ChangesFailed = len(phaseChanges)
		}

		results = append(results, phaseResult)
		totalApplied += phaseResult.ChangesApplied
		totalFailed += phaseResult.ChangesFailed

		if !phaseResult.Success {
			if !connectivity {
				warnings = append(warnings, fmt.Sprintf("Phase %d may have caused connectivity issues", n))
			}
			if opts.StopOnFailure {
				warnings = append(warnings, fmt.Sprintf("Stopped after phase %d due to failure", n))
				for _, remaining := range phaseNumbers[i+1:] {
					results = append(results, PhaseResult{
						PhaseNumber: remaining,
						Description: phaseDescription(remaining),
						ChangeCount: len(phases[remaining]),
						Warnings:    []string{"Skipped due to previous phase failure"},
					})
				}
				break
			}
		}

		if i < len(phaseNumbers)-1 {
			s.pause(ctx)
		}
	}

	result := &PlanResult{
		Success:      totalFailed == 0,
		Phases:       results,
		TotalChanges: totalChanges,
		TotalApplied: totalApplied,
		TotalFailed:  totalFailed,
		Warnings:     warnings,
	}
	if result.Success {
		log.Info("plan applied", "total_applied", totalApplied)
	} else {
		log.Warn("plan applied with failures", "total_applied", totalApplied, "total_failed", totalFailed)
	}
	return result
}

// checkConnectivity verifies the controller still answers after a batch
// of mutations by fetching the device list.
func (s *ApplyService) checkConnectivity(ctx context.Context) bool {
	_, err := s.controller.GetDevices(ctx)
	return err == nil
}

// pause waits between phases so the controller settles before the next
// batch, unless the context is cancelled first.
func (s *ApplyService) pause(ctx context.Context) {
	if s.PhasePause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.PhasePause):
	}
}
