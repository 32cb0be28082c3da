package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/netharden/netharden/internal/domain"
	"github.com/netharden/netharden/internal/domain/audit"
)

// AuditService runs the hardening audit pipeline: fetch live snapshots,
// evaluate them against the security policy, and optionally scan the
// local subnets for hosts to cross-reference.
type AuditService struct {
	controller domain.Controller
	policies   domain.PolicySource
	scanner    domain.ScanProvider // nil disables scanning
	logger     *slog.Logger
}

func NewAuditService(
	controller domain.Controller,
	policies domain.PolicySource,
	scanner domain.ScanProvider,
	logger *slog.Logger,
) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{
		controller: controller,
		policies:   policies,
		scanner:    scanner,
		logger:     logger,
	}
}

// AuditRequest selects the policy and the optional network scan.
type AuditRequest struct {
	PolicyRef   string   `json:"policy_ref,omitempty"`
	RunScan     bool     `json:"run_scan,omitempty"`
	ScanSubnets []string `json:"scan_subnets,omitempty"`
}

// AuditReport is the audit tool's structured result. Failures surface as
// Success=false with Error set, never as a raised fault.
type AuditReport struct {
	Success            bool                       `json:"success"`
	RunID              string                     `json:"run_id,omitempty"`
	Findings           []domain.Finding           `json:"findings"`
	FindingsBySeverity map[string]int             `json:"findings_by_severity"`
	RecommendedChanges []domain.RecommendedChange `json:"recommended_changes"`
	Notes              []string                   `json:"notes,omitempty"`
	ScanResults        *domain.ScanResult         `json:"scan_results,omitempty"`
	Error              string                     `json:"error,omitempty"`
}

// Run executes one audit pass. Controller fetch failures produce a
// structured failure report; policy and scan problems degrade to notes.
func (s *AuditService) Run(ctx context.Context, req AuditRequest) *AuditReport {
	runID := uuid.NewString()
	log := s.logger.With("tool", "network_hardening_audit", "run_id", runID)
	log.Info("audit started", "policy_ref", req.PolicyRef, "run_scan", req.RunScan)

	var notes []string

	policy, err := s.policies.Load(req.PolicyRef)
	if err != nil || len(policy) == 0 {
		if err != nil {
			notes = append(notes, fmt.Sprintf("Policy load failed (%v); using default security policy", err))
		} else {
			notes = append(notes, "Using default security policy (policy document empty)")
		}
		policy = domain.DefaultPolicy()
	}

	snapshots, err := s.fetchSnapshots(ctx)
	if err != nil {
		msg := domain.DescribeError(err)
		log.Error("audit failed", "error", msg)
		return &AuditReport{Success: false, RunID: runID, Error: msg}
	}

	eval := audit.NewEvaluation(policy)
	eval.EvaluateWiFi(snapshots.wlans)
	eval.EvaluateRemoteAccess(snapshots.remoteAccess())
	eval.EvaluateThreatManagement(snapshots.threat)
	eval.EvaluateDPI(snapshots.dpi)
	eval.EvaluateVLANs(snapshots.networks, snapshots.wlans)
	eval.EvaluateFirewall(snapshots.firewall)
	findings, recommendations := eval.Results()

	var scanResults *domain.ScanResult
	if req.RunScan && len(req.ScanSubnets) > 0 && s.scanner != nil {
		result, scanErr := s.scanner.Scan(ctx, req.ScanSubnets, "common")
		if scanErr != nil {
			notes = append(notes, fmt.Sprintf("Network scan failed: %v", scanErr))
		} else {
			scanResults = result
			notes = append(notes, fmt.Sprintf("Network scan found %d hosts", result.HostsUp))
		}
	}

	counts := map[string]int{
		string(domain.SeverityCritical): 0,
		string(domain.SeverityHigh):     0,
		string(domain.SeverityMedium):   0,
		string(domain.SeverityLow):      0,
	}
	for _, f := range findings {
		if _, ok := counts[string(f.Severity)]; ok {
			counts[string(f.Severity)]++
		}
	}

	if len(findings) == 0 {
		notes = append(notes, "No security issues found - configuration follows best practices")
	} else {
		notes = append(notes, fmt.Sprintf(
			"Found %d security issue(s): %d critical, %d high, %d medium, %d low",
			len(findings), counts["critical"], counts["high"], counts["medium"], counts["low"]))
	}

	log.Info("audit completed", "findings", len(findings), "recommendations", len(recommendations))

	return &AuditReport{
		Success:            true,
		RunID:              runID,
		Findings:           findings,
		FindingsBySeverity: counts,
		RecommendedChanges: recommendations,
		Notes:              notes,
		ScanResults:        scanResults,
	}
}

// snapshots holds one coherent read of everything the evaluator needs.
type snapshots struct {
	wlans    []domain.Record
	networks []domain.Record
	firewall map[string][]domain.Record
	upnp     domain.Record
	mgmt     domain.Record
	threat   domain.Record
	dpi      domain.Record
}

func (s *AuditService) fetchSnapshots(ctx context.Context) (*snapshots, error) {
	var snap snapshots
	var err error

	if snap.wlans, err = s.controller.GetWLANs(ctx); err != nil {
		return nil, err
	}
	if snap.networks, err = s.controller.GetNetworks(ctx); err != nil {
		return nil, err
	}
	if snap.firewall, err = s.controller.GetFirewallRules(ctx); err != nil {
		return nil, err
	}
	if snap.upnp, err = s.controller.GetUpnpSettings(ctx); err != nil {
		return nil, err
	}
	if snap.mgmt, err = s.controller.GetMgmtSettings(ctx); err != nil {
		return nil, err
	}
	if snap.threat, err = s.controller.GetThreatManagementSettings(ctx); err != nil {
		return nil, err
	}
	if snap.dpi, err = s.controller.GetDPISettings(ctx); err != nil {
		return nil, err
	}
	return &snap, nil
}

// remoteAccess folds the UPnP and management settings into the combined
// record the remote-access rules evaluate.
func (s *snapshots) remoteAccess() domain.Record {
	combined := make(domain.Record, len(s.upnp)+3)
	for k, v := range s.upnp {
		combined[k] = v
	}
	combined["ssh_enabled"] = s.mgmt.Bool("remote_access_enabled")
	combined["ssh_password_auth"] = s.mgmt.Bool("ssh_auth_password_enabled")
	combined["cloud_access_enabled"] = s.mgmt.Bool("unifi_remote_access_enabled")
	return combined
}
