// Package audit evaluates live controller configuration against a
// declarative security policy. The evaluator is pure: all state is
// passed in, nothing here touches the network.
package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/netharden/netharden/internal/domain"
)

// Evaluation accumulates findings and recommended changes across the
// per-category evaluate calls of one audit pass. It is single-use:
// create one per pass, run the evaluations, read Results once.
type Evaluation struct {
	policy          domain.Policy
	findings        []domain.Finding
	recommendations []domain.RecommendedChange
	counter         int
}

// NewEvaluation starts an evaluation pass against the given policy.
func NewEvaluation(policy domain.Policy) *Evaluation {
	return &Evaluation{policy: policy}
}

// Results returns everything accumulated so far. Every recommended
// change's finding IDs reference findings from this same pass.
func (e *Evaluation) Results() ([]domain.Finding, []domain.RecommendedChange) {
	return e.findings, e.recommendations
}

func (e *Evaluation) nextFindingID() string {
	e.counter++
	return fmt.Sprintf("F%03d", e.counter)
}

func (e *Evaluation) addFinding(f domain.Finding) string {
	f.ID = e.nextFindingID()
	e.findings = append(e.findings, f)
	return f.ID
}

func (e *Evaluation) recommend(rc domain.RecommendedChange) {
	e.recommendations = append(e.recommendations, rc)
}

// EvaluateWiFi checks each enabled WLAN against the wifi policy rules.
// Disabled WLANs are skipped entirely.
func (e *Evaluation) EvaluateWiFi(wlans []domain.Record) {
	for _, network := range wlans {
		if !network.Bool("enabled") {
			continue
		}
		ssid := network.StringOr("name", network.StringOr("ssid", "Unknown"))
		security := network.StringOr("security", "open")

		e.checkOpenNetwork(ssid, security)
		// An open network is already flagged above; weak-WPA checks
		// only apply once encryption is on at all.
		if security != "open" {
			e.checkWpaVersion(ssid, network.String("wpa_mode"))
		}
		e.checkWpa3(ssid, security, network)
		e.checkGuestIsolation(ssid, network)
	}
}

func (e *Evaluation) checkOpenNetwork(ssid, security string) {
	rule, ok := e.policy.Rule("wifi", "require_encryption")
	if !ok || !rule.Enabled() || security != "open" {
		return
	}
	for _, allowed := range rule.StringsOption("allowed_ssids") {
		if allowed == ssid {
			return
		}
	}
	id := e.addFinding(domain.Finding{
		Severity:         rule.Severity(domain.SeverityHigh),
		Category:         "wifi",
		Title:            fmt.Sprintf("Open WiFi network: %s", ssid),
		Description:      "WiFi network has no encryption enabled",
		CurrentValue:     "open",
		RecommendedValue: "WPA2 or WPA3",
		Remediation:      fmt.Sprintf("Enable WPA2 or WPA3 encryption on SSID %q", ssid),
	})
	e.recommend(domain.RecommendedChange{
		Category:   domain.CategoryWifi,
		ChangeType: "update",
		Target:     ssid,
		Changes: map[string]any{
			"ssid":     ssid,
			"security": "wpapsk",
			"wpa_mode": "wpa2",
		},
		FindingIDs: []string{id},
		Phase:      1,
	})
}

func (e *Evaluation) checkWpaVersion(ssid, wpaMode string) {
	rule, ok := e.policy.Rule("wifi", "min_wpa_version")
	if !ok || !rule.Enabled() {
		return
	}
	if wpaMode == "" || !strings.Contains(strings.ToLower(wpaMode), "wpa1") {
		return
	}
	minVersion := rule.StringOption("value", "WPA2")
	if minVersion != "WPA2" && minVersion != "WPA3" {
		return
	}
	id := e.addFinding(domain.Finding{
		Severity:         rule.Severity(domain.SeverityHigh),
		Category:         "wifi",
		Title:            fmt.Sprintf("Weak encryption on %s", ssid),
		Description:      "WiFi network using deprecated WPA1 encryption",
		CurrentValue:     wpaMode,
		RecommendedValue: "WPA2 or WPA3",
		Remediation:      fmt.Sprintf("Upgrade %q to WPA2 or WPA3", ssid),
	})
	e.recommend(domain.RecommendedChange{
		Category:   domain.CategoryWifi,
		ChangeType: "update",
		Target:     ssid,
		Changes: map[string]any{
			"ssid":     ssid,
			"wpa_mode": "wpa2",
		},
		FindingIDs: []string{id},
		Phase:      1,
	})
}

func (e *Evaluation) checkWpa3(ssid, security string, network domain.Record) {
	rule, ok := e.policy.Rule("wifi", "recommend_wpa3")
	if !ok || !rule.Enabled() {
		return
	}
	if security == "open" || network.Bool("wpa3_support") || network.Bool("wpa3_transition") {
		return
	}
	e.addFinding(domain.Finding{
		Severity:         rule.Severity(domain.SeverityLow),
		Category:         "wifi",
		Title:            fmt.Sprintf("WPA3 not enabled on %s", ssid),
		Description:      "Consider enabling WPA3 or WPA3 transition mode for improved security",
		CurrentValue:     "WPA2 only",
		RecommendedValue: "WPA3 transition mode",
		Remediation:      fmt.Sprintf("Enable WPA3 transition mode on %q", ssid),
	})
}

func (e *Evaluation) checkGuestIsolation(ssid string, network domain.Record) {
	rule, ok := e.policy.Rule("wifi", "require_client_isolation_for_guest")
	if !ok || !rule.Enabled() || !network.Bool("is_guest") {
		return
	}
	isolated := network.Bool("client_isolation") || network.Bool("l2_isolation")
	if isolated {
		return
	}
	id := e.addFinding(domain.Finding{
		Severity:         rule.Severity(domain.SeverityMedium),
		Category:         "wifi",
		Title:            fmt.Sprintf("Guest network lacks client isolation: %s", ssid),
		Description:      "Guest network should isolate clients from each other",
		CurrentValue:     false,
		RecommendedValue: true,
		Remediation:      fmt.Sprintf("Enable client isolation (L2 isolation) on %q", ssid),
	})
	e.recommend(domain.RecommendedChange{
		Category:   domain.CategoryWifi,
		ChangeType: "update",
		Target:     ssid,
		Changes: map[string]any{
			"ssid":         ssid,
			"l2_isolation": true,
		},
		FindingIDs: []string{id},
		Phase:      1,
	})
}

// EvaluateRemoteAccess checks the combined UPnP and management settings
// against the remote_access policy rules.
func (e *Evaluation) EvaluateRemoteAccess(settings domain.Record) {
	if rule, ok := e.policy.Rule("remote_access", "disallow_upnp"); ok && rule.Enabled() && settings.Bool("upnp_enabled") {
		id := e.addFinding(domain.Finding{
			Severity:         rule.Severity(domain.SeverityHigh),
			Category:         "remote_access",
			Title:            "UPnP is enabled",
			Description:      "UPnP allows devices to automatically open ports, which is a security risk",
			CurrentValue:     true,
			RecommendedValue: false,
			Remediation:      "Disable UPnP on the gateway",
		})
		e.recommend(domain.RecommendedChange{
			Category:   domain.CategoryUpnp,
			ChangeType: "update",
			Target:     "upnp_settings",
			Changes:    map[string]any{"upnp_enabled": false},
			FindingIDs: []string{id},
			Phase:      1,
		})
	}

	if rule, ok := e.policy.Rule("remote_access", "disallow_nat_pmp"); ok && rule.Enabled() && settings.Bool("upnp_nat_pmp_enabled") {
		id := e.addFinding(domain.Finding{
			Severity:         rule.Severity(domain.SeverityHigh),
			Category:         "remote_access",
			Title:            "NAT-PMP is enabled",
			Description:      "NAT-PMP allows automatic port mapping, similar security risk to UPnP",
			CurrentValue:     true,
			RecommendedValue: false,
			Remediation:      "Disable NAT-PMP on the gateway",
		})
		e.recommend(domain.RecommendedChange{
			Category:   domain.CategoryUpnp,
			ChangeType: "update",
			Target:     "upnp_settings",
			Changes:    map[string]any{"upnp_nat_pmp_enabled": false},
			FindingIDs: []string{id},
			Phase:      1,
		})
	}

	if rule, ok := e.policy.Rule("remote_access", "disallow_ssh_password_auth"); ok && rule.Enabled() && settings.Bool("ssh_password_auth") {
		e.addFinding(domain.Finding{
			Severity:         rule.Severity(domain.SeverityMedium),
			Category:         "remote_access",
			Title:            "SSH password authentication enabled",
			Description:      "SSH password authentication is less secure than key-based auth",
			CurrentValue:     true,
			RecommendedValue: false,
			Remediation:      "Disable SSH password authentication, use SSH keys instead",
		})
	}
}

// EvaluateThreatManagement checks IDS/IPS settings against the
// threat_management policy rules.
func (e *Evaluation) EvaluateThreatManagement(settings domain.Record) {
	rule, ok := e.policy.Rule("threat_management", "require_ids_ips")
	if !ok || !rule.Enabled() {
		return
	}
	recommendedMode := rule.StringOption("recommended_mode", "ips")

	if !settings.Bool("ids_ips_enabled") {
		e.addFinding(domain.Finding{
			Severity:         rule.Severity(domain.SeverityMedium),
			Category:         "threat_management",
			Title:            "IDS/IPS is disabled",
			Description:      "Intrusion Detection/Prevention System provides network threat protection",
			CurrentValue:     "disabled",
			RecommendedValue: recommendedMode,
			Remediation:      fmt.Sprintf("Enable IDS/IPS in %s mode", recommendedMode),
		})
		return
	}

	if settings.StringOr("ids_ips_mode", "disabled") == "ids" && recommendedMode == "ips" {
		e.addFinding(domain.Finding{
			Severity:         domain.SeverityLow,
			Category:         "threat_management",
			Title:            "IDS mode only (IPS recommended)",
			Description:      "IPS mode actively blocks threats while IDS only detects",
			CurrentValue:     "ids",
			RecommendedValue: "ips",
			Remediation:      "Consider switching from IDS to IPS mode",
		})
	}
}

// EvaluateDPI checks deep packet inspection settings against the dpi
// policy rules. DPI has no mutation surface, so this emits findings only.
func (e *Evaluation) EvaluateDPI(settings domain.Record) {
	rule, ok := e.policy.Rule("dpi", "require_dpi")
	if !ok || !rule.Enabled() || settings.Bool("dpi_enabled") {
		return
	}
	e.addFinding(domain.Finding{
		Severity:         rule.Severity(domain.SeverityMedium),
		Category:         "dpi",
		Title:            "Deep Packet Inspection is disabled",
		Description:      "DPI provides traffic visibility and per-application restrictions",
		CurrentValue:     false,
		RecommendedValue: true,
		Remediation:      "Enable DPI on the gateway",
	})
}

// EvaluateVLANs checks network segmentation: guest WLANs should sit on
// their own VLAN.
func (e *Evaluation) EvaluateVLANs(networks, wlans []domain.Record) {
	rule, ok := e.policy.Rule("vlans", "require_guest_vlan")
	if !ok || !rule.Enabled() {
		return
	}
	_ = networks // reserved for subnet-level checks

	for _, w := range wlans {
		if !w.Bool("is_guest") || !w.Bool("enabled") || w.Bool("vlan_enabled") {
			continue
		}
		ssid := w.StringOr("name", "Unknown")
		e.addFinding(domain.Finding{
			Severity:         rule.Severity(domain.SeverityMedium),
			Category:         "vlan",
			Title:            fmt.Sprintf("Guest network not on separate VLAN: %s", ssid),
			Description:      "Guest networks should be isolated on their own VLAN",
			CurrentValue:     "No VLAN",
			RecommendedValue: "VLAN enabled",
			Remediation:      fmt.Sprintf("Create a guest VLAN and assign %q to it", ssid),
		})
	}
}

// EvaluateFirewall flags enabled accept-all rules with no port or
// address restriction.
func (e *Evaluation) EvaluateFirewall(firewallRules map[string][]domain.Record) {
	rule, ok := e.policy.Rule("firewall", "flag_allow_all_rules")
	if !ok || !rule.Enabled() {
		return
	}

	// Stable ruleset order keeps finding IDs deterministic across runs.
	rulesetNames := make([]string, 0, len(firewallRules))
	for name := range firewallRules {
		rulesetNames = append(rulesetNames, name)
	}
	sort.Strings(rulesetNames)

	for _, rulesetName := range rulesetNames {
		for _, fw := range firewallRules[rulesetName] {
			if !fw.Bool("enabled") {
				continue
			}
			if fw.String("action") != "accept" || fw.StringOr("protocol", "all") != "all" || fw.String("dst_port") != "" {
				continue
			}
			src := strings.ToLower(fw.StringOr("src_address", "any"))
			dst := strings.ToLower(fw.StringOr("dst_address", "any"))
			if !strings.Contains(src, "any") && !strings.Contains(dst, "any") {
				continue
			}
			ruleName := fw.StringOr("name", "Unnamed rule")
			e.addFinding(domain.Finding{
				Severity:         rule.Severity(domain.SeverityHigh),
				Category:         "firewall",
				Title:            fmt.Sprintf("Overly permissive firewall rule: %s", ruleName),
				Description:      fmt.Sprintf("Rule in %s allows all traffic", rulesetName),
				CurrentValue:     fmt.Sprintf("Accept all from %s to %s", src, dst),
				RecommendedValue: "Restrict by port/protocol or remove",
				Remediation:      fmt.Sprintf("Review and restrict firewall rule %q in %s", ruleName, rulesetName),
			})
		}
	}
}
