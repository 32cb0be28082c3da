package audit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netharden/netharden/internal/domain"
	"github.com/netharden/netharden/internal/domain/audit"
)

func fullPolicy() domain.Policy {
	return domain.Policy{
		"wifi": {
			"require_encryption":                 domain.Rule{"enabled": true, "severity": "high"},
			"min_wpa_version":                    domain.Rule{"enabled": true, "severity": "high", "value": "WPA2"},
			"recommend_wpa3":                     domain.Rule{"enabled": true, "severity": "low"},
			"require_client_isolation_for_guest": domain.Rule{"enabled": true, "severity": "medium"},
		},
		"remote_access": {
			"disallow_upnp":              domain.Rule{"enabled": true, "severity": "high"},
			"disallow_nat_pmp":           domain.Rule{"enabled": true, "severity": "high"},
			"disallow_ssh_password_auth": domain.Rule{"enabled": true, "severity": "medium"},
		},
		"threat_management": {
			"require_ids_ips": domain.Rule{"enabled": true, "severity": "medium", "recommended_mode": "ips"},
		},
		"dpi": {
			"require_dpi": domain.Rule{"enabled": true, "severity": "medium"},
		},
		"vlans": {
			"require_guest_vlan": domain.Rule{"enabled": true, "severity": "medium"},
		},
		"firewall": {
			"flag_allow_all_rules": domain.Rule{"enabled": true, "severity": "high"},
		},
	}
}

func TestEvaluateWiFi_OpenNetwork(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateWiFi([]domain.Record{
		{"name": "Cafe", "enabled": true, "security": "open"},
	})

	findings, recs := eval.Results()
	require.Len(t, findings, 1)
	assert.Equal(t, "F001", findings[0].ID)
	assert.Equal(t, domain.SeverityHigh, findings[0].Severity)
	assert.Equal(t, "wifi", findings[0].Category)
	assert.Contains(t, findings[0].Title, "Cafe")

	require.Len(t, recs, 1)
	assert.Equal(t, domain.CategoryWifi, recs[0].Category)
	assert.Equal(t, "update", recs[0].ChangeType)
	assert.Equal(t, "Cafe", recs[0].Target)
	assert.Equal(t, []string{"F001"}, recs[0].FindingIDs)
	assert.Equal(t, 1, recs[0].Phase)
}

func TestEvaluateWiFi_AllowedOpenSSIDExempt(t *testing.T) {
	policy := fullPolicy()
	policy["wifi"]["require_encryption"] = domain.Rule{
		"enabled": true, "severity": "high",
		"allowed_ssids": []any{"Captive Portal"},
	}

	eval := audit.NewEvaluation(policy)
	eval.EvaluateWiFi([]domain.Record{
		{"name": "Captive Portal", "enabled": true, "security": "open", "wpa3_support": true},
	})

	findings, _ := eval.Results()
	assert.Empty(t, findings)
}

func TestEvaluateWiFi_DisabledNetworksSkipped(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateWiFi([]domain.Record{
		{"name": "Old", "enabled": false, "security": "open", "wpa_mode": "wpa1"},
	})

	findings, recs := eval.Results()
	assert.Empty(t, findings)
	assert.Empty(t, recs)
}

func TestEvaluateWiFi_DisabledRulesSkipped(t *testing.T) {
	policy := domain.Policy{
		"wifi": {
			"require_encryption": domain.Rule{"enabled": false, "severity": "high"},
		},
	}

	eval := audit.NewEvaluation(policy)
	eval.EvaluateWiFi([]domain.Record{
		{"name": "Cafe", "enabled": true, "security": "open"},
	})

	findings, _ := eval.Results()
	assert.Empty(t, findings)
}

func TestEvaluateWiFi_MissingRuleNeverEvaluated(t *testing.T) {
	eval := audit.NewEvaluation(domain.Policy{"wifi": {}})
	eval.EvaluateWiFi([]domain.Record{
		{"name": "Cafe", "enabled": true, "security": "open", "wpa_mode": "wpa1", "is_guest": true},
	})

	findings, _ := eval.Results()
	assert.Empty(t, findings)
}

func TestEvaluateWiFi_Wpa1Flagged(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateWiFi([]domain.Record{
		{"name": "Legacy", "enabled": true, "security": "wpapsk", "wpa_mode": "wpa1", "wpa3_support": true},
	})

	findings, recs := eval.Results()
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Title, "Weak encryption")
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]any{"ssid": "Legacy", "wpa_mode": "wpa2"}, recs[0].Changes)
}

func TestEvaluateWiFi_Wpa3Advisory(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateWiFi([]domain.Record{
		{"name": "Home", "enabled": true, "security": "wpapsk", "wpa_mode": "wpa2"},
	})

	findings, recs := eval.Results()
	require.Len(t, findings, 1)
	assert.Equal(t, domain.SeverityLow, findings[0].Severity)
	assert.Empty(t, recs, "advisory findings carry no recommendation")
}

func TestEvaluateWiFi_GuestIsolation(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateWiFi([]domain.Record{
		{"name": "Guest", "enabled": true, "security": "wpapsk", "wpa_mode": "wpa2", "wpa3_support": true, "is_guest": true},
	})

	findings, recs := eval.Results()
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Title, "client isolation")
	require.Len(t, recs, 1)
	assert.Equal(t, true, recs[0].Changes["l2_isolation"])
}

func TestEvaluateRemoteAccess_UpnpAndNatPmp(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateRemoteAccess(domain.Record{
		"upnp_enabled":         true,
		"upnp_nat_pmp_enabled": true,
		"ssh_password_auth":    true,
	})

	findings, recs := eval.Results()
	require.Len(t, findings, 3)
	assert.Equal(t, []string{"F001", "F002", "F003"}, []string{findings[0].ID, findings[1].ID, findings[2].ID})

	// SSH password auth is finding-only; UPnP and NAT-PMP get changes.
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, domain.CategoryUpnp, rec.Category)
		assert.Equal(t, "upnp_settings", rec.Target)
		assert.Equal(t, 1, rec.Phase)
	}
	assert.Equal(t, false, recs[0].Changes["upnp_enabled"])
	assert.Equal(t, false, recs[1].Changes["upnp_nat_pmp_enabled"])
}

func TestEvaluateRemoteAccess_AllSafe(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateRemoteAccess(domain.Record{})

	findings, recs := eval.Results()
	assert.Empty(t, findings)
	assert.Empty(t, recs)
}

func TestEvaluateThreatManagement_Disabled(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateThreatManagement(domain.Record{"ids_ips_enabled": false})

	findings, _ := eval.Results()
	require.Len(t, findings, 1)
	assert.Equal(t, "IDS/IPS is disabled", findings[0].Title)
	assert.Equal(t, domain.SeverityMedium, findings[0].Severity)
}

func TestEvaluateThreatManagement_IdsOnlyAdvisory(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateThreatManagement(domain.Record{"ids_ips_enabled": true, "ids_ips_mode": "ids"})

	findings, _ := eval.Results()
	require.Len(t, findings, 1)
	assert.Equal(t, domain.SeverityLow, findings[0].Severity)
	assert.Contains(t, findings[0].Title, "IDS mode only")
}

func TestEvaluateDPI(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateDPI(domain.Record{"dpi_enabled": false})

	findings, recs := eval.Results()
	require.Len(t, findings, 1)
	assert.Equal(t, "dpi", findings[0].Category)
	assert.Empty(t, recs)
}

func TestEvaluateVLANs_GuestWithoutVlan(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateVLANs(nil, []domain.Record{
		{"name": "Guest", "enabled": true, "is_guest": true, "vlan_enabled": false},
		{"name": "Home", "enabled": true, "is_guest": false},
	})

	findings, _ := eval.Results()
	require.Len(t, findings, 1)
	assert.Equal(t, "vlan", findings[0].Category)
	assert.Contains(t, findings[0].Title, "Guest")
}

func TestEvaluateFirewall_AllowAllFlagged(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateFirewall(map[string][]domain.Record{
		"wan_in": {
			{"name": "Wide open", "enabled": true, "action": "accept", "protocol": "all"},
			{"name": "Scoped", "enabled": true, "action": "accept", "protocol": "all", "dst_port": "443"},
			{"name": "Off", "enabled": false, "action": "accept", "protocol": "all"},
			{"name": "Drop", "enabled": true, "action": "drop", "protocol": "all"},
		},
	})

	findings, _ := eval.Results()
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Title, "Wide open")
	assert.Equal(t, domain.SeverityHigh, findings[0].Severity)
}

func TestEvaluateWiFi_OpenNetworkSkipsWpaCheck(t *testing.T) {
	eval := audit.NewEvaluation(fullPolicy())
	eval.EvaluateWiFi([]domain.Record{
		{"name": "Legacy", "enabled": true, "security": "open", "wpa_mode": "wpa1"},
	})

	findings, _ := eval.Results()
	require.Len(t, findings, 1, "an open network is one finding, not open plus weak WPA")
	assert.Contains(t, findings[0].Title, "Open WiFi network")
}

func TestEvaluateFirewall_DeterministicOrderAcrossRulesets(t *testing.T) {
	rulesets := map[string][]domain.Record{
		"wan_in":   {{"name": "Wan hole", "enabled": true, "action": "accept", "protocol": "all"}},
		"lan_in":   {{"name": "Lan hole", "enabled": true, "action": "accept", "protocol": "all"}},
		"guest_in": {{"name": "Guest hole", "enabled": true, "action": "accept", "protocol": "all"}},
	}

	var firstTitles []string
	for run := 0; run < 5; run++ {
		eval := audit.NewEvaluation(fullPolicy())
		eval.EvaluateFirewall(rulesets)
		findings, _ := eval.Results()
		require.Len(t, findings, 3)

		var titles []string
		for _, f := range findings {
			titles = append(titles, f.Title)
		}
		if firstTitles == nil {
			firstTitles = titles
			assert.Contains(t, firstTitles[0], "Guest hole", "rulesets evaluate in name order")
			continue
		}
		assert.Equal(t, firstTitles, titles)
		assert.Equal(t, "F001", findings[0].ID)
	}
}

func TestFindingIDsResetPerEvaluation(t *testing.T) {
	first := audit.NewEvaluation(fullPolicy())
	first.EvaluateDPI(domain.Record{})
	firstFindings, _ := first.Results()
	require.Len(t, firstFindings, 1)
	assert.Equal(t, "F001", firstFindings[0].ID)

	second := audit.NewEvaluation(fullPolicy())
	second.EvaluateDPI(domain.Record{})
	secondFindings, _ := second.Results()
	require.Len(t, secondFindings, 1)
	assert.Equal(t, "F001", secondFindings[0].ID)
}

func TestDefaultPolicyFindsCoreIssues(t *testing.T) {
	eval := audit.NewEvaluation(domain.DefaultPolicy())
	eval.EvaluateWiFi([]domain.Record{{"name": "Open", "enabled": true, "security": "open"}})
	eval.EvaluateRemoteAccess(domain.Record{"upnp_enabled": true})
	eval.EvaluateThreatManagement(domain.Record{"ids_ips_enabled": false})

	findings, recs := eval.Results()
	assert.Len(t, findings, 3)
	assert.Len(t, recs, 2)
}
