package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netharden/netharden/internal/application"
	"github.com/netharden/netharden/internal/domain"
	"github.com/netharden/netharden/internal/domain/plan"
)

func TestEditSetSchema_Accepts(t *testing.T) {
	raw := `{
		"wifi_edits": [{"ssid": "Guest", "security": "wpapsk", "wpa3_support": true}],
		"firewall_edits": [{"action": "update", "rule_name": "Block IoT", "rule_action": "drop"}],
		"vlan_edits": [{"network_name": "IoT", "vlan": 30, "subnet": "192.168.30.1/24"}],
		"upnp_edits": {"upnp_enabled": false}
	}`

	var edits plan.EditSet
	require.NoError(t, validateAndDecode(compiledEditSetSchema, raw, &edits))
	require.Len(t, edits.Wifi, 1)
	assert.Equal(t, "Guest", edits.Wifi[0].SSID)
	require.NotNil(t, edits.Firewall[0].RuleAction)
	assert.Equal(t, "drop", *edits.Firewall[0].RuleAction)
	require.NotNil(t, edits.Upnp)
	require.NotNil(t, edits.Upnp.UpnpEnabled)
	assert.False(t, *edits.Upnp.UpnpEnabled)
}

func TestEditSetSchema_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not JSON", `{"wifi_edits": [`},
		{"unknown top-level key", `{"wifi": []}`},
		{"wifi edit without ssid", `{"wifi_edits": [{"enabled": false}]}`},
		{"unknown wifi field", `{"wifi_edits": [{"ssid": "x", "password": "hunter2"}]}`},
		{"firewall edit without action", `{"firewall_edits": [{"rule_name": "x"}]}`},
		{"bad firewall action", `{"firewall_edits": [{"action": "destroy"}]}`},
		{"bad rule_action", `{"firewall_edits": [{"action": "update", "rule_action": "permit"}]}`},
		{"vlan as non-integer", `{"vlan_edits": [{"network_name": "IoT", "vlan": "thirty"}]}`},
		{"unknown upnp field", `{"upnp_edits": {"upnp_enabled": false, "port": 80}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var edits plan.EditSet
			assert.Error(t, validateAndDecode(compiledEditSetSchema, tt.raw, &edits))
		})
	}
}

func TestPlanSchema_Accepts(t *testing.T) {
	raw := `{"changes": [
		{"category": "upnp", "change_type": "update", "target": "upnp_settings",
		 "changes": {"upnp_enabled": false}, "finding_ids": ["F001"], "phase": 1}
	]}`

	var hp domain.HardeningPlan
	require.NoError(t, validateAndDecode(compiledPlanSchema, raw, &hp))
	require.Len(t, hp.Changes, 1)
	assert.Equal(t, domain.CategoryUpnp, hp.Changes[0].Category)
	assert.Equal(t, 1, hp.Changes[0].Phase)
}

func TestPlanSchema_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing changes", `{}`},
		{"bad category", `{"changes": [{"category": "teleport", "change_type": "update", "target": "x"}]}`},
		{"bad change_type", `{"changes": [{"category": "wifi", "change_type": "rename", "target": "x"}]}`},
		{"empty target", `{"changes": [{"category": "wifi", "change_type": "update", "target": ""}]}`},
		{"phase zero", `{"changes": [{"category": "wifi", "change_type": "update", "target": "x", "phase": 0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hp domain.HardeningPlan
			assert.Error(t, validateAndDecode(compiledPlanSchema, tt.raw, &hp))
		})
	}
}

func TestNewServer(t *testing.T) {
	s := NewServer("test", Deps{
		Audit: &application.AuditService{},
		Apply: &application.ApplyService{},
	})
	assert.NotNil(t, s)
}
