package plan

import (
	"encoding/json"

	"github.com/netharden/netharden/internal/domain"
)

// Edit requests are the typed shapes the change request tool accepts,
// one per category. Optional fields are pointers so "not requested" and
// "set to zero value" stay distinct all the way into the diff engine.

// WifiEdit requests changes to one WLAN, addressed by SSID (or live id).
type WifiEdit struct {
	SSID           string  `json:"ssid"`
	ID             *string `json:"_id,omitempty"`
	Enabled        *bool   `json:"enabled,omitempty"`
	Security       *string `json:"security,omitempty"`
	WpaMode        *string `json:"wpa_mode,omitempty"`
	Wpa3Support    *bool   `json:"wpa3_support,omitempty"`
	Wpa3Transition *bool   `json:"wpa3_transition,omitempty"`
	HideSSID       *bool   `json:"hide_ssid,omitempty"`
	L2Isolation    *bool   `json:"l2_isolation,omitempty"`
	VlanEnabled    *bool   `json:"vlan_enabled,omitempty"`
	Vlan           *int    `json:"vlan,omitempty"`
}

// FirewallEdit requests a create, update, or delete of one firewall rule.
type FirewallEdit struct {
	Action     string  `json:"action"`
	Ruleset    *string `json:"ruleset,omitempty"`
	RuleID     *string `json:"rule_id,omitempty"`
	RuleName   *string `json:"rule_name,omitempty"`
	RuleAction *string `json:"rule_action,omitempty"`
	Protocol   *string `json:"protocol,omitempty"`
	SrcAddress *string `json:"src_address,omitempty"`
	DstAddress *string `json:"dst_address,omitempty"`
	DstPort    *string `json:"dst_port,omitempty"`
	Enabled    *bool   `json:"enabled,omitempty"`
}

// VlanEdit requests a create, update, or delete of one network/VLAN.
type VlanEdit struct {
	Action       string  `json:"action,omitempty"`
	NetworkName  *string `json:"network_name,omitempty"`
	NetworkID    *string `json:"network_id,omitempty"`
	VlanEnabled  *bool   `json:"vlan_enabled,omitempty"`
	Vlan         *int    `json:"vlan,omitempty"`
	Subnet       *string `json:"subnet,omitempty"`
	DhcpEnabled  *bool   `json:"dhcp_enabled,omitempty"`
	Purpose      *string `json:"purpose,omitempty"`
	IgmpSnooping *bool   `json:"igmp_snooping,omitempty"`
}

// UpnpEdit requests changes to the single global UPnP settings record.
type UpnpEdit struct {
	UpnpEnabled   *bool `json:"upnp_enabled,omitempty"`
	NatPmpEnabled *bool `json:"upnp_nat_pmp_enabled,omitempty"`
	SecureMode    *bool `json:"upnp_secure_mode,omitempty"`
}

// EditSet is the tagged union handed to the change request tool: per
// category, the edits to diff and apply. There is at most one UPnP edit
// because UPnP settings are a single global record.
type EditSet struct {
	Wifi     []WifiEdit     `json:"wifi_edits,omitempty"`
	Firewall []FirewallEdit `json:"firewall_edits,omitempty"`
	Vlan     []VlanEdit     `json:"vlan_edits,omitempty"`
	Upnp     *UpnpEdit      `json:"upnp_edits,omitempty"`
}

// Empty reports whether the set requests nothing at all.
func (s EditSet) Empty() bool {
	return len(s.Wifi) == 0 && len(s.Firewall) == 0 && len(s.Vlan) == 0 && s.Upnp == nil
}

// toRecord flattens a typed edit into a desired-state record containing
// only the fields that were actually set. The JSON round trip honors the
// omitempty tags, which is exactly the "only requested fields" contract
// the diff engine needs.
func toRecord(v any) domain.Record {
	data, err := json.Marshal(v)
	if err != nil {
		return domain.Record{}
	}
	var rec domain.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Record{}
	}
	return rec
}

// Record returns the desired-state record for this WLAN edit.
func (e WifiEdit) Record() domain.Record { return toRecord(e) }

// Record returns the desired-state record for this firewall edit.
func (e FirewallEdit) Record() domain.Record { return toRecord(e) }

// Record returns the desired-state record for this VLAN edit.
func (e VlanEdit) Record() domain.Record {
	rec := toRecord(e)
	if e.Action == "" {
		rec["action"] = "update"
	}
	return rec
}

// Record returns the desired-state record for this UPnP edit.
func (e UpnpEdit) Record() domain.Record { return toRecord(e) }
