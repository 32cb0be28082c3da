// Package diff computes field-level differences between the controller's
// current configuration and a desired target state. Everything here is
// pure: callers fetch state, this package only compares it.
package diff

import (
	"fmt"
	"strings"

	"github.com/netharden/netharden/internal/domain"
)

// Action is the kind of change a ConfigChange represents.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// FieldChange is the atomic unit of a diff: one field moving from its
// current value to a desired one.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

// ConfigChange is one item-level diff entry.
type ConfigChange struct {
	Action     Action        `json:"action"`
	ItemType   string        `json:"item_type"`
	ItemID     string        `json:"item_id,omitempty"`
	ItemName   string        `json:"item_name"`
	Changes    []FieldChange `json:"changes"`
	FullConfig domain.Record `json:"full_config,omitempty"` // creates carry the full desired record
}

// Result is the diff engine's output. HasChanges is exactly
// len(Changes) > 0; Summary is for display only.
type Result struct {
	Changes    []ConfigChange `json:"changes"`
	HasChanges bool           `json:"has_changes"`
	Summary    string         `json:"summary"`
}

func newResult(changes []ConfigChange, summaryOne, summaryNone string) Result {
	if len(changes) == 0 {
		return Result{Summary: summaryNone}
	}
	return Result{Changes: changes, HasChanges: true, Summary: summaryOne}
}

// diffFields compares the desired record against the current one over a
// fixed field list. Only fields present in desired are considered, so the
// diff never invents fields absent from both sides. Each pair maps the
// desired-side key to the current-side key (wire names differ for a few).
func diffFields(current, desired domain.Record, pairs [][2]string) []FieldChange {
	var changes []FieldChange
	for _, p := range pairs {
		desiredKey, currentKey := p[0], p[1]
		if !desired.Has(desiredKey) {
			continue
		}
		oldVal := current[currentKey]
		newVal := desired[desiredKey]
		if !valuesEqual(oldVal, newVal) {
			changes = append(changes, FieldChange{Field: desiredKey, OldValue: oldVal, NewValue: newVal})
		}
	}
	return changes
}

// valuesEqual compares loosely typed record values. Numeric values are
// compared as float64 because JSON decoding and Go literals disagree on
// int vs float for the same wire value.
func valuesEqual(a, b any) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
		return false
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

var wifiFields = [][2]string{
	{"enabled", "enabled"},
	{"security", "security"},
	{"wpa_mode", "wpa_mode"},
	{"wpa3_support", "wpa3_support"},
	{"wpa3_transition", "wpa3_transition"},
	{"hide_ssid", "hide_ssid"},
	{"l2_isolation", "l2_isolation"},
	{"vlan_enabled", "vlan_enabled"},
	{"vlan", "vlan"},
	{"mac_filter_enabled", "mac_filter_enabled"},
	{"pmf_mode", "pmf_mode"},
}

// PlanWifiChanges diffs desired WLAN edits against the current WLAN list.
// Items match by live identifier when the desired record carries one,
// otherwise by SSID name; unmatched desired items become creates.
func PlanWifiChanges(currentWlans []domain.Record, desired []domain.Record) Result {
	var changes []ConfigChange

	currentByName := make(map[string]domain.Record, len(currentWlans))
	currentByID := make(map[string]domain.Record, len(currentWlans))
	for _, w := range currentWlans {
		currentByName[w.String("name")] = w
		if id := w.String("_id"); id != "" {
			currentByID[id] = w
		}
	}

	for _, d := range desired {
		ssid := d.StringOr("ssid", d.String("name"))
		current := currentByID[d.String("_id")]
		if current == nil {
			if ssid == "" {
				continue
			}
			current = currentByName[ssid]
		}

		if current == nil {
			changes = append(changes, ConfigChange{
				Action:     ActionCreate,
				ItemType:   "wifi",
				ItemName:   ssid,
				FullConfig: d,
			})
			continue
		}

		fieldChanges := diffFields(current, d, wifiFields)
		if len(fieldChanges) > 0 {
			changes = append(changes, ConfigChange{
				Action:   ActionUpdate,
				ItemType: "wifi",
				ItemID:   current.String("_id"),
				ItemName: current.StringOr("name", ssid),
				Changes:  fieldChanges,
			})
		}
	}

	return newResult(changes,
		fmt.Sprintf("%d WiFi change(s) planned", len(changes)),
		"No WiFi changes needed")
}

var firewallFields = [][2]string{
	{"enabled", "enabled"},
	{"rule_action", "action"},
	{"protocol", "protocol"},
	{"src_address", "src_address"},
	{"dst_address", "dst_address"},
	{"dst_port", "dst_port"},
}

// PlanFirewallChanges diffs desired firewall edits against the current
// rules, which arrive grouped by ruleset. Rules match by identifier when
// present, then by name within the named ruleset; otherwise the edit is
// treated as a create. Deletes are explicit only.
func PlanFirewallChanges(currentRules map[string][]domain.Record, desired []domain.Record) Result {
	var changes []ConfigChange

	allRules := make(map[string]domain.Record)
	for ruleset, rules := range currentRules {
		for _, rule := range rules {
			if id := rule.String("_id"); id != "" {
				withRuleset := make(domain.Record, len(rule)+1)
				for k, v := range rule {
					withRuleset[k] = v
				}
				withRuleset["_ruleset"] = ruleset
				allRules[id] = withRuleset
			}
		}
	}

	for _, d := range desired {
		action := d.StringOr("action", "update")
		ruleID := d.String("rule_id")
		ruleName := d.StringOr("rule_name", d.StringOr("name", "Unnamed Rule"))

		switch action {
		case "create":
			changes = append(changes, ConfigChange{
				Action:     ActionCreate,
				ItemType:   "firewall_rule",
				ItemName:   ruleName,
				FullConfig: d,
			})
			continue
		case "delete":
			if ruleID != "" {
				current := allRules[ruleID]
				changes = append(changes, ConfigChange{
					Action:   ActionDelete,
					ItemType: "firewall_rule",
					ItemID:   ruleID,
					ItemName: current.StringOr("name", ruleName),
				})
			}
			continue
		}

		if ruleID == "" {
			for _, rule := range currentRules[d.String("ruleset")] {
				if rule.String("name") == ruleName {
					ruleID = rule.String("_id")
					break
				}
			}
		}
		if ruleID == "" {
			// No way to address an existing rule: plan a create instead.
			changes = append(changes, ConfigChange{
				Action:     ActionCreate,
				ItemType:   "firewall_rule",
				ItemName:   ruleName,
				FullConfig: d,
			})
			continue
		}

		current := allRules[ruleID]
		fieldChanges := diffFields(current, d, firewallFields)
		if len(fieldChanges) > 0 {
			changes = append(changes, ConfigChange{
				Action:   ActionUpdate,
				ItemType: "firewall_rule",
				ItemID:   ruleID,
				ItemName: current.StringOr("name", ruleName),
				Changes:  fieldChanges,
			})
		}
	}

	return newResult(changes,
		fmt.Sprintf("%d firewall rule change(s) planned", len(changes)),
		"No firewall changes needed")
}

var vlanFields = [][2]string{
	{"vlan_enabled", "vlan_enabled"},
	{"vlan", "vlan"},
	{"subnet", "ip_subnet"},
	{"dhcp_enabled", "dhcpd_enabled"},
	{"purpose", "purpose"},
	{"igmp_snooping", "igmp_snooping"},
}

// PlanVlanChanges diffs desired network/VLAN edits against the current
// network list. Items resolve by network_id first, then by name.
func PlanVlanChanges(currentNetworks []domain.Record, desired []domain.Record) Result {
	var changes []ConfigChange

	currentByName := make(map[string]domain.Record, len(currentNetworks))
	currentByID := make(map[string]domain.Record, len(currentNetworks))
	for _, n := range currentNetworks {
		currentByName[n.String("name")] = n
		if id := n.String("_id"); id != "" {
			currentByID[id] = n
		}
	}

	for _, d := range desired {
		action := d.StringOr("action", "update")
		name := d.StringOr("network_name", d.String("name"))

		current := currentByID[d.String("network_id")]
		if current == nil {
			current = currentByName[name]
		}

		switch action {
		case "create":
			changes = append(changes, ConfigChange{
				Action:     ActionCreate,
				ItemType:   "vlan",
				ItemName:   name,
				FullConfig: d,
			})
			continue
		case "delete":
			if current != nil {
				changes = append(changes, ConfigChange{
					Action:   ActionDelete,
					ItemType: "vlan",
					ItemID:   current.String("_id"),
					ItemName: current.StringOr("name", name),
				})
			}
			continue
		}

		if current == nil {
			changes = append(changes, ConfigChange{
				Action:     ActionCreate,
				ItemType:   "vlan",
				ItemName:   name,
				FullConfig: d,
			})
			continue
		}

		fieldChanges := diffFields(current, d, vlanFields)
		if len(fieldChanges) > 0 {
			changes = append(changes, ConfigChange{
				Action:   ActionUpdate,
				ItemType: "vlan",
				ItemID:   current.String("_id"),
				ItemName: current.StringOr("name", name),
				Changes:  fieldChanges,
			})
		}
	}

	return newResult(changes,
		fmt.Sprintf("%d VLAN/network change(s) planned", len(changes)),
		"No VLAN changes needed")
}

var upnpFields = []string{
	"upnp_enabled",
	"upnp_nat_pmp_enabled",
	"upnp_secure_mode",
}

// PlanUpnpChanges diffs the flat UPnP settings mapping field by field.
func PlanUpnpChanges(current domain.Record, desired domain.Record) Result {
	var fieldChanges []FieldChange
	for _, field := range upnpFields {
		if !desired.Has(field) {
			continue
		}
		oldVal := current[field]
		newVal := desired[field]
		if !valuesEqual(oldVal, newVal) {
			fieldChanges = append(fieldChanges, FieldChange{Field: field, OldValue: oldVal, NewValue: newVal})
		}
	}

	var changes []ConfigChange
	if len(fieldChanges) > 0 {
		changes = append(changes, ConfigChange{
			Action:   ActionUpdate,
			ItemType: "upnp",
			ItemID:   "usg_settings",
			ItemName: "UPnP Settings",
			Changes:  fieldChanges,
		})
	}

	return newResult(changes, "UPnP changes planned", "No UPnP changes needed")
}

// Combine concatenates diff results. HasChanges is the logical OR of the
// inputs'; the summary joins each non-empty input's own summary.
func Combine(diffs ...Result) Result {
	var all []ConfigChange
	var summaries []string
	for _, d := range diffs {
		all = append(all, d.Changes...)
		if d.HasChanges {
			summaries = append(summaries, d.Summary)
		}
	}

	summary := "No changes needed"
	if len(summaries) > 0 {
		summary = strings.Join(summaries, "; ")
	}
	return Result{
		Changes:    all,
		HasChanges: len(all) > 0,
		Summary:    summary,
	}
}
