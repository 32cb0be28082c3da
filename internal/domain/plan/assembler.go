// Package plan turns recommended changes into ordered, typed edit
// requests: grouping by phase for the apply orchestrator and converting
// each change into its category's edit shape.
package plan

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/netharden/netharden/internal/domain"
)

// GroupByPhase partitions the changes into phase buckets, preserving
// relative order within a phase, and returns the phase numbers in
// ascending apply order. The buckets are an exact partition of the input.
func GroupByPhase(changes []domain.RecommendedChange) (map[int][]domain.RecommendedChange, []int) {
	phases := make(map[int][]domain.RecommendedChange)
	for _, c := range changes {
		phases[c.Phase] = append(phases[c.Phase], c)
	}

	numbers := make([]int, 0, len(phases))
	for n := range phases {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return phases, numbers
}

// ConvertToEdits translates recommended changes into the per-category
// edit requests consumed by the change request tool. A change with an
// unknown category is dropped with a warning rather than failing, so new
// categories degrade gracefully. UPnP changes merge into the single
// global edit, later changes winning per field.
func ConvertToEdits(changes []domain.RecommendedChange) (EditSet, []string) {
	var set EditSet
	var warnings []string

	for _, change := range changes {
		switch change.Category {
		case domain.CategoryWifi:
			var edit WifiEdit
			if err := decodeChanges(change.Changes, &edit); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid wifi change for %q: %v", change.Target, err))
				continue
			}
			if edit.SSID == "" {
				edit.SSID = change.Target
			}
			set.Wifi = append(set.Wifi, edit)

		case domain.CategoryFirewall:
			var edit FirewallEdit
			if err := decodeChanges(change.Changes, &edit); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid firewall change for %q: %v", change.Target, err))
				continue
			}
			edit.Action = change.ChangeType
			set.Firewall = append(set.Firewall, edit)

		case domain.CategoryVlan:
			var edit VlanEdit
			if err := decodeChanges(change.Changes, &edit); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid vlan change for %q: %v", change.Target, err))
				continue
			}
			edit.Action = change.ChangeType
			if edit.NetworkName == nil && change.Target != "" {
				name := change.Target
				edit.NetworkName = &name
			}
			set.Vlan = append(set.Vlan, edit)

		case domain.CategoryUpnp:
			var edit UpnpEdit
			if err := decodeChanges(change.Changes, &edit); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid upnp change: %v", err))
				continue
			}
			set.Upnp = mergeUpnp(set.Upnp, edit)

		default:
			warnings = append(warnings, fmt.Sprintf("dropping change with unknown category %q (target %q)", change.Category, change.Target))
		}
	}

	return set, warnings
}

func decodeChanges(changes map[string]any, out any) error {
	data, err := json.Marshal(changes)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func mergeUpnp(existing *UpnpEdit, next UpnpEdit) *UpnpEdit {
	if existing == nil {
		return &next
	}
	if next.UpnpEnabled != nil {
		existing.UpnpEnabled = next.UpnpEnabled
	}
	if next.NatPmpEnabled != nil {
		existing.NatPmpEnabled = next.NatPmpEnabled
	}
	if next.SecureMode != nil {
		existing.SecureMode = next.SecureMode
	}
	return existing
}
