package application_test

import (
	"context"
	"fmt"

	"github.com/netharden/netharden/internal/domain"
)

// fakeController is an in-memory domain.Controller. Mutations are
// recorded in calls; errors are injected per method name.
type fakeController struct {
	devices  []domain.Device
	wlans    []domain.Record
	networks []domain.Record
	firewall map[string][]domain.Record
	upnp     domain.Record
	mgmt     domain.Record
	threat   domain.Record
	dpi      domain.Record

	calls []string
	errs  map[string]error
}

func newFakeController() *fakeController {
	return &fakeController{
		devices:  []domain.Device{{Name: "Gateway", Type: "gateway", Adopted: true}},
		firewall: map[string][]domain.Record{},
		upnp:     domain.Record{},
		mgmt:     domain.Record{},
		threat:   domain.Record{"ids_ips_enabled": true, "ids_ips_mode": "ips"},
		dpi:      domain.Record{"dpi_enabled": true},
		errs:     map[string]error{},
	}
}

func (f *fakeController) failOn(method string, err error) { f.errs[method] = err }

func (f *fakeController) record(method string, args ...any) error {
	if err := f.errs[method]; err != nil {
		return err
	}
	call := method
	for _, a := range args {
		call += fmt.Sprintf(" %v", a)
	}
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeController) GetDevices(context.Context) ([]domain.Device, error) {
	if err := f.errs["GetDevices"]; err != nil {
		return nil, err
	}
	return f.devices, nil
}

func (f *fakeController) GetWLANs(context.Context) ([]domain.Record, error) {
	if err := f.errs["GetWLANs"]; err != nil {
		return nil, err
	}
	return f.wlans, nil
}

func (f *fakeController) CreateWLAN(_ context.Context, wlan domain.Record) error {
	return f.record("CreateWLAN", wlan.String("name"))
}

func (f *fakeController) UpdateWLAN(_ context.Context, id string, _ domain.Record) error {
	return f.record("UpdateWLAN", id)
}

func (f *fakeController) DeleteWLAN(_ context.Context, id string) error {
	return f.record("DeleteWLAN", id)
}

func (f *fakeController) GetNetworks(context.Context) ([]domain.Record, error) {
	if err := f.errs["GetNetworks"]; err != nil {
		return nil, err
	}
	return f.networks, nil
}

func (f *fakeController) CreateNetwork(_ context.Context, network domain.Record) error {
	return f.record("CreateNetwork", network.String("name"))
}

func (f *fakeController) UpdateNetwork(_ context.Context, id string, _ domain.Record) error {
	return f.record("UpdateNetwork", id)
}

func (f *fakeController) DeleteNetwork(_ context.Context, id string) error {
	return f.record("DeleteNetwork", id)
}

func (f *fakeController) GetFirewallRules(context.Context) (map[string][]domain.Record, error) {
	if err := f.errs["GetFirewallRules"]; err != nil {
		return nil, err
	}
	return f.firewall, nil
}

func (f *fakeController) GetFirewallGroups(context.Context) ([]domain.Record, error) {
	return nil, nil
}

func (f *fakeController) CreateFirewallRule(_ context.Context, rule domain.Record) error {
	return f.record("CreateFirewallRule", rule.String("name"))
}

func (f *fakeController) UpdateFirewallRule(_ context.Context, id string, _ domain.Record) error {
	return f.record("UpdateFirewallRule", id)
}

func (f *fakeController) DeleteFirewallRule(_ context.Context, id string) error {
	return f.record("DeleteFirewallRule", id)
}

func (f *fakeController) GetUpnpSettings(context.Context) (domain.Record, error) {
	if err := f.errs["GetUpnpSettings"]; err != nil {
		return nil, err
	}
	return f.upnp, nil
}

func (f *fakeController) UpdateUpnpSettings(_ context.Context, _ domain.Record) error {
	return f.record("UpdateUpnpSettings")
}

func (f *fakeController) GetMgmtSettings(context.Context) (domain.Record, error) {
	if err := f.errs["GetMgmtSettings"]; err != nil {
		return nil, err
	}
	return f.mgmt, nil
}

func (f *fakeController) GetThreatManagementSettings(context.Context) (domain.Record, error) {
	if err := f.errs["GetThreatManagementSettings"]; err != nil {
		return nil, err
	}
	return f.threat, nil
}

func (f *fakeController) GetDPISettings(context.Context) (domain.Record, error) {
	if err := f.errs["GetDPISettings"]; err != nil {
		return nil, err
	}
	return f.dpi, nil
}

// fakePolicySource returns a fixed policy or error.
type fakePolicySource struct {
	policy domain.Policy
	err    error
}

func (f fakePolicySource) Load(string) (domain.Policy, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.policy != nil {
		return f.policy, nil
	}
	return domain.DefaultPolicy(), nil
}

// fakeScanner returns a canned scan result or error.
type fakeScanner struct {
	result *domain.ScanResult
	err    error
}

func (f fakeScanner) Scan(context.Context, []string, string) (*domain.ScanResult, error) {
	return f.result, f.err
}
