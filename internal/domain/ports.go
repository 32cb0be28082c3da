package domain

import "context"

// Controller is the capability surface the reconciliation engine needs
// from a network controller. Records are flat field mappings; the engine
// treats absent fields as category-specific falsy defaults. Timeouts and
// retries are the implementation's concern, not the engine's.
type Controller interface {
	GetDevices(ctx context.Context) ([]Device, error)

	GetWLANs(ctx context.Context) ([]Record, error)
	CreateWLAN(ctx context.Context, wlan Record) error
	UpdateWLAN(ctx context.Context, wlanID string, updates Record) error
	DeleteWLAN(ctx context.Context, wlanID string) error

	GetNetworks(ctx context.Context) ([]Record, error)
	CreateNetwork(ctx context.Context, network Record) error
	UpdateNetwork(ctx context.Context, networkID string, updates Record) error
	DeleteNetwork(ctx context.Context, networkID string) error

	GetFirewallRules(ctx context.Context) (map[string][]Record, error)
	GetFirewallGroups(ctx context.Context) ([]Record, error)
	CreateFirewallRule(ctx context.Context, rule Record) error
	UpdateFirewallRule(ctx context.Context, ruleID string, updates Record) error
	DeleteFirewallRule(ctx context.Context, ruleID string) error

	GetUpnpSettings(ctx context.Context) (Record, error)
	UpdateUpnpSettings(ctx context.Context, updates Record) error

	GetMgmtSettings(ctx context.Context) (Record, error)
	GetThreatManagementSettings(ctx context.Context) (Record, error)
	GetDPISettings(ctx context.Context) (Record, error)
}

// PolicySource loads a security policy document by reference. An empty
// reference returns the source's default policy.
type PolicySource interface {
	Load(ref string) (Policy, error)
}

// ScanProvider discovers hosts on the given subnets for the audit to
// cross-reference. Implementations are optional; the audit runs without
// one.
type ScanProvider interface {
	Scan(ctx context.Context, subnets []string, ports string) (*ScanResult, error)
}
