package domain

// Record is a loosely typed configuration item as returned by the
// controller. Absent fields read as their zero value so one device's
// incomplete data never aborts an evaluation.
type Record map[string]any

// Bool reads a boolean field, treating absence or a wrong type as false.
func (r Record) Bool(key string) bool {
	v, _ := r[key].(bool)
	return v
}

// String reads a string field, treating absence or a wrong type as "".
func (r Record) String(key string) string {
	v, _ := r[key].(string)
	return v
}

// BoolOr reads a boolean field with an explicit fallback for absence or
// a wrong type.
func (r Record) BoolOr(key string, fallback bool) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return fallback
}

// StringOr reads a string field with an explicit fallback.
func (r Record) StringOr(key, fallback string) string {
	if v, ok := r[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Has reports whether the field is present at all, regardless of type.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity maps a policy-supplied severity string to a Severity,
// falling back to the given default for unknown values.
func ParseSeverity(s string, fallback Severity) Severity {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s)
	default:
		return fallback
	}
}

// Finding is a detected policy violation. Findings are created by the
// evaluator during one evaluation pass and never mutated afterwards.
type Finding struct {
	ID               string   `json:"id"`
	Severity         Severity `json:"severity"`
	Category         string   `json:"category"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	CurrentValue     any      `json:"current_value,omitempty"`
	RecommendedValue any      `json:"recommended_value,omitempty"`
	Remediation      string   `json:"remediation,omitempty"`
}

// Change categories understood by the plan assembler and the apply path.
const (
	CategoryWifi     = "wifi"
	CategoryFirewall = "firewall"
	CategoryVlan     = "vlan"
	CategoryUpnp     = "upnp"
)

// RecommendedChange is a proposed configuration mutation tied back to
// the findings that motivated it. Phase controls apply ordering: lower
// phases are lower blast-radius and go first.
type RecommendedChange struct {
	Category   string         `json:"category"`
	ChangeType string         `json:"change_type"` // create, update, delete
	Target     string         `json:"target"`
	Changes    map[string]any `json:"changes"`
	FindingIDs []string       `json:"finding_ids"`
	Phase      int            `json:"phase"`
}

// HardeningPlan is an ordered collection of recommended changes, either
// produced by an audit or assembled by hand.
type HardeningPlan struct {
	Changes []RecommendedChange `json:"changes"`
}

// PhaseDescriptions maps the conventional phase numbers to what they
// cover. Unknown phases render as "Phase N".
var PhaseDescriptions = map[int]string{
	1: "Low-risk changes (UPnP, unused SSIDs, client isolation)",
	2: "Firewall rule changes",
	3: "VLAN and network segmentation changes",
}

// Device is a normalized controller device, used for inventory display
// and the post-phase connectivity check.
type Device struct {
	Name          string `json:"name"`
	Model         string `json:"model"`
	Type          string `json:"type"` // gateway, switch, ap, other
	IP            string `json:"ip"`
	MAC           string `json:"mac"`
	Firmware      string `json:"firmware"`
	Adopted       bool   `json:"adopted"`
	UptimeSeconds int    `json:"uptime_seconds"`
}

// ScanHost is one discovered host from an optional network scan.
type ScanHost struct {
	IP       string     `json:"ip"`
	MAC      string     `json:"mac,omitempty"`
	Hostname string     `json:"hostname,omitempty"`
	Vendor   string     `json:"vendor,omitempty"`
	Ports    []ScanPort `json:"ports,omitempty"`
}

// ScanPort is one open port on a scanned host.
type ScanPort struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	State    string `json:"state"`
	Service  string `json:"service,omitempty"`
	Version  string `json:"version,omitempty"`
}

// ScanResult summarizes a network scan.
type ScanResult struct {
	Hosts           []ScanHost `json:"hosts"`
	HostsUp         int        `json:"hosts_up"`
	HostsTotal      int        `json:"hosts_total"`
	DurationSeconds float64    `json:"scan_duration_seconds"`
	Command         string     `json:"command_executed,omitempty"`
}
