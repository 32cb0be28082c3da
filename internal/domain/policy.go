package domain

// Policy is a declarative security policy: category name to named rules.
// A missing category or rule means that rule is simply never evaluated.
type Policy map[string]map[string]Rule

// Rule is one policy rule: an enabled flag, a severity, and rule-specific
// options, all loosely typed so policy documents stay forward-compatible.
type Rule map[string]any

// DefaultPolicy is the baseline applied when no policy document is
// available: encrypted WiFi, no UPnP, IDS/IPS on.
func DefaultPolicy() Policy {
	return Policy{
		"wifi": {
			"require_encryption": Rule{"enabled": true, "severity": "high"},
		},
		"remote_access": {
			"disallow_upnp": Rule{"enabled": true, "severity": "high"},
		},
		"threat_management": {
			"require_ids_ips": Rule{"enabled": true, "severity": "medium"},
		},
	}
}

// Rule looks up a rule within a category. The second return is false
// when either the category or the rule is absent.
func (p Policy) Rule(category, name string) (Rule, bool) {
	rules, ok := p[category]
	if !ok {
		return nil, false
	}
	r, ok := rules[name]
	return r, ok
}

// Enabled reports whether the rule should be evaluated at all.
func (r Rule) Enabled() bool {
	v, _ := r["enabled"].(bool)
	return v
}

// Severity returns the rule's severity, falling back when the policy
// omits it or supplies an unknown value.
func (r Rule) Severity(fallback Severity) Severity {
	s, _ := r["severity"].(string)
	return ParseSeverity(s, fallback)
}

// StringOption reads a rule-specific string option.
func (r Rule) StringOption(key, fallback string) string {
	if v, ok := r[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// StringsOption reads a rule-specific list-of-strings option. Non-string
// elements are dropped rather than erroring.
func (r Rule) StringsOption(key string) []string {
	raw, ok := r[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
