// Package unifi implements the domain.Controller port against the
// UniFi Dream Machine (UDM) API using session cookie authentication.
package unifi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"sort"
	"strings"
	"time"

	"github.com/netharden/netharden/internal/domain"
)

// Config holds the controller connection settings.
type Config struct {
	BaseURL   string
	Username  string
	Password  string
	Site      string
	VerifySSL bool
	Timeout   time.Duration
}

// Client talks to a UDM-style controller. All mutating and reading
// methods authenticate lazily on first use and re-authenticate when the
// session cookie expires.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger

	authenticated bool
}

var _ domain.Controller = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: controller URL not configured", domain.ErrConnection)
	}
	if cfg.Site == "" {
		cfg.Site = "default"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = slog.Default()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{}
	if !cfg.VerifySSL {
		// UDM controllers ship self-signed certificates.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		http: &http.Client{
			Jar:       jar,
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}, nil
}

// Login authenticates with the controller's auth endpoint. The session
// cookie lands in the client's jar.
func (c *Client) Login(ctx context.Context) error {
	if c.cfg.Username == "" || c.cfg.Password == "" {
		return fmt.Errorf("%w: credentials not configured", domain.ErrAuth)
	}

	body, _ := json.Marshal(map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		c.authenticated = true
		c.logger.Info("authenticated with controller", "url", c.cfg.BaseURL)
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: invalid credentials", domain.ErrAuth)
	default:
		return fmt.Errorf("%w: login returned status %d", domain.ErrAuth, resp.StatusCode)
	}
}

// Logout ends the controller session. Best effort.
func (c *Client) Logout(ctx context.Context) {
	if !c.authenticated {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/api/auth/logout", nil)
	if err == nil {
		if resp, err := c.http.Do(req); err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}
	c.authenticated = false
}

// envelope is the {"meta": ..., "data": [...]} wrapper the controller
// puts around every API response.
type envelope struct {
	Data []domain.Record `json:"data"`
}

// request performs an authenticated call against the site-scoped API.
// The UDM proxies the network application under /proxy/network.
func (c *Client) request(ctx context.Context, method, endpoint string, payload any) ([]domain.Record, error) {
	if !c.authenticated {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	url := fmt.Sprintf("%s/proxy/network/api/s/%s/%s", c.cfg.BaseURL, c.cfg.Site, endpoint)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.authenticated = false
		return nil, fmt.Errorf("%w: session expired", domain.ErrAuth)
	}
	if resp.StatusCode >= 400 {
		return nil, &domain.APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Some endpoints return a bare array.
		var records []domain.Record
		if err2 := json.Unmarshal(raw, &records); err2 != nil {
			return nil, &domain.APIError{Message: fmt.Sprintf("unexpected response body: %v", err)}
		}
		return records, nil
	}
	return env.Data, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]domain.Record, error) {
	return c.request(ctx, http.MethodGet, endpoint, nil)
}

// GetDevices returns normalized adopted devices from stat/device.
func (c *Client) GetDevices(ctx context.Context) ([]domain.Device, error) {
	raw, err := c.get(ctx, "stat/device")
	if err != nil {
		return nil, err
	}

	devices := make([]domain.Device, 0, len(raw))
	for _, dev := range raw {
		name := dev.String("name")
		if name == "" {
			name = dev.StringOr("mac", "Unknown")
		}
		devices = append(devices, domain.Device{
			Name:          name,
			Model:         dev.StringOr("model", "Unknown"),
			Type:          classifyDeviceType(dev.String("type")),
			IP:            dev.String("ip"),
			MAC:           dev.String("mac"),
			Firmware:      dev.String("version"),
			Adopted:       dev.Bool("adopted"),
			UptimeSeconds: intField(dev, "uptime"),
		})
	}
	return devices, nil
}

func classifyDeviceType(unifiType string) string {
	t := strings.ToLower(unifiType)
	switch {
	case strings.HasPrefix(t, "ugw"), strings.HasPrefix(t, "udm"):
		return "gateway"
	case strings.HasPrefix(t, "usw"):
		return "switch"
	case strings.HasPrefix(t, "uap"):
		return "ap"
	default:
		return "other"
	}
}

func intField(r domain.Record, key string) int {
	switch v := r[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// GetWLANs returns wireless network configurations normalized to the
// field names the engine evaluates.
func (c *Client) GetWLANs(ctx context.Context) ([]domain.Record, error) {
	raw, err := c.get(ctx, "rest/wlanconf")
	if err != nil {
		return nil, err
	}

	wlans := make([]domain.Record, 0, len(raw))
	for _, w := range raw {
		wlans = append(wlans, domain.Record{
			"_id":                w["_id"],
			"name":               w.String("name"),
			"ssid":               w.String("name"), // SSID and name are the same field upstream
			"enabled":            w.Bool("enabled"),
			"security":           w.StringOr("security", "open"),
			"wpa_mode":           w.String("wpa_mode"),
			"wpa3_support":       w.Bool("wpa3_support"),
			"wpa3_transition":    w.Bool("wpa3_transition"),
			"hide_ssid":          w.Bool("hide_ssid"),
			"is_guest":           w.Bool("is_guest"),
			"vlan_enabled":       w.Bool("vlan_enabled"),
			"vlan":               w["vlan"],
			"ap_group_ids":       w["ap_group_ids"],
			"usergroup_id":       w.String("usergroup_id"),
			"l2_isolation":       w.Bool("l2_isolation"),
			"mac_filter_enabled": w.Bool("mac_filter_enabled"),
			"mac_filter_policy":  w.StringOr("mac_filter_policy", "allow"),
			"pmf_mode":           w.StringOr("pmf_mode", "disabled"),
		})
	}
	return wlans, nil
}

func (c *Client) CreateWLAN(ctx context.Context, wlan domain.Record) error {
	_, err := c.request(ctx, http.MethodPost, "rest/wlanconf", wlan)
	return err
}

func (c *Client) UpdateWLAN(ctx context.Context, wlanID string, updates domain.Record) error {
	_, err := c.request(ctx, http.MethodPut, "rest/wlanconf/"+wlanID, updates)
	return err
}

func (c *Client) DeleteWLAN(ctx context.Context, wlanID string) error {
	_, err := c.request(ctx, http.MethodDelete, "rest/wlanconf/"+wlanID, nil)
	return err
}

// GetNetworks returns network and VLAN configurations with the DHCP and
// subnet fields renamed to the engine's vocabulary.
func (c *Client) GetNetworks(ctx context.Context) ([]domain.Record, error) {
	raw, err := c.get(ctx, "rest/networkconf")
	if err != nil {
		return nil, err
	}

	networks := make([]domain.Record, 0, len(raw))
	for _, n := range raw {
		networks = append(networks, domain.Record{
			"_id":             n["_id"],
			"name":            n.String("name"),
			"purpose":         n.String("purpose"),
			"vlan_enabled":    n.Bool("vlan_enabled"),
			"vlan":            n["vlan"],
			"subnet":          n.String("ip_subnet"),
			"dhcp_enabled":    n.Bool("dhcpd_enabled"),
			"dhcp_start":      n.String("dhcpd_start"),
			"dhcp_stop":       n.String("dhcpd_stop"),
			"dhcp_lease_time": leaseTime(n),
			"domain_name":     n.String("domain_name"),
			"igmp_snooping":   n.Bool("igmp_snooping"),
			"networkgroup":    n.String("networkgroup"),
		})
	}
	return networks, nil
}

func leaseTime(r domain.Record) int {
	if v := intField(r, "dhcpd_leasetime"); v > 0 {
		return v
	}
	return 86400
}

func (c *Client) CreateNetwork(ctx context.Context, network domain.Record) error {
	_, err := c.request(ctx, http.MethodPost, "rest/networkconf", network)
	return err
}

func (c *Client) UpdateNetwork(ctx context.Context, networkID string, updates domain.Record) error {
	_, err := c.request(ctx, http.MethodPut, "rest/networkconf/"+networkID, updates)
	return err
}

func (c *Client) DeleteNetwork(ctx context.Context, networkID string) error {
	_, err := c.request(ctx, http.MethodDelete, "rest/networkconf/"+networkID, nil)
	return err
}

var knownRulesets = []string{
	"wan_in", "wan_out", "wan_local",
	"lan_in", "lan_out", "lan_local",
	"guest_in", "guest_out", "guest_local",
}

// GetFirewallRules returns rules grouped by ruleset, sorted by
// rule_index within each group. Rules with an unrecognized ruleset land
// under "other".
func (c *Client) GetFirewallRules(ctx context.Context) (map[string][]domain.Record, error) {
	raw, err := c.get(ctx, "rest/firewallrule")
	if err != nil {
		return nil, err
	}

	rulesets := make(map[string][]domain.Record, len(knownRulesets))
	for _, name := range knownRulesets {
		rulesets[name] = []domain.Record{}
	}

	for _, rule := range raw {
		ruleset := strings.ReplaceAll(strings.ToLower(rule.String("ruleset")), "-", "_")

		normalized := domain.Record{
			"_id":                     rule["_id"],
			"name":                    rule.String("name"),
			"enabled":                 rule.BoolOr("enabled", true),
			"action":                  rule.String("action"),
			"protocol":                rule.StringOr("protocol", "all"),
			"protocol_match_excepted": rule.Bool("protocol_match_excepted"),
			"src_firewallgroup_ids":   rule["src_firewallgroup_ids"],
			"src_address":             rule.String("src_address"),
			"src_mac_address":         rule.String("src_mac_address"),
			"src_networkconf_id":      rule.String("src_networkconf_id"),
			"src_networkconf_type":    rule.String("src_networkconf_type"),
			"dst_firewallgroup_ids":   rule["dst_firewallgroup_ids"],
			"dst_address":             rule.String("dst_address"),
			"dst_networkconf_id":      rule.String("dst_networkconf_id"),
			"dst_networkconf_type":    rule.String("dst_networkconf_type"),
			"dst_port":                rule.String("dst_port"),
			"icmp_typename":           rule.String("icmp_typename"),
			"state_established":       rule.Bool("state_established"),
			"state_invalid":           rule.Bool("state_invalid"),
			"state_new":               rule.Bool("state_new"),
			"state_related":           rule.Bool("state_related"),
			"rule_index":              intField(rule, "rule_index"),
		}

		if _, ok := rulesets[ruleset]; !ok {
			ruleset = "other"
		}
		rulesets[ruleset] = append(rulesets[ruleset], normalized)
	}

	for _, rules := range rulesets {
		sort.SliceStable(rules, func(i, j int) bool {
			return intField(rules[i], "rule_index") < intField(rules[j], "rule_index")
		})
	}
	return rulesets, nil
}

func (c *Client) GetFirewallGroups(ctx context.Context) ([]domain.Record, error) {
	raw, err := c.get(ctx, "rest/firewallgroup")
	if err != nil {
		return nil, err
	}

	groups := make([]domain.Record, 0, len(raw))
	for _, g := range raw {
		groups = append(groups, domain.Record{
			"_id":           g["_id"],
			"name":          g.String("name"),
			"group_type":    g.String("group_type"),
			"group_members": g["group_members"],
		})
	}
	return groups, nil
}

func (c *Client) CreateFirewallRule(ctx context.Context, rule domain.Record) error {
	_, err := c.request(ctx, http.MethodPost, "rest/firewallrule", rule)
	return err
}

func (c *Client) UpdateFirewallRule(ctx context.Context, ruleID string, updates domain.Record) error {
	_, err := c.request(ctx, http.MethodPut, "rest/firewallrule/"+ruleID, updates)
	return err
}

func (c *Client) DeleteFirewallRule(ctx context.Context, ruleID string) error {
	_, err := c.request(ctx, http.MethodDelete, "rest/firewallrule/"+ruleID, nil)
	return err
}

// getSettings fetches rest/setting and indexes the sections by key
// (mgmt, usg, ips, dpi, ...).
func (c *Client) getSettings(ctx context.Context) (map[string]domain.Record, error) {
	raw, err := c.get(ctx, "rest/setting")
	if err != nil {
		return nil, err
	}

	sections := make(map[string]domain.Record, len(raw))
	for _, s := range raw {
		sections[s.StringOr("key", "unknown")] = s
	}
	return sections, nil
}

func (c *Client) GetMgmtSettings(ctx context.Context) (domain.Record, error) {
	sections, err := c.getSettings(ctx)
	if err != nil {
		return nil, err
	}
	mgmt := sections["mgmt"]
	return domain.Record{
		"remote_access_enabled":       mgmt.Bool("x_ssh_enabled"),
		"ssh_auth_password_enabled":   mgmt.Bool("x_ssh_auth_password_enabled"),
		"led_enabled":                 mgmt.BoolOr("led_enabled", true),
		"alert_enabled":               mgmt.BoolOr("alert_enabled", true),
		"unifi_remote_access_enabled": mgmt.Bool("unifi_idp_enabled"),
	}, nil
}

func (c *Client) GetUpnpSettings(ctx context.Context) (domain.Record, error) {
	sections, err := c.getSettings(ctx)
	if err != nil {
		return nil, err
	}
	usg := sections["usg"]
	return domain.Record{
		"upnp_enabled":         usg.Bool("upnp_enabled"),
		"upnp_nat_pmp_enabled": usg.Bool("upnp_nat_pmp_enabled"),
		"upnp_secure_mode":     usg.Bool("upnp_secure_mode"),
	}, nil
}

// UpdateUpnpSettings writes UPnP fields into the usg settings section.
func (c *Client) UpdateUpnpSettings(ctx context.Context, updates domain.Record) error {
	sections, err := c.getSettings(ctx)
	if err != nil {
		return err
	}
	usgID := sections["usg"].String("_id")
	if usgID == "" {
		return &domain.APIError{Message: "could not find USG settings ID"}
	}
	_, err = c.request(ctx, http.MethodPut, "rest/setting/usg/"+usgID, updates)
	return err
}

func (c *Client) GetThreatManagementSettings(ctx context.Context) (domain.Record, error) {
	sections, err := c.getSettings(ctx)
	if err != nil {
		return nil, err
	}
	ips := sections["ips"]
	return domain.Record{
		"ids_ips_enabled":       ips.Bool("ips_enabled"),
		"ids_ips_mode":          ips.StringOr("ips_mode", "disabled"),
		"dns_filtering_enabled": ips.Bool("dns_filtering"),
		"honeypot_enabled":      ips.Bool("honeypot_enabled"),
		"suppression":           ips["suppression"],
	}, nil
}

func (c *Client) GetDPISettings(ctx context.Context) (domain.Record, error) {
	sections, err := c.getSettings(ctx)
	if err != nil {
		return nil, err
	}
	dpi := sections["dpi"]
	return domain.Record{
		"dpi_enabled":              dpi.Bool("enabled"),
		"dpi_restrictions_enabled": dpi.Bool("restrictions_enabled"),
	}, nil
}
