// Package scan runs local network scans with nmap and parses its XML
// output into domain scan results.
package scan

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/netharden/netharden/internal/domain"
)

const maxSubnets = 10

var (
	cidrPattern = regexp.MustCompile(
		`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}` +
			`(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)` +
			`(?:/(?:3[0-2]|[12]?[0-9]))?$`)
	portPattern = regexp.MustCompile(`^[\d,\-]+$`)
)

// portPresets map named port selections to nmap arguments.
var portPresets = map[string][]string{
	"top-100":  {"--top-ports", "100"},
	"top-1000": {"--top-ports", "1000"},
	"common":   {"-p", "21,22,23,25,53,80,110,139,143,443,445,993,995,3306,3389,5432,8080"},
}

// Nmap implements domain.ScanProvider by shelling out to the nmap
// binary. Subnets and port specs are validated before they reach the
// command line.
type Nmap struct {
	// Path is the nmap binary, "nmap" by default.
	Path string
	// Timeout bounds a single scan run.
	Timeout time.Duration

	logger *slog.Logger
}

var _ domain.ScanProvider = (*Nmap)(nil)

func NewNmap(logger *slog.Logger) *Nmap {
	if logger == nil {
		logger = slog.Default()
	}
	return &Nmap{Path: "nmap", Timeout: 5 * time.Minute, logger: logger}
}

// ValidSubnet reports whether s is a plain IPv4 address or CIDR with no
// shell metacharacters.
func ValidSubnet(s string) bool {
	return s != "" && cidrPattern.MatchString(s)
}

// ValidPorts reports whether p is a preset name or a digits-commas-
// dashes port specification. Empty means use the default preset.
func ValidPorts(p string) bool {
	if p == "" {
		return true
	}
	if _, ok := portPresets[strings.ToLower(p)]; ok {
		return true
	}
	return portPattern.MatchString(p)
}

// Scan runs nmap against the given subnets and returns the discovered
// hosts with their open ports.
func (n *Nmap) Scan(ctx context.Context, subnets []string, ports string) (*domain.ScanResult, error) {
	if len(subnets) == 0 {
		return nil, fmt.Errorf("at least one subnet is required")
	}
	if len(subnets) > maxSubnets {
		return nil, fmt.Errorf("maximum %d subnets per scan", maxSubnets)
	}
	for _, subnet := range subnets {
		if !ValidSubnet(subnet) {
			return nil, fmt.Errorf("invalid or unsafe subnet: %s", subnet)
		}
	}
	if !ValidPorts(ports) {
		return nil, fmt.Errorf("invalid or unsafe port specification: %s", ports)
	}

	args := []string{"-oX", "-"}
	if preset, ok := portPresets[strings.ToLower(ports)]; ok {
		args = append(args, preset...)
	} else if ports != "" {
		args = append(args, "-p", ports)
	} else {
		args = append(args, portPresets["top-100"]...)
	}
	args = append(args, "-sV", "--version-light", "-T4", "-n", "--open")
	args = append(args, subnets...)

	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, n.Path, args...)
	command := n.Path + " " + strings.Join(args, " ")
	n.logger.Info("running network scan", "command", command)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("scan timed out after %s", n.Timeout)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("nmap failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("running nmap: %w", err)
	}

	result, err := parseXML(out)
	if err != nil {
		return nil, err
	}
	result.Command = command

	n.logger.Info("network scan complete",
		"hosts_up", result.HostsUp, "hosts_total", result.HostsTotal)
	return result, nil
}

// nmaprun mirrors the parts of nmap's -oX output the scanner reads.
type nmaprun struct {
	Hosts    []xmlHost `xml:"host"`
	RunStats struct {
		Finished struct {
			Elapsed string `xml:"elapsed,attr"`
		} `xml:"finished"`
		Hosts struct {
			Up    int `xml:"up,attr"`
			Total int `xml:"total,attr"`
		} `xml:"hosts"`
	} `xml:"runstats"`
}

type xmlHost struct {
	Status struct {
		State string `xml:"state,attr"`
	} `xml:"status"`
	Addresses []struct {
		Addr     string `xml:"addr,attr"`
		AddrType string `xml:"addrtype,attr"`
		Vendor   string `xml:"vendor,attr"`
	} `xml:"address"`
	Hostnames struct {
		Hostname []struct {
			Name string `xml:"name,attr"`
		} `xml:"hostname"`
	} `xml:"hostnames"`
	Ports struct {
		Port []struct {
			Protocol string `xml:"protocol,attr"`
			PortID   int    `xml:"portid,attr"`
			State    struct {
				State string `xml:"state,attr"`
			} `xml:"state"`
			Service struct {
				Name    string `xml:"name,attr"`
				Product string `xml:"product,attr"`
				Version string `xml:"version,attr"`
			} `xml:"service"`
		} `xml:"port"`
	} `xml:"ports"`
}

func parseXML(data []byte) (*domain.ScanResult, error) {
	var run nmaprun
	if err := xml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parsing nmap XML output: %w", err)
	}

	result := &domain.ScanResult{
		HostsUp:    run.RunStats.Hosts.Up,
		HostsTotal: run.RunStats.Hosts.Total,
	}
	if elapsed, err := strconv.ParseFloat(run.RunStats.Finished.Elapsed, 64); err == nil {
		result.DurationSeconds = elapsed
	}

	for _, h := range run.Hosts {
		if h.Status.State != "up" {
			continue
		}

		host := domain.ScanHost{}
		for _, addr := range h.Addresses {
			switch addr.AddrType {
			case "ipv4":
				host.IP = addr.Addr
			case "mac":
				host.MAC = addr.Addr
				host.Vendor = addr.Vendor
			}
		}
		if host.IP == "" {
			continue
		}
		if len(h.Hostnames.Hostname) > 0 {
			host.Hostname = h.Hostnames.Hostname[0].Name
		}

		for _, p := range h.Ports.Port {
			version := strings.TrimSpace(p.Service.Product + " " + p.Service.Version)
			host.Ports = append(host.Ports, domain.ScanPort{
				Port:     p.PortID,
				Protocol: p.Protocol,
				State:    p.State.State,
				Service:  p.Service.Name,
				Version:  version,
			})
		}
		result.Hosts = append(result.Hosts, host)
	}
	return result, nil
}
