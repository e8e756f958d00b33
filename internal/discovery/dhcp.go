package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"subnetier/internal/domain"
)

// defaultLeasePaths are the ISC dhcpd lease file locations tried in order
var defaultLeasePaths = []string{
	"/var/lib/dhcp/dhcpd.leases",
	"/var/lib/dhcpd/dhcpd.leases",
	"/var/lib/misc/dhcpd.leases",
}

// LeaseTableMethod discovers hosts from the local DHCP server's lease
// table: `netsh dhcp` on Windows, an ISC dhcpd lease file elsewhere.
type LeaseTableMethod struct {
	leaseFile string
	log       *zap.Logger
}

// NewLeaseTableMethod creates the method. leaseFile overrides the default
// lease file search paths; empty means search.
func NewLeaseTableMethod(leaseFile string, log *zap.Logger) *LeaseTableMethod {
	return &LeaseTableMethod{leaseFile: leaseFile, log: log}
}

// Name implements Method
func (m *LeaseTableMethod) Name() domain.DiscoveryMethod {
	return domain.DiscoveryDHCP
}

// Available checks for a lease source on this platform
func (m *LeaseTableMethod) Available(ctx context.Context) error {
	if runtime.GOOS == "windows" {
		if _, err := exec.LookPath("netsh"); err != nil {
			return fmt.Errorf("netsh not found: %w", err)
		}
		return nil
	}
	if m.findLeaseFile() == "" {
		return fmt.Errorf("no DHCP lease file found (tried %s)", strings.Join(defaultLeasePaths, ", "))
	}
	return nil
}

// Discover emits one record per lease entry. Entries outside the subnet
// are dropped so a server holding leases for several scopes cannot leak
// foreign hosts into the run.
func (m *LeaseTableMethod) Discover(ctx context.Context, subnet string) ([]domain.DiscoveredDevice, error) {
	var devices []domain.DiscoveredDevice
	var err error

	if runtime.GOOS == "windows" {
		devices, err = m.queryNetsh(ctx)
	} else {
		devices, err = m.readLeaseFile()
	}
	if err != nil {
		return nil, err
	}

	filtered := devices[:0]
	for _, dev := range devices {
		if subnetContains(subnet, dev.IPAddress) {
			filtered = append(filtered, dev)
		}
	}
	return filtered, nil
}

// findLeaseFile returns the configured lease file or the first default
// path that exists.
func (m *LeaseTableMethod) findLeaseFile() string {
	if m.leaseFile != "" {
		if _, err := os.Stat(m.leaseFile); err == nil {
			return m.leaseFile
		}
		return ""
	}
	for _, path := range defaultLeasePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (m *LeaseTableMethod) readLeaseFile() ([]domain.DiscoveredDevice, error) {
	path := m.findLeaseFile()
	if path == "" {
		return nil, fmt.Errorf("DHCP lease file not found")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lease file %s: %w", path, err)
	}
	m.log.Debug("parsing DHCP lease file", zap.String("path", path))
	return parseLeaseFile(string(data), time.Now()), nil
}

// parseLeaseFile extracts {ip, mac, hostname} from ISC dhcpd lease
// declarations. Declarations without a hardware address are skipped.
func parseLeaseFile(content string, now time.Time) []domain.DiscoveredDevice {
	var devices []domain.DiscoveredDevice

	for _, block := range strings.Split(content, "lease ")[1:] {
		lines := strings.Split(block, "\n")
		if len(lines) == 0 {
			continue
		}

		ip, _, found := strings.Cut(lines[0], " ")
		if !found {
			continue
		}

		var mac, hostname string
		for _, line := range lines[1:] {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "hardware ethernet"):
				fields := strings.Fields(line)
				mac = strings.TrimSuffix(fields[len(fields)-1], ";")
			case strings.HasPrefix(line, "client-hostname"):
				fields := strings.Fields(line)
				hostname = strings.Trim(fields[len(fields)-1], `";`)
			}
		}

		if ip == "" || mac == "" {
			continue
		}
		if hostname == "" {
			hostname = domain.UnknownHostname
		}
		devices = append(devices, domain.DiscoveredDevice{
			IPAddress:       ip,
			Hostname:        hostname,
			MACAddress:      strings.ToUpper(mac),
			DiscoveryMethod: domain.DiscoveryDHCP,
			Timestamp:       now,
		})
	}
	return devices
}

func (m *LeaseTableMethod) queryNetsh(ctx context.Context) ([]domain.DiscoveredDevice, error) {
	out, err := exec.CommandContext(ctx,
		"netsh", "dhcp", "server", `\\localhost`, "scope", "all", "show", "clients").Output()
	if err != nil {
		return nil, fmt.Errorf("netsh dhcp query: %w", err)
	}
	return parseNetshClients(string(out), time.Now()), nil
}

// parseNetshClients parses `netsh dhcp ... show clients` output, one
// client per line: IP, MAC, then an optional name column, with bare
// dashes separating the columns.
func parseNetshClients(out string, now time.Time) []domain.DiscoveredDevice {
	var devices []domain.DiscoveredDevice

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") || strings.Contains(line, "Client IP Address") {
			continue
		}
		raw := strings.Fields(line)
		fields := raw[:0]
		for _, f := range raw {
			if f != "-" {
				fields = append(fields, f)
			}
		}
		if len(fields) < 2 || net.ParseIP(fields[0]) == nil {
			continue
		}

		hostname := domain.UnknownHostname
		if len(fields) > 2 {
			hostname = fields[2]
		}
		devices = append(devices, domain.DiscoveredDevice{
			IPAddress:       fields[0],
			Hostname:        hostname,
			MACAddress:      normalizeMAC(fields[1]),
			DiscoveryMethod: domain.DiscoveryDHCP,
			Timestamp:       now,
		})
	}
	return devices
}
