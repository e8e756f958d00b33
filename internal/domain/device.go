package domain

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// UnknownHostname is the sentinel recorded when reverse lookup fails
const UnknownHostname = "Unknown"

// DiscoveryMethod identifies the technique that produced a device record
type DiscoveryMethod string

const (
	DiscoveryScan DiscoveryMethod = "scan"
	DiscoveryARP  DiscoveryMethod = "arp"
	DiscoveryDHCP DiscoveryMethod = "dhcp"
)

// methodPriority orders discovery methods by field fidelity. A scan result
// carries OS and service detail that ARP and DHCP cannot provide, so its
// fields win on conflict.
var methodPriority = map[DiscoveryMethod]int{
	DiscoveryScan: 3,
	DiscoveryARP:  2,
	DiscoveryDHCP: 1,
}

// Priority returns the merge precedence of a discovery method (higher wins)
func (m DiscoveryMethod) Priority() int {
	return methodPriority[m]
}

// PortRecord describes one open port found by the scan method
type PortRecord struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol,omitempty"`
	Service  string `json:"service,omitempty"`
	Product  string `json:"product,omitempty"`
}

// OSGuess holds the ranked OS fingerprint result from the scan method
type OSGuess struct {
	Name     string   `json:"name"`
	Accuracy int      `json:"accuracy"`
	Matches  []string `json:"matches,omitempty"`
}

// DiscoveredDevice is one host candidate found on the subnet.
// IPAddress is the unique key within a run; records from different methods
// for the same address are merge candidates, never duplicates.
type DiscoveredDevice struct {
	IPAddress       string          `json:"ip_address"`
	Hostname        string          `json:"hostname,omitempty"`
	MACAddress      string          `json:"mac_address,omitempty"`
	DiscoveryMethod DiscoveryMethod `json:"discovery_method"`
	OpenPorts       []PortRecord    `json:"open_ports,omitempty"`
	OSGuess         *OSGuess        `json:"os,omitempty"`
	NetworkDevice   bool            `json:"network_device,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Validate checks the record invariants
func (d *DiscoveredDevice) Validate() error {
	if net.ParseIP(d.IPAddress) == nil {
		return fmt.Errorf("invalid ip_address %q", d.IPAddress)
	}
	return nil
}

// HasPort reports whether the device was seen with the given open port
func (d *DiscoveredDevice) HasPort(port int) bool {
	for _, p := range d.OpenPorts {
		if p.Port == port {
			return true
		}
	}
	return false
}

// Merge folds another record for the same address into this one. Fields are
// unioned; when both sides carry a value the higher-priority method wins.
// DiscoveryMethod always reflects the highest-priority source seen.
func (d *DiscoveredDevice) Merge(other *DiscoveredDevice) {
	if other.IPAddress != d.IPAddress {
		return
	}

	otherWins := other.DiscoveryMethod.Priority() > d.DiscoveryMethod.Priority()

	if d.Hostname == "" || d.Hostname == UnknownHostname ||
		(otherWins && other.Hostname != "" && other.Hostname != UnknownHostname) {
		if other.Hostname != "" {
			d.Hostname = other.Hostname
		}
	}
	if d.MACAddress == "" || (otherWins && other.MACAddress != "") {
		if other.MACAddress != "" {
			d.MACAddress = other.MACAddress
		}
	}
	if len(d.OpenPorts) == 0 {
		d.OpenPorts = other.OpenPorts
	}
	if d.OSGuess == nil {
		d.OSGuess = other.OSGuess
	}
	if other.NetworkDevice {
		d.NetworkDevice = true
	}
	if otherWins {
		d.DiscoveryMethod = other.DiscoveryMethod
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = other.Timestamp
	}
}

// AssessmentMethod identifies the introspection technique that produced a profile
type AssessmentMethod string

const (
	AssessSSH       AssessmentMethod = "ssh"
	AssessWinRM     AssessmentMethod = "winrm"
	AssessBasicScan AssessmentMethod = "basic_scan"
	AssessNone      AssessmentMethod = "none"
)

// OSType is the coarse operating system family of a host
type OSType string

const (
	OSLinux          OSType = "linux"
	OSWindows        OSType = "windows"
	OSMacOS          OSType = "macos"
	OSNetworkDevices OSType = "network_devices"
	OSOther          OSType = "other"
	OSUnknown        OSType = "unknown"
)

// OperatingSystem holds OS release identifiers gathered during assessment
type OperatingSystem struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Type    OSType `json:"type,omitempty"`
}

// CPU describes processor topology. Fields the probing method could not
// retrieve stay nil.
type CPU struct {
	Cores             *int   `json:"cores,omitempty"`
	LogicalProcessors *int   `json:"logical_processors,omitempty"`
	Architecture      string `json:"architecture,omitempty"`
	Model             string `json:"model,omitempty"`
}

// Memory holds memory capacity in megabytes
type Memory struct {
	TotalMB *int `json:"total_mb,omitempty"`
}

// Volume describes one disk volume or logical drive
type Volume struct {
	Filesystem   string `json:"filesystem,omitempty"`
	Size         string `json:"size,omitempty"`
	Used         string `json:"used,omitempty"`
	Available    string `json:"available,omitempty"`
	UsagePercent string `json:"usage_percent,omitempty"`
	MountPoint   string `json:"mount_point,omitempty"`
}

// Hardware is the hardware profile of an assessed host
type Hardware struct {
	CPU                   CPU      `json:"cpu"`
	Memory                Memory   `json:"memory"`
	Storage               []Volume `json:"storage,omitempty"`
	VirtualizationSupport bool     `json:"virtualization_support"`
}

// Software flags software capabilities observed on the host
type Software struct {
	DockerInstalled bool `json:"docker_installed"`
}

// AssessedDevice is a DiscoveredDevice enriched with a hardware/software
// profile. Enrichment is additive: the discovery fields are embedded
// unchanged and the assessment fields reflect only the single method that
// succeeded, never a partial merge across methods.
type AssessedDevice struct {
	DiscoveredDevice

	AssessmentMethod    AssessmentMethod `json:"assessment_method"`
	OperatingSystem     *OperatingSystem `json:"operating_system,omitempty"`
	Hardware            *Hardware        `json:"hardware,omitempty"`
	Software            *Software        `json:"software,omitempty"`
	ReachablePorts      []int            `json:"reachable_ports,omitempty"`
	AssessmentTimestamp time.Time        `json:"assessment_timestamp"`
}

// IPLess orders IP addresses numerically rather than lexically, so
// .9 sorts before .30. Unparseable addresses fall back to string order.
func IPLess(a, b string) bool {
	ipA := net.ParseIP(a)
	ipB := net.ParseIP(b)
	if ipA == nil || ipB == nil {
		return a < b
	}
	if a4, b4 := ipA.To4(), ipB.To4(); a4 != nil && b4 != nil {
		return binary.BigEndian.Uint32(a4) < binary.BigEndian.Uint32(b4)
	}
	return a < b
}
