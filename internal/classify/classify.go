// Package classify turns assessed devices into a hierarchical Ansible
// inventory: each device gets an OS family, at most one functional role,
// and a normalized hostname, then the fixed tier/role/os_types tree is
// populated from those labels.
package classify

import (
	"strings"

	"subnetier/internal/domain"
)

// roleKeywords maps hostname substrings to infrastructure roles. First
// match wins, checked in declaration order.
var roleKeywords = []struct {
	substrings []string
	role       domain.Role
}{
	{[]string{"router", "switch", "fw", "firewall", "gateway"}, domain.RoleNetwork},
	{[]string{"nas", "san", "storage", "backup"}, domain.RoleStorage},
}

// webPorts suggest a self-hosted web service
var webPorts = []int{80, 443, 8080}

// databasePorts cover MySQL, PostgreSQL, Oracle and MongoDB
var databasePorts = []int{3306, 5432, 1521, 27017}

// OSFamily maps a device to exactly one OS-family group. The assessed OS
// type wins when it names a real family; otherwise discovery-time
// signals (network-device markers, then open management ports) decide,
// and "other" is the final fallback.
func OSFamily(dev domain.AssessedDevice) domain.OSType {
	if dev.OperatingSystem != nil {
		switch t := dev.OperatingSystem.Type; t {
		case domain.OSLinux, domain.OSWindows, domain.OSMacOS, domain.OSNetworkDevices:
			return t
		}
		// Loaded artifacts may carry type strings outside the known
		// constants; anything network-flavored still groups as gear.
		if strings.Contains(strings.ToLower(string(dev.OperatingSystem.Type)), "network") {
			return domain.OSNetworkDevices
		}
	}

	if dev.NetworkDevice {
		return domain.OSNetworkDevices
	}
	if dev.OSGuess != nil {
		for _, match := range dev.OSGuess.Matches {
			if strings.Contains(strings.ToLower(match), "network") {
				return domain.OSNetworkDevices
			}
		}
	}

	if hasAnyPort(dev, 3389) || hasAnyPort(dev, 5985) || hasAnyPort(dev, 5986) {
		return domain.OSWindows
	}
	if hasAnyPort(dev, 22) {
		return domain.OSLinux
	}
	return domain.OSOther
}

// RoleFor infers the single functional role of a device. Rules are
// ordered: hostname keywords first, then the virtualization flag, then
// web and database ports. No match means ungrouped.
func RoleFor(dev domain.AssessedDevice) domain.Role {
	hostname := strings.ToLower(dev.Hostname)
	if hostname != "" && !strings.EqualFold(hostname, domain.UnknownHostname) {
		for _, rule := range roleKeywords {
			for _, sub := range rule.substrings {
				if strings.Contains(hostname, sub) {
					return rule.role
				}
			}
		}
	}

	if dev.Hardware != nil && dev.Hardware.VirtualizationSupport {
		return domain.RoleVirtualization
	}

	for _, p := range webPorts {
		if hasAnyPort(dev, p) {
			return domain.RoleCloud
		}
	}
	for _, p := range databasePorts {
		if hasAnyPort(dev, p) {
			return domain.RoleBusiness
		}
	}
	return domain.RoleUngrouped
}

// hasAnyPort reports whether the port was seen open at discovery or
// assessment time.
func hasAnyPort(dev domain.AssessedDevice, port int) bool {
	if dev.HasPort(port) {
		return true
	}
	for _, p := range dev.ReachablePorts {
		if p == port {
			return true
		}
	}
	return false
}
