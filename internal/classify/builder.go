package classify

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"subnetier/internal/domain"
)

// Builder populates the fixed inventory tree from assessed devices
type Builder struct {
	log *zap.Logger
}

// NewBuilder creates an inventory builder
func NewBuilder(log *zap.Logger) *Builder {
	return &Builder{log: log}
}

// Build classifies every device and returns the populated tree. Each
// host lands in exactly one OS-family group and in at most one role
// group; devices with no role go to ungrouped instead. Host variables
// are attached under the OS group (or ungrouped), while role group
// membership is recorded with an empty mapping.
func (b *Builder) Build(devices []domain.AssessedDevice) *domain.InventoryTree {
	tree := domain.NewInventoryTree()
	used := make(map[string]bool)

	for _, dev := range devices {
		key := uniqueKey(HostKey(dev), dev.IPAddress, used)
		used[key] = true

		family := OSFamily(dev)
		role := RoleFor(dev)
		vars := hostVars(dev, family)

		if osGroup := tree.OSGroup(family); osGroup != nil {
			osGroup.Hosts[key] = vars
		}
		if role == domain.RoleUngrouped {
			tree.All.Children.Ungrouped.Hosts[key] = vars
		} else if group := tree.RoleGroup(role); group != nil {
			group.Hosts[key] = domain.HostVars{}
		}

		b.log.Debug("device classified",
			zap.String("host", key),
			zap.String("os_family", string(family)),
			zap.String("role", string(role)))
	}

	return tree
}

// uniqueKey disambiguates hostname collisions with an IP-derived suffix
func uniqueKey(key, ip string, used map[string]bool) string {
	if !used[key] {
		return key
	}
	candidate := key + "_" + lastOctet(ip)
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%s_%d", key, lastOctet(ip), i)
	}
	return candidate
}

func lastOctet(ip string) string {
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == '.' {
			return ip[i+1:]
		}
	}
	return ip
}

// hostVars assembles the per-host variables: connection settings derived
// from the OS family plus whatever hardware facts assessment produced.
func hostVars(dev domain.AssessedDevice, family domain.OSType) domain.HostVars {
	vars := domain.HostVars{
		"ansible_host": dev.IPAddress,
	}

	switch family {
	case domain.OSWindows:
		vars["ansible_connection"] = "winrm"
		vars["ansible_winrm_server_cert_validation"] = "ignore"
	case domain.OSLinux, domain.OSMacOS:
		vars["ansible_connection"] = "ssh"
	}

	if hw := dev.Hardware; hw != nil {
		if hw.CPU.Cores != nil {
			vars["cpu_cores"] = *hw.CPU.Cores
		}
		if hw.CPU.Architecture != "" {
			vars["cpu_arch"] = hw.CPU.Architecture
		}
		if hw.Memory.TotalMB != nil {
			vars["memory_mb"] = *hw.Memory.TotalMB
		}
		vars["virtualization_support"] = hw.VirtualizationSupport
	}
	return vars
}

// Summary counts the populated groups for reporting
type Summary struct {
	Hosts     int
	Ungrouped int
	ByFamily  map[domain.OSType]int
	ByRole    map[domain.Role]int
}

// Summarize tallies group membership across the tree
func Summarize(tree *domain.InventoryTree) Summary {
	s := Summary{
		ByFamily: make(map[domain.OSType]int),
		ByRole:   make(map[domain.Role]int),
	}

	s.Ungrouped = len(tree.All.Children.Ungrouped.Hosts)

	for _, fam := range domain.OSFamilies {
		if g := tree.OSGroup(fam); g != nil && len(g.Hosts) > 0 {
			s.ByFamily[fam] = len(g.Hosts)
			s.Hosts += len(g.Hosts)
		}
	}
	for _, tier := range domain.TierOrder {
		for _, role := range domain.TierRoles[tier] {
			if g := tree.RoleGroup(role); g != nil && len(g.Hosts) > 0 {
				s.ByRole[role] = len(g.Hosts)
			}
		}
	}
	return s
}

// RoleNames returns the roles present in a summary in stable order
func (s Summary) RoleNames() []string {
	names := make([]string, 0, len(s.ByRole))
	for role := range s.ByRole {
		names = append(names, string(role))
	}
	sort.Strings(names)
	return names
}
