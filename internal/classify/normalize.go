package classify

import (
	"strings"

	"subnetier/internal/domain"
)

// NormalizeHostname converts a raw hostname into an Ansible-safe group
// member name: the domain suffix is stripped, characters outside
// [A-Za-z0-9_-] become underscores, and a leading digit gets a "host_"
// prefix. Normalizing an already-normalized name is a no-op.
func NormalizeHostname(raw string) string {
	name := raw
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name = b.String()

	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "host_" + name
	}
	return name
}

// HostKey derives the inventory key for a device: the normalized
// hostname, or a synthetic IP-based key when no usable hostname exists.
func HostKey(dev domain.AssessedDevice) string {
	if dev.Hostname != "" && dev.Hostname != domain.UnknownHostname {
		if name := NormalizeHostname(dev.Hostname); name != "" {
			return name
		}
	}
	return "host_" + strings.ReplaceAll(dev.IPAddress, ".", "_")
}
