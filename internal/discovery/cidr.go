package discovery

import (
	"encoding/binary"
	"fmt"
	"net"
)

// maxExpandedHosts caps subnet expansion so a typo'd /8 cannot queue
// sixteen million probes.
const maxExpandedHosts = 65536

// expandUsableHosts converts a CIDR to the list of probeable addresses,
// excluding the network and broadcast addresses. A bare IP expands to
// itself.
func expandUsableHosts(cidr string) ([]string, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		if ip := net.ParseIP(cidr); ip != nil {
			return []string{ip.String()}, nil
		}
		return nil, fmt.Errorf("invalid subnet %q: %w", cidr, err)
	}

	ip := ipNet.IP.To4()
	if ip == nil {
		return nil, fmt.Errorf("subnet %q: only IPv4 ranges can be expanded", cidr)
	}

	networkInt := binary.BigEndian.Uint32(ip)
	maskInt := binary.BigEndian.Uint32(ipNet.Mask)

	first := networkInt & maskInt
	last := first | ^maskInt

	// Exclude network and broadcast addresses when the range has them
	if last-first >= 2 {
		first++
		last--
	}

	if last-first+1 > maxExpandedHosts {
		return nil, fmt.Errorf("subnet %q expands to %d hosts (max %d)", cidr, last-first+1, maxExpandedHosts)
	}

	hosts := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, i)
		hosts = append(hosts, net.IP(buf).String())
	}
	return hosts, nil
}

// subnetContains reports whether ip falls inside the CIDR (or equals a
// bare-IP target).
func subnetContains(cidr, ip string) bool {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return cidr == ip
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && ipNet.Contains(parsed)
}
