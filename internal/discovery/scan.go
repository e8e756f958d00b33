package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"go.uber.org/zap"

	"subnetier/internal/domain"
)

// DefaultScanPorts are the service ports probed by the scan method
var DefaultScanPorts = []int{22, 80, 443, 3389, 5985, 5986, 8080}

// osGuessLimit caps the ranked OS candidate list per host
const osGuessLimit = 3

// ScanMethod discovers hosts with an active nmap port and OS fingerprint
// scan. It is the highest-fidelity method: open ports carry service and
// product names and each host gets a ranked OS-guess list.
type ScanMethod struct {
	ports       []int
	osDetection bool
	log         *zap.Logger
}

// NewScanMethod creates the scan method. OS detection needs root; when
// disabled the os_guess field stays empty.
func NewScanMethod(ports []int, osDetection bool, log *zap.Logger) *ScanMethod {
	if len(ports) == 0 {
		ports = DefaultScanPorts
	}
	return &ScanMethod{ports: ports, osDetection: osDetection, log: log}
}

// Name implements Method
func (s *ScanMethod) Name() domain.DiscoveryMethod {
	return domain.DiscoveryScan
}

// Available checks for a working nmap binary by running a list scan
// against localhost.
func (s *ScanMethod) Available(ctx context.Context) error {
	scanner, err := nmap.NewScanner(ctx, nmap.WithTargets("localhost"), nmap.WithListScan())
	if err != nil {
		return fmt.Errorf("nmap unavailable: %w", err)
	}
	if _, _, err := scanner.Run(); err != nil {
		return fmt.Errorf("nmap unavailable: %w", err)
	}
	return nil
}

// Discover scans the subnet and converts each live host into a device
// record. Hosts that are up with none of the scanned ports open are still
// recorded.
func (s *ScanMethod) Discover(ctx context.Context, subnet string) ([]domain.DiscoveredDevice, error) {
	opts := []nmap.Option{
		nmap.WithTargets(subnet),
		nmap.WithPorts(portList(s.ports)),
		nmap.WithServiceInfo(),
	}
	if s.osDetection {
		opts = append(opts, nmap.WithOSDetection(), nmap.WithOSScanGuess())
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", subnet, err)
	}
	if warnings != nil && len(*warnings) > 0 {
		s.log.Warn("scan finished with warnings", zap.Strings("warnings", *warnings))
	}

	now := time.Now()
	var devices []domain.DiscoveredDevice

	for _, host := range result.Hosts {
		if host.Status.State != "up" || len(host.Addresses) == 0 {
			continue
		}

		dev := domain.DiscoveredDevice{
			Hostname:        domain.UnknownHostname,
			DiscoveryMethod: domain.DiscoveryScan,
			Timestamp:       now,
		}

		for _, addr := range host.Addresses {
			switch addr.AddrType {
			case "ipv4", "ipv6":
				if dev.IPAddress == "" {
					dev.IPAddress = addr.Addr
				}
			case "mac":
				dev.MACAddress = strings.ToUpper(addr.Addr)
			}
		}
		if dev.IPAddress == "" {
			continue
		}

		if len(host.Hostnames) > 0 && host.Hostnames[0].Name != "" {
			dev.Hostname = host.Hostnames[0].Name
		}

		for _, port := range host.Ports {
			if port.State.State != "open" {
				continue
			}
			dev.OpenPorts = append(dev.OpenPorts, domain.PortRecord{
				Port:     int(port.ID),
				Protocol: port.Protocol,
				Service:  port.Service.Name,
				Product:  port.Service.Product,
			})
		}

		dev.OSGuess = osGuessFromMatches(host.OS.Matches)

		devices = append(devices, dev)
	}

	return devices, nil
}

// osGuessFromMatches converts nmap OS matches into the ranked guess
// record, keeping the top candidates only.
func osGuessFromMatches(matches []nmap.OSMatch) *domain.OSGuess {
	if len(matches) == 0 {
		return nil
	}

	guess := &domain.OSGuess{
		Name:     matches[0].Name,
		Accuracy: matches[0].Accuracy,
	}
	for i, m := range matches {
		if i >= osGuessLimit {
			break
		}
		guess.Matches = append(guess.Matches, m.Name)
	}
	return guess
}

// portList renders ports in nmap's comma-separated format
func portList(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
