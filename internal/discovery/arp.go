package discovery

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"subnetier/internal/domain"
)

const procNetARP = "/proc/net/arp"

// LinkLayerMethod discovers hosts through neighbor (ARP) resolution. Raw
// ARP sockets need elevated privileges and a per-platform implementation,
// so the method provokes resolution with a UDP touch per address and then
// reads the operating system's neighbor table.
type LinkLayerMethod struct {
	prober  toucher
	workers int
	log     *zap.Logger
}

// toucher is the slice of the probe layer the method needs; narrowed for
// testability.
type toucher interface {
	Touch(ip string)
	ReverseDNS(ctx context.Context, ip string) string
}

// NewLinkLayerMethod creates the link-layer method with a bounded worker
// pool for the touch phase.
func NewLinkLayerMethod(p toucher, workers int, log *zap.Logger) *LinkLayerMethod {
	if workers <= 0 {
		workers = 64
	}
	return &LinkLayerMethod{prober: p, workers: workers, log: log}
}

// Name implements Method
func (l *LinkLayerMethod) Name() domain.DiscoveryMethod {
	return domain.DiscoveryARP
}

// Available checks that a neighbor table source exists on this platform
func (l *LinkLayerMethod) Available(ctx context.Context) error {
	if runtime.GOOS == "linux" {
		if _, err := os.Stat(procNetARP); err != nil {
			return fmt.Errorf("neighbor table %s not readable: %w", procNetARP, err)
		}
		return nil
	}
	if _, err := exec.LookPath("arp"); err != nil {
		return fmt.Errorf("arp command not found: %w", err)
	}
	return nil
}

// Discover touches every usable host address in the subnet (network and
// broadcast excluded) and records neighbor table responders with their
// hardware address and a best-effort reverse-DNS hostname.
func (l *LinkLayerMethod) Discover(ctx context.Context, subnet string) ([]domain.DiscoveredDevice, error) {
	hosts, err := expandUsableHosts(subnet)
	if err != nil {
		return nil, err
	}

	// Touch phase: provoke neighbor resolution for the whole range
	jobs := make(chan string)
	var wg sync.WaitGroup
	wg.Add(l.workers)
	for i := 0; i < l.workers; i++ {
		go func() {
			defer wg.Done()
			for ip := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
					l.prober.Touch(ip)
				}
			}
		}()
	}
feed:
	for _, ip := range hosts {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- ip:
		}
	}
	close(jobs)
	wg.Wait()

	// The kernel needs a beat to settle resolutions before we read back
	time.Sleep(200 * time.Millisecond)

	table, err := readNeighborTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read neighbor table: %w", err)
	}

	now := time.Now()
	var devices []domain.DiscoveredDevice

	for _, ip := range hosts {
		mac, ok := table[ip]
		if !ok {
			continue
		}
		hostname := l.prober.ReverseDNS(ctx, ip)
		if hostname == "" {
			hostname = domain.UnknownHostname
		}
		devices = append(devices, domain.DiscoveredDevice{
			IPAddress:       ip,
			Hostname:        hostname,
			MACAddress:      mac,
			DiscoveryMethod: domain.DiscoveryARP,
			Timestamp:       now,
		})
	}

	return devices, nil
}

// readNeighborTable returns ip -> MAC for resolved neighbor entries
func readNeighborTable(ctx context.Context) (map[string]string, error) {
	if runtime.GOOS == "linux" {
		data, err := os.ReadFile(procNetARP)
		if err != nil {
			return nil, err
		}
		return parseProcNetARP(string(data)), nil
	}

	out, err := exec.CommandContext(ctx, "arp", "-a").Output()
	if err != nil {
		return nil, err
	}
	return parseARPOutput(string(out)), nil
}

// parseProcNetARP parses /proc/net/arp. Format:
//
//	IP address  HW type  Flags  HW address         Mask  Device
//	10.0.0.1    0x1      0x2    aa:bb:cc:dd:ee:ff  *     eth0
//
// Flags 0x0 means an incomplete entry; those are dropped.
func parseProcNetARP(content string) map[string]string {
	table := make(map[string]string)
	lines := strings.Split(content, "\n")
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		ip, flags, mac := fields[0], fields[2], fields[3]
		if flags == "0x0" || mac == "00:00:00:00:00:00" {
			continue
		}
		table[ip] = strings.ToUpper(mac)
	}
	return table
}

var arpLineRe = regexp.MustCompile(`\((\d+\.\d+\.\d+\.\d+)\) at ([0-9a-fA-F:.-]{11,17})`)

// parseARPOutput parses `arp -a` output on macOS and Windows
func parseARPOutput(out string) map[string]string {
	table := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		if m := arpLineRe.FindStringSubmatch(line); m != nil {
			table[m[1]] = normalizeMAC(m[2])
			continue
		}
		// Windows format: "  10.0.0.1    aa-bb-cc-dd-ee-ff   dynamic"
		fields := strings.Fields(line)
		if len(fields) >= 3 && strings.Count(fields[1], "-") == 5 {
			table[fields[0]] = normalizeMAC(fields[1])
		}
	}
	return table
}

// normalizeMAC upper-cases a hardware address and converts dash
// separators to colons.
func normalizeMAC(mac string) string {
	return strings.ToUpper(strings.ReplaceAll(mac, "-", ":"))
}
