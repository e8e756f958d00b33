// Package probe implements the stateless leaf probes used by the
// discovery and assessment engines: TCP port checks, ICMP liveness, and
// reverse DNS lookups. Every probe carries its own short timeout so one
// unreachable host cannot stall a batch.
package probe

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// DefaultTimeout bounds a single liveness or port check
const DefaultTimeout = 1 * time.Second

// Prober bundles the per-probe timeout shared by the leaf checks
type Prober struct {
	Timeout time.Duration
}

// New returns a Prober with the given timeout, defaulting when zero
func New(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{Timeout: timeout}
}

// PortOpen reports whether a TCP connect to ip:port succeeds within the
// probe timeout.
func (p *Prober) PortOpen(ctx context.Context, ip string, port int) bool {
	addr := net.JoinHostPort(ip, fmt.Sprintf("%d", port))
	dialer := net.Dialer{Timeout: p.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// OpenPorts probes the given ports sequentially and returns the open ones
// in input order. A refused or timed-out port is skipped, never fatal.
func (p *Prober) OpenPorts(ctx context.Context, ip string, ports []int) []int {
	var open []int
	for _, port := range ports {
		select {
		case <-ctx.Done():
			return open
		default:
		}
		if p.PortOpen(ctx, ip, port) {
			open = append(open, port)
		}
	}
	return open
}

// Ping checks ICMP liveness using the system ping binary. Raw ICMP
// sockets need elevated privileges on every supported platform; the
// system binary carries the needed capability bits already.
func (p *Prober) Ping(ctx context.Context, ip string) bool {
	secs := int(p.Timeout.Seconds())
	if secs < 1 {
		secs = 1
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "ping", "-n", "1", "-w", fmt.Sprintf("%d", secs*1000), ip)
	} else {
		cmd = exec.CommandContext(ctx, "ping", "-c", "1", "-W", fmt.Sprintf("%d", secs), ip)
	}
	return cmd.Run() == nil
}

// ReverseDNS resolves ip to a hostname, trimming the trailing dot.
// Returns "" when no PTR record exists.
func (p *Prober) ReverseDNS(ctx context.Context, ip string) string {
	resolver := net.Resolver{}
	lctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	names, err := resolver.LookupAddr(lctx, ip)
	if err != nil || len(names) == 0 {
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}

// Touch sends a throwaway UDP datagram to the host so the kernel issues a
// neighbor (ARP/NDP) resolution for it. The datagram itself is expected
// to be dropped; only the resolution side effect matters.
func (p *Prober) Touch(ip string) {
	conn, err := net.DialTimeout("udp", net.JoinHostPort(ip, "9"), p.Timeout)
	if err != nil {
		return
	}
	conn.Write([]byte{0})
	conn.Close()
}
