package assess

import (
	"context"

	"go.uber.org/zap"

	"subnetier/internal/domain"
	"subnetier/internal/probe"
)

// basicScanPorts are the service ports checked by the credential-free
// fallback. The subset that answers drives the OS inference below.
var basicScanPorts = []int{22, 23, 80, 443, 445, 3389, 5985}

// BasicScanAssessor is the last link in the chain: no credentials, no
// remote execution. It confirms liveness with a ping, records which
// well-known ports answer, and infers an OS type from the port mix. It
// never reports hardware facts.
type BasicScanAssessor struct {
	prober *probe.Prober
	log    *zap.Logger
}

// NewBasicScanAssessor creates the credential-free fallback assessor
func NewBasicScanAssessor(prober *probe.Prober, log *zap.Logger) *BasicScanAssessor {
	return &BasicScanAssessor{prober: prober, log: log}
}

// Method implements Assessor
func (b *BasicScanAssessor) Method() domain.AssessmentMethod {
	return domain.AssessBasicScan
}

// Assess pings the device, then probes the well-known port set. A device
// that does not answer the ping is Unreached, which drops it from the
// assessed set since no later method exists.
func (b *BasicScanAssessor) Assess(ctx context.Context, dev domain.DiscoveredDevice) Outcome {
	if !b.prober.Ping(ctx, dev.IPAddress) {
		return Unreached()
	}

	var reachable []int
	for _, port := range basicScanPorts {
		if ctx.Err() != nil {
			break
		}
		if b.prober.PortOpen(ctx, dev.IPAddress, port) {
			reachable = append(reachable, port)
		}
	}

	profile := &Profile{
		Method: domain.AssessBasicScan,
		OperatingSystem: &domain.OperatingSystem{
			Type: osTypeFromPorts(reachable),
		},
		ReachablePorts: reachable,
	}
	return Success(profile)
}

// osTypeFromPorts infers an OS type from which services answered:
// Windows management ports dominate, then SSH without SMB suggests a
// Unix-like host.
func osTypeFromPorts(ports []int) domain.OSType {
	has := func(p int) bool {
		for _, q := range ports {
			if q == p {
				return true
			}
		}
		return false
	}

	switch {
	case has(3389) || has(5985):
		return domain.OSWindows
	case has(22) && !has(445):
		return domain.OSLinux
	default:
		return domain.OSUnknown
	}
}
