// Package discovery enumerates hosts on a subnet using independent
// methods and merges their results into a deduplicated device list.
//
// Each method registers with the engine only when its backing capability
// is present (nmap binary, neighbor table, lease source), so a missing
// dependency degrades the run instead of failing it. Records are keyed
// by IP address and merged with scan > arp > dhcp precedence: the scan
// result carries OS and service fidelity the other methods cannot
// provide.
package discovery

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"subnetier/internal/domain"
)

// Method is one independent discovery technique
type Method interface {
	// Name identifies the method in device records
	Name() domain.DiscoveryMethod

	// Available reports whether the method's backing capability is
	// present on this platform. A non-nil error skips the method with a
	// warning, never failing the run.
	Available(ctx context.Context) error

	// Discover enumerates devices on the subnet. Individual probe
	// failures are handled inside the method; the returned error means
	// the whole method produced nothing.
	Discover(ctx context.Context, subnet string) ([]domain.DiscoveredDevice, error)
}

// Collector accumulates device records from concurrent workers and
// deduplicates them by IP address.
type Collector struct {
	mu      sync.Mutex
	devices map[string]*domain.DiscoveredDevice
}

// NewCollector returns an empty collector
func NewCollector() *Collector {
	return &Collector{devices: make(map[string]*domain.DiscoveredDevice)}
}

// Add merges a record into the collector. When a record for the same
// address already exists, the higher-priority method's fields win and the
// rest are unioned.
func (c *Collector) Add(dev domain.DiscoveredDevice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.devices[dev.IPAddress]
	if !ok {
		d := dev
		c.devices[dev.IPAddress] = &d
		return
	}

	if dev.DiscoveryMethod.Priority() > existing.DiscoveryMethod.Priority() {
		d := dev
		d.Merge(existing)
		c.devices[dev.IPAddress] = &d
		return
	}
	existing.Merge(&dev)
}

// Devices returns the merged records ordered by IP address
func (c *Collector) Devices() []domain.DiscoveredDevice {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.DiscoveredDevice, 0, len(c.devices))
	for _, d := range c.devices {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		return domain.IPLess(out[i].IPAddress, out[j].IPAddress)
	})
	return out
}

// Engine runs the registered discovery methods against a subnet
type Engine struct {
	methods  []Method
	enricher *SNMPEnricher
	log      *zap.Logger
}

// NewEngine creates an engine with no methods registered
func NewEngine(log *zap.Logger) *Engine {
	return &Engine{log: log}
}

// Register adds a discovery method to the run
func (e *Engine) Register(m Method) {
	e.methods = append(e.methods, m)
}

// SetEnricher attaches an optional post-merge enricher
func (e *Engine) SetEnricher(en *SNMPEnricher) {
	e.enricher = en
}

// Run executes every registered method against the subnet and returns the
// merged, deduplicated device list. Methods whose capability is absent
// are skipped with a warning; a method error degrades the run, it never
// aborts it.
func (e *Engine) Run(ctx context.Context, subnet string) ([]domain.DiscoveredDevice, error) {
	collector := NewCollector()

	for _, m := range e.methods {
		name := string(m.Name())

		if err := m.Available(ctx); err != nil {
			e.log.Warn("discovery method unavailable, skipping",
				zap.String("method", name), zap.Error(err))
			continue
		}

		e.log.Info("running discovery method",
			zap.String("method", name), zap.String("subnet", subnet))

		devices, err := m.Discover(ctx, subnet)
		if err != nil {
			e.log.Warn("discovery method failed",
				zap.String("method", name), zap.Error(err))
			continue
		}

		for _, dev := range devices {
			if err := dev.Validate(); err != nil {
				e.log.Warn("dropping invalid device record",
					zap.String("method", name), zap.Error(err))
				continue
			}
			collector.Add(dev)
		}

		e.log.Info("discovery method complete",
			zap.String("method", name), zap.Int("devices", len(devices)))
	}

	merged := collector.Devices()

	if e.enricher != nil {
		e.enricher.Enrich(ctx, merged)
	}

	return merged, nil
}
