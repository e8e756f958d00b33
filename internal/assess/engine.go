package assess

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"subnetier/internal/domain"
)

// Engine runs the assessor chain over a device list. Devices are assessed
// in parallel up to the worker bound, but the chain for a single device
// is strictly sequential: a later protocol is only tried after the
// earlier one is confirmed unreachable or failed.
type Engine struct {
	chain   []Assessor
	workers int
	log     *zap.Logger
}

// NewEngine creates an engine with the given assessor priority order
func NewEngine(chain []Assessor, workers int, log *zap.Logger) *Engine {
	if workers <= 0 {
		workers = 8
	}
	return &Engine{chain: chain, workers: workers, log: log}
}

// Run assesses every device and returns the successfully profiled subset
// ordered by IP address. Devices no method could reach are dropped, not
// marked failed; any panic during one device's assessment aborts only
// that device.
func (e *Engine) Run(ctx context.Context, devices []domain.DiscoveredDevice) []domain.AssessedDevice {
	var (
		mu       sync.Mutex
		assessed []domain.AssessedDevice
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, e.workers)

	for _, dev := range devices {
		select {
		case <-ctx.Done():
			e.log.Warn("assessment deadline reached, skipping remaining devices")
			wg.Wait()
			return sortAssessed(assessed)
		default:
		}

		wg.Add(1)
		go func(dev domain.DiscoveredDevice) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, ok := e.assessOne(ctx, dev)
			if !ok {
				return
			}
			mu.Lock()
			assessed = append(assessed, result)
			mu.Unlock()
		}(dev)
	}

	wg.Wait()
	return sortAssessed(assessed)
}

// assessOne walks the chain for a single device
func (e *Engine) assessOne(ctx context.Context, dev domain.DiscoveredDevice) (result domain.AssessedDevice, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("assessment panicked, device skipped",
				zap.String("ip", dev.IPAddress), zap.Any("panic", r))
			ok = false
		}
	}()

	for _, assessor := range e.chain {
		outcome := assessor.Assess(ctx, dev)

		switch outcome.Status {
		case StatusUnreached:
			continue
		case StatusFailed:
			e.log.Warn("assessment method failed, falling back",
				zap.String("ip", dev.IPAddress),
				zap.String("method", string(assessor.Method())),
				zap.Error(outcome.Err))
			continue
		case StatusSuccess:
			e.log.Info("device assessed",
				zap.String("ip", dev.IPAddress),
				zap.String("method", string(outcome.Profile.Method)))
			return buildAssessed(dev, outcome.Profile), true
		}
	}

	e.log.Debug("no assessment method reached device, dropping",
		zap.String("ip", dev.IPAddress))
	return domain.AssessedDevice{}, false
}

// buildAssessed produces a new record; the discovery record is embedded
// unchanged, never mutated in place.
func buildAssessed(dev domain.DiscoveredDevice, p *Profile) domain.AssessedDevice {
	return domain.AssessedDevice{
		DiscoveredDevice:    dev,
		AssessmentMethod:    p.Method,
		OperatingSystem:     p.OperatingSystem,
		Hardware:            p.Hardware,
		Software:            p.Software,
		ReachablePorts:      p.ReachablePorts,
		AssessmentTimestamp: time.Now(),
	}
}

func sortAssessed(devices []domain.AssessedDevice) []domain.AssessedDevice {
	sort.Slice(devices, func(i, j int) bool {
		return domain.IPLess(devices[i].IPAddress, devices[j].IPAddress)
	})
	return devices
}

// ChainString renders the configured fallback order for logging
func (e *Engine) ChainString() string {
	names := make([]string, len(e.chain))
	for i, a := range e.chain {
		names[i] = string(a.Method())
	}
	return fmt.Sprintf("%v", names)
}
