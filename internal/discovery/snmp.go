package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
	"go.uber.org/zap"

	"subnetier/internal/domain"
)

const (
	oidSysDescr = ".1.3.6.1.2.1.1.1.0"
	oidSysName  = ".1.3.6.1.2.1.1.5.0"
)

// networkDeviceMarkers are sysDescr substrings that identify routing and
// switching gear.
var networkDeviceMarkers = []string{
	"cisco", "juniper", "junos", "routeros", "mikrotik",
	"arista", "fortinet", "pfsense", "vyos", "switch", "router",
}

// SNMPEnricher fills gaps in merged discovery records with SNMPv2c system
// queries: a missing hostname gets sysName, and a network-gear sysDescr
// marks the device for the classifier. Enrichment is strictly additive
// and every per-host failure is silent.
type SNMPEnricher struct {
	community string
	timeout   time.Duration
	log       *zap.Logger
}

// NewSNMPEnricher returns nil when no community string is configured,
// which disables enrichment entirely.
func NewSNMPEnricher(community string, timeout time.Duration, log *zap.Logger) *SNMPEnricher {
	if community == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	return &SNMPEnricher{community: community, timeout: timeout, log: log}
}

// Enrich queries each device in place. The device list order and keys are
// never changed.
func (e *SNMPEnricher) Enrich(ctx context.Context, devices []domain.DiscoveredDevice) {
	enriched := 0
	for i := range devices {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if e.enrichOne(&devices[i]) {
			enriched++
		}
	}
	e.log.Info("SNMP enrichment complete",
		zap.Int("devices", len(devices)), zap.Int("enriched", enriched))
}

func (e *SNMPEnricher) enrichOne(dev *domain.DiscoveredDevice) bool {
	client := &gosnmp.GoSNMP{
		Target:    dev.IPAddress,
		Port:      161,
		Community: e.community,
		Version:   gosnmp.Version2c,
		Timeout:   e.timeout,
		Retries:   0,
	}
	if err := client.Connect(); err != nil {
		return false
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{oidSysName, oidSysDescr})
	if err != nil {
		return false
	}

	var sysName, sysDescr string
	for _, v := range result.Variables {
		if v.Type != gosnmp.OctetString {
			continue
		}
		value := string(v.Value.([]byte))
		switch v.Name {
		case oidSysName:
			sysName = value
		case oidSysDescr:
			sysDescr = value
		}
	}

	changed := false
	if sysName != "" && (dev.Hostname == "" || dev.Hostname == domain.UnknownHostname) {
		dev.Hostname = sysName
		changed = true
	}
	if descr := strings.ToLower(sysDescr); descr != "" {
		for _, marker := range networkDeviceMarkers {
			if strings.Contains(descr, marker) {
				dev.NetworkDevice = true
				changed = true
				break
			}
		}
	}
	return changed
}
