package discovery

import (
	"testing"
	"time"

	"subnetier/internal/domain"
)

const sampleLeaseFile = `# The format of this file is documented in the dhcpd.leases(5) manual page.

lease 192.168.1.100 {
  starts 4 2024/05/16 10:00:00;
  ends 4 2024/05/16 22:00:00;
  hardware ethernet aa:bb:cc:dd:ee:ff;
  client-hostname "printer01";
}
lease 192.168.1.101 {
  starts 4 2024/05/16 11:00:00;
  hardware ethernet 11:22:33:44:55:66;
}
lease 192.168.1.102 {
  starts 4 2024/05/16 11:30:00;
  client-hostname "no-mac-entry";
}
`

func TestParseLeaseFile(t *testing.T) {
	now := time.Now()
	devices := parseLeaseFile(sampleLeaseFile, now)

	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}

	t.Run("full lease entry", func(t *testing.T) {
		dev := devices[0]
		if dev.IPAddress != "192.168.1.100" {
			t.Errorf("ip = %s", dev.IPAddress)
		}
		if dev.Hostname != "printer01" {
			t.Errorf("hostname = %s, want printer01", dev.Hostname)
		}
		if dev.MACAddress != "AA:BB:CC:DD:EE:FF" {
			t.Errorf("mac = %s, want uppercase", dev.MACAddress)
		}
		if dev.DiscoveryMethod != domain.DiscoveryDHCP {
			t.Errorf("method = %s", dev.DiscoveryMethod)
		}
	})

	t.Run("missing hostname gets sentinel", func(t *testing.T) {
		if devices[1].Hostname != domain.UnknownHostname {
			t.Errorf("hostname = %s, want %s", devices[1].Hostname, domain.UnknownHostname)
		}
	})

	t.Run("entry without hardware address is skipped", func(t *testing.T) {
		for _, dev := range devices {
			if dev.IPAddress == "192.168.1.102" {
				t.Error("expected lease without MAC to be dropped")
			}
		}
	})
}

func TestParseLeaseFileEmpty(t *testing.T) {
	if devices := parseLeaseFile("", time.Now()); len(devices) != 0 {
		t.Errorf("got %d devices from empty content", len(devices))
	}
}

func TestParseNetshClients(t *testing.T) {
	out := `
Changed the current scope context to 192.168.1.0 scope.

Client IP Address    - MAC Address          - Lease Expiry
--------------------------------------------------------------
192.168.1.50         - aa-bb-cc-dd-ee-01    - desktop-a
192.168.1.51         - aa-bb-cc-dd-ee-02

Command completed successfully.
`

	devices := parseNetshClients(out, time.Now())
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2: %+v", len(devices), devices)
	}

	t.Run("named client", func(t *testing.T) {
		if devices[0].IPAddress != "192.168.1.50" {
			t.Errorf("ip = %s", devices[0].IPAddress)
		}
		if devices[0].MACAddress != "AA:BB:CC:DD:EE:01" {
			t.Errorf("mac = %s, want colon-separated uppercase", devices[0].MACAddress)
		}
	})

	t.Run("unnamed client gets sentinel", func(t *testing.T) {
		if devices[1].Hostname != domain.UnknownHostname {
			t.Errorf("hostname = %s, want %s", devices[1].Hostname, domain.UnknownHostname)
		}
	})
}
