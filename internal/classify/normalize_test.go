package classify

import (
	"testing"

	"subnetier/internal/domain"
)

func TestNormalizeHostname(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "web01", "web01"},
		{"strips domain", "web01.example.com", "web01"},
		{"replaces specials", "my server!", "my_server_"},
		{"leading digit gets prefix", "3dprinter", "host_3dprinter"},
		{"keeps dash and underscore", "nas-backup_01", "nas-backup_01"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeHostname(tt.in); got != tt.want {
				t.Errorf("NormalizeHostname(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		for _, raw := range []string{"web01.example.com", "3dprinter", "my server!"} {
			once := NormalizeHostname(raw)
			twice := NormalizeHostname(once)
			if once != twice {
				t.Errorf("normalizing %q twice changed %q to %q", raw, once, twice)
			}
		}
	})
}

func TestHostKey(t *testing.T) {
	t.Run("uses normalized hostname", func(t *testing.T) {
		dev := domain.AssessedDevice{DiscoveredDevice: domain.DiscoveredDevice{
			IPAddress: "192.168.1.5",
			Hostname:  "web01.example.com",
		}}
		if got := HostKey(dev); got != "web01" {
			t.Errorf("HostKey = %q, want web01", got)
		}
	})

	t.Run("falls back to ip for unknown hostname", func(t *testing.T) {
		dev := domain.AssessedDevice{DiscoveredDevice: domain.DiscoveredDevice{
			IPAddress: "192.168.1.5",
			Hostname:  domain.UnknownHostname,
		}}
		if got := HostKey(dev); got != "host_192_168_1_5" {
			t.Errorf("HostKey = %q, want host_192_168_1_5", got)
		}
	})

	t.Run("falls back to ip for empty hostname", func(t *testing.T) {
		dev := domain.AssessedDevice{DiscoveredDevice: domain.DiscoveredDevice{
			IPAddress: "10.0.0.9",
		}}
		if got := HostKey(dev); got != "host_10_0_0_9" {
			t.Errorf("HostKey = %q", got)
		}
	})
}
