package discovery

import "testing"

func TestExpandUsableHosts(t *testing.T) {
	t.Run("/30 excludes network and broadcast", func(t *testing.T) {
		hosts, err := expandUsableHosts("192.168.1.0/30")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"192.168.1.1", "192.168.1.2"}
		if len(hosts) != len(want) {
			t.Fatalf("got %d hosts, want %d: %v", len(hosts), len(want), hosts)
		}
		for i, h := range want {
			if hosts[i] != h {
				t.Errorf("hosts[%d] = %s, want %s", i, hosts[i], h)
			}
		}
	})

	t.Run("/24 yields 254 hosts", func(t *testing.T) {
		hosts, err := expandUsableHosts("10.0.0.0/24")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hosts) != 254 {
			t.Errorf("got %d hosts, want 254", len(hosts))
		}
		if hosts[0] != "10.0.0.1" || hosts[253] != "10.0.0.254" {
			t.Errorf("unexpected range bounds: %s .. %s", hosts[0], hosts[253])
		}
	})

	t.Run("bare IP expands to itself", func(t *testing.T) {
		hosts, err := expandUsableHosts("192.168.1.77")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hosts) != 1 || hosts[0] != "192.168.1.77" {
			t.Errorf("got %v, want single 192.168.1.77", hosts)
		}
	})

	t.Run("oversized range is rejected", func(t *testing.T) {
		if _, err := expandUsableHosts("10.0.0.0/8"); err == nil {
			t.Error("expected error for /8 expansion")
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		if _, err := expandUsableHosts("not-a-subnet"); err == nil {
			t.Error("expected error for invalid subnet")
		}
	})
}

func TestSubnetContains(t *testing.T) {
	tests := []struct {
		name   string
		subnet string
		ip     string
		want   bool
	}{
		{"inside", "192.168.1.0/24", "192.168.1.50", true},
		{"outside", "192.168.1.0/24", "192.168.2.50", false},
		{"network address", "192.168.1.0/24", "192.168.1.0", true},
		{"bare ip match", "192.168.1.5", "192.168.1.5", true},
		{"bare ip mismatch", "192.168.1.5", "192.168.1.6", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subnetContains(tt.subnet, tt.ip); got != tt.want {
				t.Errorf("subnetContains(%s, %s) = %v, want %v", tt.subnet, tt.ip, got, tt.want)
			}
		})
	}
}
