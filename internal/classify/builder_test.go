package classify

import (
	"testing"

	"go.uber.org/zap"

	"subnetier/internal/domain"
)

func TestBuilderBuild(t *testing.T) {
	builder := NewBuilder(zap.NewNop())

	t.Run("web server placed in cloud role and linux group", func(t *testing.T) {
		dev := assessedWith("web01.example.com", 22, 443)
		dev.OperatingSystem = &domain.OperatingSystem{Type: domain.OSLinux}
		dev.Hardware = &domain.Hardware{}

		tree := builder.Build([]domain.AssessedDevice{dev})

		cloud := tree.RoleGroup(domain.RoleCloud)
		if _, ok := cloud.Hosts["web01"]; !ok {
			t.Error("expected web01 in cloud role group")
		}
		linux := tree.OSGroup(domain.OSLinux)
		vars, ok := linux.Hosts["web01"]
		if !ok {
			t.Fatal("expected web01 in linux OS group")
		}
		if vars["ansible_host"] != "192.168.1.50" {
			t.Errorf("ansible_host = %v", vars["ansible_host"])
		}
		if vars["ansible_connection"] != "ssh" {
			t.Errorf("ansible_connection = %v, want ssh", vars["ansible_connection"])
		}
		if len(cloud.Hosts["web01"]) != 0 {
			t.Error("expected empty vars on the role group entry")
		}
	})

	t.Run("windows host gets winrm connection vars", func(t *testing.T) {
		dev := assessedWith("dc01", 3389)
		dev.OperatingSystem = &domain.OperatingSystem{Type: domain.OSWindows}

		tree := builder.Build([]domain.AssessedDevice{dev})

		vars := tree.OSGroup(domain.OSWindows).Hosts["dc01"]
		if vars["ansible_connection"] != "winrm" {
			t.Errorf("ansible_connection = %v, want winrm", vars["ansible_connection"])
		}
		if vars["ansible_winrm_server_cert_validation"] != "ignore" {
			t.Error("expected winrm cert validation disabled")
		}
	})

	t.Run("unroled device lands in ungrouped, never a role group", func(t *testing.T) {
		dev := assessedWith("desktop7")
		dev.OperatingSystem = &domain.OperatingSystem{Type: domain.OSLinux}

		tree := builder.Build([]domain.AssessedDevice{dev})

		if _, ok := tree.All.Children.Ungrouped.Hosts["desktop7"]; !ok {
			t.Error("expected desktop7 in ungrouped")
		}
		for _, tier := range domain.TierOrder {
			for _, role := range domain.TierRoles[tier] {
				if _, ok := tree.RoleGroup(role).Hosts["desktop7"]; ok {
					t.Errorf("desktop7 must not appear in role group %s", role)
				}
			}
		}
	})

	t.Run("every host in exactly one os family group", func(t *testing.T) {
		devices := []domain.AssessedDevice{
			assessedWith("router-main", 80),
			assessedWith("nas01", 22),
			assessedWith("desktop7"),
		}
		devices[0].OperatingSystem = &domain.OperatingSystem{Type: domain.OSNetworkDevices}

		tree := builder.Build(devices)

		for _, key := range []string{"router-main", "nas01", "desktop7"} {
			count := 0
			for _, fam := range domain.OSFamilies {
				if _, ok := tree.OSGroup(fam).Hosts[key]; ok {
					count++
				}
			}
			if count != 1 {
				t.Errorf("host %s appears in %d OS groups, want 1", key, count)
			}
		}
	})

	t.Run("hardware facts surface as host vars", func(t *testing.T) {
		cores := 8
		memMB := 16384
		dev := assessedWith("web01", 443)
		dev.OperatingSystem = &domain.OperatingSystem{Type: domain.OSLinux}
		dev.Hardware = &domain.Hardware{
			CPU:                   domain.CPU{Cores: &cores, Architecture: "x86_64"},
			Memory:                domain.Memory{TotalMB: &memMB},
			VirtualizationSupport: true,
		}

		tree := builder.Build([]domain.AssessedDevice{dev})

		vars := tree.OSGroup(domain.OSLinux).Hosts["web01"]
		if vars["cpu_cores"] != 8 || vars["cpu_arch"] != "x86_64" {
			t.Errorf("unexpected cpu vars: %v", vars)
		}
		if vars["memory_mb"] != 16384 {
			t.Errorf("memory_mb = %v", vars["memory_mb"])
		}
		if vars["virtualization_support"] != true {
			t.Error("expected virtualization_support=true")
		}
	})

	t.Run("hostname collisions get unique keys", func(t *testing.T) {
		a := assessedWith("web01", 443)
		a.IPAddress = "192.168.1.10"
		a.OperatingSystem = &domain.OperatingSystem{Type: domain.OSLinux}
		b := assessedWith("web01", 443)
		b.IPAddress = "192.168.1.11"
		b.OperatingSystem = &domain.OperatingSystem{Type: domain.OSLinux}

		tree := builder.Build([]domain.AssessedDevice{a, b})

		linux := tree.OSGroup(domain.OSLinux)
		if len(linux.Hosts) != 2 {
			t.Fatalf("got %d linux hosts, want 2: %v", len(linux.Hosts), linux.Hosts)
		}
		if _, ok := linux.Hosts["web01"]; !ok {
			t.Error("expected first host to keep plain key")
		}
		if _, ok := linux.Hosts["web01_11"]; !ok {
			t.Errorf("expected collision key web01_11, got %v", linux.Hosts)
		}
	})
}

func TestSummarize(t *testing.T) {
	builder := NewBuilder(zap.NewNop())
	devices := []domain.AssessedDevice{
		assessedWith("router-main"),
		assessedWith("desktop7"),
	}
	devices[0].OperatingSystem = &domain.OperatingSystem{Type: domain.OSNetworkDevices}
	devices[1].OperatingSystem = &domain.OperatingSystem{Type: domain.OSLinux}

	tree := builder.Build(devices)
	s := Summarize(tree)

	if s.Hosts != 2 {
		t.Errorf("Hosts = %d, want 2", s.Hosts)
	}
	if s.Ungrouped != 1 {
		t.Errorf("Ungrouped = %d, want 1", s.Ungrouped)
	}
	if s.ByRole[domain.RoleNetwork] != 1 {
		t.Errorf("network role count = %d, want 1", s.ByRole[domain.RoleNetwork])
	}
}
