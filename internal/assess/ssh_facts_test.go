package assess

import "testing"

func TestParseCPUInfo(t *testing.T) {
	t.Run("lscpu output", func(t *testing.T) {
		out := `Architecture:        x86_64
CPU op-mode(s):      32-bit, 64-bit
CPU(s):              8
Thread(s) per core:  2
Model name:          Intel(R) Core(TM) i7
`
		cores, arch := parseCPUInfo(out)
		if cores == nil || *cores != 8 {
			t.Errorf("cores = %v, want 8", cores)
		}
		if arch != "x86_64" {
			t.Errorf("arch = %q, want x86_64", arch)
		}
	})

	t.Run("cpuinfo fallback counts processor stanzas", func(t *testing.T) {
		out := `processor	: 0
model name	: ARMv7 Processor rev 4 (v7l)
processor	: 1
model name	: ARMv7 Processor rev 4 (v7l)
`
		cores, arch := parseCPUInfo(out)
		if cores == nil || *cores != 2 {
			t.Errorf("cores = %v, want 2", cores)
		}
		if arch != "" {
			t.Errorf("arch = %q, want empty", arch)
		}
	})

	t.Run("empty output", func(t *testing.T) {
		cores, arch := parseCPUInfo("")
		if cores != nil || arch != "" {
			t.Error("expected nothing from empty output")
		}
	})
}

func TestParseMemTotalMB(t *testing.T) {
	t.Run("free -m output", func(t *testing.T) {
		out := `              total        used        free      shared  buff/cache   available
Mem:          15895        4521        8123         334        3250       10725
Swap:          2047           0        2047
`
		total := parseMemTotalMB(out)
		if total == nil || *total != 15895 {
			t.Errorf("total = %v, want 15895", total)
		}
	})

	t.Run("missing Mem line", func(t *testing.T) {
		if parseMemTotalMB("no memory here") != nil {
			t.Error("expected nil without a Mem: line")
		}
	})
}

func TestParseDiskVolumes(t *testing.T) {
	out := `Filesystem      Size  Used Avail Use% Mounted on
/dev/sda1        98G   34G   60G  37% /
tmpfs           7.8G     0  7.8G   0% /dev/shm
/dev/sdb1       458G  112G  323G  26% /data
udev            7.8G     0  7.8G   0% /dev
`

	volumes := parseDiskVolumes(out)
	if len(volumes) != 2 {
		t.Fatalf("got %d volumes, want 2: %+v", len(volumes), volumes)
	}

	t.Run("real volume fields", func(t *testing.T) {
		v := volumes[0]
		if v.Filesystem != "/dev/sda1" || v.Size != "98G" || v.UsagePercent != "37%" || v.MountPoint != "/" {
			t.Errorf("unexpected volume: %+v", v)
		}
	})

	t.Run("pseudo filesystems skipped", func(t *testing.T) {
		for _, v := range volumes {
			if v.Filesystem == "tmpfs" || v.Filesystem == "udev" {
				t.Errorf("expected pseudo filesystem %s to be skipped", v.Filesystem)
			}
		}
	})
}

func TestParseOSRelease(t *testing.T) {
	t.Run("os-release content", func(t *testing.T) {
		out := `NAME="Ubuntu"
VERSION="22.04.3 LTS (Jammy Jellyfish)"
ID=ubuntu
PRETTY_NAME="Ubuntu 22.04.3 LTS"
VERSION_ID="22.04"
`
		name, version := parseOSRelease(out)
		if name != "Ubuntu 22.04.3 LTS" {
			t.Errorf("name = %q", name)
		}
		if version != "22.04" {
			t.Errorf("version = %q, want 22.04", version)
		}
	})

	t.Run("uname fallback", func(t *testing.T) {
		out := "Linux buildbox 5.15.0-91-generic #101-Ubuntu SMP x86_64 GNU/Linux"
		name, version := parseOSRelease(out)
		if name != "Linux" {
			t.Errorf("name = %q, want Linux", name)
		}
		if version != "5.15.0-91-generic" {
			t.Errorf("version = %q", version)
		}
	})
}
