package assess

import "testing"

func TestDecodeJSONList(t *testing.T) {
	t.Run("array result", func(t *testing.T) {
		cpus := decodeJSONList[winCPU](`[{"NumberOfCores":4},{"NumberOfCores":4}]`)
		if len(cpus) != 2 {
			t.Fatalf("got %d entries, want 2", len(cpus))
		}
	})

	t.Run("single object result", func(t *testing.T) {
		cpus := decodeJSONList[winCPU](`{"NumberOfCores":6,"Name":"AMD Ryzen 5"}`)
		if len(cpus) != 1 {
			t.Fatalf("got %d entries, want 1", len(cpus))
		}
		if cpus[0].NumberOfCores != 6 || cpus[0].Name != "AMD Ryzen 5" {
			t.Errorf("unexpected entry: %+v", cpus[0])
		}
	})

	t.Run("empty and invalid input", func(t *testing.T) {
		if decodeJSONList[winCPU]("") != nil {
			t.Error("expected nil for empty input")
		}
		if decodeJSONList[winCPU]("not json") != nil {
			t.Error("expected nil for invalid input")
		}
	})
}

func TestCPUFromWMI(t *testing.T) {
	t.Run("sums across sockets", func(t *testing.T) {
		cpu := cpuFromWMI([]winCPU{
			{NumberOfCores: 8, NumberOfLogicalProcessors: 16, AddressWidth: 64, Name: "Intel Xeon"},
			{NumberOfCores: 8, NumberOfLogicalProcessors: 16, AddressWidth: 64, Name: "Intel Xeon"},
		})

		if cpu.Cores == nil || *cpu.Cores != 16 {
			t.Errorf("cores = %v, want 16", cpu.Cores)
		}
		if cpu.LogicalProcessors == nil || *cpu.LogicalProcessors != 32 {
			t.Errorf("logical = %v, want 32", cpu.LogicalProcessors)
		}
		if cpu.Architecture != "64-bit" {
			t.Errorf("arch = %q", cpu.Architecture)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		cpu := cpuFromWMI(nil)
		if cpu.Cores != nil || cpu.Model != "" {
			t.Error("expected zero CPU from no query result")
		}
	})
}

func TestMemoryFromWMI(t *testing.T) {
	mem := memoryFromWMI([]winMemoryModule{
		{Capacity: 8 * 1024 * 1024 * 1024},
		{Capacity: 8 * 1024 * 1024 * 1024},
	})
	if mem.TotalMB == nil || *mem.TotalMB != 16384 {
		t.Errorf("total = %v, want 16384", mem.TotalMB)
	}
}

func TestVolumesFromWMI(t *testing.T) {
	volumes := volumesFromWMI([]winLogicalDisk{
		{DeviceID: "C:", Size: 1000, FreeSpace: 250},
		{DeviceID: "D:", Size: 0, FreeSpace: 0},
	})

	if len(volumes) != 1 {
		t.Fatalf("got %d volumes, want 1", len(volumes))
	}
	v := volumes[0]
	if v.Filesystem != "C:" || v.Used != "750" || v.UsagePercent != "75.0%" {
		t.Errorf("unexpected volume: %+v", v)
	}
}

func TestVirtualizationFromWMI(t *testing.T) {
	if virtualizationFromWMI([]winCPU{{}, {VirtualizationFirmwareEnabled: true}}) != true {
		t.Error("expected any enabled socket to set the flag")
	}
	if virtualizationFromWMI([]winCPU{{}}) != false {
		t.Error("expected false with no enabled socket")
	}
}
