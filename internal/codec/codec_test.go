package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"subnetier/internal/domain"
)

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"inventory.yml", "yaml"},
		{"inventory.yaml", "yaml"},
		{"INVENTORY.YML", "yaml"},
		{"inventory.json", "json"},
		{"inventory.txt", "json"},
		{"inventory", "json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ForPath(tt.path).Format(); got != tt.want {
				t.Errorf("ForPath(%s).Format() = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func sampleTree() *domain.InventoryTree {
	tree := domain.NewInventoryTree()
	tree.OSGroup(domain.OSLinux).Hosts["web01"] = domain.HostVars{
		"ansible_host":       "192.168.1.5",
		"ansible_connection": "ssh",
	}
	tree.RoleGroup(domain.RoleCloud).Hosts["web01"] = domain.HostVars{}
	return tree
}

func TestYAMLCodecExport(t *testing.T) {
	var buf bytes.Buffer
	if err := NewYAMLCodec().Export(sampleTree(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()

	t.Run("fixed group shape present", func(t *testing.T) {
		for _, want := range []string{"all:", "children:", "ungrouped:", "tier1_core:",
			"tier2_services:", "tier3_applications:", "tier4_specialized:", "os_types:"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("host vars emitted", func(t *testing.T) {
		if !strings.Contains(out, "ansible_host: 192.168.1.5") {
			t.Error("expected ansible_host var in output")
		}
	})

	t.Run("round trips through yaml", func(t *testing.T) {
		var decoded map[string]any
		if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid YAML: %v", err)
		}
		if _, ok := decoded["all"]; !ok {
			t.Error("expected top-level all key")
		}
	})
}

func TestJSONCodecExport(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONCodec().Export(sampleTree(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var decoded domain.InventoryTree
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, ok := decoded.All.Children.OSTypes.Children["linux"].Hosts["web01"]; !ok {
		t.Error("expected web01 in decoded linux group")
	}
}
