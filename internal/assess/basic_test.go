package assess

import (
	"testing"

	"subnetier/internal/domain"
)

func TestOSTypeFromPorts(t *testing.T) {
	tests := []struct {
		name  string
		ports []int
		want  domain.OSType
	}{
		{"rdp means windows", []int{80, 3389}, domain.OSWindows},
		{"winrm means windows", []int{5985}, domain.OSWindows},
		{"ssh without smb means linux", []int{22, 80}, domain.OSLinux},
		{"ssh with smb is ambiguous", []int{22, 445}, domain.OSUnknown},
		{"web only is unknown", []int{80, 443}, domain.OSUnknown},
		{"nothing open", nil, domain.OSUnknown},
		{"windows wins over ssh", []int{22, 3389}, domain.OSWindows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := osTypeFromPorts(tt.ports); got != tt.want {
				t.Errorf("osTypeFromPorts(%v) = %s, want %s", tt.ports, got, tt.want)
			}
		})
	}
}
