package assess

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/masterzen/winrm"
	"go.uber.org/zap"

	"subnetier/internal/domain"
	"subnetier/internal/probe"
)

// WinRM probe ports: HTTP and HTTPS management endpoints
const (
	WinRMPort      = 5985
	WinRMHTTPSPort = 5986
)

// WinRMAssessor introspects Windows hosts over WinRM by running WMI
// queries through PowerShell with compressed JSON output, mirroring the
// query set of the shell assessor: processor topology, physical memory
// modules, fixed logical disks, OS caption/version, virtualization
// firmware flag, and a docker.exe process check.
type WinRMAssessor struct {
	creds   Credentials
	prober  *probe.Prober
	timeout time.Duration
	log     *zap.Logger
}

// NewWinRMAssessor creates the WinRM assessor with a connect timeout
func NewWinRMAssessor(creds Credentials, prober *probe.Prober, timeout time.Duration, log *zap.Logger) *WinRMAssessor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WinRMAssessor{creds: creds, prober: prober, timeout: timeout, log: log}
}

// Method implements Assessor
func (w *WinRMAssessor) Method() domain.AssessmentMethod {
	return domain.AssessWinRM
}

// Assess profiles the device over WinRM. Unreached when the configured
// management port does not answer; Failed when the client cannot be
// built or every query errors.
func (w *WinRMAssessor) Assess(ctx context.Context, dev domain.DiscoveredDevice) Outcome {
	port := WinRMPort
	if w.creds.UseHTTPS {
		port = WinRMHTTPSPort
	}
	if !w.prober.PortOpen(ctx, dev.IPAddress, port) {
		return Unreached()
	}

	client, err := w.newClient(dev.IPAddress, port)
	if err != nil {
		return Failed(fmt.Errorf("winrm client %s: %w", dev.IPAddress, err))
	}

	run := func(script string) string {
		if ctx.Err() != nil {
			return ""
		}
		out, err := runPowerShell(client, script)
		if err != nil {
			w.log.Debug("winrm fact query failed",
				zap.String("ip", dev.IPAddress), zap.Error(err))
			return ""
		}
		return out
	}

	cpus := decodeJSONList[winCPU](run(
		`Get-WmiObject Win32_Processor | Select-Object NumberOfCores, NumberOfLogicalProcessors, AddressWidth, Name, VirtualizationFirmwareEnabled | ConvertTo-Json -Compress`))
	modules := decodeJSONList[winMemoryModule](run(
		`Get-WmiObject Win32_PhysicalMemory | Select-Object Capacity | ConvertTo-Json -Compress`))
	disks := decodeJSONList[winLogicalDisk](run(
		`Get-WmiObject Win32_LogicalDisk -Filter "DriveType=3" | Select-Object DeviceID, Size, FreeSpace | ConvertTo-Json -Compress`))
	oses := decodeJSONList[winOperatingSystem](run(
		`Get-WmiObject Win32_OperatingSystem | Select-Object Caption, Version | ConvertTo-Json -Compress`))
	dockerProcs := decodeJSONList[winProcess](run(
		`Get-WmiObject Win32_Process -Filter "Name='docker.exe'" | Select-Object ProcessId | ConvertTo-Json -Compress`))

	if cpus == nil && modules == nil && disks == nil && oses == nil {
		return Failed(fmt.Errorf("winrm %s: all WMI queries failed", dev.IPAddress))
	}

	profile := &Profile{
		Method:          domain.AssessWinRM,
		OperatingSystem: osFromWMI(oses),
		Hardware: &domain.Hardware{
			CPU:                   cpuFromWMI(cpus),
			Memory:                memoryFromWMI(modules),
			Storage:               volumesFromWMI(disks),
			VirtualizationSupport: virtualizationFromWMI(cpus),
		},
		Software: &domain.Software{
			DockerInstalled: len(dockerProcs) > 0,
		},
	}
	return Success(profile)
}

// newClient builds a WinRM client: Basic auth by default, NTLM when a
// domain is configured (NMSlite convention).
func (w *WinRMAssessor) newClient(ip string, port int) (*winrm.Client, error) {
	endpoint := winrm.NewEndpoint(ip, port, w.creds.UseHTTPS, true, nil, nil, nil, w.timeout)

	if w.creds.Domain != "" {
		params := winrm.DefaultParameters
		params.TransportDecorator = func() winrm.Transporter {
			return &winrm.ClientNTLM{}
		}
		return winrm.NewClientWithParameters(endpoint,
			fmt.Sprintf("%s\\%s", w.creds.Domain, w.creds.Username), w.creds.Password, params)
	}
	return winrm.NewClient(endpoint, w.creds.Username, w.creds.Password)
}

// runPowerShell wraps a script for powershell.exe and returns trimmed stdout
func runPowerShell(client *winrm.Client, script string) (string, error) {
	cmd := fmt.Sprintf("powershell.exe -NoProfile -NonInteractive -Command \"%s\"",
		strings.ReplaceAll(script, "\"", "`\""))

	stdout, stderr, exitCode, err := client.RunWithString(cmd, "")
	if err != nil {
		return "", fmt.Errorf("winrm execute: %w", err)
	}
	if exitCode != 0 {
		return "", fmt.Errorf("powershell exit %d: %s", exitCode, strings.TrimSpace(stderr))
	}
	return strings.TrimSpace(stdout), nil
}

// WMI result shapes. ConvertTo-Json emits a bare object for single-row
// results and an array otherwise; decodeJSONList accepts both.

type winCPU struct {
	NumberOfCores                 int    `json:"NumberOfCores"`
	NumberOfLogicalProcessors     int    `json:"NumberOfLogicalProcessors"`
	AddressWidth                  int    `json:"AddressWidth"`
	Name                          string `json:"Name"`
	VirtualizationFirmwareEnabled bool   `json:"VirtualizationFirmwareEnabled"`
}

type winMemoryModule struct {
	Capacity uint64 `json:"Capacity"`
}

type winLogicalDisk struct {
	DeviceID  string `json:"DeviceID"`
	Size      uint64 `json:"Size"`
	FreeSpace uint64 `json:"FreeSpace"`
}

type winOperatingSystem struct {
	Caption string `json:"Caption"`
	Version string `json:"Version"`
}

type winProcess struct {
	ProcessID int `json:"ProcessId"`
}

func decodeJSONList[T any](out string) []T {
	if out == "" {
		return nil
	}
	var list []T
	if err := json.Unmarshal([]byte(out), &list); err == nil {
		return list
	}
	var single T
	if err := json.Unmarshal([]byte(out), &single); err == nil {
		return []T{single}
	}
	return nil
}

func cpuFromWMI(cpus []winCPU) domain.CPU {
	if len(cpus) == 0 {
		return domain.CPU{}
	}
	cores, logical := 0, 0
	for _, c := range cpus {
		cores += c.NumberOfCores
		logical += c.NumberOfLogicalProcessors
	}
	cpu := domain.CPU{
		Cores:             &cores,
		LogicalProcessors: &logical,
		Model:             strings.TrimSpace(cpus[0].Name),
	}
	if cpus[0].AddressWidth > 0 {
		cpu.Architecture = fmt.Sprintf("%d-bit", cpus[0].AddressWidth)
	}
	return cpu
}

func memoryFromWMI(modules []winMemoryModule) domain.Memory {
	if len(modules) == 0 {
		return domain.Memory{}
	}
	var total uint64
	for _, m := range modules {
		total += m.Capacity
	}
	mb := int(total / (1024 * 1024))
	return domain.Memory{TotalMB: &mb}
}

func volumesFromWMI(disks []winLogicalDisk) []domain.Volume {
	var volumes []domain.Volume
	for _, d := range disks {
		if d.Size == 0 {
			continue
		}
		used := d.Size - d.FreeSpace
		volumes = append(volumes, domain.Volume{
			Filesystem:   d.DeviceID,
			Size:         fmt.Sprintf("%d", d.Size),
			Used:         fmt.Sprintf("%d", used),
			Available:    fmt.Sprintf("%d", d.FreeSpace),
			UsagePercent: fmt.Sprintf("%.1f%%", float64(used)/float64(d.Size)*100),
			MountPoint:   d.DeviceID,
		})
	}
	return volumes
}

func osFromWMI(oses []winOperatingSystem) *domain.OperatingSystem {
	os := &domain.OperatingSystem{Type: domain.OSWindows}
	if len(oses) > 0 {
		os.Name = strings.TrimSpace(oses[0].Caption)
		os.Version = oses[0].Version
	}
	return os
}

func virtualizationFromWMI(cpus []winCPU) bool {
	for _, c := range cpus {
		if c.VirtualizationFirmwareEnabled {
			return true
		}
	}
	return false
}
