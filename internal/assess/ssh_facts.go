package assess

import (
	"strconv"
	"strings"

	"subnetier/internal/domain"
)

// parseCPUInfo extracts core count and architecture from lscpu output,
// falling back to counting processor stanzas in /proc/cpuinfo.
func parseCPUInfo(out string) (cores *int, arch string) {
	if out == "" {
		return nil, ""
	}

	procLines := 0
	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "CPU(s)":
			if n, err := strconv.Atoi(value); err == nil {
				cores = &n
			}
		case "Architecture":
			arch = value
		case "processor":
			procLines++
		}
	}

	if cores == nil && procLines > 0 {
		cores = &procLines
	}
	return cores, arch
}

// parseMemTotalMB extracts the total from `free -m` output
func parseMemTotalMB(out string) *int {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "Mem:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil
		}
		if n, err := strconv.Atoi(fields[1]); err == nil {
			return &n
		}
		return nil
	}
	return nil
}

// pseudoFilesystems are df entries that describe kernel mounts, not
// storage volumes.
var pseudoFilesystems = []string{"tmpfs", "devtmpfs", "udev", "overlay", "shm", "none"}

// parseDiskVolumes extracts volume records from `df -h` output
func parseDiskVolumes(out string) []domain.Volume {
	lines := strings.Split(out, "\n")
	if len(lines) < 2 {
		return nil
	}

	var volumes []domain.Volume
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		if isPseudoFilesystem(fields[0]) {
			continue
		}
		volumes = append(volumes, domain.Volume{
			Filesystem:   fields[0],
			Size:         fields[1],
			Used:         fields[2],
			Available:    fields[3],
			UsagePercent: fields[4],
			MountPoint:   fields[5],
		})
	}
	return volumes
}

func isPseudoFilesystem(fs string) bool {
	for _, p := range pseudoFilesystems {
		if fs == p || strings.HasPrefix(fs, p) {
			return true
		}
	}
	return false
}

// parseOSRelease extracts the OS name and version from /etc/os-release
// content, falling back to the first line of uname output for the name.
func parseOSRelease(out string) (name, version string) {
	if out == "" {
		return "", ""
	}

	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.TrimSpace(key) {
		case "PRETTY_NAME":
			name = value
		case "VERSION_ID":
			version = value
		}
	}

	if name == "" {
		// uname -a fallback: "Linux hostname 5.15.0 ..."
		fields := strings.Fields(out)
		if len(fields) > 0 {
			name = fields[0]
		}
		if len(fields) > 2 {
			version = fields[2]
		}
	}
	return name, version
}
