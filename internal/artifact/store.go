// Package artifact reads and writes the timestamped snapshot files each
// pipeline stage produces: discovery and assessment device lists as
// JSON, and the generated inventory through a codec selected by file
// extension. Stages are chained through these files; the latest
// matching artifact in a directory is the implicit input of the next
// stage.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"subnetier/internal/codec"
	"subnetier/internal/domain"
)

// Artifact filename patterns, one per pipeline stage
const (
	DiscoveryPattern  = "network_discovery_*.json"
	AssessmentPattern = "hardware_assessment_*.json"
	InventoryPattern  = "generated_inventory_*.yml"
)

// timestampLayout stamps artifact filenames
const timestampLayout = "20060102_150405"

// ErrNoArtifact reports that no file matching the requested pattern
// exists in the directory.
var ErrNoArtifact = errors.New("no matching artifact found")

// Store manages artifacts under a single directory
type Store struct {
	dir string
	log *zap.Logger
}

// NewStore creates a store rooted at dir, creating it if needed
func NewStore(dir string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the artifact directory
func (s *Store) Dir() string {
	return s.dir
}

// WriteDiscovery persists a discovery run and returns the file path
func (s *Store) WriteDiscovery(devices []domain.DiscoveredDevice, now time.Time) (string, error) {
	name := fmt.Sprintf("network_discovery_%s.json", now.Format(timestampLayout))
	return s.writeJSON(name, devices)
}

// WriteAssessment persists an assessment run and returns the file path
func (s *Store) WriteAssessment(devices []domain.AssessedDevice, now time.Time) (string, error) {
	name := fmt.Sprintf("hardware_assessment_%s.json", now.Format(timestampLayout))
	return s.writeJSON(name, devices)
}

// WriteInventory persists the inventory tree. The extension picks the
// serialization, yml by default.
func (s *Store) WriteInventory(tree *domain.InventoryTree, now time.Time, ext string) (string, error) {
	if ext == "" {
		ext = "yml"
	}
	name := fmt.Sprintf("generated_inventory_%s.%s", now.Format(timestampLayout), ext)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	exporter := codec.ForPath(path)
	if err := exporter.Export(tree, f); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	s.log.Info("inventory artifact written",
		zap.String("path", path), zap.String("format", exporter.Format()))
	return path, nil
}

func (s *Store) writeJSON(name string, v any) (string, error) {
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	s.log.Info("artifact written", zap.String("path", path))
	return path, nil
}

// Latest returns the most recently modified file matching the pattern,
// or ErrNoArtifact when none exists.
func (s *Store) Latest(pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", pattern, err)
	}

	var (
		latest     string
		latestTime time.Time
	)
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latest = match
			latestTime = info.ModTime()
		}
	}

	if latest == "" {
		return "", fmt.Errorf("%w: %s in %s", ErrNoArtifact, pattern, s.dir)
	}
	return latest, nil
}

// LoadDiscovery reads a discovery artifact
func LoadDiscovery(path string) ([]domain.DiscoveredDevice, error) {
	var devices []domain.DiscoveredDevice
	if err := loadJSON(path, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// LoadAssessment reads an assessment artifact
func LoadAssessment(path string) ([]domain.AssessedDevice, error) {
	var devices []domain.AssessedDevice
	if err := loadJSON(path, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
