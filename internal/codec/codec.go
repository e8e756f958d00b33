// Package codec serializes the generated inventory tree. The YAML codec
// produces an Ansible-consumable inventory; JSON is the fallback for
// any other extension.
package codec

import (
	"io"
	"path/filepath"
	"strings"

	"subnetier/internal/domain"
)

// Exporter interface for exporting an inventory tree to various formats
type Exporter interface {
	Export(tree *domain.InventoryTree, w io.Writer) error
	Format() string
}

// ForPath selects an exporter by file extension. The .yml and .yaml
// extensions select YAML; everything else gets JSON.
func ForPath(path string) Exporter {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return NewYAMLCodec()
	default:
		return NewJSONCodec()
	}
}
