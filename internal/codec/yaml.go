package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"subnetier/internal/domain"
)

// YAMLCodec emits the inventory as Ansible-style YAML
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Export writes the tree as a two-space indented YAML document
func (c *YAMLCodec) Export(tree *domain.InventoryTree, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(tree); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}
