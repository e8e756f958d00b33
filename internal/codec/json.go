package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"subnetier/internal/domain"
)

// JSONCodec emits the inventory as indented JSON
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Export writes the tree as an indented JSON document
func (c *JSONCodec) Export(tree *domain.InventoryTree, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(tree); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
