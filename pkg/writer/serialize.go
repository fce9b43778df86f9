package writer

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/modgate/modgate/pkg/api"
)

// Bindings converts modules to their serialized binding records, preserving
// order.
func Bindings(modules []api.Module) []api.Binding {
	out := make([]api.Binding, len(modules))
	for i, m := range modules {
		out[i] = withHTTPMetadata(m).ToBinding()
	}
	return out
}

// WriteJSON emits the module catalog as an indented JSON array.
func WriteJSON(w io.Writer, modules []api.Module) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Bindings(modules)); err != nil {
		return fmt.Errorf("encoding JSON catalog: %w", err)
	}
	return nil
}

// WriteYAML emits the module catalog as a YAML document.
func WriteYAML(w io.Writer, modules []api.Module) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(map[string]any{"modules": Bindings(modules)}); err != nil {
		return fmt.Errorf("encoding YAML catalog: %w", err)
	}
	return nil
}
