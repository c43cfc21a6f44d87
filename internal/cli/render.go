package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comicbridge/comicbridge/internal/errors"
)

type format string

const (
	formatText format = "text"
	formatJSON format = "json"
	formatYAML format = "yaml"
)

// renderer writes command results in the selected format. Text output is
// produced by the command itself; structured formats encode a value.
type renderer struct {
	w      io.Writer
	format format
}

func newRenderer(w io.Writer, output string) (*renderer, error) {
	f := format(strings.ToLower(strings.TrimSpace(output)))
	switch f {
	case "":
		f = formatText
	case formatText, formatJSON, formatYAML:
	default:
		return nil, errors.ValidationWithDetails("invalid output format", map[string]string{
			"output": "must be one of text, json, yaml",
		})
	}
	return &renderer{w: w, format: f}, nil
}

// structured reports whether results are encoded rather than printed as text.
func (r *renderer) structured() bool {
	return r.format != formatText
}

// encode writes v as JSON or YAML.
func (r *renderer) encode(v any) error {
	switch r.format {
	case formatJSON:
		encoder := json.NewEncoder(r.w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case formatYAML:
		encoder := yaml.NewEncoder(r.w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(v)
	default:
		return fmt.Errorf("format %s is not structured", r.format)
	}
}

// render encodes v in structured formats and calls text otherwise.
func (r *renderer) render(v any, text func(w io.Writer)) error {
	if r.structured() {
		return r.encode(v)
	}
	text(r.w)
	return nil
}
