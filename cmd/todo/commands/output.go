package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/a920604a/to-do-list/internal/domain/entities"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// printer writes human-readable lines
type printer struct {
	w io.Writer
}

func (p printer) line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) task(t entities.Task) {
	mark := " "
	if t.Complete {
		mark = "x"
	}
	alert := ""
	if t.Alert {
		alert = " !"
	}
	p.line("[%s] %s  %-30s #%-9s due %s%s", mark, t.ID, t.Title, t.Tag, formatDeadline(t), alert)
}

// render writes v in the requested format, falling back to text for
// anything unrecognised.
func render(w io.Writer, format string, v interface{}, text func(printer)) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		doc, err := yamlDocument(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	default:
		text(printer{w: w})
		return nil
	}
}

// yamlDocument routes v through its JSON form so YAML output uses the same
// field names as the API.
func yamlDocument(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return doc, nil
}
