// Package report renders resolved settings for humans and tooling.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/bf2fc6cc711aee1a0c2a/perfenv/internal/config"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for formats other than text, json and yaml.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the accepted output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML}
}

type document struct {
	Config   string         `json:"config" yaml:"config"`
	Settings []config.Entry `json:"settings" yaml:"settings"`
}

// Write renders the configuration path and resolved entries to w.
func Write(w io.Writer, format, configPath string, entries []config.Entry) error {
	if entries == nil {
		entries = []config.Entry{}
	}
	doc := document{Config: configPath, Settings: entries}

	switch format {
	case FormatText:
		return writeText(w, doc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func writeText(w io.Writer, doc document) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tVALUE\tORIGIN\n")
	fmt.Fprintf(tw, "CONFIG\t%s\t-\n", doc.Config)
	for _, entry := range doc.Settings {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Name, entry.Value, entry.Origin)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	return nil
}
