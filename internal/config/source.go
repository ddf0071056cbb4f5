package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigPathEnv names the variable that points at the configuration file.
	ConfigPathEnv = "CONFIG_PATH"

	defaultConfigFile = "config.json"
)

// Source holds the top-level values of the configuration file as strings.
// It is never mutated after loading.
type Source struct {
	values map[string]string
}

// Lookup returns the file value for name, if the file defines one.
func (s Source) Lookup(name string) (string, bool) {
	value, ok := s.values[name]
	return value, ok
}

// Len returns the number of usable keys in the source.
func (s Source) Len() int {
	return len(s.values)
}

func emptySource() Source {
	return Source{values: map[string]string{}}
}

// defaultConfigPath resolves the configuration file location from the
// environment, falling back to config.json in the working directory.
func defaultConfigPath(lookupEnv func(string) (string, bool), getwd func() (string, error)) string {
	if path, ok := lookupEnv(ConfigPathEnv); ok {
		return absPath(path)
	}

	dir, err := getwd()
	if err != nil {
		return defaultConfigFile
	}
	return filepath.Join(dir, defaultConfigFile)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// readSource loads the file at path. YAML is chosen by extension, anything
// else is decoded as JSON.
func readSource(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLSource(data)
	default:
		return parseJSONSource(data)
	}
}

func parseJSONSource(data []byte) (Source, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return Source{}, fmt.Errorf("parse JSON: %w", err)
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			values[key] = v
		case json.Number:
			values[key] = v.String()
		case bool:
			values[key] = strconv.FormatBool(v)
		}
		// null, objects and arrays carry no scalar value and are skipped.
	}
	return Source{values: values}, nil
}

func parseYAMLSource(data []byte) (Source, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Source{}, fmt.Errorf("parse YAML: %w", err)
	}

	values := make(map[string]string, len(raw))
	for key, node := range raw {
		if node.Kind != yaml.ScalarNode || node.ShortTag() == "!!null" {
			continue
		}
		values[key] = node.Value
	}
	return Source{values: values}, nil
}
