package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	if err := Encode(&buf, cfg); err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Encode writes cfg as YAML in the same layout Save uses.
func Encode(w io.Writer, cfg *Config) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(newFileConfig(cfg)); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return encoder.Close()
}

// fileConfig mirrors Config with durations as strings so the written file
// reads "60s" instead of nanosecond integers.
type fileConfig struct {
	Version        int          `yaml:"version"`
	Server         string       `yaml:"server"`
	PollInterval   string       `yaml:"poll_interval"`
	RequestTimeout string       `yaml:"request_timeout"`
	HistoryLimit   int          `yaml:"history_limit"`
	RosterInterval string       `yaml:"roster_interval"`
	Output         OutputConfig `yaml:"output"`
	Log            LogConfig    `yaml:"log"`
	Demo           fileDemo     `yaml:"demo"`
}

type fileDemo struct {
	Listen         string `yaml:"listen"`
	SampleInterval string `yaml:"sample_interval"`
	HistorySize    int    `yaml:"history_size"`
	TopProcesses   int    `yaml:"top_processes"`
}

func newFileConfig(cfg *Config) fileConfig {
	return fileConfig{
		Version:        cfg.Version,
		Server:         cfg.Server,
		PollInterval:   cfg.PollInterval.String(),
		RequestTimeout: cfg.RequestTimeout.String(),
		HistoryLimit:   cfg.HistoryLimit,
		RosterInterval: cfg.RosterInterval.String(),
		Output:         cfg.Output,
		Log:            cfg.Log,
		Demo: fileDemo{
			Listen:         cfg.Demo.Listen,
			SampleInterval: cfg.Demo.SampleInterval.String(),
			HistorySize:    cfg.Demo.HistorySize,
			TopProcesses:   cfg.Demo.TopProcesses,
		},
	}
}

// SetValue sets a dotted key (e.g. "output.color") in the config file at
// configPath. It preserves the existing YAML structure and comments, and
// creates intermediate mappings that are missing.
func SetValue(configPath, key, value string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if root.Kind == 0 {
		// Empty file
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		child := findMapValue(node, part)
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, scalarNode(part), child)
		}
		if child.Kind != yaml.MappingNode {
			return fmt.Errorf("'%s' is not a section in the config", part)
		}
		node = child
	}

	leaf := parts[len(parts)-1]
	if existing := findMapValue(node, leaf); existing != nil {
		if existing.Kind != yaml.ScalarNode {
			return fmt.Errorf("'%s' is a section, not a value", key)
		}
		existing.Value = value
		existing.Tag = ""
		existing.Style = 0
	} else {
		node.Content = append(node.Content, scalarNode(leaf), &yaml.Node{Kind: yaml.ScalarNode, Value: value})
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(configPath, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
