package cigen

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is a YAML mapping that remembers insertion order. The CI runner
// reads the pipeline top-down, so stages and jobs must serialize in the
// order they were assembled, which plain maps cannot guarantee.
type Document struct {
	keys   []string
	values map[string]any
}

func NewDocument() *Document {
	return &Document{values: make(map[string]any)}
}

// Set adds or replaces a key. A replaced key keeps its original position.
func (d *Document) Set(key string, value any) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	value, ok := d.values[key]
	return value, ok
}

// Keys returns the document's keys in insertion order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of top-level keys.
func (d *Document) Len() int {
	return len(d.keys)
}

// Empty reports whether the document has no keys.
func (d *Document) Empty() bool {
	return len(d.keys) == 0
}

// MarshalYAML implements yaml.Marshaler, emitting keys in insertion order.
func (d *Document) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range d.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(d.values[key]); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", key, err)
		}
		node.Content = append(node.Content, keyNode, valueNode)
	}
	return node, nil
}

// WriteFile serializes the document to path with 2-space indentation.
func (d *Document) WriteFile(path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encoding pipeline document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding pipeline document: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
