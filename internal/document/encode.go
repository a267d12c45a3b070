package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is a wire encoding of a document
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgPack Format = "msgpack"
)

// ParseFormat converts a string to a Format
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "msgpack", "mpk":
		return FormatMsgPack, nil
	default:
		return "", fmt.Errorf("unknown document format: %s", s)
	}
}

// Extension returns the file extension used for the format
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatMsgPack:
		return ".msgpack"
	default:
		return ".json"
	}
}

// Encode serializes a document in the requested format
func Encode(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatMsgPack:
		return msgpack.Marshal(doc)
	default:
		return nil, fmt.Errorf("unknown document format: %s", format)
	}
}

// Canonical returns the compact JSON encoding used for hashing and storage
func Canonical(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

// documentWire fixes the key order of the document envelope
type documentWire struct {
	Name   string  `json:"name" yaml:"name" msgpack:"name"`
	Kind   Kind    `json:"kind" yaml:"kind" msgpack:"kind"`
	Schema *Schema `json:"schema" yaml:"schema" msgpack:"schema"`
}

func (d *Document) wire() documentWire {
	schema := d.Schema
	if schema == nil {
		schema = NewSchema()
	}
	return documentWire{Name: d.Name, Kind: d.Kind, Schema: schema}
}

// MarshalJSON implements json.Marshaler
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.wire())
}

// MarshalYAML implements yaml.Marshaler
func (d *Document) MarshalYAML() (any, error) {
	return d.wire(), nil
}

// EncodeMsgpack implements msgpack.CustomEncoder
func (d *Document) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(d.wire())
}

// primaryKeyWire is the encoded form of a primary key marker
type primaryKeyWire struct {
	Order        int  `json:"order" yaml:"order" msgpack:"order"`
	AutoGenerate bool `json:"autoGenerate" yaml:"autoGenerate" msgpack:"autoGenerate"`
}

// entry is one key of an encoded node, in emission order
type entry struct {
	key   string
	value any
}

// entries lists the keys of a node in their fixed order: type, items,
// maxLength, the optional attributes, primary_key
func (n *Node) entries() []entry {
	out := make([]entry, 0, 4+len(n.Attrs))
	if n.Nested != nil {
		out = append(out, entry{"type", n.Nested})
	} else {
		out = append(out, entry{"type", n.Type})
	}
	if n.Items != nil {
		out = append(out, entry{"items", n.Items})
	}
	if n.MaxLength != nil {
		out = append(out, entry{"maxLength", *n.MaxLength})
	}
	for _, a := range n.Attrs {
		out = append(out, entry{a.Key, a.Value})
	}
	if n.PrimaryKey != nil {
		out = append(out, entry{"primary_key", primaryKeyWire{
			Order:        n.PrimaryKey.Order,
			AutoGenerate: n.PrimaryKey.AutoGenerate,
		}})
	}
	return out
}

// MarshalJSON implements json.Marshaler with declaration-ordered keys
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONEntry(&buf, k, s.nodes[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler with fixed key order
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range n.entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONEntry(&buf, e.key, e.value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONEntry(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler with declaration-ordered keys
func (s *Schema) MarshalYAML() (any, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range s.Keys() {
		value, err := s.nodes[k].yamlNode()
		if err != nil {
			return nil, err
		}
		mapping.Content = append(mapping.Content, yamlKey(k), value)
	}
	return mapping, nil
}

// MarshalYAML implements yaml.Marshaler with fixed key order
func (n *Node) MarshalYAML() (any, error) {
	return n.yamlNode()
}

func (n *Node) yamlNode() (*yaml.Node, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range n.entries() {
		var value *yaml.Node
		switch v := e.value.(type) {
		case *Schema:
			out, err := v.MarshalYAML()
			if err != nil {
				return nil, err
			}
			value = out.(*yaml.Node)
		case *Node:
			out, err := v.yamlNode()
			if err != nil {
				return nil, err
			}
			value = out
		default:
			value = &yaml.Node{}
			if err := value.Encode(v); err != nil {
				return nil, fmt.Errorf("encode %s: %w", e.key, err)
			}
		}
		mapping.Content = append(mapping.Content, yamlKey(e.key), value)
	}
	return mapping, nil
}

func yamlKey(k string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
}

// EncodeMsgpack implements msgpack.CustomEncoder with declaration-ordered keys
func (s *Schema) EncodeMsgpack(enc *msgpack.Encoder) error {
	keys := s.Keys()
	if err := enc.EncodeMapLen(len(keys)); err != nil {
		return err
	}
	for _, k := range keys {
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := enc.Encode(s.nodes[k]); err != nil {
			return err
		}
	}
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder with fixed key order
func (n *Node) EncodeMsgpack(enc *msgpack.Encoder) error {
	entries := n.entries()
	if err := enc.EncodeMapLen(len(entries)); err != nil {
		return err
	}
	for _, e := range entries {
		if err := enc.EncodeString(e.key); err != nil {
			return err
		}
		if err := enc.Encode(e.value); err != nil {
			return fmt.Errorf("encode %s: %w", e.key, err)
		}
	}
	return nil
}
