// Package declare reads and writes class declarations kept in YAML files.
//
// A declaration file lists classes under a top-level "classes" key:
//
//	classes:
//	  - ref: Order
//	    kind: collection
//	    name: orders
//	    fields:
//	      - name: id
//	        type: int64
//	      - name: lines
//	        type: array
//	        class: OrderLine
//	      - name: note
//	        type: string
//	        maxLength: 140
//	        searchIndex: true
//	    primaryKeys:
//	      - name: id
//	        type: int64
//	        autoGenerate: true
//	  - ref: OrderLine
//	    fields:
//	      - name: sku
//	        type: string
//
// A file may hold several YAML documents; their classes are concatenated.
package declare

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/schemagen/internal/schema"
)

// File is the top-level shape of a declaration document
type File struct {
	Classes []ClassDecl `yaml:"classes"`
}

// ClassDecl declares one class
type ClassDecl struct {
	Ref          string      `yaml:"ref"`
	Kind         string      `yaml:"kind,omitempty"`
	Name         string      `yaml:"name,omitempty"`
	Fields       []FieldDecl `yaml:"fields,omitempty"`
	SearchFields []FieldDecl `yaml:"searchFields,omitempty"`
	PrimaryKeys  []KeyDecl   `yaml:"primaryKeys,omitempty"`
}

// FieldDecl declares one field. Of names the scalar element type of an
// array; Class names the embedded class of an array or object.
type FieldDecl struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Of        string `yaml:"of,omitempty"`
	Class     string `yaml:"class,omitempty"`
	Depth     int    `yaml:"depth,omitempty"`
	MaxLength *int   `yaml:"maxLength,omitempty"`

	// Default keeps the raw node so that an explicit null is distinguishable
	// from an absent key
	Default     yaml.Node `yaml:"default,omitempty"`
	Timestamp   string    `yaml:"timestamp,omitempty"`
	SearchIndex *bool     `yaml:"searchIndex,omitempty"`
	Sort        *bool     `yaml:"sort,omitempty"`
	Facet       *bool     `yaml:"facet,omitempty"`
	Dimensions  *int      `yaml:"dimensions,omitempty"`
	ID          *bool     `yaml:"id,omitempty"`
	Index       *bool     `yaml:"index,omitempty"`
}

// KeyDecl declares one primary key component
type KeyDecl struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	Order        *int   `yaml:"order,omitempty"`
	AutoGenerate bool   `yaml:"autoGenerate,omitempty"`
}

// Load decodes every YAML document in r and converts its classes
func Load(r io.Reader) ([]*schema.Class, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var classes []*schema.Class
	for {
		var file File
		err := dec.Decode(&file)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse declarations: %w", err)
		}

		for i := range file.Classes {
			class, err := file.Classes[i].Class()
			if err != nil {
				return nil, err
			}
			classes = append(classes, class)
		}
	}
	return classes, nil
}

// Class converts the declaration into a class
func (d *ClassDecl) Class() (*schema.Class, error) {
	if d.Ref == "" {
		return nil, fmt.Errorf("class declaration without ref")
	}
	kind, err := schema.ParseKind(d.Kind)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", d.Ref, err)
	}

	class := schema.NewClass(schema.ClassRef(d.Ref), d.Name, kind)
	if kind == schema.KindEmbedded && class.Name == "" {
		class.Name = d.Ref
	}

	for i := range d.Fields {
		f, err := d.Fields[i].Descriptor()
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", d.Ref, err)
		}
		class.Fields = append(class.Fields, f)
	}
	for i := range d.SearchFields {
		f, err := d.SearchFields[i].Descriptor()
		if err != nil {
			return nil, fmt.Errorf("class %s: search %w", d.Ref, err)
		}
		class.SearchFields = append(class.SearchFields, f)
	}
	for _, k := range d.PrimaryKeys {
		pk, err := k.Descriptor()
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", d.Ref, err)
		}
		class.PrimaryKeys = append(class.PrimaryKeys, pk)
	}

	return class, nil
}

// Descriptor converts the declaration into a field descriptor
func (d *FieldDecl) Descriptor() (schema.FieldDescriptor, error) {
	var out schema.FieldDescriptor

	typ, err := schema.ParseDataType(d.Type)
	if err != nil {
		return out, fmt.Errorf("field %s: %w", d.Name, err)
	}
	out.Name = d.Name
	out.Type = typ
	out.ArrayDepth = d.Depth

	switch {
	case d.Of != "" && d.Class != "":
		return out, fmt.Errorf("field %s: of and class are mutually exclusive", d.Name)
	case d.Of != "":
		elem, err := schema.ParseDataType(d.Of)
		if err != nil {
			return out, fmt.Errorf("field %s: %w", d.Name, err)
		}
		out.Embed = schema.EmbedScalar(elem)
	case d.Class != "":
		out.Embed = schema.EmbedClass(schema.ClassRef(d.Class))
	}

	opts := &out.Options
	if d.MaxLength != nil {
		opts.MaxLength = schema.Some(*d.MaxLength)
	}
	if d.Default.Kind != 0 {
		var v any
		if err := d.Default.Decode(&v); err != nil {
			return out, fmt.Errorf("field %s: default: %w", d.Name, err)
		}
		opts.Default = schema.Some(v)
	}
	if d.Timestamp != "" {
		opts.Timestamp = schema.Some(schema.TimestampKind(d.Timestamp))
	}
	setBool(&opts.SearchIndex, d.SearchIndex)
	setBool(&opts.Sort, d.Sort)
	setBool(&opts.Facet, d.Facet)
	setBool(&opts.ID, d.ID)
	setBool(&opts.Index, d.Index)
	if d.Dimensions != nil {
		opts.Dimensions = schema.Some(*d.Dimensions)
	}

	return out, nil
}

// Descriptor converts the declaration into a primary key descriptor
func (d KeyDecl) Descriptor() (schema.PrimaryKeyDescriptor, error) {
	typ, err := schema.ParseDataType(d.Type)
	if err != nil {
		return schema.PrimaryKeyDescriptor{}, fmt.Errorf("primary key %s: %w", d.Name, err)
	}
	pk := schema.PrimaryKeyDescriptor{
		Name:         d.Name,
		Type:         typ,
		AutoGenerate: d.AutoGenerate,
	}
	if d.Order != nil {
		pk.Order = schema.Some(*d.Order)
	}
	return pk, nil
}

func setBool(dst *schema.Value[bool], src *bool) {
	if src != nil {
		*dst = schema.Some(*src)
	}
}

// RegisterAll registers every class into registry, stopping at the first
// error
func RegisterAll(registry *schema.Registry, classes []*schema.Class) error {
	for _, c := range classes {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}
