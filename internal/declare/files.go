package declare

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/schemagen/internal/schema"
)

// LoadFile reads the declarations of one file
func LoadFile(path string) ([]*schema.Class, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	classes, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return classes, nil
}

// LoadPath reads declarations from a file, every .yml/.yaml file of a
// directory, or every file matched by a glob pattern. Files are read in
// lexical order.
func LoadPath(path string) ([]*schema.Class, error) {
	files, err := resolveFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no declaration files found at %s", path)
	}

	var classes []*schema.Class
	for _, file := range files {
		loaded, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		classes = append(classes, loaded...)
	}
	return classes, nil
}

// Dir returns the directory a declaration path refers to: the path itself
// for a directory, otherwise the directory of the file or glob pattern
func Dir(path string) string {
	if strings.ContainsAny(path, "*?[") {
		return filepath.Dir(path)
	}
	switch filepath.Ext(path) {
	case ".yml", ".yaml":
		return filepath.Dir(path)
	}
	return path
}

func resolveFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		var files []string
		for _, pattern := range []string{"*.yml", "*.yaml"} {
			matches, err := filepath.Glob(filepath.Join(path, pattern))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
		sort.Strings(files)
		return files, nil
	case err == nil:
		return []string{path}, nil
	case os.IsNotExist(err) && strings.ContainsAny(path, "*?["):
		return filepath.Glob(path)
	default:
		return nil, err
	}
}

// Encode writes classes as a declaration document
func Encode(w io.Writer, classes []*schema.Class) error {
	file := File{Classes: make([]ClassDecl, 0, len(classes))}
	for _, c := range classes {
		decl, err := FromClass(c)
		if err != nil {
			return err
		}
		file.Classes = append(file.Classes, decl)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode declarations: %w", err)
	}
	return enc.Close()
}

// SaveFile writes classes to path, replacing any previous content
func SaveFile(path string, classes []*schema.Class) error {
	var buf bytes.Buffer
	if err := Encode(&buf, classes); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// FromClass converts a class back into its declaration form
func FromClass(c *schema.Class) (ClassDecl, error) {
	decl := ClassDecl{
		Ref:  string(c.Ref),
		Kind: c.Kind.String(),
		Name: c.Name,
	}
	if c.Kind == schema.KindEmbedded {
		decl.Kind = ""
		if c.Name == string(c.Ref) {
			decl.Name = ""
		}
	}

	for _, f := range c.Fields {
		fd, err := fromField(f)
		if err != nil {
			return decl, fmt.Errorf("class %s: %w", c.Ref, err)
		}
		decl.Fields = append(decl.Fields, fd)
	}
	for _, f := range c.SearchFields {
		fd, err := fromField(f)
		if err != nil {
			return decl, fmt.Errorf("class %s: %w", c.Ref, err)
		}
		decl.SearchFields = append(decl.SearchFields, fd)
	}
	for _, pk := range c.PrimaryKeys {
		kd := KeyDecl{
			Name:         pk.Name,
			Type:         pk.Type.String(),
			AutoGenerate: pk.AutoGenerate,
		}
		if order, ok := pk.Order.Get(); ok {
			kd.Order = &order
		}
		decl.PrimaryKeys = append(decl.PrimaryKeys, kd)
	}
	return decl, nil
}

func fromField(f schema.FieldDescriptor) (FieldDecl, error) {
	fd := FieldDecl{
		Name:  f.Name,
		Type:  f.Type.String(),
		Depth: f.ArrayDepth,
	}
	if f.Embed != nil {
		if f.Embed.IsClass() {
			fd.Class = string(f.Embed.Class)
		} else {
			fd.Of = f.Embed.Scalar.String()
		}
	}

	opts := f.Options
	if v, ok := opts.MaxLength.Get(); ok {
		fd.MaxLength = &v
	}
	if v, ok := opts.Default.Get(); ok {
		if err := fd.Default.Encode(v); err != nil {
			return fd, fmt.Errorf("field %s: default: %w", f.Name, err)
		}
	}
	if v, ok := opts.Timestamp.Get(); ok {
		fd.Timestamp = string(v)
	}
	fd.SearchIndex = boolPtr(opts.SearchIndex)
	fd.Sort = boolPtr(opts.Sort)
	fd.Facet = boolPtr(opts.Facet)
	fd.ID = boolPtr(opts.ID)
	fd.Index = boolPtr(opts.Index)
	if v, ok := opts.Dimensions.Get(); ok {
		fd.Dimensions = &v
	}
	return fd, nil
}

func boolPtr(v schema.Value[bool]) *bool {
	if b, ok := v.Get(); ok {
		return &b
	}
	return nil
}
