// Package processor turns registered class declarations into schema
// documents.
//
// A Processor reads class metadata through the Metadata interface (usually a
// sealed *schema.Registry), resolves each class's plain and search fields into
// one field list, recursively builds the nested schema (objects, arrays of any
// depth, embedded classes), attaches the optional attributes that apply to
// each field's type and container, and for collections marks the primary key
// fields. Processing is pure: each call builds a fresh document and keeps no
// state between calls, so one Processor may be shared by many goroutines.
package processor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/schemagen/internal/document"
	"github.com/conduit-lang/schemagen/internal/schema"
)

// Metadata is the read-only view of declared classes the processor needs
type Metadata interface {
	Class(ref schema.ClassRef) (*schema.Class, bool)
	Fields(ref schema.ClassRef) ([]schema.FieldDescriptor, error)
	SearchFields(ref schema.ClassRef) ([]schema.FieldDescriptor, error)
	PrimaryKeys(ref schema.ClassRef) ([]schema.PrimaryKeyDescriptor, error)
}

// Processor builds collection and index schema documents
type Processor struct {
	metadata Metadata
	logger   *zap.Logger
}

// Option configures a Processor
type Option func(*Processor)

// WithLogger sets the logger used for build diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a processor reading from metadata
func New(metadata Metadata, opts ...Option) *Processor {
	p := &Processor{
		metadata: metadata,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessCollection builds the collection schema of ref, including its
// primary key markers
func (p *Processor) ProcessCollection(ref schema.ClassRef) (*document.Document, error) {
	class, ok := p.metadata.Class(ref)
	if !ok {
		return nil, &schema.UnknownClassError{Ref: ref}
	}

	built, err := p.build(ref, true, noParent, nil)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", ref, err)
	}
	if err := p.addPrimaryKeys(built, ref); err != nil {
		return nil, fmt.Errorf("collection %s: %w", ref, err)
	}

	p.logger.Debug("built collection schema",
		zap.String("class", string(ref)),
		zap.String("name", class.Name),
		zap.Int("fields", built.Len()),
	)

	return &document.Document{
		Kind:   document.KindCollection,
		Name:   class.Name,
		Schema: built,
	}, nil
}

// ProcessIndex builds the search index schema of ref from its search fields
func (p *Processor) ProcessIndex(ref schema.ClassRef) (*document.Document, error) {
	class, ok := p.metadata.Class(ref)
	if !ok {
		return nil, &schema.UnknownClassError{Ref: ref}
	}

	built, err := p.build(ref, false, noParent, nil)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", ref, err)
	}

	p.logger.Debug("built index schema",
		zap.String("class", string(ref)),
		zap.String("name", class.Name),
		zap.Int("fields", built.Len()),
	)

	return &document.Document{
		Kind:   document.KindIndex,
		Name:   class.Name,
		Schema: built,
	}, nil
}

// Process builds the document matching the registered kind of ref
func (p *Processor) Process(ref schema.ClassRef) (*document.Document, error) {
	class, ok := p.metadata.Class(ref)
	if !ok {
		return nil, &schema.UnknownClassError{Ref: ref}
	}
	switch class.Kind {
	case schema.KindCollection:
		return p.ProcessCollection(ref)
	case schema.KindIndex:
		return p.ProcessIndex(ref)
	default:
		return nil, fmt.Errorf("class %s is %s and has no document of its own", ref, class.Kind)
	}
}

// Build returns the bare schema of ref without primary key markers.
// forCollection selects collection field resolution; otherwise only search
// fields are used.
func (p *Processor) Build(ref schema.ClassRef, forCollection bool) (*document.Schema, error) {
	if _, ok := p.metadata.Class(ref); !ok {
		return nil, &schema.UnknownClassError{Ref: ref}
	}
	return p.build(ref, forCollection, noParent, nil)
}
