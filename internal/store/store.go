// Package store keeps versioned copies of generated schema documents.
//
// Every backend assigns versions per (kind, name) starting at 1. Saving a
// document whose canonical encoding matches the latest stored version is a
// no-op, so repeated builds of unchanged declarations do not grow history.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conduit-lang/schemagen/internal/document"
)

// Record is one stored version of a document
type Record struct {
	ID        uuid.UUID
	Kind      document.Kind
	Name      string
	Version   int
	Digest    string
	Payload   []byte
	CreatedAt time.Time
}

// Store persists schema documents
type Store interface {
	// Save stores doc as a new version unless it equals the latest one.
	// It returns the latest record and whether a new version was written.
	Save(ctx context.Context, doc *document.Document) (*Record, bool, error)

	// Latest returns the newest version of a document
	Latest(ctx context.Context, kind document.Kind, name string) (*Record, error)

	// Get returns a specific version of a document
	Get(ctx context.Context, kind document.Kind, name string, version int) (*Record, error)

	// List returns the newest version of every document of a kind, by name
	List(ctx context.Context, kind document.Kind) ([]*Record, error)

	// Close releases the backend connection
	Close() error
}

// ErrNotFound is returned when no stored version matches
type ErrNotFound struct {
	Kind    document.Kind
	Name    string
	Version int
}

func (e ErrNotFound) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("%s %s version %d not found", e.Kind, e.Name, e.Version)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.Name)
}

// IsNotFound checks if an error is an ErrNotFound
func IsNotFound(err error) bool {
	var e ErrNotFound
	return errors.As(err, &e)
}

// Digest returns the hex sha256 of a canonical payload
func Digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// newRecord encodes doc and prepares the record for the given version
func newRecord(doc *document.Document, version int) (*Record, error) {
	if doc == nil {
		return nil, errors.New("document cannot be nil")
	}
	if doc.Name == "" {
		return nil, errors.New("document name cannot be empty")
	}

	payload, err := document.Canonical(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document %s: %w", doc.Name, err)
	}

	return &Record{
		ID:        uuid.New(),
		Kind:      doc.Kind,
		Name:      doc.Name,
		Version:   version,
		Digest:    Digest(payload),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
