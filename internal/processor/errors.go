package processor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-lang/schemagen/internal/schema"
)

// IncompletePrimaryKeyOrderError is returned when a collection declares a
// composite primary key and one of its components has no order
type IncompletePrimaryKeyOrderError struct {
	Class schema.ClassRef
	Field string
}

func (e *IncompletePrimaryKeyOrderError) Error() string {
	return fmt.Sprintf("collection %s declares multiple primary keys but %q has no order", e.Class, e.Field)
}

// CyclicEmbeddingError is returned when a class embeds itself directly or
// through other classes
type CyclicEmbeddingError struct {
	Path []schema.ClassRef
}

func (e *CyclicEmbeddingError) Error() string {
	parts := make([]string, len(e.Path))
	for i, ref := range e.Path {
		parts[i] = string(ref)
	}
	return "cyclic embedding: " + strings.Join(parts, " -> ")
}

// IsIncompletePrimaryKeyOrder checks if an error is an IncompletePrimaryKeyOrderError
func IsIncompletePrimaryKeyOrder(err error) bool {
	var e *IncompletePrimaryKeyOrderError
	return errors.As(err, &e)
}

// IsCyclicEmbedding checks if an error is a CyclicEmbeddingError
func IsCyclicEmbedding(err error) bool {
	var e *CyclicEmbeddingError
	return errors.As(err, &e)
}
