package schema

import (
	"errors"
	"fmt"
	"sync"
)

// ErrSealed is returned when registering into a sealed registry
var ErrSealed = errors.New("registry is sealed")

// UnknownClassError is returned when a class reference was never registered
type UnknownClassError struct {
	Ref ClassRef
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("class %s is not registered", e.Ref)
}

// IsUnknownClass checks if an error is an UnknownClassError
func IsUnknownClass(err error) bool {
	var e *UnknownClassError
	return errors.As(err, &e)
}

// Registry is the metadata store: it holds every declared class keyed by its
// reference. It is populated once at startup and sealed before processing;
// read operations return copies so callers never alias registry state.
type Registry struct {
	classes   map[ClassRef]*Class
	order     []ClassRef
	names     map[Kind]map[string]ClassRef
	validator *Validator
	warnings  []string
	sealed    bool
	mu        sync.RWMutex
}

// NewRegistry creates a new, empty registry
func NewRegistry() *Registry {
	return &Registry{
		classes:   make(map[ClassRef]*Class),
		order:     make([]ClassRef, 0),
		names:     make(map[Kind]map[string]ClassRef),
		validator: NewValidator(),
	}
}

// Register validates and stores a class declaration. The registry keeps its
// own copy of the class. A class without a name is given DefaultName.
func (r *Registry) Register(class *Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}

	stored := class.Clone()
	if stored.Name == "" {
		stored.Name = DefaultName(stored.Ref, stored.Kind)
	}

	if _, exists := r.classes[stored.Ref]; exists {
		return fmt.Errorf("class %s is already registered", stored.Ref)
	}
	if other, exists := r.names[stored.Kind][stored.Name]; exists {
		return fmt.Errorf("%s name %q is already used by class %s", stored.Kind, stored.Name, other)
	}

	if err := r.validator.ValidateStructural(stored); err != nil {
		return fmt.Errorf("class %s: %w", stored.Ref, err)
	}
	r.warnings = append(r.warnings, r.validator.Warnings()...)

	r.classes[stored.Ref] = stored
	r.order = append(r.order, stored.Ref)
	if r.names[stored.Kind] == nil {
		r.names[stored.Kind] = make(map[string]ClassRef)
	}
	r.names[stored.Kind][stored.Name] = stored.Ref

	return nil
}

// Warnings returns the warnings of every registered class, in registration
// order
func (r *Registry) Warnings() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.warnings...)
}

// MustRegister registers every class and panics on the first error.
// It is meant for declarations compiled into the binary.
func (r *Registry) MustRegister(classes ...*Class) {
	for _, c := range classes {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Seal makes the registry read-only
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether the registry is read-only
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Class returns a copy of the registered class
func (r *Registry) Class(ref ClassRef) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	class, exists := r.classes[ref]
	if !exists {
		return nil, false
	}
	return class.Clone(), true
}

// Fields returns the plain field declarations of a class in declaration order
func (r *Registry) Fields(ref ClassRef) ([]FieldDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	class, exists := r.classes[ref]
	if !exists {
		return nil, &UnknownClassError{Ref: ref}
	}
	return cloneFields(class.Fields), nil
}

// SearchFields returns the search-field declarations of a class in
// declaration order
func (r *Registry) SearchFields(ref ClassRef) ([]FieldDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	class, exists := r.classes[ref]
	if !exists {
		return nil, &UnknownClassError{Ref: ref}
	}
	return cloneFields(class.SearchFields), nil
}

// PrimaryKeys returns the primary key declarations of a class in declaration
// order
func (r *Registry) PrimaryKeys(ref ClassRef) ([]PrimaryKeyDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	class, exists := r.classes[ref]
	if !exists {
		return nil, &UnknownClassError{Ref: ref}
	}
	keys := make([]PrimaryKeyDescriptor, len(class.PrimaryKeys))
	copy(keys, class.PrimaryKeys)
	return keys, nil
}

// Lookup finds a class by kind and registered name
func (r *Registry) Lookup(kind Kind, name string) (ClassRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, exists := r.names[kind][name]
	return ref, exists
}

// List returns all class references in registration order
func (r *Registry) List() []ClassRef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refs := make([]ClassRef, len(r.order))
	copy(refs, r.order)
	return refs
}

// ListKind returns copies of the classes of one kind in registration order
func (r *Registry) ListKind(kind Kind) []*Class {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var classes []*Class
	for _, ref := range r.order {
		if class := r.classes[ref]; class.Kind == kind {
			classes = append(classes, class.Clone())
		}
	}
	return classes
}

// Names returns the registered names of one kind in registration order
func (r *Registry) Names(kind Kind) []string {
	classes := r.ListKind(kind)
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name
	}
	return names
}

// Count returns the number of registered classes
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// Exists checks if a class is registered
func (r *Registry) Exists(ref ClassRef) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.classes[ref]
	return exists
}

// ValidateAll performs the cross-class checks: every embedded class must be
// registered and no class may embed itself directly or transitively
func (r *Registry) ValidateAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph := NewEmbeddingGraph(r.classes)
	if err := graph.ValidateGraph(); err != nil {
		return fmt.Errorf("embedding validation failed: %w", err)
	}
	return nil
}

// DependencyOrder returns class references with embedded classes first
func (r *Registry) DependencyOrder() ([]ClassRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph := NewEmbeddingGraph(r.classes)
	return graph.TopologicalSort()
}

// Clear removes all registered classes and unseals the registry
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.classes = make(map[ClassRef]*Class)
	r.order = make([]ClassRef, 0)
	r.names = make(map[Kind]map[string]ClassRef)
	r.warnings = nil
	r.sealed = false
}

// RegistryStats summarizes the registry contents
type RegistryStats struct {
	TotalClasses       int
	Collections        int
	Indexes            int
	Embedded           int
	TotalFields        int
	TotalSearchFields  int
	TotalPrimaryKeys   int
	CircularEmbeddings bool
}

// Stats returns statistics about the registry
func (r *Registry) Stats() *RegistryStats {
	r.mu.RLock()
	snapshot := make(map[ClassRef]*Class, len(r.classes))
	for k, v := range r.classes {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	stats := &RegistryStats{TotalClasses: len(snapshot)}
	for _, class := range snapshot {
		switch class.Kind {
		case KindCollection:
			stats.Collections++
		case KindIndex:
			stats.Indexes++
		case KindEmbedded:
			stats.Embedded++
		}
		stats.TotalFields += len(class.Fields)
		stats.TotalSearchFields += len(class.SearchFields)
		stats.TotalPrimaryKeys += len(class.PrimaryKeys)
	}

	stats.CircularEmbeddings = len(NewEmbeddingGraph(snapshot).DetectCycles()) > 0
	return stats
}
