package store

import (
	"context"
	"sort"
	"sync"

	"github.com/conduit-lang/schemagen/internal/document"
)

// MemoryStore keeps document history in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	history map[document.Kind]map[string][]*Record
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		history: make(map[document.Kind]map[string][]*Record),
	}
}

// Save implements Store
func (m *MemoryStore) Save(ctx context.Context, doc *document.Document) (*Record, bool, error) {
	if err := checkContext(ctx); err != nil {
		return nil, false, err
	}

	rec, err := newRecord(doc, 0)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	versions := m.history[doc.Kind][doc.Name]
	rec.Version = len(versions) + 1

	if n := len(versions); n > 0 && versions[n-1].Digest == rec.Digest {
		return copyRecord(versions[n-1]), false, nil
	}

	if m.history[doc.Kind] == nil {
		m.history[doc.Kind] = make(map[string][]*Record)
	}
	m.history[doc.Kind][doc.Name] = append(versions, rec)

	return copyRecord(rec), true, nil
}

// Latest implements Store
func (m *MemoryStore) Latest(ctx context.Context, kind document.Kind, name string) (*Record, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.history[kind][name]
	if len(versions) == 0 {
		return nil, ErrNotFound{Kind: kind, Name: name}
	}
	return copyRecord(versions[len(versions)-1]), nil
}

// Get implements Store
func (m *MemoryStore) Get(ctx context.Context, kind document.Kind, name string, version int) (*Record, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.history[kind][name]
	if version < 1 || version > len(versions) {
		return nil, ErrNotFound{Kind: kind, Name: name, Version: version}
	}
	return copyRecord(versions[version-1]), nil
}

// List implements Store
func (m *MemoryStore) List(ctx context.Context, kind document.Kind) ([]*Record, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Record, 0, len(m.history[kind]))
	for _, versions := range m.history[kind] {
		records = append(records, copyRecord(versions[len(versions)-1]))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	return records, nil
}

// Close implements Store
func (m *MemoryStore) Close() error {
	return nil
}

func copyRecord(r *Record) *Record {
	out := *r
	out.Payload = append([]byte(nil), r.Payload...)
	return &out
}
