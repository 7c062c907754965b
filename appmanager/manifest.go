package appmanager

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Manifest is the in-memory, insertion-ordered catalogue of known
// applications. It is append-only and therefore safe to
// read concurrently without a caller-visible lock: insert and lookup
// both take the internal mutex, but no caller needs to coordinate.
type Manifest struct {
	mu      sync.RWMutex
	records []*Application
	filter  *bloom.BloomFilter
}

// NewManifest creates an empty manifest sized for expectedApps entries
// (MaxSlots plus any compiled-in builtins is a reasonable estimate).
func NewManifest(expectedApps uint) *Manifest {
	if expectedApps == 0 {
		expectedApps = 1
	}
	return &Manifest{
		filter: bloom.NewWithEstimates(expectedApps, 0.01),
	}
}

// Insert adds a record to the manifest, preserving insertion order.
// It fails with ErrAllocationFailed on a nil or nameless record, the
// only malformed-record cases a GC'd runtime can still produce.
func (m *Manifest) Insert(app *Application) error {
	if app == nil || app.Name == "" {
		return ErrAllocationFailed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, app)
	m.filter.AddString(app.Name)
	return nil
}

// Lookup matches query against each record's name using a prefix
// comparison up to the record's name length: a query matches if the
// stored name is a prefix of the query, so callers may pass longer
// identifiers with trailing data. Insertion order determines the winner
// when more than one record's name is a prefix of query. On no match it
// fails with ErrNotFound.
func (m *Manifest) Lookup(query string) (*Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records {
		if len(r.Name) <= len(query) && query[:len(r.Name)] == r.Name {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

// LookupExact matches query against the record's full name only. Used
// by the supervisor to resolve Start(name) requests, where a prefix
// collision would launch the wrong application. A Bloom filter
// fast-rejects names that are certainly absent before the linear scan
// runs.
func (m *Manifest) LookupExact(name string) (*Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.filter.TestString(name) {
		return nil, ErrNotFound
	}

	for _, r := range m.records {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

// Head returns the first-inserted record, or nil if the manifest is
// empty.
func (m *Manifest) Head() *Application {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 {
		return nil
	}
	return m.records[0]
}

// Records returns a defensive copy of the manifest in insertion order.
func (m *Manifest) Records() []*Application {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Application, len(m.records))
	copy(out, m.records)
	return out
}

// Len reports the number of records currently in the manifest.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
