// Package idmap owns the persisted mapping from legacy integer IDs to
// generated UUIDs. The mapping survives across runs so repeated transforms
// are deterministic and the pipeline is resumable.
package idmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Kind names one legacy entity namespace within the mapping store.
type Kind string

// The four mapped entity kinds.
const (
	KindUsers       Kind = "users"
	KindCategories  Kind = "categories"
	KindDiscussions Kind = "discussions"
	KindComments    Kind = "comments"
)

// Mappings is the in-memory mapping store. It is loaded once per run,
// mutated only in memory, and saved once at the end; construct isolated
// instances in tests with New.
type Mappings struct {
	kinds map[Kind]map[int64]string
}

// New returns an empty four-way mapping store.
func New() *Mappings {
	return &Mappings{kinds: map[Kind]map[int64]string{
		KindUsers:       {},
		KindCategories:  {},
		KindDiscussions: {},
		KindComments:    {},
	}}
}

// Load reads a persisted mapping store, returning an empty store if the
// file does not exist yet.
func Load(path string) (*Mappings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping store: %w", err)
	}

	var raw map[Kind]map[int64]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode mapping store: %w", err)
	}

	m := New()
	for kind, ids := range raw {
		if m.kinds[kind] == nil {
			m.kinds[kind] = map[int64]string{}
		}
		for legacyID, newID := range ids {
			m.kinds[kind][legacyID] = newID
		}
	}
	return m, nil
}

// Save persists the full mapping store, atomically replacing the previous
// version.
func (m *Mappings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create mapping dir: %w", err)
	}

	data, err := json.MarshalIndent(m.kinds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mapping store: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write mapping store: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename mapping store: %w", err)
	}
	return nil
}

// MapID returns the stable generated ID for (kind, legacyID), creating and
// recording a fresh UUID on first use.
func (m *Mappings) MapID(kind Kind, legacyID int64) string {
	ids := m.kinds[kind]
	if ids == nil {
		ids = map[int64]string{}
		m.kinds[kind] = ids
	}

	if id, ok := ids[legacyID]; ok {
		return id
	}

	id := uuid.New().String()
	ids[legacyID] = id
	return id
}

// Lookup returns the mapped ID for (kind, legacyID) without creating one.
func (m *Mappings) Lookup(kind Kind, legacyID int64) (string, bool) {
	id, ok := m.kinds[kind][legacyID]
	return id, ok
}

// Len returns the number of mappings recorded under kind.
func (m *Mappings) Len(kind Kind) int {
	return len(m.kinds[kind])
}
