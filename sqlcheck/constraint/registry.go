package constraint

import (
	"maps"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
)

type snapshot struct {
	byName  map[string]Metadata
	byOwner map[string][]string
}

// Registry maps physical constraint names to their metadata.
//
// Writes serialize on a mutex and publish a fresh snapshot; lookups read
// the current snapshot without locking, so a reader never observes a
// partially registered entry.
type Registry struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	r := &Registry{}
	r.snap.Store(&snapshot{
		byName:  map[string]Metadata{},
		byOwner: map[string][]string{},
	})
	return r
}

// Register inserts m under its physical name. A repeated physical name
// overwrites the earlier entry and is appended to the owner index again.
func (r *Registry) Register(m Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	next := &snapshot{
		byName:  maps.Clone(cur.byName),
		byOwner: maps.Clone(cur.byOwner),
	}
	next.byName[m.PhysicalName] = m.clone()
	owned := slices.Clone(cur.byOwner[m.OwnerType])
	next.byOwner[m.OwnerType] = append(owned, m.PhysicalName)
	r.snap.Store(next)
}

// Lookup returns the metadata registered under a physical name
func (r *Registry) Lookup(physicalName string) (Metadata, bool) {
	m, ok := r.snap.Load().byName[physicalName]
	if !ok {
		return Metadata{}, false
	}
	return m.clone(), true
}

// Constraints returns the physical names registered for an owner, in
// registration order
func (r *Registry) Constraints(owner string) []string {
	return slices.Clone(r.snap.Load().byOwner[owner])
}

// Owners returns every owner type with at least one constraint, sorted
func (r *Registry) Owners() []string {
	owners := slices.Collect(maps.Keys(r.snap.Load().byOwner))
	sort.Strings(owners)
	return owners
}

// All returns every registered constraint, ordered by owner then
// registration order. Overwritten names appear once.
func (r *Registry) All() []Metadata {
	s := r.snap.Load()
	var out []Metadata
	for _, owner := range r.Owners() {
		seen := map[string]bool{}
		for _, name := range s.byOwner[owner] {
			if seen[name] {
				continue
			}
			seen[name] = true
			m, ok := s.byName[name]
			if !ok || m.OwnerType != owner {
				continue
			}
			out = append(out, m.clone())
		}
	}
	return out
}

// Len returns the number of distinct physical names
func (r *Registry) Len() int {
	return len(r.snap.Load().byName)
}
