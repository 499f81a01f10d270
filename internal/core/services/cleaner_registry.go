package services

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
)

// Ensure CleanerRegistry implements the interface.
var _ driven.CleanerRegistry = (*CleanerRegistry)(nil)

// CleanerRegistry maps cleaner IDs to cleaning routines. It is built
// once at startup from the known routines and never mutated after,
// so lookups need no locking.
type CleanerRegistry struct {
	cleaners map[string]driven.Cleaner
}

// NewCleanerRegistry builds a registry from the given routines.
// Duplicate IDs are a programming error and panic at startup rather
// than silently shadowing a routine.
func NewCleanerRegistry(cleaners ...driven.Cleaner) *CleanerRegistry {
	r := &CleanerRegistry{cleaners: make(map[string]driven.Cleaner, len(cleaners))}
	for _, c := range cleaners {
		if _, dup := r.cleaners[c.ID()]; dup {
			panic(fmt.Sprintf("duplicate cleaner id %q", c.ID()))
		}
		r.cleaners[c.ID()] = c
	}
	return r
}

// Get returns the cleaner for an ID.
func (r *CleanerRegistry) Get(id string) (driven.Cleaner, error) {
	c, ok := r.cleaners[id]
	if !ok {
		return nil, fmt.Errorf("%w: cleaner %q", domain.ErrUnsupportedType, id)
	}
	return c, nil
}

// IDs returns all registered cleaner IDs, sorted.
func (r *CleanerRegistry) IDs() []string {
	ids := make([]string, 0, len(r.cleaners))
	for id := range r.cleaners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
