// Package reslock serializes ledger writes per resident. Payment
// ingestion and the sync engine share one registry so a resident's
// read-compute-insert sequence can never interleave with another writer
// for the same resident.
package reslock

import (
    "sync"

    "github.com/google/uuid"
)

// Registry hands out one mutex per resident id. Mutexes are created on
// first use and retained for the life of the process; the set is bounded
// by the resident population.
type Registry struct {
    mu    sync.Mutex
    locks map[uuid.UUID]*sync.Mutex
}

func New() *Registry {
    return &Registry{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock acquires the mutex for id and returns the matching unlock func.
func (r *Registry) Lock(id uuid.UUID) func() {
    r.mu.Lock()
    m, ok := r.locks[id]
    if !ok {
        m = &sync.Mutex{}
        r.locks[id] = m
    }
    r.mu.Unlock()
    m.Lock()
    return m.Unlock
}
