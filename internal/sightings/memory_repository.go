package sightings

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[string]Sighting
}

// NewMemoryRepository builds an in-memory sighting store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{nextID: 1, items: make(map[string]Sighting)}
}

func (r *memoryRepository) Create(_ context.Context, s *Sighting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID
	r.nextID++
	r.items[s.SightingCode] = *s
	return nil
}

func (r *memoryRepository) List(_ context.Context) ([]Sighting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Sighting, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) FindByCode(_ context.Context, code string) (Sighting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[code]
	if !ok {
		return Sighting{}, ErrNotFound
	}
	return s, nil
}

func (r *memoryRepository) Update(_ context.Context, s Sighting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[s.SightingCode]
	if !ok {
		return ErrNotFound
	}
	stored.Species = s.Species
	stored.SightingDate = s.SightingDate
	stored.Notes = s.Notes
	stored.Longitude = s.Longitude
	stored.Latitude = s.Latitude
	r.items[s.SightingCode] = stored
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[code]; !ok {
		return ErrNotFound
	}
	delete(r.items, code)
	return nil
}
