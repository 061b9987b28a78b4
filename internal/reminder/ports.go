package reminder

import (
	"context"
	"maps"
	"sync"

	"github.com/pathakanu/plantMemo/internal/model"
)

// PlantContext is what the generator is told about a plant.
type PlantContext struct {
	Name        string
	Species     string
	Archetype   model.Archetype
	DaysOverdue int
	OwnerName   string // empty when the owner is not to be addressed
	Location    string
}

// Generator produces a reminder message for one plant.
type Generator interface {
	GenerateMessage(ctx context.Context, pc PlantContext) (string, error)
}

// Store is the durable mirror of the cache. Save replaces the stored set.
type Store interface {
	Load(ctx context.Context) (map[string]model.ReminderEntry, error)
	Save(ctx context.Context, entries map[string]model.ReminderEntry) error
}

// Rand is the randomness source for owner-name mentions.
type Rand interface {
	Float64() float64
}

// MemoryStore keeps entries in process memory only.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]model.ReminderEntry
	saves   int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]model.ReminderEntry{}}
}

func (s *MemoryStore) Load(ctx context.Context) (map[string]model.ReminderEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.entries), nil
}

func (s *MemoryStore) Save(ctx context.Context, entries map[string]model.ReminderEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = maps.Clone(entries)
	s.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
