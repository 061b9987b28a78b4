// Package reminder caches one generated reminder message per plant per
// calendar day and falls back to templated text when generation fails.
package reminder

import (
	"context"
	"fmt"
	"maps"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pathakanu/plantMemo/internal/model"
	"github.com/pathakanu/plantMemo/internal/schedule"
)

// DefaultNameMentionRate is the share of generation requests that address the owner by name.
const DefaultNameMentionRate = 0.4

// State is the outcome of producing a message for one plant.
type State string

const (
	StatePending   State = "pending"
	StateCached    State = "cached"
	StateGenerated State = "generated"
	StateFallback  State = "fallback"
)

// Result is the message produced for one plant in a batch.
type Result struct {
	PlantID string
	Message string
	State   State
}

// Batch summarizes one EnsureMessagesFor run.
type Batch struct {
	Results   []Result
	Cached    int
	Generated int
	Fallbacks int
}

// Options configures a Cache. Store is required; the rest have defaults.
type Options struct {
	Store           Store
	Generator       Generator
	Rand            Rand
	Now             func() time.Time
	Location        *time.Location
	NameMentionRate float64 // 0 selects DefaultNameMentionRate
	Logger          *zap.Logger
}

// Cache maps plant IDs to the reminder message generated for them today.
// Writes go through to the Store after every change.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]model.ReminderEntry

	// saveMu orders snapshots and their Save calls.
	saveMu sync.Mutex

	randMu sync.Mutex
	rnd    Rand

	flight singleflight.Group

	store     Store
	generator Generator
	now       func() time.Time
	loc       *time.Location
	rate      float64
	logger    *zap.Logger
}

// New builds a Cache and loads the durable entries once.
func New(ctx context.Context, opts Options) (*Cache, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("reminder cache: store is required")
	}
	c := &Cache{
		store:     opts.Store,
		generator: opts.Generator,
		rnd:       opts.Rand,
		now:       opts.Now,
		loc:       opts.Location,
		rate:      opts.NameMentionRate,
		logger:    opts.Logger,
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.rate <= 0 {
		c.rate = DefaultNameMentionRate
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	entries, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("reminder cache: load: %w", err)
	}
	if entries == nil {
		entries = map[string]model.ReminderEntry{}
	}
	c.entries = entries
	c.logger.Debug("reminder cache loaded", zap.Int("entries", len(entries)))
	return c, nil
}

func (c *Cache) today() time.Time {
	return c.now().In(c.loc)
}

// Message returns today's message for plantID. ok is false when there is
// nothing cached for today.
func (c *Cache) Message(plantID string) (string, bool) {
	return c.fresh(plantID, schedule.DayKey(c.today()))
}

func (c *Cache) fresh(plantID, day string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[plantID]
	if !ok || e.GeneratedOn != day {
		return "", false
	}
	return e.Message, true
}

// EnsureMessagesFor makes sure every plant has a message for today. Plants
// are handled one at a time; at most one generation per plant and day is in
// flight across all callers. Generation errors never escape: they end in a
// templated fallback.
func (c *Cache) EnsureMessagesFor(ctx context.Context, plants []model.Plant) Batch {
	now := c.today()
	day := schedule.DayKey(now)
	batch := Batch{Results: make([]Result, 0, len(plants))}

	for _, p := range plants {
		if strings.TrimSpace(p.ID) == "" {
			c.logger.Warn("reminder cache: skipping plant without id", zap.String("plant", p.Name))
			continue
		}

		res := c.ensure(ctx, p, now, day)
		switch res.State {
		case StateCached:
			batch.Cached++
		case StateGenerated:
			batch.Generated++
		case StateFallback:
			batch.Fallbacks++
		}
		batch.Results = append(batch.Results, res)
	}
	return batch
}

func (c *Cache) ensure(ctx context.Context, p model.Plant, now time.Time, day string) Result {
	if msg, ok := c.fresh(p.ID, day); ok {
		return Result{PlantID: p.ID, Message: msg, State: StateCached}
	}

	v, _, _ := c.flight.Do(p.ID+"@"+day, func() (interface{}, error) {
		if msg, ok := c.fresh(p.ID, day); ok {
			return Result{PlantID: p.ID, Message: msg, State: StateCached}, nil
		}
		res := c.produce(ctx, p, now)
		c.put(ctx, p.ID, model.ReminderEntry{PlantID: p.ID, Message: res.Message, GeneratedOn: day})
		return res, nil
	})
	return v.(Result)
}

func (c *Cache) produce(ctx context.Context, p model.Plant, now time.Time) Result {
	fallback := func() Result {
		return Result{PlantID: p.ID, Message: FallbackMessage(p, now), State: StateFallback}
	}

	if c.generator == nil || strings.TrimSpace(string(p.Archetype)) == "" {
		return fallback()
	}

	pc := PlantContext{
		Name:        p.Name,
		Species:     p.Species,
		Archetype:   p.Archetype,
		DaysOverdue: schedule.DaysOverdue(p, now),
		Location:    p.Location,
	}
	if c.mentionOwner() && strings.TrimSpace(p.OwnerName) != "" {
		pc.OwnerName = p.OwnerName
	}

	text, err := c.generator.GenerateMessage(ctx, pc)
	if err != nil {
		c.logger.Warn("reminder generation failed, using template",
			zap.String("plant_id", p.ID), zap.Error(err))
		return fallback()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		c.logger.Warn("reminder generation returned empty text, using template", zap.String("plant_id", p.ID))
		return fallback()
	}
	return Result{PlantID: p.ID, Message: text, State: StateGenerated}
}

func (c *Cache) mentionOwner() bool {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	return c.rnd.Float64() < c.rate
}

// EnsureAsync runs EnsureMessagesFor on its own goroutine. The channel yields
// one Batch and is then closed.
func (c *Cache) EnsureAsync(ctx context.Context, plants []model.Plant) <-chan Batch {
	out := make(chan Batch, 1)
	go func() {
		defer close(out)
		out <- c.EnsureMessagesFor(ctx, plants)
	}()
	return out
}

// Forget drops the entry for a deleted plant.
func (c *Cache) Forget(ctx context.Context, plantID string) error {
	return c.mutate(ctx, func(entries map[string]model.ReminderEntry) {
		delete(entries, plantID)
	})
}

// Clear drops every entry.
func (c *Cache) Clear(ctx context.Context) error {
	return c.mutate(ctx, func(entries map[string]model.ReminderEntry) {
		clear(entries)
	})
}

// Len returns the number of entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) put(ctx context.Context, plantID string, e model.ReminderEntry) {
	err := c.mutate(ctx, func(entries map[string]model.ReminderEntry) {
		entries[plantID] = e
	})
	if err != nil {
		// The in-memory entry still serves this process.
		c.logger.Error("reminder cache: save failed", zap.String("plant_id", plantID), zap.Error(err))
	}
}

func (c *Cache) mutate(ctx context.Context, fn func(map[string]model.ReminderEntry)) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	fn(c.entries)
	snapshot := maps.Clone(c.entries)
	c.mu.Unlock()

	if err := c.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("reminder cache: save: %w", err)
	}
	return nil
}
