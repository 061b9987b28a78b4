// Package plants owns the plant lifecycle: registration, watering, schedule
// edits and removal.
package plants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pathakanu/plantMemo/internal/model"
	"github.com/pathakanu/plantMemo/internal/organizer"
	"github.com/pathakanu/plantMemo/internal/reminder"
	"github.com/pathakanu/plantMemo/internal/schedule"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("plant not found")
)

// DefaultFrequencyDays is used when a plant is created without a frequency.
const DefaultFrequencyDays = 7

// Repository is the plant store.
type Repository interface {
	Create(ctx context.Context, p model.Plant) error
	GetByID(ctx context.Context, id string) (model.Plant, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Plant, error)
	ListOwners(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo   Repository
	cache  *reminder.Cache
	now    func() time.Time
	loc    *time.Location
	logger *zap.Logger
}

func NewService(repo Repository, cache *reminder.Cache, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		now:    time.Now,
		loc:    loc,
		logger: logger,
	}
}

// WithClock replaces the time source and returns s.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now returns the current time in the service's location.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

type CreateInput struct {
	Name          string
	Species       string
	Location      string
	Health        string
	Archetype     string
	OwnerName     string
	FrequencyDays int
	LastWatered   *time.Time
	Notes         string
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (model.Plant, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(in.Name) == "" {
		return model.Plant{}, ErrInvalidInput
	}
	if in.FrequencyDays < 0 {
		return model.Plant{}, fmt.Errorf("%w: frequency must be at least 1 day", ErrInvalidInput)
	}
	freq := in.FrequencyDays
	if freq == 0 {
		freq = DefaultFrequencyDays
	}

	sched := model.WateringSchedule{FrequencyDays: freq}
	if in.LastWatered != nil && !in.LastWatered.IsZero() {
		last := *in.LastWatered
		sched.LastWatered = &last
		sched = schedule.Reschedule(sched, freq)
	}

	p := model.Plant{
		ID:               uuid.NewString(),
		OwnerID:          strings.TrimSpace(ownerID),
		Name:             strings.TrimSpace(in.Name),
		Species:          strings.TrimSpace(in.Species),
		Location:         strings.TrimSpace(in.Location),
		Health:           model.ParseHealth(in.Health),
		Archetype:        model.Archetype(strings.ToLower(strings.TrimSpace(in.Archetype))),
		OwnerName:        strings.TrimSpace(in.OwnerName),
		WateringSchedule: sched,
		Notes:            strings.TrimSpace(in.Notes),
		CreatedAt:        s.now(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return model.Plant{}, fmt.Errorf("create plant: %w", err)
	}
	s.logger.Info("plant created", zap.String("plant_id", p.ID), zap.String("owner_id", p.OwnerID))
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (model.Plant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, ownerID string) ([]model.Plant, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Owners returns every owner that has registered a plant.
func (s *Service) Owners(ctx context.Context) ([]string, error) {
	return s.repo.ListOwners(ctx)
}

// FindByName returns the owner's plant whose name matches, ignoring case.
func (s *Service) FindByName(ctx context.Context, ownerID, name string) (model.Plant, error) {
	all, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return model.Plant{}, err
	}
	want := strings.TrimSpace(name)
	for _, p := range all {
		if strings.EqualFold(p.Name, want) {
			return p, nil
		}
	}
	return model.Plant{}, ErrNotFound
}

// Water records a watering now. It is the only path that changes LastWatered.
// Store failures are returned so the caller can offer a retry.
func (s *Service) Water(ctx context.Context, id string) (model.Plant, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Plant{}, err
	}

	sched := schedule.Water(p.WateringSchedule, s.Now())
	if err := s.repo.Update(ctx, id, map[string]any{
		"frequency_days":     sched.FrequencyDays,
		"last_watered":       *sched.LastWatered,
		"next_watering_date": *sched.NextWateringDate,
	}); err != nil {
		return model.Plant{}, fmt.Errorf("record watering: %w", err)
	}

	p.WateringSchedule = sched
	s.logger.Info("plant watered", zap.String("plant_id", id), zap.Time("next_due", *sched.NextWateringDate))
	return p, nil
}

// SetFrequency changes the watering interval and recomputes the due date
// from the existing last-watered date.
func (s *Service) SetFrequency(ctx context.Context, id string, days int) (model.Plant, error) {
	if days < 1 {
		return model.Plant{}, fmt.Errorf("%w: frequency must be at least 1 day", ErrInvalidInput)
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Plant{}, err
	}

	sched := schedule.Reschedule(p.WateringSchedule, days)
	fields := map[string]any{"frequency_days": sched.FrequencyDays}
	if sched.NextWateringDate != nil {
		fields["next_watering_date"] = *sched.NextWateringDate
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return model.Plant{}, fmt.Errorf("update frequency: %w", err)
	}

	p.WateringSchedule = sched
	return p, nil
}

// Delete removes a plant and its cached reminder.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Forget(ctx, id); err != nil {
			s.logger.Warn("forget cached reminder", zap.String("plant_id", id), zap.Error(err))
		}
	}
	return nil
}

// Organize lists an owner's plants grouped for view.
func (s *Service) Organize(ctx context.Context, ownerID string, view organizer.View) ([]organizer.Group, error) {
	all, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return organizer.Organize(all, view, s.Now()), nil
}

// Due returns the owner's plants that are due today or overdue.
func (s *Service) Due(ctx context.Context, ownerID string) ([]model.Plant, error) {
	all, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return DuePlants(all, s.Now()), nil
}

// DuePlants filters plants that need water at now.
func DuePlants(all []model.Plant, now time.Time) []model.Plant {
	out := make([]model.Plant, 0, len(all))
	for _, p := range all {
		if schedule.NeedsWater(p, now) {
			out = append(out, p)
		}
	}
	return out
}
