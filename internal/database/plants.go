package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pathakanu/plantMemo/internal/model"
	"github.com/pathakanu/plantMemo/internal/plants"
)

// PlantStore persists plants with GORM.
type PlantStore struct {
	db *gorm.DB
}

// NewPlantStore returns a PlantStore backed by db.
func NewPlantStore(db *gorm.DB) *PlantStore {
	return &PlantStore{db: db}
}

func (s *PlantStore) Create(ctx context.Context, p model.Plant) error {
	return s.db.WithContext(ctx).Create(&p).Error
}

func (s *PlantStore) GetByID(ctx context.Context, id string) (model.Plant, error) {
	var p model.Plant
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Plant{}, plants.ErrNotFound
	}
	return p, err
}

func (s *PlantStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Plant, error) {
	var out []model.Plant
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListOwners returns every owner ID with at least one plant.
func (s *PlantStore) ListOwners(ctx context.Context) ([]string, error) {
	var owners []string
	if err := s.db.WithContext(ctx).Model(&model.Plant{}).
		Distinct().Order("owner_id").
		Pluck("owner_id", &owners).Error; err != nil {
		return nil, err
	}
	return owners, nil
}

// Update writes the given columns of one plant.
func (s *PlantStore) Update(ctx context.Context, id string, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&model.Plant{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update plant %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return plants.ErrNotFound
	}
	return nil
}

func (s *PlantStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Plant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return plants.ErrNotFound
	}
	return nil
}
