package database

import (
	"context"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pathakanu/plantMemo/internal/model"
)

// ReminderStore mirrors the reminder cache into the reminder_entries table.
type ReminderStore struct {
	db *gorm.DB
}

// NewReminderStore returns a ReminderStore backed by db.
func NewReminderStore(db *gorm.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

func (s *ReminderStore) Load(ctx context.Context) (map[string]model.ReminderEntry, error) {
	var rows []model.ReminderEntry
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]model.ReminderEntry, len(rows))
	for _, r := range rows {
		out[r.PlantID] = r
	}
	return out, nil
}

// Save replaces the stored entries with entries.
func (s *ReminderStore) Save(ctx context.Context, entries map[string]model.ReminderEntry) error {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	rows := make([]model.ReminderEntry, 0, len(ids))
	for _, id := range ids {
		e := entries[id]
		e.PlantID = id
		rows = append(rows, e)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if len(ids) > 0 {
			del = del.Where("plant_id NOT IN ?", ids)
		}
		if err := del.Delete(&model.ReminderEntry{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"message", "generated_on", "updated_at"}),
		}).CreateInBatches(&rows, 200).Error
	})
}
