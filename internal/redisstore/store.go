// Package redisstore mirrors the reminder cache into a Redis hash.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pathakanu/plantMemo/internal/model"
)

// DefaultKey holds one field per plant: plant ID -> JSON entry.
const DefaultKey = "plantmemo:reminders"

// Store implements the reminder cache's durable mirror on Redis.
type Store struct {
	client *redis.Client
	key    string
}

// New returns a Store writing under key, or DefaultKey when key is empty.
func New(client *redis.Client, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type record struct {
	Message     string `json:"message"`
	GeneratedOn string `json:"generated_on"`
}

func (s *Store) Load(ctx context.Context) (map[string]model.ReminderEntry, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load reminders: %w", err)
	}
	out := make(map[string]model.ReminderEntry, len(raw))
	for plantID, data := range raw {
		var r record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			// Unreadable entries are regenerated on the next run.
			continue
		}
		out[plantID] = model.ReminderEntry{PlantID: plantID, Message: r.Message, GeneratedOn: r.GeneratedOn}
	}
	return out, nil
}

// Save replaces the hash atomically.
func (s *Store) Save(ctx context.Context, entries map[string]model.ReminderEntry) error {
	fields := make(map[string]interface{}, len(entries))
	for plantID, e := range entries {
		data, err := json.Marshal(record{Message: e.Message, GeneratedOn: e.GeneratedOn})
		if err != nil {
			return fmt.Errorf("failed to marshal reminder %s: %w", plantID, err)
		}
		fields[plantID] = data
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(fields) > 0 {
			pipe.HSet(ctx, s.key, fields)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save reminders: %w", err)
	}
	return nil
}
