// Package api exposes plants, watering and reminders over JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pathakanu/plantMemo/internal/model"
	"github.com/pathakanu/plantMemo/internal/organizer"
	"github.com/pathakanu/plantMemo/internal/plants"
	"github.com/pathakanu/plantMemo/internal/reminder"
	"github.com/pathakanu/plantMemo/internal/schedule"
)

type Options struct {
	Plants  *plants.Service
	Cache   *reminder.Cache
	Logger  *zap.Logger
	Webhook http.Handler // Twilio webhook, optional
}

func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.Webhook != nil {
		r.Post("/twilio/webhook", opts.Webhook.ServeHTTP)
	}

	r.Route("/owners/{ownerID}", func(or chi.Router) {
		or.Get("/plants", listPlantsHandler(opts.Plants, opts.Cache))
		or.Post("/plants", createPlantHandler(opts.Plants))
		or.Post("/reminders", ensureRemindersHandler(opts.Plants, opts.Cache, logger))
	})

	r.Route("/plants/{plantID}", func(pr chi.Router) {
		pr.Post("/water", waterPlantHandler(opts.Plants, opts.Cache, logger))
		pr.Put("/frequency", setFrequencyHandler(opts.Plants, opts.Cache, logger))
		pr.Delete("/", deletePlantHandler(opts.Plants, logger))
		pr.Get("/message", plantMessageHandler(opts.Cache))
	})

	r.Delete("/reminders", clearRemindersHandler(opts.Cache, logger))

	return r
}

type createPlantRequest struct {
	Name          string     `json:"name"`
	Species       string     `json:"species"`
	Location      string     `json:"location"`
	Health        string     `json:"health"`
	Archetype     string     `json:"archetype"`
	OwnerName     string     `json:"owner_name"`
	FrequencyDays int        `json:"frequency_days"`
	LastWatered   *time.Time `json:"last_watered,omitempty"`
	Notes         string     `json:"notes"`
}

type frequencyRequest struct {
	FrequencyDays int `json:"frequency_days"`
}

type plantResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Species          string     `json:"species,omitempty"`
	Location         string     `json:"location,omitempty"`
	Health           string     `json:"health,omitempty"`
	Archetype        string     `json:"archetype,omitempty"`
	FrequencyDays    int        `json:"frequency_days"`
	LastWatered      *time.Time `json:"last_watered,omitempty"`
	NextWateringDate *time.Time `json:"next_watering_date,omitempty"`
	Status           string     `json:"status"`
	DaysOverdue      int        `json:"days_overdue"`
	DueToday         bool       `json:"due_today"`
	Message          *string    `json:"message"`
}

type groupResponse struct {
	Title  string          `json:"title"`
	Plants []plantResponse `json:"plants"`
}

type messageResponse struct {
	PlantID string  `json:"plant_id"`
	Message *string `json:"message"`
}

func toPlantResponse(p model.Plant, now time.Time, cache *reminder.Cache) plantResponse {
	out := plantResponse{
		ID:               p.ID,
		Name:             p.Name,
		Species:          p.Species,
		Location:         p.Location,
		Health:           string(p.Health),
		Archetype:        string(p.Archetype),
		FrequencyDays:    p.FrequencyDays,
		LastWatered:      p.LastWatered,
		NextWateringDate: p.NextWateringDate,
		Status:           schedule.StatusText(p, now),
		DaysOverdue:      schedule.DaysOverdue(p, now),
		DueToday:         schedule.IsDueToday(p, now),
	}
	if cache != nil {
		if msg, ok := cache.Message(p.ID); ok {
			out.Message = &msg
		}
	}
	return out
}

func listPlantsHandler(svc *plants.Service, cache *reminder.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := organizer.ParseView(r.URL.Query().Get("view"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		groups, err := svc.Organize(r.Context(), chi.URLParam(r, "ownerID"), view)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := svc.Now()
		resp := make([]groupResponse, 0, len(groups))
		for _, g := range groups {
			gr := groupResponse{Title: g.Title, Plants: make([]plantResponse, 0, len(g.Plants))}
			for _, p := range g.Plants {
				gr.Plants = append(gr.Plants, toPlantResponse(p, now, cache))
			}
			resp = append(resp, gr)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createPlantHandler(svc *plants.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPlantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), chi.URLParam(r, "ownerID"), plants.CreateInput{
			Name:          req.Name,
			Species:       req.Species,
			Location:      req.Location,
			Health:        req.Health,
			Archetype:     req.Archetype,
			OwnerName:     req.OwnerName,
			FrequencyDays: req.FrequencyDays,
			LastWatered:   req.LastWatered,
			Notes:         req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPlantResponse(p, svc.Now(), nil))
	}
}

func waterPlantHandler(svc *plants.Service, cache *reminder.Cache, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Water(r.Context(), chi.URLParam(r, "plantID"))
		if err != nil {
			logger.Warn("water plant", zap.String("plant_id", chi.URLParam(r, "plantID")), zap.Error(err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlantResponse(p, svc.Now(), cache))
	}
}

func setFrequencyHandler(svc *plants.Service, cache *reminder.Cache, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req frequencyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		p, err := svc.SetFrequency(r.Context(), chi.URLParam(r, "plantID"), req.FrequencyDays)
		if err != nil {
			logger.Warn("set frequency", zap.String("plant_id", chi.URLParam(r, "plantID")), zap.Error(err))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlantResponse(p, svc.Now(), cache))
	}
}

func deletePlantHandler(svc *plants.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "plantID")); err != nil {
			logger.Warn("delete plant", zap.String("plant_id", chi.URLParam(r, "plantID")), zap.Error(err))
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func plantMessageHandler(cache *reminder.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := messageResponse{PlantID: chi.URLParam(r, "plantID")}
		if msg, ok := cache.Message(resp.PlantID); ok {
			resp.Message = &msg
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ensureRemindersHandler starts message generation for the owner's due
// plants and answers before it finishes.
func ensureRemindersHandler(svc *plants.Service, cache *reminder.Cache, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := chi.URLParam(r, "ownerID")
		due, err := svc.Due(r.Context(), ownerID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		done := cache.EnsureAsync(context.WithoutCancel(r.Context()), due)
		go func() {
			batch := <-done
			logger.Info("reminders ready",
				zap.String("owner_id", ownerID),
				zap.Int("generated", batch.Generated),
				zap.Int("fallbacks", batch.Fallbacks),
				zap.Int("cached", batch.Cached))
		}()

		writeJSON(w, http.StatusAccepted, map[string]int{"pending": len(due)})
	}
}

func clearRemindersHandler(cache *reminder.Cache, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cache.Clear(r.Context()); err != nil {
			logger.Error("clear reminders", zap.Error(err))
			http.Error(w, "could not clear reminders, please retry", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, plants.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, plants.ErrNotFound):
		http.Error(w, "plant not found", http.StatusNotFound)
	default:
		http.Error(w, "could not save changes, please retry", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
