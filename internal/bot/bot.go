package bot

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pathakanu/plantMemo/internal/config"
	"github.com/pathakanu/plantMemo/internal/model"
	myopenai "github.com/pathakanu/plantMemo/internal/openai"
	"github.com/pathakanu/plantMemo/internal/organizer"
	"github.com/pathakanu/plantMemo/internal/plants"
	"github.com/pathakanu/plantMemo/internal/reminder"
	"github.com/pathakanu/plantMemo/internal/schedule"
)

// Sender delivers a WhatsApp message.
type Sender interface {
	SendWhatsAppMessage(to, body string) error
}

// Classifier infers what a free-form message asks for.
type Classifier interface {
	ClassifyIntent(ctx context.Context, content string) (myopenai.Intent, error)
}

// Bot answers WhatsApp commands and sends the daily watering digest.
type Bot struct {
	cfg        *config.Config
	plants     *plants.Service
	cache      *reminder.Cache
	classifier Classifier
	sender     Sender
	cron       *cron.Cron
	logger     *zap.Logger

	// statusWait bounds how long a status reply waits for fresh messages.
	statusWait time.Duration
}

// New creates a fully configured Bot instance.
func New(cfg *config.Config, svc *plants.Service, cache *reminder.Cache, classifier Classifier, sender Sender, logger *zap.Logger) *Bot {
	c := cron.New(
		cron.WithLocation(cfg.LocalTimezone),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	wait := cfg.StatusWait
	if wait <= 0 {
		wait = 8 * time.Second
	}
	return &Bot{
		cfg:        cfg,
		plants:     svc,
		cache:      cache,
		classifier: classifier,
		sender:     sender,
		cron:       c,
		logger:     logger,
		statusWait: wait,
	}
}

// StartScheduler registers the daily digest job and starts the scheduler loop.
func (b *Bot) StartScheduler() error {
	_, err := b.cron.AddFunc(b.cfg.DigestSchedule, func() {
		b.SendDailyDigests(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule digest %q: %w", b.cfg.DigestSchedule, err)
	}
	b.cron.Start()
	b.logger.Info("digest scheduler started", zap.String("schedule", b.cfg.DigestSchedule))
	return nil
}

// StopScheduler stops the cron scheduler gracefully.
func (b *Bot) StopScheduler() {
	ctx := b.cron.Stop()
	<-ctx.Done()
}

// Handler returns the HTTP handler for incoming Twilio messages.
func (b *Bot) Handler() http.HandlerFunc {
	return b.handleIncomingMessage
}

// handleIncomingMessage processes Twilio webhook POST requests.
func (b *Bot) handleIncomingMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		b.logger.Warn("webhook: parse error", zap.Error(err))
		b.writeTwilioResponse(w, "Sorry, I couldn't understand that request.")
		return
	}

	from := r.FormValue("From")
	body := strings.TrimSpace(r.FormValue("Body"))
	if from == "" || body == "" {
		b.writeTwilioResponse(w, "I need a message to work with. Please try again.")
		return
	}

	ownerID := sanitizeWhatsAppNumber(from)
	intent, plantName := b.determineIntent(r.Context(), body)

	switch intent {
	case myopenai.IntentListPlants:
		b.writeTwilioResponse(w, b.listPlants(r.Context(), ownerID))
	case myopenai.IntentWaterPlant:
		if plantName == "" {
			b.writeTwilioResponse(w, "Which plant did you water? Try 'watered fern'.")
			return
		}
		b.writeTwilioResponse(w, b.waterPlant(r.Context(), ownerID, plantName))
	case myopenai.IntentStatus:
		b.writeTwilioResponse(w, b.status(r.Context(), ownerID))
	case myopenai.IntentHelp:
		b.writeTwilioResponse(w, helpResponse())
	default:
		b.writeTwilioResponse(w, "I didn't catch that. Send 'help' to see what I can do.")
	}
}

func (b *Bot) determineIntent(ctx context.Context, message string) (myopenai.Intent, string) {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "help" || lower == "?" {
		return myopenai.IntentHelp, ""
	}
	if name := extractWateredPlant(message); name != "" {
		return myopenai.IntentWaterPlant, name
	}
	if isListRequest(lower) {
		return myopenai.IntentListPlants, ""
	}
	if isStatusRequest(lower) {
		return myopenai.IntentStatus, ""
	}

	if b.classifier == nil {
		return myopenai.IntentUnknown, ""
	}

	intent, err := b.classifier.ClassifyIntent(ctx, message)
	if err != nil {
		if !errors.Is(err, myopenai.ErrClientNotInitialised) {
			b.logger.Warn("intent classification error", zap.Error(err))
		}
		return myopenai.IntentUnknown, ""
	}
	if intent == myopenai.IntentWaterPlant {
		return intent, extractWateredPlant(message)
	}
	return intent, ""
}

// listPlants renders the owner's plants grouped by watering priority.
func (b *Bot) listPlants(ctx context.Context, ownerID string) string {
	groups, err := b.plants.Organize(ctx, ownerID, organizer.ByWatering)
	if err != nil {
		b.logger.Error("list plants", zap.String("owner_id", ownerID), zap.Error(err))
		return "I couldn't load your plants. Please try again later."
	}
	if len(groups) == 0 {
		return "You haven't added any plants yet."
	}

	now := b.plants.Now()
	var sb strings.Builder
	sb.WriteString("Here are your plants:\n")
	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("\n*%s*\n", g.Title))
		for _, p := range g.Plants {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", p.Name, schedule.StatusText(p, now)))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// waterPlant records a watering; store failures ask the user to retry.
func (b *Bot) waterPlant(ctx context.Context, ownerID, name string) string {
	p, err := b.plants.FindByName(ctx, ownerID, name)
	if errors.Is(err, plants.ErrNotFound) {
		return fmt.Sprintf("I couldn't find a plant called '%s'.", name)
	}
	if err != nil {
		b.logger.Error("find plant", zap.String("owner_id", ownerID), zap.Error(err))
		return "I couldn't load your plants. Please try again later."
	}

	watered, err := b.plants.Water(ctx, p.ID)
	if err != nil {
		b.logger.Error("water plant", zap.String("plant_id", p.ID), zap.Error(err))
		return fmt.Sprintf("I couldn't save that watering for %s. Please try again.", p.Name)
	}
	return fmt.Sprintf("Logged! %s is happy. Next watering: %s.",
		watered.Name, strings.ToLower(schedule.StatusText(watered, b.plants.Now())))
}

// status lists plants needing water with their reminder messages, waiting a
// bounded time for messages that are still being generated.
func (b *Bot) status(ctx context.Context, ownerID string) string {
	due, err := b.plants.Due(ctx, ownerID)
	if err != nil {
		b.logger.Error("status", zap.String("owner_id", ownerID), zap.Error(err))
		return "I couldn't load your plants. Please try again later."
	}
	if len(due) == 0 {
		return "All your plants are watered. Nothing to do today!"
	}

	pending := b.cache.EnsureAsync(context.WithoutCancel(ctx), due)
	select {
	case <-pending:
	case <-time.After(b.statusWait):
		b.logger.Info("status: replying before messages were ready", zap.String("owner_id", ownerID))
	}
	return b.renderDue(due)
}

func (b *Bot) renderDue(due []model.Plant) string {
	now := b.plants.Now()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d %s:\n", len(due), needsWater(len(due))))
	for _, p := range due {
		sb.WriteString(fmt.Sprintf("\n- %s (%s)", p.Name, strings.ToLower(schedule.StatusText(p, now))))
		if msg, ok := b.cache.Message(p.ID); ok {
			sb.WriteString("\n  " + msg)
		}
	}
	return sb.String()
}

// SendDailyDigests sends one WhatsApp digest to every owner with plants due.
// Owners are processed one after another.
func (b *Bot) SendDailyDigests(ctx context.Context) {
	owners, err := b.plants.Owners(ctx)
	if err != nil {
		b.logger.Error("digest: fetch owners", zap.Error(err))
		return
	}

	sent := 0
	for _, ownerID := range owners {
		due, err := b.plants.Due(ctx, ownerID)
		if err != nil {
			b.logger.Error("digest: load plants", zap.String("owner_id", ownerID), zap.Error(err))
			continue
		}
		if len(due) == 0 {
			continue
		}

		batch := b.cache.EnsureMessagesFor(ctx, due)
		b.logger.Debug("digest: messages ready",
			zap.String("owner_id", ownerID),
			zap.Int("generated", batch.Generated),
			zap.Int("fallbacks", batch.Fallbacks),
			zap.Int("cached", batch.Cached))

		if b.sender == nil {
			continue
		}
		if err := b.sender.SendWhatsAppMessage(ownerID, "Good morning! "+b.renderDue(due)); err != nil {
			b.logger.Error("digest: send", zap.String("owner_id", ownerID), zap.Error(err))
			continue
		}
		sent++
	}
	b.logger.Info("digest: done", zap.Int("owners", len(owners)), zap.Int("sent", sent))
}

func (b *Bot) writeTwilioResponse(w http.ResponseWriter, message string) {
	twiml := struct {
		XMLName xml.Name `xml:"Response"`
		Message string   `xml:"Message"`
	}{
		Message: message,
	}

	w.Header().Set("Content-Type", "application/xml")
	if err := xml.NewEncoder(w).Encode(twiml); err != nil {
		b.logger.Warn("twilio response encode", zap.Error(err))
	}
}

func isListRequest(body string) bool {
	return strings.Contains(body, "my plants") ||
		strings.Contains(body, "list plants") ||
		strings.Contains(body, "show plants") ||
		body == "list"
}

func isStatusRequest(body string) bool {
	return body == "status" ||
		body == "today" ||
		strings.Contains(body, "needs water") ||
		strings.Contains(body, "need water") ||
		strings.Contains(body, "thirsty")
}

func sanitizeWhatsAppNumber(from string) string {
	// Twilio prepends whatsapp: to the number.
	return strings.TrimPrefix(from, "whatsapp:")
}

func needsWater(n int) string {
	if n == 1 {
		return "plant needs water"
	}
	return "plants need water"
}

func helpResponse() string {
	return "You can say things like:\n- \"My plants\" to see every plant and when it needs water\n- \"Watered fern\" after you water a plant\n- \"Status\" to see who is thirsty today\n- \"Help\" to see this message"
}

var wateredRegex = regexp.MustCompile(`(?i)^\s*(?:i\s+)?(?:just\s+)?water(?:ed)?\s+(?:my\s+|the\s+)?(.+?)[.!]*\s*$`)

func extractWateredPlant(message string) string {
	matches := wateredRegex.FindStringSubmatch(message)
	if len(matches) < 2 {
		return ""
	}
	return strings.TrimSpace(matches[1])
}
