package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pathakanu/plantMemo/internal/config"
	"github.com/pathakanu/plantMemo/internal/database"
	"github.com/pathakanu/plantMemo/internal/model"
	myopenai "github.com/pathakanu/plantMemo/internal/openai"
	"github.com/pathakanu/plantMemo/internal/plants"
	"github.com/pathakanu/plantMemo/internal/reminder"
)

var testNow = time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC)

type recordingSender struct {
	mu   sync.Mutex
	sent map[string][]string
	fail bool
}

func (s *recordingSender) SendWhatsAppMessage(to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("twilio down")
	}
	if s.sent == nil {
		s.sent = map[string][]string{}
	}
	s.sent[to] = append(s.sent[to], body)
	return nil
}

type stubClassifier struct {
	intent myopenai.Intent
	err    error
}

func (c stubClassifier) ClassifyIntent(ctx context.Context, content string) (myopenai.Intent, error) {
	return c.intent, c.err
}

type stubGenerator struct{}

func (stubGenerator) GenerateMessage(ctx context.Context, pc reminder.PlantContext) (string, error) {
	return pc.Name + " says: water me please", nil
}

func newTestBot(t *testing.T) (*Bot, *plants.Service, *recordingSender) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite memory: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	clock := func() time.Time { return testNow }
	cache, err := reminder.New(context.Background(), reminder.Options{
		Store:     database.NewReminderStore(db),
		Generator: stubGenerator{},
		Now:       clock,
		Location:  time.UTC,
	})
	if err != nil {
		t.Fatalf("reminder cache: %v", err)
	}

	svc := plants.NewService(database.NewPlantStore(db), cache, time.UTC, zap.NewNop()).WithClock(clock)
	sender := &recordingSender{}
	cfg := &config.Config{LocalTimezone: time.UTC, DigestSchedule: "0 8 * * *"}
	return New(cfg, svc, cache, nil, sender, zap.NewNop()), svc, sender
}

func addPlant(t *testing.T, svc *plants.Service, owner, name string, wateredDaysAgo int) model.Plant {
	t.Helper()
	last := testNow.AddDate(0, 0, -wateredDaysAgo)
	p, err := svc.Create(context.Background(), owner, plants.CreateInput{
		Name: name, FrequencyDays: 7, LastWatered: &last, Archetype: "zen",
	})
	if err != nil {
		t.Fatalf("create plant %s: %v", name, err)
	}
	return p
}

func postWebhook(t *testing.T, b *Bot, from, body string) string {
	t.Helper()
	form := url.Values{"From": {from}, "Body": {body}}
	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("unexpected content type %q", ct)
	}
	return rec.Body.String()
}

func TestExtractWateredPlant(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"watered fern":             "fern",
		"Water the Peace Lily":     "Peace Lily",
		"I just watered my basil!": "basil",
		"water":                    "",
		"who needs water":          "",
		"list plants":              "",
	}
	for input, want := range cases {
		if got := extractWateredPlant(input); got != want {
			t.Fatalf("extractWateredPlant(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDetermineIntentKeywordsBeforeClassifier(t *testing.T) {
	t.Parallel()
	b, _, _ := newTestBot(t)
	b.classifier = stubClassifier{intent: myopenai.IntentHelp}

	if intent, _ := b.determineIntent(context.Background(), "show plants"); intent != myopenai.IntentListPlants {
		t.Fatalf("expected list intent, got %s", intent)
	}
	if intent, name := b.determineIntent(context.Background(), "watered ivy"); intent != myopenai.IntentWaterPlant || name != "ivy" {
		t.Fatalf("expected water intent for ivy, got %s %q", intent, name)
	}
	if intent, _ := b.determineIntent(context.Background(), "anything thirsty?"); intent != myopenai.IntentStatus {
		t.Fatalf("expected status intent, got %s", intent)
	}
	if intent, _ := b.determineIntent(context.Background(), "what can you do"); intent != myopenai.IntentHelp {
		t.Fatalf("expected classifier intent, got %s", intent)
	}

	b.classifier = stubClassifier{err: myopenai.ErrClientNotInitialised}
	if intent, _ := b.determineIntent(context.Background(), "what can you do"); intent != myopenai.IntentUnknown {
		t.Fatalf("expected unknown intent on classifier error, got %s", intent)
	}
}

func TestListPlantsWebhook(t *testing.T) {
	t.Parallel()
	b, svc, _ := newTestBot(t)
	addPlant(t, svc, "+15550001", "Fern", 10)
	addPlant(t, svc, "+15550001", "Basil", 1)

	reply := postWebhook(t, b, "whatsapp:+15550001", "my plants")
	if !containsAll(reply, []string{"Here are your plants", "*Overdue*", "Fern: 3 days overdue", "Basil: 6 days to water"}) {
		t.Fatalf("unexpected list reply: %q", reply)
	}

	empty := postWebhook(t, b, "whatsapp:+15550009", "my plants")
	if !strings.Contains(empty, "haven&#39;t added any plants") {
		t.Fatalf("unexpected empty reply: %q", empty)
	}
}

func TestWaterPlantWebhook(t *testing.T) {
	t.Parallel()
	b, svc, _ := newTestBot(t)
	p := addPlant(t, svc, "+15550001", "Fern", 10)

	reply := postWebhook(t, b, "whatsapp:+15550001", "watered FERN")
	if !strings.Contains(reply, "Logged! Fern is happy. Next watering: 7 days to water.") {
		t.Fatalf("unexpected water reply: %q", reply)
	}

	stored, err := svc.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if stored.LastWatered == nil || !stored.LastWatered.Equal(testNow) {
		t.Fatalf("last watered not recorded: %+v", stored.WateringSchedule)
	}

	missing := postWebhook(t, b, "whatsapp:+15550001", "watered cactus")
	if !strings.Contains(missing, "couldn&#39;t find a plant called &#39;cactus&#39;") {
		t.Fatalf("unexpected missing reply: %q", missing)
	}
}

func TestStatusWebhookIncludesMessages(t *testing.T) {
	t.Parallel()
	b, svc, _ := newTestBot(t)
	addPlant(t, svc, "+15550001", "Fern", 9)
	addPlant(t, svc, "+15550001", "Basil", 1)

	reply := postWebhook(t, b, "whatsapp:+15550001", "status")
	if !containsAll(reply, []string{"1 plant needs water", "Fern (2 days overdue)", "Fern says: water me please"}) {
		t.Fatalf("unexpected status reply: %q", reply)
	}
	if strings.Contains(reply, "Basil") {
		t.Fatalf("basil is not due: %q", reply)
	}
}

func TestUnknownMessageWebhook(t *testing.T) {
	t.Parallel()
	b, _, _ := newTestBot(t)

	if reply := postWebhook(t, b, "whatsapp:+15550001", "banana"); !strings.Contains(reply, "Send &#39;help&#39;") {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if reply := postWebhook(t, b, "", ""); !strings.Contains(reply, "I need a message") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestSendDailyDigests(t *testing.T) {
	t.Parallel()
	b, svc, sender := newTestBot(t)
	addPlant(t, svc, "+15550001", "Fern", 7)
	addPlant(t, svc, "+15550001", "Ivy", 2)
	addPlant(t, svc, "+15550002", "Cactus", 1)

	b.SendDailyDigests(context.Background())

	if got := len(sender.sent["+15550001"]); got != 1 {
		t.Fatalf("expected one digest for +15550001, got %d", got)
	}
	if _, ok := sender.sent["+15550002"]; ok {
		t.Fatalf("owner without due plants should not get a digest")
	}
	digest := sender.sent["+15550001"][0]
	if !containsAll(digest, []string{"Good morning!", "Fern (water today)", "Fern says: water me please"}) {
		t.Fatalf("unexpected digest: %q", digest)
	}
}

func TestSendDailyDigestsSurvivesSendFailure(t *testing.T) {
	t.Parallel()
	b, svc, sender := newTestBot(t)
	p := addPlant(t, svc, "+15550001", "Fern", 8)
	sender.fail = true

	b.SendDailyDigests(context.Background())

	if _, ok := b.cache.Message(p.ID); !ok {
		t.Fatalf("message should be cached even when delivery fails")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()
	b, _, _ := newTestBot(t)
	if err := b.StartScheduler(); err != nil {
		t.Fatalf("start scheduler: %v", err)
	}
	b.StopScheduler()

	b.cfg = &config.Config{LocalTimezone: time.UTC, DigestSchedule: "not a cron"}
	if err := b.StartScheduler(); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
