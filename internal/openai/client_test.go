package openai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pathakanu/plantMemo/internal/model"
	"github.com/pathakanu/plantMemo/internal/reminder"
)

var _ reminder.Generator = (*Client)(nil)

func TestUnconfiguredClientFails(t *testing.T) {
	c := New("", "")
	_, err := c.GenerateMessage(context.Background(), reminder.PlantContext{Name: "Fern"})
	assert.ErrorIs(t, err, ErrClientNotInitialised)

	intent, err := c.ClassifyIntent(context.Background(), "show my plants")
	assert.ErrorIs(t, err, ErrClientNotInitialised)
	assert.Equal(t, IntentUnknown, intent)

	_, err = c.ClassifyIntent(context.Background(), "  ")
	assert.Error(t, err)
}

func TestMessagePrompt(t *testing.T) {
	prompt := messagePrompt(reminder.PlantContext{
		Name:        "Fern",
		Species:     "Boston fern",
		Archetype:   model.ArchetypeDramatic,
		DaysOverdue: 3,
		OwnerName:   "Sam",
		Location:    "Bathroom",
	})
	for _, want := range []string{"Fern", "Boston fern", "Bathroom", "dramatic", "3 days overdue", "Sam"} {
		assert.Contains(t, prompt, want)
	}

	prompt = messagePrompt(reminder.PlantContext{Name: "Ivy", DaysOverdue: 0})
	assert.Contains(t, prompt, "due for water today")
	assert.NotContains(t, prompt, "owner")

	assert.Contains(t, messagePrompt(reminder.PlantContext{Name: "Ivy", DaysOverdue: 1}), "yesterday")
}

func TestParseIntent(t *testing.T) {
	cases := map[string]Intent{
		"list_plants":   IntentListPlants,
		" Water_Plant ": IntentWaterPlant,
		"status":        IntentStatus,
		"help":          IntentHelp,
		"add_reminder":  IntentUnknown,
		"":              IntentUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseIntent(in), "label %q", in)
	}
}
