package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/pathakanu/plantMemo/internal/reminder"
)

// Client wraps the OpenAI SDK and provides utility helpers.
type Client struct {
	client *openai.Client
	model  openai.ChatModel
}

// ErrClientNotInitialised is returned when attempting to call the API without a configured client.
var ErrClientNotInitialised = errors.New("openai client not initialised")

// Intent represents the high-level action inferred from a user message.
type Intent string

const (
	// IntentUnknown indicates the message intent could not be resolved.
	IntentUnknown Intent = "unknown"
	// IntentListPlants asks for the owner's plants and their status.
	IntentListPlants Intent = "list_plants"
	// IntentWaterPlant records that a plant was watered.
	IntentWaterPlant Intent = "water_plant"
	// IntentStatus asks which plants need water today.
	IntentStatus Intent = "status"
	// IntentHelp asks for usage guidance.
	IntentHelp Intent = "help"
)

// New returns a client. Without an apiKey every call fails with ErrClientNotInitialised.
func New(apiKey, model string) *Client {
	if apiKey == "" {
		return &Client{}
	}
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: &client,
		model:  openai.ChatModel(model),
	}
}

// GenerateMessage writes a short reminder in the plant's own voice.
func (c *Client) GenerateMessage(ctx context.Context, pc reminder.PlantContext) (string, error) {
	if c.client == nil {
		return "", ErrClientNotInitialised
	}
	if strings.TrimSpace(pc.Name) == "" {
		return "", fmt.Errorf("plant name cannot be empty")
	}

	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("You are a houseplant writing one short, playful sentence asking to be watered. Stay in character. No hashtags, no emojis."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(messagePrompt(pc)),
					},
				},
			},
		},
		Temperature:         openai.Float(0.9),
		MaxCompletionTokens: openai.Int(80),
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion received")
	}
	return strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"`), nil
}

func messagePrompt(pc reminder.PlantContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s", pc.Name)
	if pc.Species != "" {
		fmt.Fprintf(&sb, ", a %s", pc.Species)
	}
	if pc.Location != "" {
		fmt.Fprintf(&sb, " living in the %s", pc.Location)
	}
	sb.WriteString(". ")
	if pc.Archetype != "" {
		fmt.Fprintf(&sb, "Your personality is %s. ", pc.Archetype)
	}
	switch {
	case pc.DaysOverdue == 1:
		sb.WriteString("You were due for water yesterday. ")
	case pc.DaysOverdue > 1:
		fmt.Fprintf(&sb, "You are %d days overdue for water. ", pc.DaysOverdue)
	default:
		sb.WriteString("You are due for water today. ")
	}
	if pc.OwnerName != "" {
		fmt.Fprintf(&sb, "Address your owner, %s, by name. ", pc.OwnerName)
	}
	sb.WriteString("Write the reminder.")
	return sb.String()
}

// ClassifyIntent uses the language model to infer the user's intent.
func (c *Client) ClassifyIntent(ctx context.Context, content string) (Intent, error) {
	if strings.TrimSpace(content) == "" {
		return IntentUnknown, fmt.Errorf("content cannot be empty")
	}
	if c.client == nil {
		return IntentUnknown, ErrClientNotInitialised
	}

	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("Classify the user's message for a plant-care bot. Reply with exactly one label: list_plants, water_plant, status, help, or unknown."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(content),
					},
				},
			},
		},
		Temperature:         openai.Float(0.0),
		MaxCompletionTokens: openai.Int(8),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return IntentUnknown, err
	}
	if len(resp.Choices) == 0 {
		return IntentUnknown, fmt.Errorf("no completion received")
	}

	return ParseIntent(resp.Choices[0].Message.Content), nil
}

// ParseIntent maps a model label onto an Intent.
func ParseIntent(label string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(label))) {
	case IntentListPlants:
		return IntentListPlants
	case IntentWaterPlant:
		return IntentWaterPlant
	case IntentStatus:
		return IntentStatus
	case IntentHelp:
		return IntentHelp
	default:
		return IntentUnknown
	}
}
