package reflection

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"go.uber.org/zap"
)

// LLMClient is the interface both prompt sources satisfy.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// ── APIClient: Anthropic SDK ────────────────────────────

type APIClient struct {
	client  *anthropic.Client
	model   string
	logger  *zap.Logger
	backoff time.Duration
}

func NewAPIClient(apiKey, model string, logger *zap.Logger) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &APIClient{client: &client, model: model, logger: logger.Named("anthropic"), backoff: 2 * time.Second}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   512,
		Temperature: param.NewOpt(0.9),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	if responseText == "" {
		return nil, errors.New("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

// callWithRetry makes at most two attempts, waiting c.backoff between
// them unless ctx ends first.
func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			c.logger.Info("retrying anthropic call", zap.Duration("backoff", c.backoff), zap.Int("attempt", attempt+1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff):
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		c.logger.Warn("anthropic call failed", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient: Local Development ───────────────────────

// MockClient answers with built-in prompts, picking one per calendar day
// named in the user prompt so repeated calls for a day agree.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := mockPrompts[promptIndex(userPrompt, len(mockPrompts))]
	return &LLMResponse{
		Content: fmt.Sprintf("```json\n{\"theme\":%q,\"prompt\":%q,\"scripture_ref\":%q}\n```",
			p.Theme, p.Prompt, p.ScriptureRef),
		PromptTokens: 200,
		OutputTokens: 80,
	}, nil
}

// promptIndex hashes s into [0, n).
func promptIndex(s string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % uint32(n))
}

var mockPrompts = []Prompt{
	{Theme: "surrender", Prompt: "What did you try to control today that you could have offered up instead?", ScriptureRef: "Bhagavad Gita 18.66"},
	{Theme: "steadiness", Prompt: "When did your mind waver during practice, and what brought it back?", ScriptureRef: "Bhagavad Gita 6.26"},
	{Theme: "gratitude", Prompt: "Name three small graces you received today and who they came through."},
	{Theme: "action", Prompt: "Which task today did you do for its own sake, without watching for the result?", ScriptureRef: "Bhagavad Gita 2.47"},
	{Theme: "compassion", Prompt: "Whose suffering did you notice today, and how did you respond to it?"},
	{Theme: "stillness", Prompt: "Describe a moment of silence from today. What was present in it?", ScriptureRef: "Katha Upanishad 2.3.10"},
	{Theme: "self-inquiry", Prompt: "Who is the one who was restless today? Sit with the question before answering."},
}
