package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"blueprint-backend/internal/llm"
)

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}, nil
}

// GenerateCouplesAnalysis requests a JSON-shaped analysis for the two partner
// profiles, with one fix-JSON round trip when the output is not valid JSON.
func (c *Client) GenerateCouplesAnalysis(ctx context.Context, input llm.GenerateInput) (json.RawMessage, error) {
	rawFix, hasFix := llm.FixJSONFromContext(ctx)
	if hasFix {
		return c.generateFixJSON(ctx, input, rawFix)
	}

	messages := BuildPrompt(input.PromptVersion, input, c.model)
	raw, err := c.generateOnce(ctx, input.CoupleID, messages)
	if err != nil {
		return nil, err
	}
	if json.Valid(raw) {
		return raw, nil
	}

	fixMessages := buildFixPrompt(input.PromptVersion, c.model, raw)
	raw, err = c.generateOnce(ctx, input.CoupleID, fixMessages)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON from OpenAI")
	}
	return raw, nil
}

func (c *Client) generateFixJSON(ctx context.Context, input llm.GenerateInput, raw string) (json.RawMessage, error) {
	fixMessages := buildFixPrompt(input.PromptVersion, c.model, []byte(raw))
	resp, err := c.generateOnce(ctx, input.CoupleID, fixMessages)
	if err != nil {
		return nil, err
	}
	if !json.Valid(resp) {
		return nil, fmt.Errorf("invalid JSON from OpenAI")
	}
	return resp, nil
}

func (c *Client) generateOnce(ctx context.Context, coupleID string, messages []Message) (json.RawMessage, error) {
	reqMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: reqMessages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if !isReasoningModel(c.model) {
		temp := float32(0)
		req.Temperature = temp
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response missing choices")
	}

	content := llm.StripCodeFences(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("openai response empty content")
	}
	logUsage(c.model, coupleID, resp.Usage)
	return json.RawMessage(content), nil
}

func logUsage(model, coupleID string, usage openai.Usage) {
	log.Printf("llm response model=%s couple_id=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
		model, coupleID, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
}

// isReasoningModel reports whether the model rejects sampling parameters.
func isReasoningModel(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	return strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4") || strings.HasPrefix(m, "gpt-5")
}

var _ llm.Client = (*Client)(nil)
