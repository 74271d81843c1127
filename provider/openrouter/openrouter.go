package openrouter_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sepehrdad/guidely/internal/guide"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// client implements guide generation against the OpenRouter API.
type client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates a new OpenRouter client.
func NewClient(apiKey, baseURL, model string, temperature float64, maxTokens int, timeout time.Duration) *client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &client{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

const systemPrompt = `You are an expert gaming guide writer specializing in achievement hunting.
Your guides are clear, concise, and actionable. Focus on practical strategies and specific steps.
Format your response as structured JSON with the following fields:
- difficulty_rating: Integer 1-10 (1=very easy, 10=extremely hard)
- estimated_time: String like "5-10 minutes", "2-3 hours", "20+ hours"
- strategies: Array of strings, each a different approach to unlock the achievement
- tips: Array of helpful tips and warnings
- summary: Brief 2-3 sentence overview of what the achievement requires`

// GenerateGuide asks the model for a structured achievement guide and parses
// the response strictly. Unparsable or incomplete output is an error, never a
// fabricated record.
func (c *client) GenerateGuide(ctx context.Context, q guide.Query) (*guide.AIGuide, error) {
	var rarityInfo string
	if q.RarityPercent != nil {
		kind := "common"
		if *q.RarityPercent < 10 {
			kind = "rare"
		}
		rarityInfo = fmt.Sprintf("Rarity: %s (only %.1f%% of players have unlocked this)", kind, *q.RarityPercent)
	}

	userPrompt := fmt.Sprintf(`Generate a comprehensive achievement guide for:

Game: %s
Achievement: %s
Description: %s
%s

Provide specific, actionable strategies to unlock this achievement. Include any tips about timing, difficulty, or prerequisites.`,
		q.GameName, q.AchievementName, q.AchievementDescription, rarityInfo)

	body := chatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// OpenRouter answers 402 when credits run out and 429 when the
	// request rate trips; both mean "come back later" to the caller.
	if resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusTooManyRequests {
		return nil, guide.ErrQuotaExceeded
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(b))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", guide.ErrMalformed)
	}

	return parseGuide(chat.Choices[0].Message.Content)
}

// parseGuide extracts the structured guide from model output, tolerating
// code fences and surrounding prose but nothing less than a complete record.
func parseGuide(content string) (*guide.AIGuide, error) {
	raw, err := ExtractJSON(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", guide.ErrMalformed, err)
	}

	var parsed guide.AIGuide
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", guide.ErrMalformed, err)
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return nil, fmt.Errorf("%w: missing summary", guide.ErrMalformed)
	}
	if parsed.Difficulty < 1 || parsed.Difficulty > 10 {
		return nil, fmt.Errorf("%w: difficulty %d out of range", guide.ErrMalformed, parsed.Difficulty)
	}
	if strings.TrimSpace(parsed.EstimatedTime) == "" {
		return nil, fmt.Errorf("%w: missing time estimate", guide.ErrMalformed)
	}
	if parsed.Strategies == nil {
		parsed.Strategies = []string{}
	}
	if parsed.Tips == nil {
		parsed.Tips = []string{}
	}
	return &parsed, nil
}
