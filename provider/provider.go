package provider

import (
	"context"
	"errors"
	"time"

	"github.com/sepehrdad/guidely/internal/guide"
	openrouter_provider "github.com/sepehrdad/guidely/provider/openrouter"
)

// Client represents different LLM providers
type Client string

const (
	OpenRouter Client = "openrouter"
	Anthropic  Client = "anthropic"
)

// Provider is the interface all LLM implementations must satisfy.
// GenerateGuide returns a fully populated structured guide or an error;
// it never returns a partially filled record.
type Provider interface {
	GenerateGuide(ctx context.Context, q guide.Query) (*guide.AIGuide, error)
}

// Options configures the underlying client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// NewProvider creates a new LLM client based on the provided configuration.
func NewProvider(client Client, opts Options) (Provider, error) {
	switch client {
	case OpenRouter:
		if opts.APIKey == "" {
			return nil, errors.New("openrouter api key not set")
		}
		if opts.Timeout == 0 {
			opts.Timeout = 30 * time.Second
		}
		return openrouter_provider.NewClient(
			opts.APIKey,
			opts.BaseURL,
			opts.Model,
			opts.Temperature,
			opts.MaxTokens,
			opts.Timeout,
		), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
