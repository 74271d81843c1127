package websearch

import (
	"context"
	"errors"

	"github.com/sepehrdad/guidely/tools/websearch/brave"
	"github.com/sepehrdad/guidely/tools/websearch/models"
	"github.com/sepehrdad/guidely/tools/websearch/serper"
)

// Searcher is the remote search contract: a query string in, raw hits out.
type Searcher interface {
	Search(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

// NewSearcher selects a search backend by provider name.
func NewSearcher(provider Provider, apiKey string) (Searcher, error) {
	switch provider {
	case SerperProvider:
		return serper.Search{ApiKey: apiKey}, nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
