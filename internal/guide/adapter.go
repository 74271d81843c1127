package guide

import "context"

// Adapter fetches candidate guides from one external source. Adapters
// return their raw findings and leave dedup, classification and ranking
// to the aggregator.
type Adapter interface {
	// Kind reports which source this adapter covers.
	Kind() SourceKind
	// Fetch returns candidates for the request. A nil error with an empty
	// slice is a valid "nothing found" outcome.
	Fetch(ctx context.Context, req Request) ([]Candidate, error)
}

// Generator produces a structured guide from a language model. It is
// satisfied by the provider implementations.
type Generator interface {
	GenerateGuide(ctx context.Context, q Query) (*AIGuide, error)
}
