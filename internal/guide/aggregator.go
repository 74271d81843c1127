package guide

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/sepehrdad/guidely/internal/cache"
	"github.com/sepehrdad/guidely/internal/telemetry"
)

// Aggregator fans a lookup out to the configured source adapters,
// normalises and ranks what comes back, and caches the final result.
// Concurrent lookups for the same achievement are coalesced so a burst
// of identical requests costs one fanout.
type Aggregator struct {
	adapters  map[SourceKind]Adapter
	store     cache.Store
	resultTTL time.Duration
	timeout   time.Duration
	group     singleflight.Group
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// AggregatorOptions carries the tunables for a new Aggregator.
type AggregatorOptions struct {
	// ResultTTL is how long an aggregated result stays cached.
	ResultTTL time.Duration
	// Timeout bounds one full fanout.
	Timeout time.Duration
	// Telemetry may be nil.
	Telemetry *telemetry.Telemetry
}

func NewAggregator(adapters []Adapter, store cache.Store, opts AggregatorOptions) *Aggregator {
	byKind := make(map[SourceKind]Adapter, len(adapters))
	for _, a := range adapters {
		byKind[a.Kind()] = a
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = 7 * 24 * time.Hour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Aggregator{
		adapters:  byKind,
		store:     store,
		resultTTL: opts.ResultTTL,
		timeout:   opts.Timeout,
		telemetry: opts.Telemetry,
		logger:    log.New(log.Writer(), "[AGGREGATE] ", log.LstdFlags),
	}
}

// Sources lists the kinds this aggregator can serve, in priority order.
func (g *Aggregator) Sources() []SourceKind {
	kinds := make([]SourceKind, 0, len(g.adapters))
	for k := range g.adapters {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Priority() < kinds[j].Priority() })
	return kinds
}

// Aggregate runs one lookup. Per-source failures are reported in
// Result.Errors rather than failing the call; the only hard failures are
// an invalid request and an unusable cache on the write path being
// tolerated, so Aggregate errors only when nothing sensible can be done.
func (g *Aggregator) Aggregate(ctx context.Context, req Request) (*Result, error) {
	if req.Query.AppID <= 0 {
		return nil, fmt.Errorf("aggregate: app id is required")
	}
	if strings.TrimSpace(req.Query.AchievementName) == "" {
		return nil, fmt.Errorf("aggregate: achievement name is required")
	}
	if len(req.Sources) == 0 {
		req.Sources = g.Sources()
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 10
	}

	key := resultKey(req)
	if g.store != nil && !req.ForceRegenerate {
		var cached Result
		hit, err := g.store.Get(ctx, key, &cached)
		if err != nil {
			g.logger.Printf("cache read failed for %s: %v", key, err)
		} else if hit {
			cached.FromCache = true
			g.telemetry.RecordAggregation(true)
			return &cached, nil
		}
	}

	// A regeneration request must never piggyback on an in-flight
	// ordinary fanout, so it coalesces under its own flight key.
	flight := key
	if req.ForceRegenerate {
		flight += ":force"
	}
	v, err, _ := g.group.Do(flight, func() (interface{}, error) {
		return g.fanout(ctx, req, key)
	})
	if err != nil {
		return nil, err
	}
	result := v.(*Result)
	g.telemetry.RecordAggregation(false)
	return result, nil
}

func (g *Aggregator) fanout(ctx context.Context, req Request, key string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type outcome struct {
		kind       SourceKind
		candidates []Candidate
		err        error
	}

	var wg sync.WaitGroup
	outcomes := make([]outcome, 0, len(req.Sources))
	var mu sync.Mutex

	for _, kind := range req.Sources {
		adapter, ok := g.adapters[kind]
		if !ok {
			mu.Lock()
			outcomes = append(outcomes, outcome{kind: kind, err: fmt.Errorf("no adapter for source %q", kind)})
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(kind SourceKind, adapter Adapter) {
			defer wg.Done()
			start := time.Now()
			candidates, err := adapter.Fetch(ctx, req)
			g.telemetry.RecordAdapter(string(kind), statusOf(err), time.Since(start))
			mu.Lock()
			outcomes = append(outcomes, outcome{kind: kind, candidates: candidates, err: err})
			mu.Unlock()
		}(kind, adapter)
	}
	wg.Wait()

	result := &Result{
		SourcesUsed: map[SourceKind]int{},
		ComputedAt:  time.Now().UTC(),
	}
	var all []Candidate
	for _, o := range outcomes {
		if o.err != nil {
			g.logger.Printf("source %s failed: %v", o.kind, o.err)
			if result.Errors == nil {
				result.Errors = map[SourceKind]string{}
			}
			result.Errors[o.kind] = statusOf(o.err)
			continue
		}
		all = append(all, o.candidates...)
	}

	all = Normalize(all)
	all = Rank(all, req.Query)
	if len(all) > req.MaxResults {
		all = all[:req.MaxResults]
	}
	for i := range all {
		if all[i].ID == "" {
			all[i].ID = uuid.NewString()
		}
		result.SourcesUsed[all[i].Kind]++
	}
	result.Candidates = all

	if g.store != nil {
		if err := g.store.Set(ctx, key, result, g.resultTTL); err != nil {
			g.logger.Printf("cache write failed for %s: %v", key, err)
		}
	}
	return result, nil
}

// Per-source statuses reported in Result.Errors and telemetry labels.
const (
	StatusOK            = "ok"
	StatusQuotaExceeded = "quota_exceeded"
	StatusRateLimited   = "rate_limited"
	StatusMalformed     = "malformed"
	StatusTimeout       = "timeout"
	StatusError         = "error"
)

func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrQuotaExceeded):
		return StatusQuotaExceeded
	case errors.Is(err, ErrRateLimited):
		return StatusRateLimited
	case errors.Is(err, ErrMalformed):
		return StatusMalformed
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	default:
		return StatusError
	}
}

func resultKey(req Request) string {
	kinds := make([]string, 0, len(req.Sources))
	for _, k := range req.Sources {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	name := strings.ToLower(strings.TrimSpace(req.Query.AchievementName))
	return fmt.Sprintf("guides:%d:%s:%s:%d", req.Query.AppID, name, strings.Join(kinds, ","), req.MaxResults)
}
