package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tkdue/magicsearch/internal/asset"
	"github.com/Tkdue/magicsearch/internal/provider"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyQuery        = errors.New("search: query is required")
	ErrInvalidCount      = errors.New("search: desired count must be positive")
	ErrInvalidSearchType = errors.New("search: unknown search type")
)

// NumProviders is the divisor for per-provider quotas. AI providers are not
// counted.
var NumProviders = len(asset.MediaProviders)

// Expander produces the phrase set for a creative search.
type Expander interface {
	Expand(ctx context.Context, phrase, additionalContext string) []string
}

type Request struct {
	Query             string              `json:"query"`
	Type              asset.SearchType    `json:"type"`
	Filters           asset.SearchFilters `json:"filters"`
	AdditionalContext string              `json:"additionalContext,omitempty"`
	DesiredCount      int                 `json:"count"`
}

// Result is a ranked, deduplicated, truncated result list plus the numbers
// that produced it.
type Result struct {
	Query      string        `json:"query"`
	Phrases    []string      `json:"phrases"`
	Candidates int           `json:"candidates"`
	Duplicates int           `json:"duplicates"`
	Assets     []asset.Asset `json:"results"`
}

type Orchestrator struct {
	adapters []provider.Adapter
	expander Expander
	log      *zap.Logger
}

func New(adapters []provider.Adapter, expander Expander, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{adapters: adapters, expander: expander, log: logger.Named("search")}
}

// PerformSearch runs the full pipeline and returns at most desiredCount
// assets. Only invalid input produces an error.
func (o *Orchestrator) PerformSearch(ctx context.Context, query string, searchType asset.SearchType, filters asset.SearchFilters, additionalContext string, desiredCount int) ([]asset.Asset, error) {
	res, err := o.Search(ctx, Request{
		Query:             query,
		Type:              searchType,
		Filters:           filters,
		AdditionalContext: additionalContext,
		DesiredCount:      desiredCount,
	})
	if err != nil {
		return nil, err
	}
	return res.Assets, nil
}

func (o *Orchestrator) Search(ctx context.Context, req Request) (*Result, error) {
	query := strings.TrimSpace(req.Query)
	switch {
	case query == "":
		return nil, ErrEmptyQuery
	case req.DesiredCount <= 0:
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, req.DesiredCount)
	case !req.Type.Valid():
		return nil, fmt.Errorf("%w: %q", ErrInvalidSearchType, req.Type)
	}
	start := time.Now()
	filters := req.Filters.Normalized()

	phrases := o.phrases(ctx, query, req)
	perPhrase := ceilDiv(req.DesiredCount, len(phrases))
	perProvider := ceilDiv(perPhrase, NumProviders)

	var pool []asset.Asset
	for _, phrase := range phrases {
		pool = append(pool, o.fanOut(ctx, phrase, filters, perProvider)...)
	}

	unique := Dedupe(pool)
	duplicates := len(pool) - len(unique)
	Rank(unique)
	if len(unique) > req.DesiredCount {
		unique = unique[:req.DesiredCount]
	}

	o.log.Info("search complete",
		zap.String("query", query),
		zap.String("type", string(req.Type)),
		zap.Int("phrases", len(phrases)),
		zap.Int("per_provider", perProvider),
		zap.Int("candidates", len(pool)),
		zap.Int("returned", len(unique)),
		zap.Duration("took", time.Since(start)))

	return &Result{
		Query:      query,
		Phrases:    phrases,
		Candidates: len(pool),
		Duplicates: duplicates,
		Assets:     unique,
	}, nil
}

func (o *Orchestrator) phrases(ctx context.Context, query string, req Request) []string {
	if req.Type != asset.Creative || o.expander == nil {
		return []string{query}
	}
	// The original query always leads; later copies of it are dropped.
	set := []string{query}
	for _, p := range o.expander.Expand(ctx, query, req.AdditionalContext) {
		if p != query {
			set = append(set, p)
		}
	}
	return set
}

// fanOut calls every adapter concurrently for one phrase and waits for all
// of them. Results keep adapter order; a panicking adapter counts as empty.
func (o *Orchestrator) fanOut(ctx context.Context, phrase string, filters asset.SearchFilters, quota int) []asset.Asset {
	slots := make([][]asset.Asset, len(o.adapters))
	var g errgroup.Group
	for i, api := range o.adapters {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					o.log.Error("adapter panicked", zap.String("provider", string(api.Name())), zap.Any("panic", r))
				}
			}()
			slots[i] = api.Search(ctx, phrase, filters, quota)
			return nil
		})
	}
	_ = g.Wait()

	var out []asset.Asset
	for _, s := range slots {
		out = append(out, s...)
	}
	return out
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}
