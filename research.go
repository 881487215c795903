package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	noSearchResults   = "No specific search results found."
	dateContextLayout = "Monday, January 02, 2006"
)

// ResearchAgent supplies the current date and web facts for prompts.
// Search failures are reported as text so generation can go on without them.
type ResearchAgent struct {
	engine     SearchEngine
	maxResults int
	now        func() time.Time
	logger     *zap.Logger
}

// NewResearchAgent creates a research agent capped at maxResults hits per topic
func NewResearchAgent(engine SearchEngine, maxResults int, logger *zap.Logger) *ResearchAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResearchAgent{
		engine:     engine,
		maxResults: maxResults,
		now:        time.Now,
		logger:     logger,
	}
}

// CurrentContext returns the current date as a prompt line
func (r *ResearchAgent) CurrentContext() string {
	return "Current Date: " + r.now().Format(dateContextLayout)
}

// Lookup runs the search and returns the typed results. A non-positive cap
// returns no results without calling the engine.
func (r *ResearchAgent) Lookup(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	results, err := r.engine.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// Search returns the formatted facts for query, the no-results sentinel, or
// a "Search unavailable" notice. It never fails.
func (r *ResearchAgent) Search(ctx context.Context, query string, maxResults int) string {
	facts, _ := r.search(ctx, query, maxResults)
	return facts
}

func (r *ResearchAgent) search(ctx context.Context, query string, maxResults int) (string, error) {
	results, err := r.Lookup(ctx, query, maxResults)
	if err != nil {
		r.logger.Warn("Search unavailable, continuing without facts",
			zap.String("query", query),
			zap.Error(err),
		)
		return fmt.Sprintf("Search unavailable: %v", err), err
	}

	r.logger.Debug("Search completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)
	return FormatSearchResults(results), nil
}

// Gather collects the date context and web facts for a topic
func (r *ResearchAgent) Gather(ctx context.Context, topic string) Research {
	facts, err := r.search(ctx, topic, r.maxResults)
	return Research{
		Topic:       topic,
		DateContext: r.CurrentContext(),
		Facts:       facts,
		SearchErr:   err,
	}
}

// FormatSearchResults renders results as a 1-indexed list, one per line
func FormatSearchResults(results []SearchResult) string {
	if len(results) == 0 {
		return noSearchResults
	}

	lines := make([]string, 0, len(results))
	for i, res := range results {
		lines = append(lines, fmt.Sprintf("%d. %s: %s (Source: %s)", i+1, res.Title, res.Body, res.URL))
	}
	return strings.Join(lines, "\n")
}
