package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentContext(t *testing.T) {
	r := newTestResearchAgent(&fakeEngine{}, 3)
	assert.Equal(t, "Current Date: Monday, March 03, 2025", r.CurrentContext())
}

func TestResearchSearch(t *testing.T) {
	hits := []SearchResult{
		{Title: "First", Body: "Alpha body", URL: "https://a.example"},
		{Title: "Second", Body: "Beta body", URL: "https://b.example"},
		{Title: "Third", Body: "Gamma body", URL: "https://c.example"},
	}

	tests := []struct {
		name        string
		engine      *fakeEngine
		maxResults  int
		want        string
		wantQueries int
	}{
		{
			name:        "zero cap skips the engine",
			engine:      &fakeEngine{results: hits},
			maxResults:  0,
			want:        "No specific search results found.",
			wantQueries: 0,
		},
		{
			name:        "no results",
			engine:      &fakeEngine{},
			maxResults:  3,
			want:        "No specific search results found.",
			wantQueries: 1,
		},
		{
			name:        "engine error",
			engine:      &fakeEngine{err: errors.New("403 forbidden")},
			maxResults:  3,
			want:        "Search unavailable: 403 forbidden",
			wantQueries: 1,
		},
		{
			name:        "results are numbered one per line",
			engine:      &fakeEngine{results: hits[:2]},
			maxResults:  3,
			want:        "1. First: Alpha body (Source: https://a.example)\n2. Second: Beta body (Source: https://b.example)",
			wantQueries: 1,
		},
		{
			name:        "engine overshoot is capped",
			engine:      &fakeEngine{results: hits},
			maxResults:  1,
			want:        "1. First: Alpha body (Source: https://a.example)",
			wantQueries: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResearchAgent(tt.engine, 3)

			got := r.Search(context.Background(), "golang", tt.maxResults)

			assert.Equal(t, tt.want, got)
			assert.Len(t, tt.engine.queries, tt.wantQueries)
		})
	}
}

func TestResearchLookup(t *testing.T) {
	engine := &fakeEngine{results: []SearchResult{{Title: "A"}, {Title: "B"}}}
	r := newTestResearchAgent(engine, 3)

	results, err := r.Lookup(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, []int{5}, engine.limits)

	results, err = r.Lookup(context.Background(), "q", -1)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Len(t, engine.queries, 1)
}

func TestResearchGather(t *testing.T) {
	t.Run("facts and date", func(t *testing.T) {
		engine := &fakeEngine{results: []SearchResult{{Title: "T", Body: "B", URL: "https://u.example"}}}
		r := newTestResearchAgent(engine, 3)

		research := r.Gather(context.Background(), "AI news")

		assert.Equal(t, "AI news", research.Topic)
		assert.Equal(t, "Current Date: Monday, March 03, 2025", research.DateContext)
		assert.Equal(t, "1. T: B (Source: https://u.example)", research.Facts)
		assert.NoError(t, research.SearchErr)
		assert.Equal(t, []string{"AI news"}, engine.queries)
		assert.Equal(t, []int{3}, engine.limits)
	})

	t.Run("search failure is recorded", func(t *testing.T) {
		searchErr := errors.New("rate limited")
		r := newTestResearchAgent(&fakeEngine{err: searchErr}, 3)

		research := r.Gather(context.Background(), "AI news")

		assert.ErrorIs(t, research.SearchErr, searchErr)
		assert.Equal(t, "Search unavailable: rate limited", research.Facts)
	})
}

func TestFormatSearchResults(t *testing.T) {
	assert.Equal(t, "No specific search results found.", FormatSearchResults(nil))
	assert.Equal(t, "No specific search results found.", FormatSearchResults([]SearchResult{}))
	assert.Equal(t,
		"1. Title: Body text (Source: https://example.com)",
		FormatSearchResults([]SearchResult{{Title: "Title", Body: "Body text", URL: "https://example.com"}}),
	)
}
