package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubGenerator records the arguments it was called with
type stubGenerator struct {
	result string
	err    error

	niche     string
	count     int
	platforms []string
	duration  string
	topic     string
	platform  string
	tone      string
}

func (s *stubGenerator) GenerateIdeas(_ context.Context, niche string, count int) (string, error) {
	s.niche, s.count = niche, count
	return s.result, s.err
}

func (s *stubGenerator) GeneratePlan(_ context.Context, niche string, platforms []string, duration string) (string, error) {
	s.niche, s.platforms, s.duration = niche, platforms, duration
	return s.result, s.err
}

func (s *stubGenerator) CreateFactBasedPost(_ context.Context, topic, platform, tone string) (string, error) {
	s.topic, s.platform, s.tone = topic, platform, tone
	return s.result, s.err
}

func setupTestRouter(generator ContentGenerator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewContentHandler(generator, zap.NewNop())
	router := gin.New()
	router.GET("/", handler.Health)
	router.POST("/generate-ideas", handler.GenerateIdeas)
	router.POST("/generate-plan", handler.GeneratePlan)
	router.POST("/generate-post", handler.GeneratePost)
	return router
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthHandler(t *testing.T) {
	router := setupTestRouter(&stubGenerator{err: errors.New("never called")})

	w := doJSON(router, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","agent":"Active"}`, w.Body.String())
}

func TestGenerateIdeasHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantNiche  string
		wantCount  int
	}{
		{
			name:       "explicit count",
			body:       `{"niche":"Fitness","count":3}`,
			wantStatus: http.StatusOK,
			wantNiche:  "Fitness",
			wantCount:  3,
		},
		{
			name:       "default count",
			body:       `{"niche":"Fitness"}`,
			wantStatus: http.StatusOK,
			wantNiche:  "Fitness",
			wantCount:  5,
		},
		{
			name:       "zero count is passed through",
			body:       `{"niche":"Fitness","count":0}`,
			wantStatus: http.StatusOK,
			wantNiche:  "Fitness",
			wantCount:  0,
		},
		{
			name:       "missing niche",
			body:       `{"count":3}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "count of wrong type",
			body:       `{"niche":"Fitness","count":"three"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "malformed json",
			body:       `{"niche":`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "empty body",
			body:       ``,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := &stubGenerator{result: "1. Idea"}
			router := setupTestRouter(generator)

			w := doJSON(router, http.MethodPost, "/generate-ideas", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			body := decodeBody(t, w)
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, body["detail"])
				assert.Empty(t, generator.niche, "generator must not run on invalid input")
				return
			}

			assert.Equal(t, "1. Idea", body["ideas"])
			assert.Equal(t, tt.wantNiche, generator.niche)
			assert.Equal(t, tt.wantCount, generator.count)
		})
	}
}

func TestGeneratePlanHandler(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantStatus    int
		wantPlatforms []string
		wantDuration  string
	}{
		{
			name:          "platforms and duration",
			body:          `{"niche":"Coffee","platforms":["Instagram","TikTok"],"duration":"2 weeks"}`,
			wantStatus:    http.StatusOK,
			wantPlatforms: []string{"Instagram", "TikTok"},
			wantDuration:  "2 weeks",
		},
		{
			name:          "empty platforms accepted",
			body:          `{"niche":"Coffee","platforms":[]}`,
			wantStatus:    http.StatusOK,
			wantPlatforms: []string{},
			wantDuration:  "1 week",
		},
		{
			name:       "missing platforms",
			body:       `{"niche":"Coffee"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "platforms not a list",
			body:       `{"niche":"Coffee","platforms":"Instagram"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := &stubGenerator{result: "The plan"}
			router := setupTestRouter(generator)

			w := doJSON(router, http.MethodPost, "/generate-plan", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			body := decodeBody(t, w)
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, body["detail"])
				return
			}

			assert.Equal(t, "The plan", body["strategy_and_plan"])
			assert.Equal(t, "Coffee", generator.niche)
			assert.Equal(t, tt.wantPlatforms, generator.platforms)
			assert.Equal(t, tt.wantDuration, generator.duration)
		})
	}
}

func TestGeneratePostHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantTone   string
	}{
		{
			name:       "explicit tone",
			body:       `{"topic":"AI","platform":"X","tone":"witty"}`,
			wantStatus: http.StatusOK,
			wantTone:   "witty",
		},
		{
			name:       "default tone",
			body:       `{"topic":"AI","platform":"X"}`,
			wantStatus: http.StatusOK,
			wantTone:   "professional",
		},
		{
			name:       "missing platform",
			body:       `{"topic":"AI"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "null topic",
			body:       `{"topic":null,"platform":"X"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := &stubGenerator{result: "Final post"}
			router := setupTestRouter(generator)

			w := doJSON(router, http.MethodPost, "/generate-post", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			body := decodeBody(t, w)
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, body["detail"])
				return
			}

			assert.Equal(t, "Final post", body["final_content"])
			assert.Equal(t, "AI", generator.topic)
			assert.Equal(t, "X", generator.platform)
			assert.Equal(t, tt.wantTone, generator.tone)
		})
	}
}

func TestHandlersAcceptEmptyStrings(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		wantField string
	}{
		{name: "empty niche for ideas", path: "/generate-ideas", body: `{"niche":""}`, wantField: "ideas"},
		{name: "empty niche for plan", path: "/generate-plan", body: `{"niche":"","platforms":["X"]}`, wantField: "strategy_and_plan"},
		{name: "empty topic", path: "/generate-post", body: `{"topic":"","platform":"X"}`, wantField: "final_content"},
		{name: "empty platform", path: "/generate-post", body: `{"topic":"AI","platform":""}`, wantField: "final_content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := &stubGenerator{result: "generated"}
			router := setupTestRouter(generator)

			w := doJSON(router, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, "generated", decodeBody(t, w)[tt.wantField])
		})
	}
}

func TestHandlersRejectNullRequiredFields(t *testing.T) {
	router := setupTestRouter(&stubGenerator{result: "generated"})

	for path, body := range map[string]string{
		"/generate-ideas": `{"niche":null}`,
		"/generate-plan":  `{"niche":null,"platforms":[]}`,
		"/generate-post":  `{"topic":"AI","platform":null}`,
	} {
		t.Run(path, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, path, body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.NotEmpty(t, decodeBody(t, w)["detail"])
		})
	}
}

func TestHandlersGeneratorError(t *testing.T) {
	generator := &stubGenerator{err: &PhaseError{Phase: PhaseDraft, Err: errors.New("quota exceeded")}}
	router := setupTestRouter(generator)

	requests := []struct {
		path string
		body string
	}{
		{"/generate-ideas", `{"niche":"Fitness"}`},
		{"/generate-plan", `{"niche":"Fitness","platforms":["X"]}`},
		{"/generate-post", `{"topic":"AI","platform":"X"}`},
	}

	for _, r := range requests {
		t.Run(r.path, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, r.path, r.body)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"detail":"draft phase failed: quota exceeded"}`, w.Body.String())
		})
	}
}

func TestHandlersDegradedGeneration(t *testing.T) {
	completer := &fakeCompleter{errs: []error{errors.New("no key"), errors.New("no key")}}
	agent := newTestAgent(t, completer, &fakeEngine{err: errors.New("offline")}, PolicyDegrade)
	router := setupTestRouter(agent)

	w := doJSON(router, http.MethodPost, "/generate-post", `{"topic":"AI","platform":"X"}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Error generating content: no key", body["final_content"])
	assert.Len(t, completer.calls, 2)
}
