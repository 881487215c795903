package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PhaseFailurePolicy decides what a failed model call does to the rest of a request
type PhaseFailurePolicy string

const (
	// PolicyDegrade passes the failure notice on as content
	PolicyDegrade PhaseFailurePolicy = "degrade"
	// PolicyAbort stops at the first failed model call and returns a PhaseError
	PolicyAbort PhaseFailurePolicy = "abort"
)

// Generation phases
const (
	PhaseIdeas  = "ideas"
	PhasePlan   = "plan"
	PhaseDraft  = "draft"
	PhaseRefine = "refine"
)

// PhaseError reports the model phase that failed under PolicyAbort
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// SocialMediaAgent generates ideas, plans and researched posts with a fixed persona
type SocialMediaAgent struct {
	completer  Completer
	researcher *ResearchAgent
	prompts    *PromptLibrary
	policy     PhaseFailurePolicy
	logger     *zap.Logger
}

// NewSocialMediaAgent wires a completer, a research agent and the prompt library
func NewSocialMediaAgent(completer Completer, researcher *ResearchAgent, prompts *PromptLibrary, policy PhaseFailurePolicy, logger *zap.Logger) (*SocialMediaAgent, error) {
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if researcher == nil {
		return nil, errors.New("research agent is required")
	}
	if prompts == nil {
		return nil, errors.New("prompt library is required")
	}
	if policy == "" {
		policy = PolicyDegrade
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SocialMediaAgent{
		completer:  completer,
		researcher: researcher,
		prompts:    prompts,
		policy:     policy,
		logger:     logger,
	}, nil
}

// callModel runs one completion with the persona as system role
func (a *SocialMediaAgent) callModel(ctx context.Context, prompt string) Completion {
	start := time.Now()
	text, err := a.completer.Complete(ctx, a.prompts.Persona(), prompt)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = ErrEmptyCompletion
		}
	}

	if err != nil {
		a.logger.Warn("Model call failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return Completion{Err: err}
	}

	a.logger.Debug("Model call completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("prompt_len", len(prompt)),
		zap.Int("response_len", len(text)),
	)
	return Completion{Text: text}
}

// settle applies the failure policy to the outcome of a phase
func (a *SocialMediaAgent) settle(phase string, c Completion) (string, error) {
	if c.Failed() && a.policy == PolicyAbort {
		return "", &PhaseError{Phase: phase, Err: c.Err}
	}
	return c.Content(), nil
}

// GenerateIdeas asks for count numbered ideas for niche, each with its hook
func (a *SocialMediaAgent) GenerateIdeas(ctx context.Context, niche string, count int) (string, error) {
	prompt, err := a.prompts.Render(PromptIdeas, ideasPrompt{Niche: niche, Count: count})
	if err != nil {
		return "", err
	}

	a.logger.Info("→ Generating ideas", zap.String("niche", niche), zap.Int("count", count))
	return a.settle(PhaseIdeas, a.callModel(ctx, prompt))
}

// GeneratePlan asks for a seasonal strategy and a day-by-day plan
func (a *SocialMediaAgent) GeneratePlan(ctx context.Context, niche string, platforms []string, duration string) (string, error) {
	prompt, err := a.prompts.Render(PromptPlan, planPrompt{
		Niche:       niche,
		Platforms:   strings.Join(platforms, ", "),
		Duration:    duration,
		DateContext: a.researcher.CurrentContext(),
	})
	if err != nil {
		return "", err
	}

	a.logger.Info("→ Planning",
		zap.String("niche", niche),
		zap.Strings("platforms", platforms),
		zap.String("duration", duration),
	)
	return a.settle(PhasePlan, a.callModel(ctx, prompt))
}

// CreateFactBasedPost researches topic, drafts a post for platform in tone,
// then has the model edit the draft. Only the edited text is returned.
func (a *SocialMediaAgent) CreateFactBasedPost(ctx context.Context, topic, platform, tone string) (string, error) {
	log := a.logger.With(zap.String("topic", topic), zap.String("platform", platform))

	log.Info("→ Researching")
	research := a.researcher.Gather(ctx, topic)
	block, err := a.prompts.Render(PromptResearch, researchPrompt{
		DateContext: research.DateContext,
		Topic:       research.Topic,
		Facts:       research.Facts,
	})
	if err != nil {
		return "", err
	}

	log.Info("→ Drafting", zap.Bool("search_degraded", research.SearchErr != nil))
	draftText, err := a.prompts.Render(PromptDraft, draftPrompt{
		Platform: platform,
		Topic:    topic,
		Tone:     tone,
		Research: block,
	})
	if err != nil {
		return "", err
	}
	draft, err := a.settle(PhaseDraft, a.callModel(ctx, draftText))
	if err != nil {
		return "", err
	}

	log.Info("→ Refining")
	refineText, err := a.prompts.Render(PromptRefine, refinePrompt{
		Draft:       draft,
		DateContext: research.DateContext,
	})
	if err != nil {
		return "", err
	}
	final, err := a.settle(PhaseRefine, a.callModel(ctx, refineText))
	if err != nil {
		return "", err
	}

	log.Info("✓ Post ready", zap.Int("length", len(final)))
	return final, nil
}
