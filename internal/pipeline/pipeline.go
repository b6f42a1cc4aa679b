// Package pipeline sequences a check: parse the URL, retrieve captions,
// normalize them, extract claims, then fact-check them.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/ytverify/internal/captions"
	"github.com/ppiankov/ytverify/internal/extract"
	"github.com/ppiankov/ytverify/internal/llm"
	"github.com/ppiankov/ytverify/internal/model"
	"github.com/ppiankov/ytverify/internal/validate"
	"github.com/ppiankov/ytverify/internal/youtube"
)

// Retriever fetches raw captions for a video
type Retriever interface {
	Retrieve(ctx context.Context, ref model.VideoReference, languages []string) (*captions.Outcome, error)
}

// ClaimStage extracts claims from a transcript
type ClaimStage interface {
	Extract(ctx context.Context, t model.Transcript) (model.ClaimSet, error)
}

// FactCheckStage labels claims
type FactCheckStage interface {
	Check(ctx context.Context, claims model.ClaimSet) (model.VerificationReport, error)
}

// AnalysisStage runs the single-prompt structured mode
type AnalysisStage interface {
	Analyze(ctx context.Context, title, timestamped string) (*model.Analysis, error)
}

// Deps are the collaborators of a Pipeline. Nil stages leave the pipeline
// unconfigured; Check then fails with ConfigurationError.
type Deps struct {
	Retriever Retriever
	Claims    ClaimStage
	FactCheck FactCheckStage
	Analysis  AnalysisStage
	Provider  llm.Provider // Optional, for availability reporting
}

// Pipeline orchestrates one check at a time per call; it keeps no state between calls
type Pipeline struct {
	retriever Retriever
	claims    ClaimStage
	factCheck FactCheckStage
	analysis  AnalysisStage
	provider  llm.Provider
	config    *model.Config
	logger    logrus.FieldLogger
}

// New creates a pipeline from explicit collaborators
func New(cfg *model.Config, deps Deps, logger logrus.FieldLogger) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{
		retriever: deps.Retriever,
		claims:    deps.Claims,
		factCheck: deps.FactCheck,
		analysis:  deps.Analysis,
		provider:  deps.Provider,
		config:    cfg,
		logger:    logger,
	}
}

// NewFromConfig wires the production collaborators. A missing LLM credential
// is not an error here: the pipeline is built unconfigured and Ready reports it.
func NewFromConfig(cfg *model.Config, limiter captions.RateWaiter, logger logrus.FieldLogger) (*Pipeline, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	controller, err := captions.NewControllerFromConfig(cfg, limiter, logger)
	if err != nil {
		return nil, err
	}
	deps := Deps{Retriever: controller}

	llmConfig := llm.LoadConfigFromEnv(llm.ConfigFromModel(cfg))
	provider, err := llm.NewProvider(llmConfig)
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.WithField("provider", llmConfig.Provider).Warn("LLM API key not configured; check requests will be rejected")
	case err != nil:
		return nil, err
	default:
		deps.Provider = provider
		deps.Claims = extract.NewClaimExtractor(provider, cfg.LLM.TranscriptBudget, cfg.LLM.MaxTokens)
		deps.FactCheck = validate.NewFactChecker(provider, cfg.LLM.MaxTokens)
		deps.Analysis = validate.NewAnalyzer(provider, cfg.LLM.MaxTokens)
	}

	return New(cfg, deps, logger), nil
}

// Ready reports whether check requests can be served
func (p *Pipeline) Ready() error {
	if p.claims == nil || p.factCheck == nil {
		return model.NewFailure(model.ConfigurationError, "pipeline", "Gemini API key not configured", nil)
	}
	if p.retriever == nil {
		return model.NewFailure(model.ConfigurationError, "pipeline", "Caption retrieval is not configured", nil)
	}
	return nil
}

// Provider returns the configured LLM provider, or nil
func (p *Pipeline) Provider() llm.Provider {
	return p.provider
}

// Check runs the full pipeline for one URL. Every error is a *model.Failure.
func (p *Pipeline) Check(ctx context.Context, rawURL string, languages []string) (*model.PipelineResult, error) {
	ref, err := youtube.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if err := p.Ready(); err != nil {
		return nil, err
	}

	log := p.logger.WithField("video_id", ref.ID)
	started := time.Now()

	outcome, transcript, err := p.transcript(ctx, ref, languages, log)
	if err != nil {
		return nil, err
	}

	var claims model.ClaimSet
	err = p.stage(log, "extract", func() (err error) {
		claims, err = p.claims.Extract(ctx, transcript)
		return err
	})
	if err != nil {
		return nil, model.AsFailure(err)
	}

	var report model.VerificationReport
	err = p.stage(log, "fact_check", func() (err error) {
		report, err = p.factCheck.Check(ctx, claims)
		return err
	})
	if err != nil {
		return nil, model.AsFailure(err)
	}

	log.WithField("duration", time.Since(started)).Info("check complete")

	return &model.PipelineResult{
		Success:          true,
		VideoTitle:       transcript.DisplayTitle(),
		VideoURL:         ref.URL,
		TranscriptLength: transcript.Length(),
		Claims:           claims,
		FactCheckResults: report,
		VideoID:          ref.ID,
		Strategy:         outcome.Strategy.Name,
		Attempts:         outcome.Attempts,
		CheckedAt:        time.Now().UTC(),
	}, nil
}

// AnalysisResult is the outcome of the structured mode
type AnalysisResult struct {
	VideoID    string          `json:"video_id"`
	VideoTitle string          `json:"video_title"`
	VideoURL   string          `json:"video_url"`
	Analysis   *model.Analysis `json:"analysis"`
	CheckedAt  time.Time       `json:"checked_at"`
}

// Analyze runs the structured mode: one prompt over a timestamped transcript
func (p *Pipeline) Analyze(ctx context.Context, rawURL string, languages []string) (*AnalysisResult, error) {
	ref, err := youtube.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if p.analysis == nil {
		return nil, model.NewFailure(model.ConfigurationError, "pipeline", "Gemini API key not configured", nil)
	}

	log := p.logger.WithField("video_id", ref.ID)

	outcome, transcript, err := p.transcript(ctx, ref, languages, log)
	if err != nil {
		return nil, err
	}

	cues := extract.ParseCues(outcome.Captions.Raw, outcome.Captions.Format)
	timestamped := extract.FormatTimestamped(cues, p.config.LLM.AnalysisBudget)

	var analysis *model.Analysis
	err = p.stage(log, "analyze", func() (err error) {
		analysis, err = p.analysis.Analyze(ctx, transcript.DisplayTitle(), timestamped)
		return err
	})
	if err != nil {
		return nil, model.AsFailure(err)
	}

	return &AnalysisResult{
		VideoID:    ref.ID,
		VideoTitle: transcript.DisplayTitle(),
		VideoURL:   ref.URL,
		Analysis:   analysis,
		CheckedAt:  time.Now().UTC(),
	}, nil
}

// transcript retrieves and normalizes captions
func (p *Pipeline) transcript(ctx context.Context, ref model.VideoReference, languages []string, log logrus.FieldLogger) (*captions.Outcome, model.Transcript, error) {
	if len(languages) == 0 {
		languages = p.config.Captions.Languages
	}

	var outcome *captions.Outcome
	err := p.stage(log, "retrieve", func() (err error) {
		outcome, err = p.retriever.Retrieve(ctx, ref, languages)
		return err
	})
	if err != nil {
		return nil, model.Transcript{}, model.AsFailure(err)
	}

	var transcript model.Transcript
	err = p.stage(log, "normalize", func() (err error) {
		transcript, err = extract.NewTranscript(outcome.Captions, p.config.Captions.MinTranscriptLength)
		return err
	})
	if err != nil {
		return nil, model.Transcript{}, model.AsFailure(err)
	}

	log.WithFields(logrus.Fields{
		"strategy": outcome.Strategy.Name,
		"attempts": len(outcome.Attempts),
		"chars":    transcript.Length(),
	}).Debug("transcript ready")

	return outcome, transcript, nil
}

// stage runs fn and logs its duration and outcome
func (p *Pipeline) stage(log logrus.FieldLogger, name string, fn func() error) error {
	started := time.Now()
	err := fn()

	entry := log.WithFields(logrus.Fields{
		"stage":    name,
		"duration": time.Since(started),
	})
	if err != nil {
		if f := model.AsFailure(err); f != nil {
			entry = entry.WithField("kind", f.Kind)
		}
		entry.WithError(err).Warn("stage failed")
		return err
	}
	entry.Debug("stage complete")
	return nil
}
