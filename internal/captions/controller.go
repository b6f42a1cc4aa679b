package captions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/ytverify/internal/model"
)

// ControllerConfig bounds the retry loop
type ControllerConfig struct {
	MaxAttempts    int           // Hard cap on attempts per Retrieve call
	BackoffBase    time.Duration // First backoff delay before jitter
	BackoffMax     time.Duration // Upper bound on any single delay
	AttemptTimeout time.Duration // Deadline for one Source.Fetch call
	MinRawLength   int           // Raw payloads of this many runes or fewer count as insufficient
}

// DefaultControllerConfig returns the defaults used when no config is supplied
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MaxAttempts:    3,
		BackoffBase:    time.Second,
		BackoffMax:     8 * time.Second,
		AttemptTimeout: 45 * time.Second,
		MinRawLength:   50,
	}
}

// ControllerConfigFromModel converts the captions section of the runtime config
func ControllerConfigFromModel(cfg model.CaptionsConfig) ControllerConfig {
	return ControllerConfig{
		MaxAttempts:    cfg.MaxAttempts,
		BackoffBase:    cfg.BackoffBase,
		BackoffMax:     cfg.BackoffMax,
		AttemptTimeout: cfg.AttemptTimeout,
		MinRawLength:   cfg.MinRawLength,
	}
}

// Outcome is the result of a successful Retrieve
type Outcome struct {
	Captions *Captions
	Strategy Strategy
	Attempts []model.RetrievalAttempt
}

// controllerSleep waits for d or until ctx is done. Swapped out in tests.
var controllerSleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Controller drives a Source through the strategy catalogue with bounded,
// jittered backoff and turns the attempt trail into one outcome.
type Controller struct {
	source   Source
	selector *Selector
	config   ControllerConfig
	logger   logrus.FieldLogger
}

// NewController creates a controller; zero config fields fall back to defaults
func NewController(source Source, selector *Selector, config ControllerConfig, logger logrus.FieldLogger) *Controller {
	defaults := DefaultControllerConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = defaults.BackoffBase
	}
	if config.BackoffMax < config.BackoffBase {
		config.BackoffMax = config.BackoffBase
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = defaults.AttemptTimeout
	}
	if config.MinRawLength < 0 {
		config.MinRawLength = 0
	}
	if selector == nil {
		selector = NewSelector(nil)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Controller{
		source:   source,
		selector: selector,
		config:   config,
		logger:   logger,
	}
}

// newBackoff returns a fresh backoff whose jitter range widens with each attempt
func (c *Controller) newBackoff() retry.Backoff {
	b := retry.NewExponential(c.config.BackoffBase)
	b = retry.WithJitterPercent(50, b)
	return retry.WithCappedDuration(c.config.BackoffMax, b)
}

// Retrieve fetches captions for ref, trying strategies until one succeeds,
// a permanent failure occurs, or MaxAttempts is reached. Every returned
// error is a *model.Failure.
func (c *Controller) Retrieve(ctx context.Context, ref model.VideoReference, languages []string) (*Outcome, error) {
	log := c.logger.WithFields(logrus.Fields{
		"video_id": ref.ID,
		"source":   c.source.Name(),
	})

	backoff := c.newBackoff()
	attempts := make([]model.RetrievalAttempt, 0, c.config.MaxAttempts)
	idx := 0
	var lastErr error

	for i := 0; i < c.config.MaxAttempts; i++ {
		if i > 0 {
			prev := attempts[len(attempts)-1]
			delay, stop := backoff.Next()
			if stop {
				break
			}
			log.WithFields(logrus.Fields{"attempt": i, "delay": delay}).Debug("backing off before next strategy")
			if err := controllerSleep(ctx, delay); err != nil {
				return nil, cancelled(err)
			}
			idx = c.selector.Next(idx, prev.Kind)
		}

		strategy := c.selector.At(idx)
		record, caps, err := c.attempt(ctx, i, ref, strategy, languages)
		attempts = append(attempts, record)
		lastErr = err

		entry := log.WithFields(logrus.Fields{
			"attempt":  i + 1,
			"strategy": strategy.Name,
			"kind":     record.Kind,
			"duration": record.Duration,
		})

		if record.Kind == model.AttemptSuccess {
			entry.WithField("chars", len(caps.Raw)).Info("captions retrieved")
			return &Outcome{Captions: caps, Strategy: strategy, Attempts: attempts}, nil
		}
		entry.WithField("reason", record.Reason).Warn("caption attempt failed")

		var f *model.Failure
		if errors.As(err, &f) {
			return nil, f
		}
		if ctx.Err() != nil {
			return nil, cancelled(ctx.Err())
		}
		if !record.Kind.Retryable() {
			return nil, terminal(attempts, err)
		}
	}

	return nil, terminal(attempts, lastErr)
}

func (c *Controller) attempt(ctx context.Context, i int, ref model.VideoReference, strategy Strategy, languages []string) (model.RetrievalAttempt, *Captions, error) {
	record := model.RetrievalAttempt{
		Index:     i,
		Strategy:  strategy.Name,
		StartedAt: time.Now(),
	}

	actx, cancel := context.WithTimeout(ctx, c.config.AttemptTimeout)
	defer cancel()

	caps, err := c.source.Fetch(actx, ref, strategy, languages)
	record.Duration = time.Since(record.StartedAt)

	if err != nil {
		record.Kind = Classify(err)
		record.Reason = reason(err)
		return record, nil, err
	}

	if caps == nil || utf8.RuneCountInString(strings.TrimSpace(caps.Raw)) <= c.config.MinRawLength {
		record.Kind = model.AttemptInsufficient
		record.Reason = "caption payload below minimum length"
		return record, nil, nil
	}

	record.Kind = model.AttemptSuccess
	record.Format = caps.Format
	return record, caps, nil
}

// terminal converts the attempt trail into the failure returned to callers.
// The last attempt decides, except that a trail of only empty attempts
// means no client found captions at all.
func terminal(trail []model.RetrievalAttempt, err error) error {
	op := "retrieve captions"
	last := trail[len(trail)-1]
	switch last.Kind {
	case model.AttemptBotDetected:
		return model.NewFailure(model.BotDetected, op,
			"YouTube is blocking automated caption requests; try again later", err)
	case model.AttemptNoCaptions:
		return model.NewFailure(model.NoCaptionsAvailable, op,
			"No captions are available for this video in the requested languages", err)
	case model.AttemptEmpty:
		if allKind(trail, model.AttemptEmpty) {
			return model.NewFailure(model.NoCaptionsAvailable, op,
				"No captions are available for this video in the requested languages", err)
		}
	case model.AttemptPermanent:
		return model.NewFailure(model.PermanentRetrievalFailure, op, permanentMessage(last.Reason), err)
	case model.AttemptInsufficient:
		return model.NewFailure(model.InsufficientContent, op,
			"Captions were found but contain too little text to analyze", err)
	}
	return model.NewFailure(model.TransientRetrievalFailure, op,
		fmt.Sprintf("Could not retrieve captions after %d attempts", len(trail)), err)
}

func allKind(trail []model.RetrievalAttempt, kind model.AttemptKind) bool {
	for _, a := range trail {
		if a.Kind != kind {
			return false
		}
	}
	return true
}

func cancelled(err error) error {
	return model.NewFailure(model.TransientRetrievalFailure, "retrieve captions", "Caption retrieval was cancelled or timed out", err)
}

func reason(err error) string {
	var re *RetrievalError
	if errors.As(err, &re) && re.Reason != "" {
		return re.Reason
	}
	return err.Error()
}

// permanentMessages maps scraper phrases to the message shown to callers.
// The scraper's own text never leaves the process.
var permanentMessages = []struct {
	markers []string
	message string
}{
	{[]string{"members-only", "join this channel"}, "This video is restricted to channel members"},
	{[]string{"has been removed", "http error 410"}, "This video has been removed"},
	{[]string{"is not a valid url", "unsupported url"}, "This URL is not a supported video"},
}

const defaultPermanentMessage = "This video is private or unavailable"

// permanentMessage picks the fixed public message for a permanent failure reason
func permanentMessage(reason string) string {
	lower := strings.ToLower(reason)
	for _, pm := range permanentMessages {
		for _, m := range pm.markers {
			if strings.Contains(lower, m) {
				return pm.message
			}
		}
	}
	return defaultPermanentMessage
}
