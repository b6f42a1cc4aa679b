package captions

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/ytverify/internal/model"
	"github.com/ppiankov/ytverify/internal/util"
)

// robotsUserAgent identifies the service when reading robots.txt
const robotsUserAgent = "ytverify/1.0"

// NewSource creates the caption backend named by cfg.Captions.Backend.
// limiter paces outbound requests for the HTTP backend and may be nil.
func NewSource(cfg *model.Config, limiter RateWaiter, logger logrus.FieldLogger) (Source, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	switch strings.ToLower(cfg.Captions.Backend) {
	case "", "ytdlp", "yt-dlp":
		return NewYtDlpSource(cfg.Captions.YtDlpPath, cfg.Captions.TempDir, logger), nil

	case "innertube", "http":
		client := util.NewHTTPClient(cfg.HTTP)
		opts := InnertubeOptions{
			HTTPClient: client,
			MaxBytes:   cfg.HTTP.MaxBodyBytes,
			Limiter:    limiter,
			Logger:     logger,
		}
		if cfg.Captions.RespectRobots {
			opts.Robots = util.NewRobotsChecker(robotsUserAgent, client, cfg.HTTP.Timeout, logger)
		}
		return NewInnertubeSource(opts), nil

	default:
		return nil, fmt.Errorf("unknown caption backend: %s (supported: ytdlp, innertube)", cfg.Captions.Backend)
	}
}

// NewControllerFromConfig wires a source into a controller using the default catalogue
func NewControllerFromConfig(cfg *model.Config, limiter RateWaiter, logger logrus.FieldLogger) (*Controller, error) {
	source, err := NewSource(cfg, limiter, logger)
	if err != nil {
		return nil, err
	}
	return NewController(source, NewSelector(nil), ControllerConfigFromModel(cfg.Captions), logger), nil
}
