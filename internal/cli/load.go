package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/ytverify/internal/logging"
	"github.com/ppiankov/ytverify/internal/model"
	"github.com/ppiankov/ytverify/internal/pipeline"
	"github.com/ppiankov/ytverify/internal/worker"
)

// loadConfig resolves flags, environment, config file and defaults into one Config
func loadConfig() (*model.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*model.Config, error) {
	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		return nil, err
	}

	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// registerDefaults declares every config key with its default so that
// environment variables are honored for keys absent from the config file
func registerDefaults(v *viper.Viper, defaults *model.Config) error {
	data, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}

	for key, value := range flatten("", tree) {
		v.SetDefault(key, value)
	}

	// Omitted from the YAML defaults but still settable
	for _, key := range []string{"llm.api_key", "llm.base_url", "log.file", "http.http_proxy", "http.https_proxy", "http.no_proxy"} {
		v.SetDefault(key, "")
	}
	return nil
}

func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// bindFlags binds the named command flags to config keys. Called from
// PreRunE so that commands sharing a key do not overwrite each other's binding.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// app holds what every pipeline-running command needs
type app struct {
	config   *model.Config
	logger   *logrus.Logger
	pipeline *pipeline.Pipeline
	closeLog func() error
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(cfg.Log, verbose)
	if err != nil {
		return nil, err
	}

	upstream := worker.NewLimiter(cfg.RateLimiting.UpstreamPerSecond, cfg.RateLimiting.BurstSize)
	p, err := pipeline.NewFromConfig(cfg, upstream, logger)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	return &app{
		config:   cfg,
		logger:   logger,
		pipeline: p,
		closeLog: closer.Close,
	}, nil
}
