package config

import (
	"errors"
	"fmt"
)

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	var errs []error

	required := map[string]Command{
		"js.bundler":     cfg.JS.Bundler,
		"css.sass":       cfg.CSS.Sass,
		"docs.generator": cfg.Docs.Generator,
		"publish.npm":    cfg.Publish.NPM,
	}
	for _, field := range []string{"js.bundler", "css.sass", "docs.generator", "publish.npm"} {
		if required[field].IsZero() {
			errs = append(errs, fmt.Errorf("%s: command name cannot be empty", field))
		}
	}
	optional := map[string]Command{
		"css.autoprefixer": cfg.CSS.Autoprefixer,
		"css.minifier":     cfg.CSS.Minifier,
	}
	for _, field := range []string{"css.autoprefixer", "css.minifier"} {
		if c := optional[field]; c.IsZero() && len(c.Args) > 0 {
			errs = append(errs, fmt.Errorf("%s: args given without a command name", field))
		}
	}

	for i, rule := range cfg.Watch.Rules {
		if rule.Pattern == "" {
			errs = append(errs, fmt.Errorf("watch.rules[%d]: pattern cannot be empty", i))
		}
		if rule.Task == "" {
			errs = append(errs, fmt.Errorf("watch.rules[%d]: task cannot be empty", i))
		}
	}

	if cfg.Run.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("run.concurrency: must be >= 0, got %d", cfg.Run.Concurrency))
	}
	if cfg.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry.max_retries: must be >= 0, got %d", cfg.Retry.MaxRetries))
	}
	if NormalizeRetryBackoff(string(cfg.Retry.Mode)) == "" {
		errs = append(errs, fmt.Errorf("retry.mode: unsupported value %q", cfg.Retry.Mode))
	}
	if cfg.Publish.Auth != nil {
		switch cfg.Publish.Auth.Type {
		case "", AuthTypeNone, AuthTypeSSH, AuthTypeToken, AuthTypeBasic:
		default:
			errs = append(errs, fmt.Errorf("publish.auth.type: unsupported value %q", cfg.Publish.Auth.Type))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
