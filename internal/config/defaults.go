package config

import (
	"path/filepath"
	"time"
)

const (
	defaultDebounce      = 300 * time.Millisecond
	defaultPublishBranch = "gh-pages"
	defaultPublishMsg    = "Update build with latest master changes"
	defaultBannerTitle   = "Bootstrap Colorpicker"
)

func applyDefaults(cfg *Config) {
	setString(&cfg.Package, "package.json")
	setString(&cfg.Banner.Title, defaultBannerTitle)

	setString(&cfg.Paths.Dist, "dist")
	setString(&cfg.Paths.Build, "build")
	setString(&cfg.Paths.Docs, filepath.Join(cfg.Paths.Build, "docs"))
	setString(&cfg.Paths.Src, "src")

	setCommand(&cfg.JS.Bundler, "npx", "webpack", "--config", "webpack.config.js")

	setString(&cfg.CSS.Entry, filepath.Join(cfg.Paths.Src, "sass", "colorpicker.scss"))
	setString(&cfg.CSS.Output, "bootstrap-colorpicker.css")
	setCommand(&cfg.CSS.Sass, "npx", "sass")

	setString(&cfg.Tutorials.Partials, filepath.Join(cfg.Paths.Src, "hbs"))
	setString(&cfg.Tutorials.Pages, filepath.Join(cfg.Tutorials.Partials, "tutorials"))
	setString(&cfg.Tutorials.Index, filepath.Join(cfg.Tutorials.Pages, "tutorials.json"))

	setCommand(&cfg.Docs.Generator, filepath.Join("node_modules", ".bin", "jsdoc"), "--configure", ".jsdoc.json", "--verbose")
	setString(&cfg.Docs.V2Branch, "v2")

	setString(&cfg.Publish.Branch, defaultPublishBranch)
	setString(&cfg.Publish.Message, defaultPublishMsg)
	setString(&cfg.Publish.AuthorName, "buildseq")
	setString(&cfg.Publish.AuthorEmail, "buildseq@localhost")
	setCommand(&cfg.Publish.NPM, "npm", "publish")
	if len(cfg.Publish.Files) == 0 {
		cfg.Publish.Files = []string{"LICENSE", "README.md"}
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = defaultDebounce
	}
	if len(cfg.Watch.Rules) == 0 {
		cfg.Watch.Rules = []WatchRule{
			{Pattern: filepath.ToSlash(filepath.Join(cfg.Paths.Src, "hbs")) + "/**/*.hbs", Task: "docs"},
			{Pattern: filepath.ToSlash(filepath.Join(cfg.Paths.Src, "sass")) + "/**/*.scss", Task: "css"},
			{Pattern: filepath.ToSlash(filepath.Join(cfg.Paths.Src, "js")) + "/**/*.js", Task: "js"},
		}
	}

	setString(&cfg.History.Path, filepath.Join(".buildseq", "history.db"))
	setString(&cfg.Events.Subject, "buildseq")

	if cfg.Retry.Mode == "" {
		cfg.Retry.Mode = RetryBackoffExponential
	} else if m := NormalizeRetryBackoff(string(cfg.Retry.Mode)); m != "" {
		cfg.Retry.Mode = m
	}
	if cfg.Retry.Initial <= 0 {
		cfg.Retry.Initial = time.Second
	}
	if cfg.Retry.Max <= 0 {
		cfg.Retry.Max = 30 * time.Second
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 2
	}
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setCommand(dst *Command, name string, args ...string) {
	if dst.Name == "" && len(dst.Args) == 0 {
		dst.Name = name
		dst.Args = args
	}
}
