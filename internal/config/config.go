package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when no -c flag is given.
const DefaultPath = "buildseq.yaml"

// Config is the buildseq.yaml document.
type Config struct {
	Package   string          `yaml:"package"`
	Paths     PathsConfig     `yaml:"paths"`
	JS        JSConfig        `yaml:"js"`
	CSS       CSSConfig       `yaml:"css"`
	Tutorials TutorialsConfig `yaml:"tutorials"`
	Docs      DocsConfig      `yaml:"docs"`
	Publish   PublishConfig   `yaml:"publish"`
	Watch     WatchConfig     `yaml:"watch"`
	Run       RunConfig       `yaml:"run"`
	History   HistoryConfig   `yaml:"history"`
	Events    EventsConfig    `yaml:"events"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Banner    BannerConfig    `yaml:"banner"`
	Retry     RetryConfig     `yaml:"retry"`
}

// PathsConfig names the project directories. Relative paths resolve against the working directory.
type PathsConfig struct {
	Dist  string `yaml:"dist"`
	Build string `yaml:"build"`
	Docs  string `yaml:"docs"`
	Src   string `yaml:"src"`
}

// Command is an external tool invocation. An empty Name disables optional steps.
// Args may contain {input} and {output}; otherwise the step appends its own operands.
type Command struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args,omitempty"`
}

// IsZero reports whether the command is unset.
func (c Command) IsZero() bool { return c.Name == "" }

type JSConfig struct {
	Bundler Command `yaml:"bundler"`
}

type CSSConfig struct {
	Entry        string  `yaml:"entry"`
	Output       string  `yaml:"output"`
	Sass         Command `yaml:"sass"`
	Autoprefixer Command `yaml:"autoprefixer"`
	Minifier     Command `yaml:"minifier"`
}

type TutorialsConfig struct {
	Partials string `yaml:"partials"`
	Pages    string `yaml:"pages"`
	Index    string `yaml:"index"`
}

type DocsConfig struct {
	Generator Command `yaml:"generator"`
	V2Branch  string  `yaml:"v2_branch"`
}

// PublishConfig configures both the gh-pages push and the npm release.
type PublishConfig struct {
	Repository  string      `yaml:"repository"`
	Branch      string      `yaml:"branch"`
	Message     string      `yaml:"message"`
	AuthorName  string      `yaml:"author_name"`
	AuthorEmail string      `yaml:"author_email"`
	Auth        *AuthConfig `yaml:"auth,omitempty"`
	NPM         Command     `yaml:"npm"`
	Files       []string    `yaml:"files"`
}

type WatchRule struct {
	Pattern string `yaml:"pattern"`
	Task    string `yaml:"task"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Rules    []WatchRule   `yaml:"rules"`
}

type RunConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// HistoryConfig controls the SQLite run history. History is on unless Enabled is explicitly false.
type HistoryConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path"`
}

// IsEnabled reports whether runs should be recorded.
func (h HistoryConfig) IsEnabled() bool { return h.Enabled == nil || *h.Enabled }

type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

type BannerConfig struct {
	Title string `yaml:"title"`
}

// ErrNotFound is returned by Load when the configuration file does not exist.
var ErrNotFound = errors.New("configuration file not found")

// Load reads path, expands environment variables, applies defaults and validates the result.
// A missing file at the default path yields the defaults; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		data = nil
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content after environment expansion.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}
