// Package config loads the crawler/server settings from an optional YAML
// file with environment overrides on top. Secrets (API tokens, bucket
// credentials) never live in the file; they come from token files or the
// environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/energy-blueprint/leaderboard/internal/platform/env"
)

const (
	KindGitHub = "github"
	KindBucket = "bucket"
	KindDir    = "dir"
)

type GitHub struct {
	Owner     string `yaml:"owner"`
	Repo      string `yaml:"repo"`
	Branch    string `yaml:"branch"`
	TokenFile string `yaml:"token_file"`
}

type Dir struct {
	Path string `yaml:"path"`
}

type Source struct {
	Kind     string `yaml:"kind"`
	Root     string `yaml:"root"`
	Snapshot string `yaml:"snapshot"`
	GitHub   GitHub `yaml:"github"`
	Dir      Dir    `yaml:"dir"`
}

type Crawl struct {
	Parallelism int `yaml:"parallelism"`
}

type HTTP struct {
	Addr            string   `yaml:"addr"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	CORSOrigins     []string `yaml:"cors_origins"`

	shutdown time.Duration
}

type Config struct {
	Source Source `yaml:"source"`
	Crawl  Crawl  `yaml:"crawl"`
	HTTP   HTTP   `yaml:"http"`
}

// Load reads the file at path when it is non-empty, applies environment
// overrides, and validates. An empty path yields defaults plus env.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Source: Source{
			Kind: KindGitHub,
			Root: "submission",
			GitHub: GitHub{
				Branch: "main",
			},
			Dir: Dir{Path: "."},
		},
		Crawl: Crawl{Parallelism: 8},
		HTTP: HTTP{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
			CORSOrigins:     []string{"*"},
		},
	}
}

func (c *Config) applyEnv() error {
	c.Source.Kind = env.String("LEADERBOARD_SOURCE_KIND", c.Source.Kind)
	c.Source.Root = env.String("LEADERBOARD_SOURCE_ROOT", c.Source.Root)
	c.Source.Snapshot = env.String("LEADERBOARD_SOURCE_SNAPSHOT", c.Source.Snapshot)
	// CI convenience: the same variables the Actions runner exports.
	if repo := os.Getenv("GITHUB_REPOSITORY"); repo != "" && c.Source.GitHub.Owner == "" {
		if owner, name, ok := strings.Cut(repo, "/"); ok {
			c.Source.GitHub.Owner = owner
			c.Source.GitHub.Repo = name
		}
	}
	if ref := os.Getenv("GITHUB_REF_NAME"); ref != "" {
		c.Source.GitHub.Branch = ref
	}
	c.Source.GitHub.Owner = env.String("LEADERBOARD_GITHUB_OWNER", c.Source.GitHub.Owner)
	c.Source.GitHub.Repo = env.String("LEADERBOARD_GITHUB_REPO", c.Source.GitHub.Repo)
	c.Source.GitHub.Branch = env.String("LEADERBOARD_GITHUB_BRANCH", c.Source.GitHub.Branch)
	c.Source.GitHub.TokenFile = env.String("LEADERBOARD_GITHUB_TOKEN_FILE", c.Source.GitHub.TokenFile)
	c.Source.Dir.Path = env.String("LEADERBOARD_DIR_PATH", c.Source.Dir.Path)
	c.HTTP.Addr = env.String("LEADERBOARD_HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.ShutdownTimeout = env.String("LEADERBOARD_SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout)

	parallel, err := env.Int("LEADERBOARD_CRAWL_PARALLELISM", c.Crawl.Parallelism)
	if err != nil {
		return err
	}
	c.Crawl.Parallelism = parallel

	if origins := env.String("LEADERBOARD_CORS_ORIGINS", ""); origins != "" {
		c.HTTP.CORSOrigins = splitList(origins)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Source.Kind {
	case KindGitHub:
		if strings.TrimSpace(c.Source.GitHub.Owner) == "" {
			return fmt.Errorf("github owner is required")
		}
		if strings.TrimSpace(c.Source.GitHub.Repo) == "" {
			return fmt.Errorf("github repo is required")
		}
	case KindBucket, KindDir:
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
	if c.Crawl.Parallelism <= 0 {
		return fmt.Errorf("crawl parallelism must be positive")
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("http addr is required")
	}
	d, err := time.ParseDuration(c.HTTP.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("parse shutdown_timeout: %w", err)
	}
	c.HTTP.shutdown = d
	return nil
}

// Shutdown returns the parsed shutdown timeout.
func (h HTTP) Shutdown() time.Duration { return h.shutdown }

// GitHubToken resolves the API token: environment first, then the token
// file. An absent token means anonymous access.
func (c Config) GitHubToken() (string, error) {
	for _, key := range []string{"LEADERBOARD_GITHUB_TOKEN", "GITHUB_TOKEN"} {
		if tok := strings.TrimSpace(os.Getenv(key)); tok != "" {
			return tok, nil
		}
	}
	if c.Source.GitHub.TokenFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.Source.GitHub.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
