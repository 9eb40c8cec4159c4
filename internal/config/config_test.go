package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv removes every variable Load consults so tests do not pick up
// CI runner state.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LEADERBOARD_SOURCE_KIND", "LEADERBOARD_SOURCE_ROOT", "LEADERBOARD_SOURCE_SNAPSHOT",
		"LEADERBOARD_GITHUB_OWNER", "LEADERBOARD_GITHUB_REPO", "LEADERBOARD_GITHUB_BRANCH",
		"LEADERBOARD_GITHUB_TOKEN_FILE", "LEADERBOARD_GITHUB_TOKEN", "LEADERBOARD_DIR_PATH",
		"LEADERBOARD_HTTP_ADDR", "LEADERBOARD_SHUTDOWN_TIMEOUT", "LEADERBOARD_CRAWL_PARALLELISM",
		"LEADERBOARD_CORS_ORIGINS", "GITHUB_REPOSITORY", "GITHUB_REF_NAME", "GITHUB_TOKEN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithOwnerFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEADERBOARD_GITHUB_OWNER", "acme")
	t.Setenv("LEADERBOARD_GITHUB_REPO", "results")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source.Kind != KindGitHub || cfg.Source.Root != "submission" {
		t.Fatalf("defaults: kind=%q root=%q", cfg.Source.Kind, cfg.Source.Root)
	}
	if cfg.Source.GitHub.Branch != "main" {
		t.Fatalf("expected default branch main got %q", cfg.Source.GitHub.Branch)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.HTTP.Shutdown() != 10*time.Second {
		t.Fatalf("http defaults: addr=%q shutdown=%v", cfg.HTTP.Addr, cfg.HTTP.Shutdown())
	}
	if cfg.Crawl.Parallelism != 8 {
		t.Fatalf("expected default parallelism 8 got %d", cfg.Crawl.Parallelism)
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
source:
  kind: github
  github:
    owner: acme
    repo: results
    branch: release
http:
  addr: ":9090"
  shutdown_timeout: 5s
crawl:
  parallelism: 4
`)
	t.Setenv("LEADERBOARD_HTTP_ADDR", ":7070")
	t.Setenv("LEADERBOARD_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("env must override file, got %q", cfg.HTTP.Addr)
	}
	if cfg.Source.GitHub.Branch != "release" || cfg.Crawl.Parallelism != 4 {
		t.Fatalf("file values lost: branch=%q parallelism=%d", cfg.Source.GitHub.Branch, cfg.Crawl.Parallelism)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: %v", cfg.HTTP.CORSOrigins)
	}
}

func TestActionsEnvConvenience(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_REPOSITORY", "acme/results")
	t.Setenv("GITHUB_REF_NAME", "gh-pages")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source.GitHub.Owner != "acme" || cfg.Source.GitHub.Repo != "results" {
		t.Fatalf("expected owner/repo from GITHUB_REPOSITORY, got %q/%q", cfg.Source.GitHub.Owner, cfg.Source.GitHub.Repo)
	}
	if cfg.Source.GitHub.Branch != "gh-pages" {
		t.Fatalf("expected branch from GITHUB_REF_NAME got %q", cfg.Source.GitHub.Branch)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "unknown kind", mutate: func(c *Config) { c.Source.Kind = "ftp" }, wantErr: true},
		{name: "github without owner", mutate: func(c *Config) { c.Source.GitHub.Owner = "" }, wantErr: true},
		{name: "dir needs no owner", mutate: func(c *Config) { c.Source.Kind = KindDir; c.Source.GitHub = GitHub{} }},
		{name: "zero parallelism", mutate: func(c *Config) { c.Crawl.Parallelism = 0 }, wantErr: true},
		{name: "bad shutdown", mutate: func(c *Config) { c.HTTP.ShutdownTimeout = "soon" }, wantErr: true},
		{name: "empty addr", mutate: func(c *Config) { c.HTTP.Addr = " " }, wantErr: true},
	}
	for _, tc := range tests {
		cfg := defaults()
		cfg.Source.GitHub.Owner = "acme"
		cfg.Source.GitHub.Repo = "results"
		tc.mutate(&cfg)
		err := cfg.Validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: expected err=%v got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestGitHubTokenResolution(t *testing.T) {
	clearEnv(t)
	cfg := defaults()

	tok, err := cfg.GitHubToken()
	if err != nil || tok != "" {
		t.Fatalf("no token configured: expected empty, got %q err=%v", tok, err)
	}

	file := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(file, []byte("  file-token\n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	cfg.Source.GitHub.TokenFile = file
	tok, err = cfg.GitHubToken()
	if err != nil || tok != "file-token" {
		t.Fatalf("expected trimmed file token, got %q err=%v", tok, err)
	}

	t.Setenv("LEADERBOARD_GITHUB_TOKEN", "env-token")
	tok, err = cfg.GitHubToken()
	if err != nil || tok != "env-token" {
		t.Fatalf("environment must win over the file, got %q err=%v", tok, err)
	}

	cfg.Source.GitHub.TokenFile = filepath.Join(t.TempDir(), "missing")
	os.Unsetenv("LEADERBOARD_GITHUB_TOKEN")
	tok, err = cfg.GitHubToken()
	if err != nil || tok != "" {
		t.Fatalf("missing token file is not an error, got %q err=%v", tok, err)
	}
}
