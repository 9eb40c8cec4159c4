package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	githubAPI        = "https://api.github.com"
	githubAccept     = "application/vnd.github+json"
	githubAPIVersion = "2022-11-28"
)

// GitHubConfig identifies the repository holding the submission tree.
type GitHubConfig struct {
	Owner  string
	Repo   string
	Branch string

	// Token enables authenticated requests; anonymous access works but is
	// rate-limited hard enough to matter for a full crawl.
	Token string

	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string
}

func (c GitHubConfig) Validate() error {
	if strings.TrimSpace(c.Owner) == "" {
		return fmt.Errorf("github owner is required")
	}
	if strings.TrimSpace(c.Repo) == "" {
		return fmt.Errorf("github repo is required")
	}
	return nil
}

// GitHub reads the submission tree through the repository contents API.
type GitHub struct {
	cfg    GitHubConfig
	client *http.Client
}

// NewGitHub builds a contents-API source. When a token is configured the
// HTTP client carries it via an oauth2 static token source.
func NewGitHub(ctx context.Context, cfg GitHubConfig) (*GitHub, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = githubAPI
	}
	client := &http.Client{Timeout: 30 * time.Second}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		client = oauth2.NewClient(ctx, ts)
		client.Timeout = 30 * time.Second
	}
	return &GitHub{cfg: cfg, client: client}, nil
}

type githubEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

func (g *GitHub) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		g.cfg.BaseURL, g.cfg.Owner, g.cfg.Repo, path, url.QueryEscape(g.cfg.Branch))
}

func (g *GitHub) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", githubAccept)
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		resp.Body.Close()
		return nil, ErrPermission
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("github contents %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	return resp, nil
}

// List returns the entries under path. A 404 yields an empty listing:
// the crawl treats a missing directory as zero submissions.
func (g *GitHub) List(ctx context.Context, path string) ([]Entry, error) {
	resp, err := g.get(ctx, g.contentsURL(path))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	var items []githubEntry
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrMalformed, path, err)
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		t := TypeFile
		if item.Type == "dir" {
			t = TypeDir
		}
		entries = append(entries, Entry{Name: item.Name, Type: t, DownloadURL: item.DownloadURL})
	}
	return entries, nil
}

// Read fetches a file's contents: first the contents metadata for the
// download URL, then the raw payload.
func (g *GitHub) Read(ctx context.Context, path string) ([]byte, error) {
	resp, err := g.get(ctx, g.contentsURL(path))
	if err != nil {
		return nil, err
	}
	var item githubEntry
	decodeErr := json.NewDecoder(resp.Body).Decode(&item)
	resp.Body.Close()
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrMalformed, path, decodeErr)
	}
	if item.DownloadURL == "" {
		return nil, fmt.Errorf("%w: read %s: no download url", ErrMalformed, path)
	}

	raw, err := g.get(ctx, item.DownloadURL)
	if err != nil {
		return nil, err
	}
	defer raw.Body.Close()
	data, err := io.ReadAll(raw.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
