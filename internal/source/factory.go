package source

import (
	"context"
	"fmt"

	"github.com/energy-blueprint/leaderboard/internal/config"
	"github.com/energy-blueprint/leaderboard/internal/platform/objectstore"
)

// New builds the configured submission-tree source.
func New(ctx context.Context, cfg config.Config) (Source, error) {
	switch cfg.Source.Kind {
	case config.KindGitHub:
		token, err := cfg.GitHubToken()
		if err != nil {
			return nil, err
		}
		return NewGitHub(ctx, GitHubConfig{
			Owner:  cfg.Source.GitHub.Owner,
			Repo:   cfg.Source.GitHub.Repo,
			Branch: cfg.Source.GitHub.Branch,
			Token:  token,
		})
	case config.KindBucket:
		storeCfg, err := objectstore.ConfigFromEnv()
		if err != nil {
			return nil, err
		}
		client, err := objectstore.NewMinIOClient(storeCfg)
		if err != nil {
			return nil, err
		}
		// Fail at startup rather than on the first crawl: the service is
		// read-only and never creates the bucket itself.
		if err := objectstore.CheckBucket(ctx, client, storeCfg); err != nil {
			return nil, err
		}
		return NewBucketWithClient(client, storeCfg.Bucket)
	case config.KindDir:
		return NewDir(cfg.Source.Dir.Path), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
}
