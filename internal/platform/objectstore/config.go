package objectstore

import (
	"errors"
	"strings"

	"github.com/energy-blueprint/leaderboard/internal/platform/env"
)

// Config locates the bucket mirroring the submission tree.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("LEADERBOARD_MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:  env.String("LEADERBOARD_MINIO_ENDPOINT", "localhost:9000"),
		AccessKey: env.String("LEADERBOARD_MINIO_ACCESS_KEY", "leaderboard"),
		SecretKey: env.String("LEADERBOARD_MINIO_SECRET_KEY", "leaderboardminio"),
		Region:    env.String("LEADERBOARD_MINIO_REGION", "us-east-1"),
		UseSSL:    useSSL,
		Bucket:    env.String("LEADERBOARD_MINIO_BUCKET", "submissions"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return errors.New("endpoint must not include a scheme")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("bucket is required")
	}
	return nil
}
