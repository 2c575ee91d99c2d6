package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/joho/godotenv"
)

const secretName = "git_posts"

// SecretsManagerInterface defines the Secrets Manager methods we use.
type SecretsManagerInterface interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// loadAWSConfig is swapped in tests.
var loadAWSConfig = awsconfig.LoadDefaultConfig

// SecretManagerFunc returns a Secrets Manager client; swapped in tests.
var SecretManagerFunc = func() (SecretsManagerInterface, error) {
	cfg, err := loadAWSConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// loadEnvFile is swapped in tests; godotenv is a no-op when no .env exists.
var loadEnvFile = func() { _ = godotenv.Load() }

// LoadConfig fetches credentials from Secrets Manager and merges the
// non-secret settings from the environment (optionally a local .env file).
func LoadConfig() (*Config, error) {
	loadEnvFile()

	svc, err := SecretManagerFunc()
	if err != nil {
		return nil, err
	}

	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	}
	result, err := svc.GetSecretValue(context.TODO(), input)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve secret: %w", err)
	}

	secrets := &Secrets{}
	if err := json.Unmarshal([]byte(*result.SecretString), secrets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal secret string: %w", err)
	}
	if secrets.GitHubToken == "" {
		return nil, fmt.Errorf("github token is required")
	}
	if secrets.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	cfg := &Config{
		GitHubToken:      secrets.GitHubToken,
		GeminiAPIKey:     secrets.GeminiAPIKey,
		MongoDBURI:       secrets.MongoDBURI,
		Region:           secrets.Region,
		Repos:            splitRepos(os.Getenv("GITHUB_REPOS")),
		GeminiModel:      envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		TargetAudience:   envOr("TARGET_AUDIENCE", "general"),
		OutputDir:        envOr("OUTPUT_DIR", "data/posts"),
		CommitDataDir:    envOr("COMMIT_DATA_DIR", "data/commits"),
		ListenAddr:       envOr("LISTEN_ADDR", ":8080"),
		PollInterval:     envDurationOr("POLL_INTERVAL", time.Hour),
		BatchConcurrency: envIntOr("BATCH_CONCURRENCY", 4),
		MaxPostLength:    envIntOr("MAX_POST_LENGTH", 280),
	}
	return cfg, nil
}

func splitRepos(s string) []string {
	parts := strings.Split(s, ",")
	repos := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			repos = append(repos, p)
		}
	}
	return repos
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
