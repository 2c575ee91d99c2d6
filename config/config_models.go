package config

import "time"

// Secrets holds the credential material pulled from AWS Secrets Manager.
type Secrets struct {
	GitHubToken  string `json:"github_token"`
	GeminiAPIKey string `json:"gemini_api_key"`
	MongoDBURI   string `json:"mongodb_uri"`
	Region       string `json:"region"`
}

// Config is the process-wide configuration, loaded once at startup and passed
// explicitly to the components that need it.
type Config struct {
	GitHubToken  string
	GeminiAPIKey string
	MongoDBURI   string
	Region       string

	// Repos is the repository allowlist ("owner/name" entries).
	Repos []string

	GeminiModel    string
	TargetAudience string

	OutputDir     string
	CommitDataDir string

	ListenAddr       string
	PollInterval     time.Duration
	BatchConcurrency int
	MaxPostLength    int
}
