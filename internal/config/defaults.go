package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 120 * time.Second
	}
	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = DriverSQLite
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "./data/botgpt.db"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = ProviderGroq
	}
	if cfg.LLMModel == "" {
		switch cfg.LLMProvider {
		case ProviderGemini:
			cfg.LLMModel = "gemini-1.5-flash"
		default:
			cfg.LLMModel = "llama-3.1-8b-instant"
		}
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.LLMTimeout == 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	if cfg.LLMTemperature == 0 {
		cfg.LLMTemperature = 0.7
	}
	if cfg.ModelMaxRetries == 0 {
		cfg.ModelMaxRetries = 3
	}
	if cfg.ModelRetryBaseDelay == 0 {
		cfg.ModelRetryBaseDelay = time.Second
	}
	if cfg.ContextTokens == 0 {
		cfg.ContextTokens = 8000
	}
	if cfg.ReplyTokens == 0 {
		cfg.ReplyTokens = 1000
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 500
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = 50
	}
	if cfg.RetrievalTopK == 0 {
		cfg.RetrievalTopK = 3
	}
	if cfg.AwsRegion == "" {
		cfg.AwsRegion = "us-east-2"
	}
	if cfg.ArchiveWorkers == 0 {
		cfg.ArchiveWorkers = 2
	}
}
