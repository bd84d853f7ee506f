package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported DATABASE_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported LLM_PROVIDER values.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

type Config struct {
	Port           string        `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigins    []string      `yaml:"cors_allowed_origins"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`

	DatabaseDriver string `yaml:"database_driver"`
	DatabaseURL    string `yaml:"database_url"`
	DatabasePath   string `yaml:"database_path"`
	SslCertPath    string `yaml:"ssl_cert_path"`

	LLMProvider          string        `yaml:"llm_provider"`
	LLMAPIKey            string        `yaml:"llm_api_key"`
	GeminiAPIKey         string        `yaml:"gemini_api_key"`
	LLMModel             string        `yaml:"llm_model"`
	LLMBaseURL           string        `yaml:"llm_base_url"`
	LLMTimeout           time.Duration `yaml:"llm_timeout"`
	LLMRequestsPerSecond float64       `yaml:"llm_requests_per_second"`
	LLMTemperature       float64       `yaml:"llm_temperature"`
	ModelMaxRetries      int           `yaml:"model_max_retries"`
	ModelRetryBaseDelay  time.Duration `yaml:"model_retry_base_delay"`

	ContextTokens             int   `yaml:"context_tokens"`
	ReplyTokens               int   `yaml:"reply_tokens"`
	ChunkSize                 int   `yaml:"chunk_size"`
	ChunkOverlap              int   `yaml:"chunk_overlap"`
	RetrievalTopK             int   `yaml:"retrieval_top_k"`
	RetrievalIncludeZeroScore *bool `yaml:"retrieval_include_zero_score"`

	AwsAccessKey   string `yaml:"aws_access_key"`
	AwsSecretKey   string `yaml:"aws_secret_key"`
	AwsRegion      string `yaml:"aws_region"`
	BucketName     string `yaml:"bucket_name"`
	ArchiveWorkers int    `yaml:"archive_workers"`
}

// IncludeZeroScore reports whether retrieval pads results with chunks that
// share no keyword with the query; defaults to true when unset.
func (c *Config) IncludeZeroScore() bool {
	if c.RetrievalIncludeZeroScore != nil {
		return *c.RetrievalIncludeZeroScore
	}
	return true
}

// ArchiveEnabled reports whether original uploads go to object storage.
func (c *Config) ArchiveEnabled() bool {
	return c.BucketName != "" && c.AwsAccessKey != "" && c.AwsSecretKey != ""
}

// LoadConfig builds the configuration from, in increasing precedence,
// built-in defaults, an optional YAML file and the environment (.env is
// loaded first when present).
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	path, err := configFilePath()
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	cfg.DatabaseDriver = strings.ToLower(getEnv("DATABASE_DRIVER", cfg.DatabaseDriver))
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.SslCertPath = getEnv("SSL_CERT_PATH", cfg.SslCertPath)

	cfg.LLMProvider = strings.ToLower(getEnv("LLM_PROVIDER", cfg.LLMProvider))
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", getEnv("GROQ_API_KEY", cfg.LLMAPIKey))
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.LLMBaseURL = getEnv("LLM_BASE_URL", cfg.LLMBaseURL)

	cfg.AwsAccessKey = getEnv("AWS_ACCESS_KEY", cfg.AwsAccessKey)
	cfg.AwsSecretKey = getEnv("AWS_SECRET_KEY", cfg.AwsSecretKey)
	cfg.AwsRegion = getEnv("AWS_REGION", cfg.AwsRegion)
	cfg.BucketName = getEnv("BUCKET_NAME", cfg.BucketName)

	var err error
	set := func(e error) {
		if err == nil {
			err = e
		}
	}
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout, set)
	cfg.LLMTimeout = getEnvDuration("LLM_TIMEOUT", cfg.LLMTimeout, set)
	cfg.ModelRetryBaseDelay = getEnvDuration("MODEL_RETRY_BASE_DELAY", cfg.ModelRetryBaseDelay, set)
	cfg.LLMRequestsPerSecond = getEnvFloat("LLM_REQUESTS_PER_SECOND", cfg.LLMRequestsPerSecond, set)
	cfg.LLMTemperature = getEnvFloat("LLM_TEMPERATURE", cfg.LLMTemperature, set)
	cfg.ModelMaxRetries = getEnvInt("MODEL_MAX_RETRIES", cfg.ModelMaxRetries, set)
	cfg.ContextTokens = getEnvInt("CONTEXT_TOKENS", cfg.ContextTokens, set)
	cfg.ReplyTokens = getEnvInt("REPLY_TOKENS", cfg.ReplyTokens, set)
	cfg.ChunkSize = getEnvInt("CHUNK_SIZE", cfg.ChunkSize, set)
	cfg.ChunkOverlap = getEnvInt("CHUNK_OVERLAP", cfg.ChunkOverlap, set)
	cfg.RetrievalTopK = getEnvInt("RETRIEVAL_TOP_K", cfg.RetrievalTopK, set)
	cfg.ArchiveWorkers = getEnvInt("ARCHIVE_WORKERS", cfg.ArchiveWorkers, set)
	if v := getEnv("RETRIEVAL_INCLUDE_ZERO_SCORE", ""); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			set(fmt.Errorf("RETRIEVAL_INCLUDE_ZERO_SCORE=%q is not a boolean", v))
		} else {
			cfg.RetrievalIncludeZeroScore = &b
		}
	}
	return err
}

// Validate checks cross-field constraints after defaults are applied.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL not set")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DatabaseDriver)
	}
	switch c.LLMProvider {
	case ProviderGroq, ProviderGemini, ProviderMock:
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of groq, gemini, mock, got %q", c.LLMProvider)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d with CHUNK_SIZE %d", c.ChunkOverlap, c.ChunkSize)
	}
	if c.ReplyTokens >= c.ContextTokens {
		return fmt.Errorf("REPLY_TOKENS (%d) must be smaller than CONTEXT_TOKENS (%d)", c.ReplyTokens, c.ContextTokens)
	}
	if c.ModelMaxRetries < 0 {
		return fmt.Errorf("MODEL_MAX_RETRIES must not be negative")
	}
	return nil
}

// Helper to read environment variables with a default fallback. Empty
// values count as unset.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int, fail func(error)) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fail(fmt.Errorf("%s=%q is not an int", key, v))
		return def
	}
	return n
}

func getEnvFloat(key string, def float64, fail func(error)) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		fail(fmt.Errorf("%s=%q is not a number", key, v))
		return def
	}
	return f
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, def time.Duration, fail func(error)) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	fail(fmt.Errorf("%s=%q is not a duration", key, v))
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
