package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_FILE", "PROFILE", "PORT", "LOG_LEVEL", "LOG_FORMAT", "CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT",
	"DATABASE_DRIVER", "DATABASE_URL", "DATABASE_PATH", "SSL_CERT_PATH",
	"LLM_PROVIDER", "LLM_API_KEY", "GROQ_API_KEY", "GEMINI_API_KEY", "LLM_MODEL", "LLM_BASE_URL",
	"LLM_TIMEOUT", "LLM_REQUESTS_PER_SECOND", "LLM_TEMPERATURE", "MODEL_MAX_RETRIES", "MODEL_RETRY_BASE_DELAY",
	"CONTEXT_TOKENS", "REPLY_TOKENS", "CHUNK_SIZE", "CHUNK_OVERLAP", "RETRIEVAL_TOP_K", "RETRIEVAL_INCLUDE_ZERO_SCORE",
	"AWS_ACCESS_KEY", "AWS_SECRET_KEY", "AWS_REGION", "BUCKET_NAME", "ARCHIVE_WORKERS",
}

// isolate blanks every variable LoadConfig reads and runs the test from an
// empty directory so no .env or profile file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "./data/botgpt.db", cfg.DatabasePath)
	assert.Equal(t, ProviderGroq, cfg.LLMProvider)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLMModel)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.InDelta(t, 0.7, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, 8000, cfg.ContextTokens)
	assert.Equal(t, 1000, cfg.ReplyTokens)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.RetrievalTopK)
	assert.True(t, cfg.IncludeZeroScore())
	assert.Equal(t, 3, cfg.ModelMaxRetries)
	assert.Equal(t, time.Second, cfg.ModelRetryBaseDelay)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoadConfig_FileThenEnvPrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "settings.yaml")
	content := `
port: "9000"
database_path: "./db/test.db"
llm_provider: mock
llm_timeout: 30s
chunk_size: 200
chunk_overlap: 20
retrieval_include_zero_score: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CHUNK_SIZE", "300")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, filepath.Join(dir, "db", "test.db"), cfg.DatabasePath)
	assert.Equal(t, ProviderMock, cfg.LLMProvider)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 300, cfg.ChunkSize, "environment wins over the file")
	assert.Equal(t, 20, cfg.ChunkOverlap)
	assert.False(t, cfg.IncludeZeroScore())
}

func TestLoadConfig_ProfileFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "botgpt-dev.yaml"), []byte("reply_tokens: 500\n"), 0o600))
	t.Setenv("PROFILE", "dev")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.ReplyTokens)
}

func TestLoadConfig_GroqKeyFallback(t *testing.T) {
	isolate(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "gsk-test", cfg.LLMAPIKey)
}

func TestLoadConfig_Errors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"bad int", map[string]string{"CHUNK_SIZE": "big"}},
		{"bad duration", map[string]string{"LLM_TIMEOUT": "soon"}},
		{"bad bool", map[string]string{"RETRIEVAL_INCLUDE_ZERO_SCORE": "maybe"}},
		{"postgres without url", map[string]string{"DATABASE_DRIVER": "postgres"}},
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "mysql"}},
		{"unknown provider", map[string]string{"LLM_PROVIDER": "openai"}},
		{"overlap not below size", map[string]string{"CHUNK_SIZE": "100", "CHUNK_OVERLAP": "100"}},
		{"reply exceeds context", map[string]string{"CONTEXT_TOKENS": "1000", "REPLY_TOKENS": "1000"}},
		{"missing config file", map[string]string{"CONFIG_FILE": "/does/not/exist.yaml"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestLoadConfig_DurationAsSeconds(t *testing.T) {
	isolate(t)
	t.Setenv("REQUEST_TIMEOUT", "45")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
}

func TestLoadConfig_CORSList(t *testing.T) {
	isolate(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}
