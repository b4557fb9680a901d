package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pdf-quiz-service/internal/app"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		UploadDir      string   `yaml:"upload_dir"`
		MaxUploadMB    int64    `yaml:"max_upload_mb"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	LLM struct {
		Provider     string            `yaml:"provider"`
		BaseURL      string            `yaml:"base_url"`
		APIKey       string            `yaml:"api_key"`
		DefaultModel string            `yaml:"default_model"`
		Models       []app.ModelOption `yaml:"models"`
		Temperature  float64           `yaml:"temperature"`
		Timeout      string            `yaml:"timeout"`
	} `yaml:"llm"`
	Document struct {
		Extractor    string `yaml:"extractor"`
		ChunkSize    int    `yaml:"chunk_size"`
		ChunkOverlap int    `yaml:"chunk_overlap"`
		CacheTTL     string `yaml:"cache_ttl"`
	} `yaml:"document"`
	Quiz struct {
		HintFile         string `yaml:"hint_file"`
		DefaultQuestions int    `yaml:"default_questions"`
		MaxQuestions     int    `yaml:"max_questions"`
	} `yaml:"quiz"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Tracing struct {
		Enabled     bool   `yaml:"enabled"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"tracing"`
}

// Load reads YAML config from path, then applies environment overrides
// (a .env file in the working directory is loaded first if present) and
// defaults. A missing config file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"PORT":         &c.Server.Port,
		"UPLOAD_DIR":   &c.Server.UploadDir,
		"LOG_LEVEL":    &c.Log.Level,
		"LOG_FORMAT":   &c.Log.Format,
		"LLM_PROVIDER": &c.LLM.Provider,
		"LLM_BASE_URL": &c.LLM.BaseURL,
		"LLM_API_KEY":  &c.LLM.APIKey,
		"REDIS_ADDR":   &c.Redis.Addr,
		"POSTGRES_URL": &c.Postgres.URL,
	}
	for key, dst := range overrides {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.Port, "8080")
	setDefault(&c.Server.UploadDir, "data")
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = 20
	}
	setDefault(&c.Log.Level, "info")
	setDefault(&c.Log.Format, "json")
	setDefault(&c.LLM.Provider, "ollama")
	if len(c.LLM.Models) == 0 {
		c.LLM.Models = app.DefaultModels()
	}
	setDefault(&c.LLM.DefaultModel, c.LLM.Models[0].ID)
	setDefault(&c.Document.Extractor, "builtin")
	if c.Document.ChunkSize <= 0 {
		c.Document.ChunkSize = 2000
	}
	if c.Document.ChunkOverlap <= 0 {
		c.Document.ChunkOverlap = 200
	}
	if c.Quiz.DefaultQuestions <= 0 {
		c.Quiz.DefaultQuestions = 5
	}
	if c.Quiz.MaxQuestions <= 0 {
		c.Quiz.MaxQuestions = 20
	}
	setDefault(&c.Tracing.ServiceName, "pdf-quiz-service")
}

// MaxUploadBytes returns the upload limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB * 1024 * 1024
}

func setDefault(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
