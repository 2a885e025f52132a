package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the assistant.
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Server     ServerConfig     `mapstructure:"server"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Transcript TranscriptConfig `mapstructure:"transcript"`
	Summary    SummaryConfig    `mapstructure:"summary"`
	QA         QAConfig         `mapstructure:"qa"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug           bool   `mapstructure:"debug"`
	DefaultLanguage string `mapstructure:"default_language"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains completion-service settings.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.APIKey) == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model is required")
	}
	return nil
}

// TranscriptConfig bounds transcript fetching and normalization.
type TranscriptConfig struct {
	MaxChars           int           `mapstructure:"max_chars"`
	MaxLines           int           `mapstructure:"max_lines"`
	PreferredLanguages []string      `mapstructure:"preferred_languages"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
}

func (t TranscriptConfig) Validate() error {
	if t.MaxChars <= 0 {
		return fmt.Errorf("transcript.max_chars must be > 0")
	}
	if t.MaxLines <= 0 {
		return fmt.Errorf("transcript.max_lines must be > 0")
	}
	return nil
}

// SummaryConfig bounds the chunked compression engine.
type SummaryConfig struct {
	ChunkChars       int `mapstructure:"chunk_chars"`
	MaxChunks        int `mapstructure:"max_chunks"`
	ChunkConcurrency int `mapstructure:"chunk_concurrency"`
}

func (s SummaryConfig) Validate() error {
	if s.ChunkChars <= 0 {
		return fmt.Errorf("summary.chunk_chars must be > 0")
	}
	if s.ChunkConcurrency <= 0 {
		return fmt.Errorf("summary.chunk_concurrency must be > 0")
	}
	return nil
}

// QAConfig bounds grounded question answering.
type QAConfig struct {
	TopK         int `mapstructure:"top_k"`
	MinOverlap   int `mapstructure:"min_overlap"`
	HistoryDepth int `mapstructure:"history_depth"`
}

func (q QAConfig) Validate() error {
	if q.TopK <= 0 {
		return fmt.Errorf("qa.top_k must be > 0")
	}
	if q.MinOverlap <= 0 {
		return fmt.Errorf("qa.min_overlap must be > 0")
	}
	if q.HistoryDepth <= 0 {
		return fmt.Errorf("qa.history_depth must be > 0")
	}
	return nil
}

// StorageConfig selects and configures the session store backend.
type StorageConfig struct {
	Driver   string         `mapstructure:"driver"` // inmemory, redis, postgres
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

func (s StorageConfig) Validate() error {
	switch s.Driver {
	case "inmemory":
		return nil
	case "redis":
		return s.Redis.Validate()
	case "postgres":
		return s.Postgres.Validate()
	default:
		return fmt.Errorf("storage.driver must be one of inmemory, redis, postgres")
	}
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

// PostgresConfig contains Postgres connection settings.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a postgres connection string from the configured parts.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

func setDefaults() {
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.default_language", "English")
	viper.SetDefault("server.address", ":8090")
	// Empty defaults so AutomaticEnv can see these keys during Unmarshal.
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.base_url", "")
	viper.SetDefault("storage.redis.host", "")
	viper.SetDefault("storage.redis.port", "")
	viper.SetDefault("storage.redis.password", "")
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.postgres.url", "")
	viper.SetDefault("storage.postgres.host", "")
	viper.SetDefault("storage.postgres.port", "")
	viper.SetDefault("storage.postgres.user", "")
	viper.SetDefault("storage.postgres.password", "")
	viper.SetDefault("storage.postgres.dbname", "")
	viper.SetDefault("storage.postgres.sslmode", "")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.max_tokens", 2048)
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("llm.max_retries", 2)
	viper.SetDefault("llm.backoff", "500ms")
	viper.SetDefault("transcript.max_chars", 120000)
	viper.SetDefault("transcript.max_lines", 5000)
	viper.SetDefault("transcript.preferred_languages", []string{"en", "hi", "ta", "te", "kn"})
	viper.SetDefault("transcript.fetch_timeout", "15s")
	viper.SetDefault("summary.chunk_chars", 12000)
	viper.SetDefault("summary.max_chunks", 6)
	viper.SetDefault("summary.chunk_concurrency", 3)
	viper.SetDefault("qa.top_k", 12)
	viper.SetDefault("qa.min_overlap", 1)
	viper.SetDefault("qa.history_depth", 8)
	viper.SetDefault("storage.driver", "inmemory")
}

// LoadConfig reads configuration from an optional file plus TUBEBRIEF_*
// environment variables and validates every section.
func LoadConfig(path string) (*Config, error) {
	viper.Reset()
	setDefaults()

	if path == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("TUBEBRIEF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A discovered config file is optional: defaults plus env vars are a
		// complete setup. An explicitly passed path must exist.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Transcript.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Summary.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.QA.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
