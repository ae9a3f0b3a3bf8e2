package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Storage  StorageConfig  `koanf:"storage"`
	ASR      ASRConfig      `koanf:"asr"`
	FFmpeg   FFmpegConfig   `koanf:"ffmpeg"`
	Queue    QueueConfig    `koanf:"queue"`
	LLM      LLMConfig      `koanf:"llm"`
	Mail     MailConfig     `koanf:"mail"`
	Worker   WorkerConfig   `koanf:"worker"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type DatabaseConfig struct {
	URL            string `koanf:"url"`
	MaxConnections int    `koanf:"max_connections"`
}

type StorageConfig struct {
	BaseDir string `koanf:"base_dir"`
}

type ASRConfig struct {
	CredentialsPath string        `koanf:"credentials_path"`
	LanguageCode    string        `koanf:"language_code"`
	Bucket          string        `koanf:"bucket"`
	InlineMaxBytes  int64         `koanf:"inline_max_bytes"`
	ChunkSeconds    int           `koanf:"chunk_seconds"`
	PollBudget      time.Duration `koanf:"poll_budget"`
	TempDir         string        `koanf:"temp_dir"`
}

type FFmpegConfig struct {
	Path string `koanf:"path"`
}

type QueueConfig struct {
	URL        string `koanf:"url"`
	Exchange   string `koanf:"exchange"`
	Name       string `koanf:"name"`
	RoutingKey string `koanf:"routing_key"`
	// Async disabled makes dispatch blocking: publish errors propagate to
	// the caller, and deployments that carry the full pipeline in-process
	// run it inline before the upload returns.
	AsyncDispatch bool `koanf:"async_dispatch"`
}

type LLMConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
}

type MailConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

type WorkerConfig struct {
	Concurrency      int           `koanf:"concurrency"`
	RecoveryInterval time.Duration `koanf:"recovery_interval"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads config from TOML file (if provided) then overlays env vars.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := loadDefaults(k); err != nil {
		return nil, err
	}

	// 2. Load TOML config file if provided
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	// 3. Load env vars: SM_SERVER_PORT -> server.port
	// Only set env vars that have non-empty values to avoid overriding TOML config.
	if err := k.Load(env.ProviderWithValue("SM_", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		mapped := strings.Replace(
			strings.ToLower(strings.TrimPrefix(key, "SM_")),
			"_", ".", -1,
		)
		return mapped, value
	}), nil); err != nil {
		return nil, err
	}

	// 4. Handle top-level convenience env vars
	if v := os.Getenv("SM_DATABASE_URL"); v != "" {
		k.Set("database.url", v)
	}
	if v := os.Getenv("SM_QUEUE_URL"); v != "" {
		k.Set("queue.url", v)
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && k.String("llm.api_key") == "" {
		k.Set("llm.api_key", v)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Derive the ASR scratch dir from the storage base dir if not configured
	if cfg.ASR.TempDir == "" {
		cfg.ASR.TempDir = cfg.Storage.BaseDir + "/asr-tmp"
	}

	return &cfg, nil
}
