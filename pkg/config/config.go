package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Bot      BotConfig      `json:"bot"`
	PDB      PDBConfig      `json:"pdb"`
	Stream   StreamConfig   `json:"stream"`
	AI       AIConfig       `json:"ai"`
	Trivia   TriviaConfig   `json:"trivia"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`

	path string
	mu   sync.Mutex
}

type BotConfig struct {
	Name          string `json:"name" env:"PDBOT_BOT_NAME"`
	CommandPrefix string `json:"command_prefix" env:"PDBOT_BOT_COMMAND_PREFIX"`
}

// PDBConfig holds identity-provider settings plus the persisted credentials.
// Access/refresh tokens are rewritten here on every login and refresh.
type PDBConfig struct {
	Email        string `json:"email" env:"PDBOT_PDB_EMAIL"`
	AccessToken  string `json:"access_token" env:"PDBOT_PDB_ACCESS_TOKEN"`
	RefreshToken string `json:"refresh_token" env:"PDBOT_PDB_REFRESH_TOKEN"`
	ExpireAt     int64  `json:"expire_at" env:"PDBOT_PDB_EXPIRE_AT"`
	BaseURL      string `json:"base_url" env:"PDBOT_PDB_BASE_URL"`
	DeviceToken  string `json:"device_token" env:"PDBOT_PDB_DEVICE_TOKEN"`
	Region       string `json:"region" env:"PDBOT_PDB_REGION"`
	Locale       string `json:"locale" env:"PDBOT_PDB_LOCALE"`
	Timezone     string `json:"timezone" env:"PDBOT_PDB_TIMEZONE"`
}

type StreamConfig struct {
	BaseURL string `json:"base_url" env:"PDBOT_STREAM_BASE_URL"`
	WSURL   string `json:"ws_url" env:"PDBOT_STREAM_WS_URL"`
}

type AIConfig struct {
	APIKey      string  `json:"api_key" env:"PDBOT_AI_API_KEY"`
	BaseURL     string  `json:"base_url" env:"PDBOT_AI_BASE_URL"`
	Model       string  `json:"model" env:"PDBOT_AI_MODEL"`
	VisionModel string  `json:"vision_model" env:"PDBOT_AI_VISION_MODEL"`
	Temperature float64 `json:"temperature" env:"PDBOT_AI_TEMPERATURE"`
}

type TriviaConfig struct {
	BaseURL string `json:"base_url" env:"PDBOT_TRIVIA_BASE_URL"`
}

type DatabaseConfig struct {
	Path string `json:"path" env:"PDBOT_DATABASE_PATH"`
}

type LoggingConfig struct {
	Level       string `json:"level" env:"PDBOT_LOGGING_LEVEL"`
	FileEnabled bool   `json:"file_enabled" env:"PDBOT_LOGGING_FILE_ENABLED"`
	FilePath    string `json:"file_path" env:"PDBOT_LOGGING_FILE_PATH"`
	MaxAgeDays  int    `json:"max_age_days" env:"PDBOT_LOGGING_MAX_AGE_DAYS"`
}

func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Name:          "pdbot",
			CommandPrefix: "!",
		},
		PDB: PDBConfig{
			BaseURL:  "https://api.personality-database.com/api/v2",
			Region:   "IN",
			Locale:   "en",
			Timezone: "Asia/Kolkata",
		},
		Stream: StreamConfig{
			BaseURL: "https://chat.stream-io-api.com",
			WSURL:   "wss://chat.stream-io-api.com",
		},
		AI: AIConfig{
			Model:       "@cf/meta/llama-3.3-70b-instruct-fp8-fast",
			VisionModel: "@cf/llava-hf/llava-1.5-7b-hf",
			Temperature: 1,
		},
		Trivia: TriviaConfig{
			BaseURL: "https://api.truthordarebot.xyz/v1",
		},
		Database: DatabaseConfig{
			Path: "~/.pdbot/pdbot.db",
		},
		Logging: LoggingConfig{
			Level:       "INFO",
			FileEnabled: false,
			FilePath:    "~/.pdbot/pdbot.log",
			MaxAgeDays:  7,
		},
	}
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist, then applies PDBOT_* environment overrides. The returned
// config remembers its path so Save can write it back.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}
	return cfg, nil
}

// Save writes the current config to disk. Disk and the in-memory copy move
// together: callers mutate the struct, then call Save.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		return fmt.Errorf("config has no backing file")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("write config %s: %w", c.path, err)
	}
	return nil
}

// SetCredentials updates the persisted identity credentials and saves.
func (c *Config) SetCredentials(email, accessToken, refreshToken string, expireAt int64) error {
	c.mu.Lock()
	if email != "" {
		c.PDB.Email = email
	}
	c.PDB.AccessToken = accessToken
	c.PDB.RefreshToken = refreshToken
	c.PDB.ExpireAt = expireAt
	c.mu.Unlock()
	return c.Save()
}

// ClearCredentials wipes stored identity credentials, forcing the next start
// through the interactive login flow.
func (c *Config) ClearCredentials() error {
	c.mu.Lock()
	c.PDB.Email = ""
	c.PDB.AccessToken = ""
	c.PDB.RefreshToken = ""
	c.PDB.ExpireAt = 0
	c.mu.Unlock()
	return c.Save()
}

// ExpandPath resolves a leading ~/ against the user home directory.
func ExpandPath(path string) string {
	if len(path) > 1 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
