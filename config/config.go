package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Configuration struct {
	Env     string `json:"env"` // "dev" ou "prod"
	ApiPort string `json:"api_port"`
	LogPath string `json:"log_path"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`
	DbPath   string `json:"db_path"`

	Security struct {
		JwtSecret           string   `json:"jwt_secret"`
		AccessTTLMinutes    int      `json:"access_ttl_minutes"`
		RefreshCodeLen      int      `json:"refresh_code_len"`
		RefreshCodeMaxValid int      `json:"refresh_code_max_valid_days"`
		AllowedOrigins      []string `json:"allowed_origins"`
	} `json:"security"`

	AI struct {
		Provider        string `json:"provider"` // "openai" ou "anthropic"
		OpenAIKey       string `json:"openai_api_key"`
		OpenAIModel     string `json:"openai_model"`
		AnthropicKey    string `json:"anthropic_api_key"`
		AnthropicModel  string `json:"anthropic_model"`
		MaxOutputTokens int    `json:"max_output_tokens"`
	} `json:"ai"`

	Storage struct {
		Bucket        string `json:"bucket"`
		PublicBaseURL string `json:"public_base_url"`
	} `json:"storage"`

	Email struct {
		ResendKey string `json:"resend_api_key"`
		From      string `json:"from"`
		BaseURL   string `json:"base_url"`
	} `json:"email"`

	YouTube struct {
		APIKey string `json:"api_key"`
	} `json:"youtube"`

	Redis struct {
		URL     string `json:"url"`
		Channel string `json:"channel"`
	} `json:"redis"`

	Pipeline struct {
		SweepIntervalSeconds  int `json:"sweep_interval_seconds"`
		SweepLimit            int `json:"sweep_limit"`
		PersonaDebounceMillis int `json:"persona_debounce_ms"`
		// com varias instancias na mesma base, so uma deve varrer
		DisableSweep bool `json:"disable_sweep"`
	} `json:"pipeline"`

	Radar struct {
		Schedule    string `json:"schedule"` // cron, vazio desliga o job semanal
		Parallelism int    `json:"parallelism"`
	} `json:"radar"`

	RateLimit struct {
		PerMinute int `json:"per_minute"`
		Burst     int `json:"burst"`
	} `json:"rate_limit"`
}

// Get reads the JSON configuration file, then overlays secrets from the
// environment (a .env file is loaded first when present).
func Get(path string) Configuration {
	_ = godotenv.Load()

	var c Configuration
	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		log.Fatal(err)
	}
	if err == nil {
		if err := json.Unmarshal(b, &c); err != nil {
			log.Fatal(err)
		}
	}

	applyEnv(&c)
	applyDefaults(&c)
	return c
}

func applyEnv(c *Configuration) {
	overlay(&c.Env, "APP_ENV")
	overlay(&c.ApiPort, "PORT")
	overlay(&c.Database, "DATABASE")
	overlay(&c.DbHost, "DB_HOST")
	overlay(&c.DbPort, "DB_PORT")
	overlay(&c.DbUser, "DB_USER")
	overlay(&c.DbName, "DB_NAME")
	overlay(&c.DbPass, "DB_PASS")
	overlay(&c.Security.JwtSecret, "JWT_SECRET")
	overlay(&c.AI.Provider, "AI_PROVIDER")
	overlay(&c.AI.OpenAIKey, "OPENAI_API_KEY")
	overlay(&c.AI.OpenAIModel, "OPENAI_MODEL")
	overlay(&c.AI.AnthropicKey, "ANTHROPIC_API_KEY")
	overlay(&c.AI.AnthropicModel, "ANTHROPIC_MODEL")
	overlay(&c.Storage.Bucket, "GCS_BUCKET_NAME")
	overlay(&c.Storage.PublicBaseURL, "GCS_PUBLIC_BASE_URL")
	overlay(&c.Email.ResendKey, "RESEND_API_KEY")
	overlay(&c.Email.From, "RESEND_FROM")
	overlay(&c.YouTube.APIKey, "YOUTUBE_API_KEY")
	overlay(&c.Redis.URL, "REDIS_URL")
	overlay(&c.Radar.Schedule, "RADAR_SCHEDULE")

	if v := strings.TrimSpace(os.Getenv("PIPELINE_DISABLE_SWEEP")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Pipeline.DisableSweep = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		c.Security.AllowedOrigins = strings.Split(v, ",")
	}
	if v := strings.TrimSpace(os.Getenv("JWT_ACCESS_TTL_MINUTES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Security.AccessTTLMinutes = n
		}
	}
}

func overlay(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func applyDefaults(c *Configuration) {
	// defaults (pra evitar nil/zero chato)
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.DbPath == "" {
		c.DbPath = "db/database.db"
	}
	if c.Security.AccessTTLMinutes <= 0 {
		c.Security.AccessTTLMinutes = 24 * 60
	}
	if c.Security.RefreshCodeLen <= 0 {
		c.Security.RefreshCodeLen = 32
	}
	if c.Security.RefreshCodeMaxValid <= 0 {
		c.Security.RefreshCodeMaxValid = 30
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}
	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	if c.AI.OpenAIModel == "" {
		c.AI.OpenAIModel = "gpt-4.1-mini"
	}
	if c.AI.AnthropicModel == "" {
		c.AI.AnthropicModel = "claude-sonnet-4-5"
	}
	if c.AI.MaxOutputTokens <= 0 {
		c.AI.MaxOutputTokens = 2048
	}
	if c.Email.From == "" {
		c.Email.From = "Reflections Radar <radar@reflectionsmatch.com>"
	}
	if c.Email.BaseURL == "" {
		c.Email.BaseURL = "https://api.resend.com"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "reflections.changes"
	}
	if c.Pipeline.SweepIntervalSeconds <= 0 {
		c.Pipeline.SweepIntervalSeconds = 30
	}
	if c.Pipeline.SweepLimit <= 0 {
		c.Pipeline.SweepLimit = 50
	}
	if c.Pipeline.PersonaDebounceMillis <= 0 {
		c.Pipeline.PersonaDebounceMillis = 2000
	}
	if c.Radar.Parallelism <= 0 {
		c.Radar.Parallelism = 4
	}
	if c.RateLimit.PerMinute <= 0 {
		c.RateLimit.PerMinute = 20
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 5
	}
}

func (c Configuration) SweepInterval() time.Duration {
	return time.Duration(c.Pipeline.SweepIntervalSeconds) * time.Second
}

func (c Configuration) PersonaDebounce() time.Duration {
	return time.Duration(c.Pipeline.PersonaDebounceMillis) * time.Millisecond
}
