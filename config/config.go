package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/spf13/viper"
)

// Config holds all configuration for the assistant. It is loaded once at
// process start and passed into constructors; nothing mutates it afterwards.
type Config struct {
	General      GeneralConfig      `mapstructure:"general"`
	Server       ServerConfig       `mapstructure:"server"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Session      SessionConfig      `mapstructure:"session"`
	Tools        ToolsConfig        `mapstructure:"tools"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	DataDir        string        `mapstructure:"data_dir"` // agent and workflow registry files
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type       string        `mapstructure:"type"` // openai, gemini, local, etc.
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	MaxTokens  int           `mapstructure:"max_tokens"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LLMRoutingConfig defines which provider to use for different tasks
type LLMRoutingConfig struct {
	Chat       string `mapstructure:"chat"`       // itinerary generation and conversation
	Extraction string `mapstructure:"extraction"` // slot extraction fallback
	Fallback   string `mapstructure:"fallback"`
}

// ConversationConfig tunes the slot-filling state machine.
type ConversationConfig struct {
	MaxSlotPrompts int    `mapstructure:"max_slot_prompts"` // ask for a missing slot at most N times
	HistoryLimit   int    `mapstructure:"history_limit"`    // turns kept for LLM context
	HomeCity       string `mapstructure:"home_city"`        // departure city for flight search
	DefaultAgentID string `mapstructure:"default_agent_id"`
}

// SessionConfig contains session store settings
type SessionConfig struct {
	StoreType     string        `mapstructure:"store_type"` // inmemory or redis
	TTL           time.Duration `mapstructure:"ttl"`
	SweepSchedule string        `mapstructure:"sweep_schedule"` // cron expression for the in-memory janitor
	Redis         RedisConfig   `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ToolsConfig contains external tool settings
type ToolsConfig struct {
	Mode    string        `mapstructure:"mode"` // inprocess or mcp
	MCPURL  string        `mapstructure:"mcp_url"`
	Timeout time.Duration `mapstructure:"timeout"`

	Flights  FlightsConfig  `mapstructure:"flights"`
	Geocode  GeocodeConfig  `mapstructure:"geocode"`
	Articles ArticlesConfig `mapstructure:"articles"`
	Visa     VisaConfig     `mapstructure:"visa"`
}

// FlightsConfig contains flight search settings
type FlightsConfig struct {
	APIURL       string `mapstructure:"api_url"`
	APIKey       string `mapstructure:"api_key"`
	LimitPerDate int    `mapstructure:"limit_per_date"`
}

// GeocodeConfig contains geocoding settings
type GeocodeConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// ArticlesConfig contains article feed settings
type ArticlesConfig struct {
	FeedURL         string `mapstructure:"feed_url"`
	Limit           int    `mapstructure:"limit"`
	ExcerptFallback bool   `mapstructure:"excerpt_fallback"` // fetch the page for an excerpt when the feed has none
}

// VisaConfig contains visa lookup settings
type VisaConfig struct {
	DefaultNationality string `mapstructure:"default_nationality"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	viper.SetConfigName("tripweaver")
	viper.SetConfigType("json")
	if path != "" {
		viper.AddConfigPath(path)
	}
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("TRIPWEAVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Config file is optional; defaults plus env cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	overrideFromEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "30s")
	viper.SetDefault("general.data_dir", "./data")

	viper.SetDefault("server.address", ":8080")

	viper.SetDefault("llm.routing.chat", "openai")
	viper.SetDefault("llm.routing.extraction", "openai")
	viper.SetDefault("llm.routing.fallback", "openai")

	viper.SetDefault("conversation.max_slot_prompts", 1)
	viper.SetDefault("conversation.history_limit", 10)
	viper.SetDefault("conversation.home_city", "Singapore")
	viper.SetDefault("conversation.default_agent_id", "travel-bot-default")

	viper.SetDefault("session.store_type", "inmemory")
	viper.SetDefault("session.ttl", "2h")
	viper.SetDefault("session.sweep_schedule", "*/5 * * * *")
	viper.SetDefault("session.redis.host", "localhost")
	viper.SetDefault("session.redis.port", 6379)
	viper.SetDefault("session.redis.db", 0)
	viper.SetDefault("session.redis.timeout", "5s")

	viper.SetDefault("tools.mode", "inprocess")
	viper.SetDefault("tools.mcp_url", "http://127.0.0.1:8002")
	viper.SetDefault("tools.timeout", "10s")
	viper.SetDefault("tools.flights.limit_per_date", 3)
	viper.SetDefault("tools.geocode.base_url", "https://nominatim.openstreetmap.org")
	viper.SetDefault("tools.geocode.user_agent", "tripweaver/1.0")
	viper.SetDefault("tools.articles.limit", 3)
	viper.SetDefault("tools.articles.excerpt_fallback", true)
	viper.SetDefault("tools.visa.default_nationality", "SG")

	viper.SetDefault("telemetry.enabled", true)
}

// overrideFromEnv overrides sensitive values with environment variables.
func overrideFromEnv() {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		viper.Set("llm.providers.openai.api_key", apiKey)
		viper.Set("llm.providers.openai.type", "openai")
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		viper.Set("llm.providers.gemini.api_key", apiKey)
		viper.Set("llm.providers.gemini.type", "gemini")
	}
	if apiKey := os.Getenv("FLIGHT_API_KEY"); apiKey != "" {
		viper.Set("tools.flights.api_key", apiKey)
	}
	if url := os.Getenv("FLIGHT_API_URL"); url != "" {
		viper.Set("tools.flights.api_url", url)
	}
	if url := os.Getenv("MCP_SERVER_URL"); url != "" {
		viper.Set("tools.mcp_url", url)
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		viper.Set("session.redis.host", host)
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			viper.Set("session.redis.port", p)
		}
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		viper.Set("session.redis.password", password)
	}
}

func validate(cfg *Config) error {
	if len(cfg.LLM.Providers) == 0 {
		return fmt.Errorf("at least one LLM provider must be configured")
	}

	for _, name := range []string{cfg.LLM.Routing.Chat, cfg.LLM.Routing.Extraction, cfg.LLM.Routing.Fallback} {
		if name == "" {
			continue
		}
		if _, ok := cfg.LLM.Providers[name]; !ok {
			return fmt.Errorf("routing provider '%s' not found in llm.providers", name)
		}
	}

	switch cfg.Session.StoreType {
	case "inmemory", "redis":
	default:
		return fmt.Errorf("unsupported session.store_type: %s", cfg.Session.StoreType)
	}

	switch cfg.Tools.Mode {
	case "inprocess", "mcp":
	default:
		return fmt.Errorf("unsupported tools.mode: %s", cfg.Tools.Mode)
	}

	if cfg.Session.SweepSchedule != "" {
		if _, err := cronexpr.Parse(cfg.Session.SweepSchedule); err != nil {
			return fmt.Errorf("invalid session.sweep_schedule: %w", err)
		}
	}

	if cfg.Conversation.MaxSlotPrompts < 1 {
		return fmt.Errorf("conversation.max_slot_prompts must be >= 1")
	}
	if cfg.Conversation.HistoryLimit < 2 {
		return fmt.Errorf("conversation.history_limit must be >= 2")
	}

	return nil
}
