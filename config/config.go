package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Steam     SteamConfig     `mapstructure:"steam"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Guides    GuidesConfig    `mapstructure:"guides"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains application-wide settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings.
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	BaseURL   string `mapstructure:"base_url"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("server.jwt_secret required")
	}
	return nil
}

// SteamConfig contains Steam Web API access settings.
type SteamConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	GamesTTL        time.Duration `mapstructure:"games_ttl"`
	AchievementsTTL time.Duration `mapstructure:"achievements_ttl"`
}

func (s SteamConfig) Validate() error {
	if strings.TrimSpace(s.APIKey) == "" {
		return fmt.Errorf("steam.api_key required")
	}
	return nil
}

// LLMConfig selects and configures the guide generation provider.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PerMinute   int           `mapstructure:"per_minute"`
	PerDay      int           `mapstructure:"per_day"`
}

// SearchConfig selects and configures the web search provider.
type SearchConfig struct {
	Provider   string `mapstructure:"provider"`
	APIKey     string `mapstructure:"api_key"`
	MaxResults int    `mapstructure:"max_results"`
	PerMinute  int    `mapstructure:"per_minute"`
}

// GuidesConfig tunes the aggregation pipeline.
type GuidesConfig struct {
	MaxResults         int           `mapstructure:"max_results"`
	FanoutTimeout      time.Duration `mapstructure:"fanout_timeout"`
	ResultTTL          time.Duration `mapstructure:"result_ttl"`
	AIGuideTTL         time.Duration `mapstructure:"ai_guide_ttl"`
	SweepSchedule      string        `mapstructure:"sweep_schedule"`
	CommunityPerMinute int           `mapstructure:"community_per_minute"`
}

// StorageConfig groups the persistence backends.
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
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

// PostgresConfig contains Postgres connection settings.
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required")
	}
	return nil
}

// DSN renders the connection string.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DBName, ssl)
}

// TelemetryConfig contains monitoring settings.
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// LoadConfig reads config.json then overlays GUIDELY_* environment
// variables. It panics on a broken config because nothing can run
// without one.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "30s")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("steam.games_ttl", "1h")
	viper.SetDefault("steam.achievements_ttl", "30m")
	viper.SetDefault("llm.provider", "openrouter")
	viper.SetDefault("llm.max_tokens", 1500)
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("llm.per_minute", 10)
	viper.SetDefault("llm.per_day", 200)
	viper.SetDefault("search.provider", "serper")
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("search.per_minute", 5)
	viper.SetDefault("guides.max_results", 10)
	viper.SetDefault("guides.fanout_timeout", "30s")
	viper.SetDefault("guides.result_ttl", "168h")
	viper.SetDefault("guides.ai_guide_ttl", "720h")
	viper.SetDefault("guides.sweep_schedule", "0 * * * *")
	viper.SetDefault("guides.community_per_minute", 10)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("GUIDELY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Server.Validate(); err != nil {
		panic(err)
	}
	if err := config.Steam.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	if err := config.Telemetry.Validate(); err != nil {
		panic(err)
	}
	return &config
}
