// Package config loads runtime configuration in layers: viper defaults, an
// optional config file, then environment overrides — extended here with a
// bridge for the bare env var names the surrounding deploy environment
// actually sets (DATABASE_URL, REDIS_HOST, REDIS_PORT, IP, PORT) instead of
// a prefixed form.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the token-rank fan-out service.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Hub         HubConfig         `mapstructure:"hub"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig contains network level settings for the HTTP/WebSocket listener.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// PostgresConfig configures the single connection pool shared by the
// enrichment reader and the CDC listener.
type PostgresConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RedisConfig configures the leaderboard store client.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LeaderboardConfig controls the fixed window width each OrderType maintains.
type LeaderboardConfig struct {
	WindowSize int64 `mapstructure:"window_size"`
}

// HubConfig carries a broadcast queue size setting. The subject hubs do not
// read it; their capacities are the fixed constants in internal/hub.
type HubConfig struct {
	BroadcastBufferSize int `mapstructure:"broadcast_buffer_size"`
}

// MetricsConfig carries Prometheus endpoint settings. The transport does not
// read them: metrics are always served at GET /metrics on the main listener.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
	Endpoint   string `mapstructure:"endpoint"`
}

// LoggingConfig controls zap logger level/encoding.
type LoggingConfig struct {
	Level            string `mapstructure:"level"`
	Development      bool   `mapstructure:"development"`
	SampleInitial    int    `mapstructure:"sample_initial"`
	SampleThereafter int    `mapstructure:"sample_thereafter"`
}

// Load reads configuration from environment variables and an optional
// config file, applying defaults first.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	v.SetDefault("postgres.max_conns", 50)
	v.SetDefault("postgres.connect_timeout", 10*time.Second)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("leaderboard.window_size", 50)
	v.SetDefault("hub.broadcast_buffer_size", 256)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen_addr", ":9095")
	v.SetDefault("metrics.endpoint", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.sample_initial", 100)
	v.SetDefault("logging.sample_thereafter", 100)

	v.SetConfigName("tokenrank")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("TOKENRANK")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config unmarshal: %w", err)
	}

	bridgeBareEnv(v, &cfg)

	if cfg.Leaderboard.WindowSize <= 0 {
		cfg.Leaderboard.WindowSize = 50
	}
	if cfg.Hub.BroadcastBufferSize <= 0 {
		cfg.Hub.BroadcastBufferSize = 256
	}
	if cfg.Postgres.URL == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is required")
	}

	return cfg, nil
}

// bridgeBareEnv overlays the bare env var names the deploy environment sets
// directly — DATABASE_URL, REDIS_HOST, REDIS_PORT, IP, PORT — on top of the
// prefixed viper keys, since those are the names operators actually use.
func bridgeBareEnv(v *viper.Viper, cfg *Config) {
	if s := os.Getenv("DATABASE_URL"); s != "" {
		cfg.Postgres.URL = s
	}
	if s := os.Getenv("REDIS_HOST"); s != "" {
		cfg.Redis.Host = s
	}
	if s := os.Getenv("REDIS_PORT"); s != "" {
		if p, err := strconv.Atoi(s); err == nil {
			cfg.Redis.Port = p
		}
	}
	if s := os.Getenv("IP"); s != "" {
		cfg.Server.Host = s
	}
	if s := os.Getenv("PORT"); s != "" {
		if p, err := strconv.Atoi(s); err == nil {
			cfg.Server.Port = p
		}
	}
	_ = v
}
