package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
	Launcher LauncherConfig `mapstructure:"launcher"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
	// StaticDir is the marketing/practice frontend served at / (optional).
	StaticDir string `mapstructure:"static_dir"`
}

type DatabaseConfig struct {
	Mode        string        `mapstructure:"mode"` // sqlite | mysql | postgres
	SQLitePath  string        `mapstructure:"sqlite_path"`
	MySQLDSN    string        `mapstructure:"mysql_dsn"`
	PostgresDSN string        `mapstructure:"postgres_dsn"`
	Replicas    []string      `mapstructure:"replicas"` // read-only DSNs, same driver as the primary
	MaxOpen     int           `mapstructure:"max_open"`
	MaxIdle     int           `mapstructure:"max_idle"`
	MaxLife     time.Duration `mapstructure:"max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// AllowedOrigins lists the WebSocket/SSE origins that are permitted.
	// An empty slice allows all origins (useful for local development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// MetricsAllowIPs restricts /metrics to these IPs or CIDRs. Empty allows all.
	MetricsAllowIPs []string `mapstructure:"metrics_allow_ips"`
}

// LauncherConfig holds the cooldowns and grants of the gated actions.
type LauncherConfig struct {
	ChatCooldown       time.Duration `mapstructure:"chat_cooldown"`
	DailyRewardWindow  time.Duration `mapstructure:"daily_reward_window"`
	DailyRewardAmount  int64         `mapstructure:"daily_reward_amount"`
	ChatMaxLen         int           `mapstructure:"chat_max_len"`
	ChatHistoryLimit   int           `mapstructure:"chat_history_limit"`
	ChatRetention      time.Duration `mapstructure:"chat_retention"`
	ChatRetentionSweep time.Duration `mapstructure:"chat_retention_sweep"`
	WallCooldown       time.Duration `mapstructure:"wall_cooldown"`
	WallPageSize       int           `mapstructure:"wall_page_size"`
	PrivateMaxLen      int           `mapstructure:"private_max_len"`
}

// Defaults returns the launcher settings used when no config file overrides them.
func (LauncherConfig) Defaults() LauncherConfig {
	return LauncherConfig{
		ChatCooldown:       3 * time.Second,
		DailyRewardWindow:  24 * time.Hour,
		DailyRewardAmount:  50,
		ChatMaxLen:         500,
		ChatHistoryLimit:   50,
		ChatRetentionSweep: time.Hour,
		WallCooldown:       30 * time.Second,
		WallPageSize:       10,
		PrivateMaxLen:      2000,
	}
}

// Load reads config from the given YAML file path.
// Any key can be overridden with GLAUNCHER_<SECTION>_<KEY>, e.g. GLAUNCHER_SECURITY_JWT_SECRET.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("glauncher")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := LauncherConfig{}.Defaults()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/glauncher.db")
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
	v.SetDefault("launcher.chat_cooldown", d.ChatCooldown)
	v.SetDefault("launcher.daily_reward_window", d.DailyRewardWindow)
	v.SetDefault("launcher.daily_reward_amount", d.DailyRewardAmount)
	v.SetDefault("launcher.chat_max_len", d.ChatMaxLen)
	v.SetDefault("launcher.chat_history_limit", d.ChatHistoryLimit)
	v.SetDefault("launcher.chat_retention", 0)
	v.SetDefault("launcher.chat_retention_sweep", d.ChatRetentionSweep)
	v.SetDefault("launcher.wall_cooldown", d.WallCooldown)
	v.SetDefault("launcher.wall_page_size", d.WallPageSize)
	v.SetDefault("launcher.private_max_len", d.PrivateMaxLen)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
