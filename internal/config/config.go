package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig        `mapstructure:"app"`
	Server       ServerConfig     `mapstructure:"server"`
	Log          LogConfig        `mapstructure:"log"`
	DB           DBConfig         `mapstructure:"db"`
	Redis        RedisConfig      `mapstructure:"redis"`
	Indexer      IndexerConfig    `mapstructure:"indexer"`
	Poller       PollerConfig     `mapstructure:"poller"`
	Registry     RegistryConfig   `mapstructure:"registry"`
	Cache        CacheConfig      `mapstructure:"cache"`
	Restore      RestoreConfig    `mapstructure:"restore"`
	Moderation   ModerationConfig `mapstructure:"moderation"`
	Auth         AuthConfig       `mapstructure:"auth"`
	Push         PushConfig       `mapstructure:"push"`
	Alerts       AlertsConfig     `mapstructure:"alerts"`
	GlobalFeedID string           `mapstructure:"global_feed_id"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type IndexerConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	PageLimit  int           `mapstructure:"page_limit"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type PollerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Interval       time.Duration `mapstructure:"interval"`
	AlertThreshold int           `mapstructure:"alert_threshold"`
	ReconcileSpec  string        `mapstructure:"reconcile_spec"`
}

type RegistryConfig struct {
	FeedsInterval time.Duration `mapstructure:"feeds_interval"`
	ListsInterval time.Duration `mapstructure:"lists_interval"`
}

type CacheConfig struct {
	WindowSize      int           `mapstructure:"window_size"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type RestoreConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type ModerationConfig struct {
	LiteralBans []string `mapstructure:"literal_bans"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type PushConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	Subscriber      string `mapstructure:"subscriber"`
}

type AlertsConfig struct {
	TelegramToken  string `mapstructure:"telegram_token"`
	TelegramChatID int64  `mapstructure:"telegram_chat_id"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("indexer.base_url", "http://localhost:9091")
	v.SetDefault("indexer.timeout", "5s")
	v.SetDefault("indexer.page_limit", 100)
	v.SetDefault("indexer.max_retries", 3)
	v.SetDefault("poller.enabled", true)
	v.SetDefault("poller.interval", "5s")
	v.SetDefault("poller.alert_threshold", 3)
	v.SetDefault("poller.reconcile_spec", "@every 1m")
	v.SetDefault("registry.feeds_interval", "20s")
	v.SetDefault("registry.lists_interval", "10s")
	v.SetDefault("cache.window_size", 50)
	v.SetDefault("cache.refresh_interval", "5s")
	v.SetDefault("restore.enabled", true)
	v.SetDefault("restore.interval", "1m")
	// The literal ban list overrides the good-word allow list: "gm" spam is
	// banned by product decision even though "gm" is itself a good word.
	v.SetDefault("moderation.literal_bans", []string{"gm"})
	v.SetDefault("push.enabled", false)
	v.SetDefault("push.subscriber", "mailto:ops@blockfeed.example")
	v.SetDefault("global_feed_id", "0000000000026e4d30eccc3215dd8f3157d27e23acbdcfe68000000000000004")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
