package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/vault-client-go"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var config = viper.New()

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	TLS        struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Otel struct {
		Addr     string `mapstructure:"ADDR"`
		Protocol string `mapstructure:"PROTOCOL"`
	} `mapstructure:"OTEL"`
	Pyroscope struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"PYROSCOPE"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		AutoMigrate    bool   `mapstructure:"AUTO_MIGRATE"`
		Metrics        bool   `mapstructure:"METRICS"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Flagsmith struct {
		Addr   string `mapstructure:"ADDR"`
		ApiKey string `mapstructure:"API_KEY"`
	} `mapstructure:"FLAGSMITH"`
	Campaign  Campaign  `mapstructure:"CAMPAIGN"`
	Ledger    Ledger    `mapstructure:"LEDGER"`
	Billing   Billing   `mapstructure:"BILLING"`
	Stripe    Stripe    `mapstructure:"STRIPE"`
	SMTP      SMTP      `mapstructure:"SMTP"`
	RateLimit RateLimit `mapstructure:"RATE_LIMIT"`
}

type Campaign struct {
	MaxWatchSeconds      int  `mapstructure:"MAX_WATCH_SECONDS"`
	SurveyDuplicateGuard bool `mapstructure:"SURVEY_DUPLICATE_GUARD"`
	FeedPageSize         int  `mapstructure:"FEED_PAGE_SIZE"`
}

type Ledger struct {
	Retention     time.Duration `mapstructure:"RETENTION"`
	HistoryWindow time.Duration `mapstructure:"HISTORY_WINDOW"`
	SweepSchedule string        `mapstructure:"SWEEP_SCHEDULE"`
}

type Billing struct {
	Schedule          string        `mapstructure:"SCHEDULE"`
	Currency          string        `mapstructure:"CURRENCY"`
	SettlePreviousDay bool          `mapstructure:"SETTLE_PREVIOUS_DAY"`
	LockTTL           time.Duration `mapstructure:"LOCK_TTL"`
}

type Stripe struct {
	SecretKey string `mapstructure:"SECRET_KEY"`
}

type SMTP struct {
	Host     string `mapstructure:"HOST"`
	Port     int    `mapstructure:"PORT"`
	User     string `mapstructure:"USER"`
	Password string `mapstructure:"PASSWORD"`
	From     string `mapstructure:"FROM"`
}

type RateLimit struct {
	EngagementPerMinute int `mapstructure:"ENGAGEMENT_PER_MINUTE"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

type Params struct {
	fx.In
	Vault *vault.Client `optional:"true"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "smallbiznis-rewards")
	v.SetDefault("HTTP_SERVER.ADDR", "8080")
	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("CAMPAIGN.MAX_WATCH_SECONDS", 30)
	v.SetDefault("CAMPAIGN.SURVEY_DUPLICATE_GUARD", false)
	v.SetDefault("CAMPAIGN.FEED_PAGE_SIZE", 3)
	v.SetDefault("LEDGER.RETENTION", 7*24*time.Hour)
	v.SetDefault("LEDGER.HISTORY_WINDOW", 7*24*time.Hour)
	v.SetDefault("LEDGER.SWEEP_SCHEDULE", "30 0 * * *")
	v.SetDefault("BILLING.SCHEDULE", "0 0 * * *")
	v.SetDefault("BILLING.CURRENCY", "usd")
	v.SetDefault("BILLING.SETTLE_PREVIOUS_DAY", true)
	v.SetDefault("BILLING.LOCK_TTL", 10*time.Minute)
	v.SetDefault("SMTP.HOST", "smtp.gmail.com")
	v.SetDefault("SMTP.PORT", 465)
}

func LoadConfig(p Params) *Config {
	config.SetConfigName("config")
	config.SetConfigType("yaml")
	config.AddConfigPath(".")

	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()
	setDefaults(config)

	if err := config.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			zap.L().Error("failed to read config file", zap.Error(err))
			os.Exit(1)
		}
		zap.L().Warn("config.yaml not found, using defaults and environment")
	}

	var cfg Config
	if err := config.Unmarshal(&cfg); err != nil {
		zap.L().Error("failed to unmarshal config", zap.Error(err))
		os.Exit(1)
	}

	if p.Vault != nil {
		if err := applySecrets(context.Background(), p.Vault, &cfg); err != nil {
			zap.L().Error("failed get secret from vault", zap.Error(err))
			os.Exit(1)
		}
	}

	return &cfg
}

// applySecrets overrides credentials with the KV v2 secret stored under the
// APP_ENV path. Missing keys keep the values loaded from file or env.
func applySecrets(ctx context.Context, client *vault.Client, cfg *Config) error {
	zap.L().Info("Starting Get Secrets", zap.String("path", cfg.AppEnv))
	secret, err := client.Secrets.KvV2Read(ctx, cfg.AppEnv, vault.WithMountPath("secret"))
	if err != nil {
		return err
	}
	zap.L().Info("Success Get Secret")

	get := func(key, fallback string) string {
		if val, ok := secret.Data.Data[key].(string); ok && val != "" {
			return val
		}
		return fallback
	}

	cfg.Database.User = get("postgres_user", cfg.Database.User)
	cfg.Database.Password = get("postgres_password", cfg.Database.Password)
	cfg.Redis.Password = get("redis_password", cfg.Redis.Password)
	cfg.Flagsmith.ApiKey = get("flagsmith_api_key", cfg.Flagsmith.ApiKey)
	cfg.Stripe.SecretKey = get("stripe_secret_key", cfg.Stripe.SecretKey)
	cfg.SMTP.Password = get("smtp_password", cfg.SMTP.Password)
	return nil
}
