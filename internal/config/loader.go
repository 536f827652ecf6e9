package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CARDSCOUT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CARDSCOUT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Ebay ──
	setStr(&cfg.Ebay.BaseURL, "CARDSCOUT_EBAY_BASE_URL")
	setStr(&cfg.Ebay.AuthURL, "CARDSCOUT_EBAY_AUTH_URL")
	setStr(&cfg.Ebay.ClientID, "CARDSCOUT_EBAY_CLIENT_ID")
	setStr(&cfg.Ebay.ClientSecret, "CARDSCOUT_EBAY_CLIENT_SECRET")
	setStr(&cfg.Ebay.MarketplaceID, "CARDSCOUT_EBAY_MARKETPLACE_ID")

	// ── Scout ──
	setStringSlice(&cfg.Scout.Queries, "CARDSCOUT_SCOUT_QUERIES")
	setStr(&cfg.Scout.RulesetPath, "CARDSCOUT_SCOUT_RULESET_PATH")
	setDuration(&cfg.Scout.Interval, "CARDSCOUT_SCOUT_INTERVAL")
	setBool(&cfg.Scout.RawOnly, "CARDSCOUT_SCOUT_RAW_ONLY")
	setBool(&cfg.Scout.ExcludeBase, "CARDSCOUT_SCOUT_EXCLUDE_BASE")
	setFloat64(&cfg.Scout.MaxPrice, "CARDSCOUT_SCOUT_MAX_PRICE")
	setInt(&cfg.Scout.Workers, "CARDSCOUT_SCOUT_WORKERS")
	setDuration(&cfg.Scout.CompCacheTTL, "CARDSCOUT_SCOUT_COMP_CACHE_TTL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "CARDSCOUT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "CARDSCOUT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "CARDSCOUT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "CARDSCOUT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "CARDSCOUT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "CARDSCOUT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "CARDSCOUT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "CARDSCOUT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "CARDSCOUT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "CARDSCOUT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "CARDSCOUT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CARDSCOUT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CARDSCOUT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CARDSCOUT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "CARDSCOUT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "CARDSCOUT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "CARDSCOUT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CARDSCOUT_S3_REGION")
	setStr(&cfg.S3.Bucket, "CARDSCOUT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CARDSCOUT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CARDSCOUT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "CARDSCOUT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "CARDSCOUT_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "CARDSCOUT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "CARDSCOUT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "CARDSCOUT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "CARDSCOUT_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "CARDSCOUT_SERVER_RATE_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CARDSCOUT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CARDSCOUT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "CARDSCOUT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "CARDSCOUT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "CARDSCOUT_MODE")
	setStr(&cfg.LogLevel, "CARDSCOUT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
