package config

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	MongoURI        string        `mapstructure:"MONGODB_URI"`
	MongoDatabase   string        `mapstructure:"MONGODB_DATABASE"`
	SecretKey       string        `mapstructure:"SECRET_KEY"`
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`
	SessionRefresh  time.Duration `mapstructure:"SESSION_REFRESH_INTERVAL"`
	WebhookURL      string        `mapstructure:"WEBHOOK_URL"`
	WebhookTimeout  time.Duration `mapstructure:"WEBHOOK_TIMEOUT"`
	WebhookRetries  int           `mapstructure:"WEBHOOK_RETRIES"`
	WebhookDelay    time.Duration `mapstructure:"WEBHOOK_RETRY_DELAY"`
	WebhookRate     float64       `mapstructure:"WEBHOOK_RATE_LIMIT"`
	WebhookBurst    int           `mapstructure:"WEBHOOK_RATE_BURST"`
	UploadFolder    string        `mapstructure:"UPLOAD_FOLDER"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`
	EmailHost       string        `mapstructure:"EMAIL_HOST"`
	EmailPort       int           `mapstructure:"EMAIL_PORT"`
	EmailUsername   string        `mapstructure:"EMAIL_USERNAME"`
	EmailPassword   string        `mapstructure:"EMAIL_PASSWORD"`
	EmailUseTLS     bool          `mapstructure:"EMAIL_USE_TLS"`
	EmailFrom       string        `mapstructure:"EMAIL_FROM"`
	AIURL           string        `mapstructure:"AI_URL"`
	AIModel         string        `mapstructure:"AI_MODEL"`
	AIAPIKey        string        `mapstructure:"AI_API_KEY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "support_tickets")
	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("SESSION_TTL", "720h")
	v.SetDefault("SESSION_REFRESH_INTERVAL", "5m")
	v.SetDefault("WEBHOOK_URL", "https://ffxtrading.app.n8n.cloud/webhook/fb4af014-26e6-4477-821f-917fc9b3ee96")
	v.SetDefault("WEBHOOK_TIMEOUT", "30s")
	v.SetDefault("WEBHOOK_RETRIES", 3)
	v.SetDefault("WEBHOOK_RETRY_DELAY", "2s")
	v.SetDefault("WEBHOOK_RATE_LIMIT", 10)
	v.SetDefault("WEBHOOK_RATE_BURST", 20)
	v.SetDefault("UPLOAD_FOLDER", "uploads")
	v.SetDefault("MAX_UPLOAD_MB", 16)
	v.SetDefault("EMAIL_HOST", "smtp.gmail.com")
	v.SetDefault("EMAIL_PORT", 587)
	v.SetDefault("EMAIL_USERNAME", "")
	v.SetDefault("EMAIL_PASSWORD", "")
	v.SetDefault("EMAIL_USE_TLS", true)
	v.SetDefault("EMAIL_FROM", "")
	v.SetDefault("AI_URL", "")
	v.SetDefault("AI_MODEL", "")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = cfg.EmailUsername
	}
	if cfg.SecretKey == "" {
		// sessions do not survive a restart without SECRET_KEY
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return Config{}, err
		}
		cfg.SecretKey = hex.EncodeToString(buf)
	}
	return cfg, nil
}
