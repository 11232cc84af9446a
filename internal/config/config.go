package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

type HTTPConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	OpTimeout time.Duration
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Region        string
	PublicBaseURL string
	Buckets       []string
	PresignExpiry time.Duration
}

type SecurityConfig struct {
	JWTSecret           string
	ResetPasswordSecret string
	VerifyAccountSecret string
	AccessTTL           time.Duration
	RefreshTTL          time.Duration
	ResetTTL            time.Duration
	VerifyTTL           time.Duration
	BcryptCost          int
	PasswordHistory     int
}

type MailTemplates struct {
	ResetPassword       string
	VerifyAccount       string
	SupportConfirmation string
	SupportAnswer       string
}

type MailConfig struct {
	SendGridAPIKey string
	FromAddress    string
	FromName       string
	Templates      MailTemplates
}

type QueueConfig struct {
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type AppConfig struct {
	Environment      string
	FrontendHost     string
	HTTP             HTTPConfig
	TLS              TLSConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Mail             MailConfig
	Queue            QueueConfig
	RateLimit        RateLimitConfig
	AllowCORSOrigins []string
}

// Load reads .env (when present), config.yaml and LAGIMMO_* environment variables.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("LAGIMMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate reports the settings the api cannot start without.
func (c *AppConfig) Validate() error {
	var missing []string
	if c.Postgres.DSN == "" {
		missing = append(missing, "postgres.dsn")
	}
	if c.Security.JWTSecret == "" {
		missing = append(missing, "security.jwtsecret")
	}
	if c.Security.ResetPasswordSecret == "" {
		missing = append(missing, "security.resetpasswordsecret")
	}
	if c.Security.VerifyAccountSecret == "" {
		missing = append(missing, "security.verifyaccountsecret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("frontendhost", "https://lag-immobiliers.com")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.requesttimeout", "15s")
	v.SetDefault("http.maxuploadbytes", 10<<20)

	v.SetDefault("tls.enabled", false)
	v.SetDefault("tls.certfile", "")
	v.SetDefault("tls.keyfile", "")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.migrateonstart", true)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.optimeout", "3s")

	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.publicbaseurl", "")
	v.SetDefault("storage.buckets", "accompaniement,products,properties,support,testing")
	v.SetDefault("storage.presignexpiry", "24h")

	v.SetDefault("security.jwtsecret", "")
	v.SetDefault("security.resetpasswordsecret", "")
	v.SetDefault("security.verifyaccountsecret", "")
	v.SetDefault("security.accessttl", "15m")
	v.SetDefault("security.refreshttl", "720h") // 30 days
	v.SetDefault("security.resetttl", "1h")
	v.SetDefault("security.verifyttl", "24h")
	v.SetDefault("security.bcryptcost", 10)
	v.SetDefault("security.passwordhistory", 10)

	v.SetDefault("mail.sendgridapikey", "")
	v.SetDefault("mail.fromaddress", "contact@lag-immobiliers.fr")
	v.SetDefault("mail.fromname", "Lag immobiliers")
	v.SetDefault("mail.templates.resetpassword", "d-60701e6c1fc04c1fb492d3919013935b")
	v.SetDefault("mail.templates.verifyaccount", "")
	v.SetDefault("mail.templates.supportconfirmation", "d-afc29d8a685e462ea83ce9789f2fd6ce")
	v.SetDefault("mail.templates.supportanswer", "d-9266d956db9543a2a2c4f2c64a48b325")

	v.SetDefault("queue.stream", "lagimmo:tasks")
	v.SetDefault("queue.group", "lagimmo-workers")
	v.SetDefault("queue.consumer", "")
	v.SetDefault("queue.claiminterval", "30s")

	v.SetDefault("ratelimit.requestspersecond", 5)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("allowcorsorigins", "http://localhost:3000,http://localhost:5173")
}
