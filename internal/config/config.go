package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Session SessionConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	OCR     OCRConfig
	Batch   BatchConfig
	Export  ExportConfig
	S3      S3Config
	Email   EmailConfig
	Gateway GatewayConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// DBConfig holds SQL connection settings. Driver is "postgres" or "sqlite".
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DriverName returns the database/sql driver registered for Driver.
func (d *DBConfig) DriverName() string {
	if d.Driver == DBDriverSQLite {
		return "sqlite"
	}
	return "pgx"
}

// DSN returns the connection string for Driver.
func (d *DBConfig) DSN() string {
	if d.Driver == DBDriverSQLite {
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", d.Path)
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// MigrateURL returns the golang-migrate database URL for Driver.
func (d *DBConfig) MigrateURL() string {
	if d.Driver == DBDriverSQLite {
		return "sqlite://" + d.Path
	}
	return d.DSN()
}

// SessionConfig selects the conversation session store and idle purging.
type SessionConfig struct {
	Store         string        `mapstructure:"store"`
	Dir           string        `mapstructure:"dir"`
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

// RedisConfig holds settings for the redis session store.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// CatalogConfig selects where the product catalog comes from and the constant line-item values.
type CatalogConfig struct {
	Source          string `mapstructure:"source"`
	Path            string `mapstructure:"path"`
	OriginCountry   string `mapstructure:"origin_country"`
	DispatchCountry string `mapstructure:"dispatch_country"`
	Preference      string `mapstructure:"preference"`
	VATRate         int    `mapstructure:"vat_rate"`
}

// OCRConfig holds OCR engine settings. Providers are tried in order.
type OCRConfig struct {
	Providers          []string      `mapstructure:"providers"`
	TesseractPath      string        `mapstructure:"tesseract_path"`
	PdftoppmPath       string        `mapstructure:"pdftoppm_path"`
	Languages          string        `mapstructure:"languages"`
	DPI                int           `mapstructure:"dpi"`
	GCPCredentialsFile string        `mapstructure:"gcp_credentials_file"`
	Timeout            time.Duration `mapstructure:"timeout"`
	FailureThreshold   int           `mapstructure:"failure_threshold"`
	Cooldown           time.Duration `mapstructure:"cooldown"`
}

// BatchConfig bounds the document upload pipeline.
type BatchConfig struct {
	Concurrency       int           `mapstructure:"concurrency"`
	Timeout           time.Duration `mapstructure:"timeout"`
	ResultTTL         time.Duration `mapstructure:"result_ttl"`
	MaxFiles          int           `mapstructure:"max_files"`
	MaxUncompressedMB int64         `mapstructure:"max_uncompressed_mb"`
}

// ExportConfig selects the declaration file format and optional delivery.
type ExportConfig struct {
	Format string `mapstructure:"format"`
	Upload bool   `mapstructure:"upload"`
}

// S3Config holds AWS S3 settings for exported declarations.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// EmailConfig holds settings for e-mailing declaration copies.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	To          string `mapstructure:"to"`
}

// GatewayConfig holds the shared secret the chat gateway signs its requests with.
type GatewayConfig struct {
	Secret   string `mapstructure:"secret"`
	Issuer   string `mapstructure:"issuer"`
	Audience string `mapstructure:"audience"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	SessionStoreSQL   = "sql"
	SessionStoreFile  = "file"
	SessionStoreRedis = "redis"

	OCRProviderTesseract = "tesseract"
	OCRProviderGCPVision = "gcpvision"

	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"

	EmailProviderNoop = "noop"
	EmailProviderSES  = "ses"
)

// Load reads configuration from environment variables with the DECLBOT_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DECLBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "3m")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 50)

	// DB defaults
	v.SetDefault("db.driver", DBDriverPostgres)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "declbot")
	v.SetDefault("db.password", "declbot_secret")
	v.SetDefault("db.name", "declbot_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.path", "declbot.db")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// Session defaults
	v.SetDefault("session.store", SessionStoreSQL)
	v.SetDefault("session.dir", "data/sessions")
	v.SetDefault("session.idle_ttl", "72h")
	v.SetDefault("session.purge_interval", "10m")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "declbot:session:")

	// Catalog defaults
	v.SetDefault("catalog.source", "builtin")
	v.SetDefault("catalog.path", "catalog.yaml")
	v.SetDefault("catalog.origin_country", "Узбекистан")
	v.SetDefault("catalog.dispatch_country", "Узбекистан")
	v.SetDefault("catalog.preference", "Да")
	v.SetDefault("catalog.vat_rate", 10)

	// OCR defaults
	v.SetDefault("ocr.providers", OCRProviderTesseract)
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")
	v.SetDefault("ocr.languages", "rus+eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.gcp_credentials_file", "")
	v.SetDefault("ocr.timeout", "60s")
	v.SetDefault("ocr.failure_threshold", 3)
	v.SetDefault("ocr.cooldown", "5m")

	// Batch defaults
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.timeout", "2m")
	v.SetDefault("batch.result_ttl", "1h")
	v.SetDefault("batch.max_files", 200)
	v.SetDefault("batch.max_uncompressed_mb", 200)

	// Export defaults
	v.SetDefault("export.format", ExportFormatXLSX)
	v.SetDefault("export.upload", false)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "declbot-exports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 86400)

	// Email defaults
	v.SetDefault("email.provider", EmailProviderNoop)
	v.SetDefault("email.region", "eu-central-1")
	v.SetDefault("email.from_address", "noreply@declbot.local")
	v.SetDefault("email.from_name", "Declbot")
	v.SetDefault("email.to", "")

	// Gateway defaults
	v.SetDefault("gateway.secret", "change-me-in-production")
	v.SetDefault("gateway.issuer", "chat-gateway")
	v.SetDefault("gateway.audience", "declbot")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "DECLBOT_SERVER_PORT",
		"server.read_timeout":       "DECLBOT_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "DECLBOT_SERVER_WRITE_TIMEOUT",
		"server.environment":        "DECLBOT_SERVER_ENVIRONMENT",
		"server.max_upload_mb":      "DECLBOT_SERVER_MAX_UPLOAD_MB",
		"db.driver":                 "DECLBOT_DB_DRIVER",
		"db.host":                   "DECLBOT_DB_HOST",
		"db.port":                   "DECLBOT_DB_PORT",
		"db.user":                   "DECLBOT_DB_USER",
		"db.password":               "DECLBOT_DB_PASSWORD",
		"db.name":                   "DECLBOT_DB_NAME",
		"db.sslmode":                "DECLBOT_DB_SSLMODE",
		"db.path":                   "DECLBOT_DB_PATH",
		"db.max_open":               "DECLBOT_DB_MAX_OPEN",
		"db.max_idle":               "DECLBOT_DB_MAX_IDLE",
		"session.store":             "DECLBOT_SESSION_STORE",
		"session.dir":               "DECLBOT_SESSION_DIR",
		"session.idle_ttl":          "DECLBOT_SESSION_IDLE_TTL",
		"session.purge_interval":    "DECLBOT_SESSION_PURGE_INTERVAL",
		"redis.addr":                "DECLBOT_REDIS_ADDR",
		"redis.password":            "DECLBOT_REDIS_PASSWORD",
		"redis.db":                  "DECLBOT_REDIS_DB",
		"redis.key_prefix":          "DECLBOT_REDIS_KEY_PREFIX",
		"catalog.source":            "DECLBOT_CATALOG_SOURCE",
		"catalog.path":              "DECLBOT_CATALOG_PATH",
		"catalog.origin_country":    "DECLBOT_CATALOG_ORIGIN_COUNTRY",
		"catalog.dispatch_country":  "DECLBOT_CATALOG_DISPATCH_COUNTRY",
		"catalog.preference":        "DECLBOT_CATALOG_PREFERENCE",
		"catalog.vat_rate":          "DECLBOT_CATALOG_VAT_RATE",
		"ocr.providers":             "DECLBOT_OCR_PROVIDERS",
		"ocr.tesseract_path":        "DECLBOT_OCR_TESSERACT_PATH",
		"ocr.pdftoppm_path":         "DECLBOT_OCR_PDFTOPPM_PATH",
		"ocr.languages":             "DECLBOT_OCR_LANGUAGES",
		"ocr.dpi":                   "DECLBOT_OCR_DPI",
		"ocr.gcp_credentials_file":  "DECLBOT_OCR_GCP_CREDENTIALS_FILE",
		"ocr.timeout":               "DECLBOT_OCR_TIMEOUT",
		"ocr.failure_threshold":     "DECLBOT_OCR_FAILURE_THRESHOLD",
		"ocr.cooldown":              "DECLBOT_OCR_COOLDOWN",
		"batch.concurrency":         "DECLBOT_BATCH_CONCURRENCY",
		"batch.timeout":             "DECLBOT_BATCH_TIMEOUT",
		"batch.result_ttl":          "DECLBOT_BATCH_RESULT_TTL",
		"batch.max_files":           "DECLBOT_BATCH_MAX_FILES",
		"batch.max_uncompressed_mb": "DECLBOT_BATCH_MAX_UNCOMPRESSED_MB",
		"export.format":             "DECLBOT_EXPORT_FORMAT",
		"export.upload":             "DECLBOT_EXPORT_UPLOAD",
		"s3.region":                 "DECLBOT_S3_REGION",
		"s3.bucket":                 "DECLBOT_S3_BUCKET",
		"s3.endpoint":               "DECLBOT_S3_ENDPOINT",
		"s3.access_key":             "DECLBOT_S3_ACCESS_KEY",
		"s3.secret_key":             "DECLBOT_S3_SECRET_KEY",
		"s3.presign_expiry":         "DECLBOT_S3_PRESIGN_EXPIRY",
		"email.provider":            "DECLBOT_EMAIL_PROVIDER",
		"email.region":              "DECLBOT_EMAIL_REGION",
		"email.from_address":        "DECLBOT_EMAIL_FROM_ADDRESS",
		"email.from_name":           "DECLBOT_EMAIL_FROM_NAME",
		"email.to":                  "DECLBOT_EMAIL_TO",
		"gateway.secret":            "DECLBOT_GATEWAY_SECRET",
		"gateway.issuer":            "DECLBOT_GATEWAY_ISSUER",
		"gateway.audience":          "DECLBOT_GATEWAY_AUDIENCE",
		"log.level":                 "DECLBOT_LOG_LEVEL",
		"log.format":                "DECLBOT_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DECLBOT_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DECLBOT_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		MaxUploadMB:  v.GetInt64("server.max_upload_mb"),
	}
	cfg.DB = DBConfig{
		Driver:   v.GetString("db.driver"),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		Path:     v.GetString("db.path"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Session = SessionConfig{
		Store:         v.GetString("session.store"),
		Dir:           v.GetString("session.dir"),
		IdleTTL:       v.GetDuration("session.idle_ttl"),
		PurgeInterval: v.GetDuration("session.purge_interval"),
	}
	cfg.Redis = RedisConfig{
		Addr:      v.GetString("redis.addr"),
		Password:  v.GetString("redis.password"),
		DB:        v.GetInt("redis.db"),
		KeyPrefix: v.GetString("redis.key_prefix"),
	}
	cfg.Catalog = CatalogConfig{
		Source:          v.GetString("catalog.source"),
		Path:            v.GetString("catalog.path"),
		OriginCountry:   v.GetString("catalog.origin_country"),
		DispatchCountry: v.GetString("catalog.dispatch_country"),
		Preference:      v.GetString("catalog.preference"),
		VATRate:         v.GetInt("catalog.vat_rate"),
	}
	cfg.OCR = OCRConfig{
		Providers:          splitList(v.GetString("ocr.providers")),
		TesseractPath:      v.GetString("ocr.tesseract_path"),
		PdftoppmPath:       v.GetString("ocr.pdftoppm_path"),
		Languages:          v.GetString("ocr.languages"),
		DPI:                v.GetInt("ocr.dpi"),
		GCPCredentialsFile: v.GetString("ocr.gcp_credentials_file"),
		Timeout:            v.GetDuration("ocr.timeout"),
		FailureThreshold:   v.GetInt("ocr.failure_threshold"),
		Cooldown:           v.GetDuration("ocr.cooldown"),
	}
	cfg.Batch = BatchConfig{
		Concurrency:       v.GetInt("batch.concurrency"),
		Timeout:           v.GetDuration("batch.timeout"),
		ResultTTL:         v.GetDuration("batch.result_ttl"),
		MaxFiles:          v.GetInt("batch.max_files"),
		MaxUncompressedMB: v.GetInt64("batch.max_uncompressed_mb"),
	}
	cfg.Export = ExportConfig{
		Format: v.GetString("export.format"),
		Upload: v.GetBool("export.upload"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		To:          v.GetString("email.to"),
	}
	cfg.Gateway = GatewayConfig{
		Secret:   v.GetString("gateway.secret"),
		Issuer:   v.GetString("gateway.issuer"),
		Audience: v.GetString("gateway.audience"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values and non-positive limits.
func (c *Config) Validate() error {
	var errs []error
	oneOf := func(key, value string, allowed ...string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s: %q is not one of %s", key, value, strings.Join(allowed, ", ")))
	}
	positive := func(key string, ok bool) {
		if !ok {
			errs = append(errs, fmt.Errorf("%s must be positive", key))
		}
	}

	oneOf("db.driver", c.DB.Driver, DBDriverPostgres, DBDriverSQLite)
	oneOf("session.store", c.Session.Store, SessionStoreSQL, SessionStoreFile, SessionStoreRedis)
	oneOf("catalog.source", c.Catalog.Source, "builtin", "yaml", "db")
	oneOf("export.format", c.Export.Format, ExportFormatXLSX, ExportFormatCSV)
	oneOf("email.provider", c.Email.Provider, EmailProviderNoop, EmailProviderSES)
	if len(c.OCR.Providers) == 0 {
		errs = append(errs, errors.New("ocr.providers: at least one provider is required"))
	}
	for _, p := range c.OCR.Providers {
		oneOf("ocr.providers", p, OCRProviderTesseract, OCRProviderGCPVision)
	}

	positive("batch.concurrency", c.Batch.Concurrency > 0)
	positive("batch.timeout", c.Batch.Timeout > 0)
	positive("batch.result_ttl", c.Batch.ResultTTL > 0)
	positive("batch.max_files", c.Batch.MaxFiles > 0)
	positive("batch.max_uncompressed_mb", c.Batch.MaxUncompressedMB > 0)
	positive("session.idle_ttl", c.Session.IdleTTL > 0)
	positive("session.purge_interval", c.Session.PurgeInterval > 0)
	positive("server.max_upload_mb", c.Server.MaxUploadMB > 0)
	positive("ocr.timeout", c.OCR.Timeout > 0)

	if c.Session.Store == SessionStoreFile && c.Session.Dir == "" {
		errs = append(errs, errors.New("session.dir is required for the file session store"))
	}
	if c.Catalog.Source == "yaml" && c.Catalog.Path == "" {
		errs = append(errs, errors.New("catalog.path is required for the yaml catalog source"))
	}
	if c.Email.Provider == EmailProviderSES && c.Email.To == "" {
		errs = append(errs, errors.New("email.to is required for the ses email provider"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
