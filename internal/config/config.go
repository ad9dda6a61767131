// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type Config struct {
	Host            string        `env:"HOST"`
	Port            int           `env:"PORT" envDefault:"5000" validate:"gt=0,lte=65535"`
	MaxSize         int           `env:"MAX_SIZE" envDefault:"16777216" validate:"gt=0"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Metadata store
	Metadata   string `env:"METADATA" envDefault:"mongo" validate:"oneof=mongo sqlite"`
	DBURI      string `env:"DB_URI"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"27017"`
	DBDatabase string `env:"DB_DATABASE" envDefault:"files_manager" validate:"required"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"files_manager.db" validate:"required_if=Metadata sqlite"`

	// Sessions
	Sessions   string        `env:"SESSIONS" envDefault:"redis" validate:"oneof=redis badger"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h" validate:"gt=0"`
	BadgerPath string        `env:"BADGER_PATH"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0" validate:"gte=0"`

	// Thumbnail jobs
	Queue          string `env:"QUEUE" envDefault:"redis" validate:"oneof=redis discard"`
	QueueName      string `env:"QUEUE_NAME" envDefault:"fileQueue" validate:"required"`
	ThumbnailSizes []int  `env:"THUMBNAIL_SIZES" envDefault:"500,250,100" validate:"dive,gt=0"`

	// Content
	Content    string `env:"CONTENT" envDefault:"fs" validate:"oneof=fs s3"`
	FolderPath string `env:"FOLDER_PATH" envDefault:"/tmp/files_manager" validate:"required_if=Content fs"`

	S3Bucket          string `env:"S3_BUCKET" validate:"required_if=Content s3"`
	S3Prefix          string `env:"S3_PREFIX"`
	S3Region          string `env:"S3_REGION"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`

	Log Log
}

// Log configures the global logger
type Log struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	Format     string `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`
	File       string `env:"LOG_FILE"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"28"`
	Compress   bool   `env:"LOG_COMPRESS"`
}

// Load reads the given .env files, skipping missing ones, then the
// environment. Variables already set win over file values.
func Load(filenames ...string) (*Config, error) {
	for _, filename := range filenames {
		_ = godotenv.Load(filename)
	}
	return Parse()
}

// Parse reads the environment and validates the result.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags and reports the first failure.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		e := errs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}

// Addr is the address the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MongoURI returns DB_URI, or builds one from DB_HOST and DB_PORT.
func (c *Config) MongoURI() string {
	if c.DBURI != "" {
		return c.DBURI
	}
	return "mongodb://" + net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort))
}
