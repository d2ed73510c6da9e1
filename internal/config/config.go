package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	DatabaseMaxConns int
	JWTSecret        string
	JWTTTL           time.Duration
	SeedEnabled      bool
	ImportMaxErrors  int
	MaxUploadBytes   int64
	RequestTimeout   time.Duration
	CORSOrigins      string
	LogLevel         string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and an optional .env file.
// Keys map to SCIENTIA_* variables with dots replaced by underscores.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SCIENTIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "Scientia API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.url", "scientia.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("jwt.ttl", "12h")
	v.SetDefault("seed.enabled", true)
	v.SetDefault("import.max_errors", 5)
	v.SetDefault("import.max_upload_bytes", 5<<20)
	v.SetDefault("request.timeout", "15s")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("log.level", "info")

	ttl, err := parseDuration(v, "jwt.ttl")
	if err != nil {
		return Config{}, err
	}
	timeout, err := parseDuration(v, "request.timeout")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      strings.TrimSpace(v.GetString("database.url")),
		DatabaseMaxConns: v.GetInt("database.max_open_conns"),
		JWTSecret:        v.GetString("jwt.secret"),
		JWTTTL:           ttl,
		SeedEnabled:      v.GetBool("seed.enabled"),
		ImportMaxErrors:  v.GetInt("import.max_errors"),
		MaxUploadBytes:   v.GetInt64("import.max_upload_bytes"),
		RequestTimeout:   timeout,
		CORSOrigins:      v.GetString("cors.origins"),
		LogLevel:         strings.ToLower(v.GetString("log.level")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}
	if cfg.ImportMaxErrors <= 0 {
		cfg.ImportMaxErrors = 5
	}
	if cfg.DatabaseMaxConns <= 0 {
		cfg.DatabaseMaxConns = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return duration, nil
}
