package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/socialhub/socialhub/backend/go-services/internal/tokens"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	KeyVault  KeyVaultConfig
	JWT       JWTConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	MinIO     MinIOConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KeyVaultConfig locates the remote key service holding the token signing key.
// An empty URL selects the in-process development key.
type KeyVaultConfig struct {
	URL         string
	KeyName     string
	AccessToken string
	Timeout     time.Duration
	MaxAttempts int
}

type JWTConfig struct {
	Issuer   string
	Audience string
	Lifetime time.Duration
	// ClockSkew is fixed at five minutes; exposed only so tests can read it.
	ClockSkew time.Duration
}

type AuthConfig struct {
	// RecheckActive makes the bearer middleware reject tokens whose identity
	// was deactivated after issuance.
	RecheckActive bool
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("MONGODB_DATABASE", "socialhub")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("KEYVAULT_KEY_NAME", "token-signing")
	v.SetDefault("KEYVAULT_TIMEOUT", 10)
	v.SetDefault("KEYVAULT_MAX_ATTEMPTS", 3)
	v.SetDefault("JWT_ISSUER", "socialhub-api")
	v.SetDefault("JWT_AUDIENCE", "socialhub-clients")
	v.SetDefault("JWT_LIFETIME_MINUTES", 60)
	v.SetDefault("AUTH_RECHECK_ACTIVE", false)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_BUCKET", "socialhub-media")

	lifetime := v.GetInt("JWT_LIFETIME_MINUTES")
	if lifetime <= 0 {
		lifetime = 60
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       0,
		},
		KeyVault: KeyVaultConfig{
			URL:         v.GetString("KEYVAULT_URL"),
			KeyName:     v.GetString("KEYVAULT_KEY_NAME"),
			AccessToken: v.GetString("KEYVAULT_TOKEN"),
			Timeout:     time.Duration(v.GetInt("KEYVAULT_TIMEOUT")) * time.Second,
			MaxAttempts: v.GetInt("KEYVAULT_MAX_ATTEMPTS"),
		},
		JWT: JWTConfig{
			Issuer:    v.GetString("JWT_ISSUER"),
			Audience:  v.GetString("JWT_AUDIENCE"),
			Lifetime:  time.Duration(lifetime) * time.Minute,
			ClockSkew: tokens.DefaultClockSkew,
		},
		Auth: AuthConfig{
			RecheckActive: v.GetBool("AUTH_RECHECK_ACTIVE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
	}

	return cfg, nil
}
