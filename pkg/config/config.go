package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const placeholderJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	// Server
	ServerPort string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret string
	TokenTTL  time.Duration

	// AWS S3
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3BucketName       string
	S3UseSSL           string

	// RabbitMQ
	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPassword string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutURL         string
	PremiumPriceLabel   string

	// Payment history timestamps are rendered in this zone.
	DisplayTimezone string

	// Services URLs
	AuthServiceURL    string
	PostServiceURL    string
	BillingServiceURL string
	ContactServiceURL string
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	config := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "blogsphere"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", placeholderJWTSecret),
		TokenTTL:  getEnvDuration("JWT_TTL", 24*time.Hour),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "blogsphere-media"),
		S3UseSSL:           getEnv("S3_USE_SSL", "true"),

		RabbitMQHost:     getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		CheckoutURL:         getEnv("STRIPE_CHECKOUT_URL", "https://buy.stripe.com/test_28ocP0dur8YIeQwcMM"),
		PremiumPriceLabel:   getEnv("PREMIUM_PRICE_LABEL", "$4.99/month"),

		DisplayTimezone: getEnv("DISPLAY_TIMEZONE", "UTC"),

		AuthServiceURL:    getEnv("AUTH_SERVICE_URL", "http://localhost:8001"),
		PostServiceURL:    getEnv("POST_SERVICE_URL", "http://localhost:8002"),
		BillingServiceURL: getEnv("BILLING_SERVICE_URL", "http://localhost:8003"),
		ContactServiceURL: getEnv("CONTACT_SERVICE_URL", "http://localhost:8004"),
	}

	// JWT_SECRET validation is left to the services that issue or verify tokens.

	return config, nil
}

// HasJWTSecret reports whether a real secret was configured.
func (c *Config) HasJWTSecret() bool {
	return c.JWTSecret != "" && c.JWTSecret != placeholderJWTSecret
}

// Location resolves DisplayTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
