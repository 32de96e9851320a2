package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port  string
	DBDSN string

	// Upstream completion provider
	UpstreamBaseURL string
	UpstreamAPIKey  string
	UpstreamModel   string
	MaxOutputTokens int
	Temperature     float64

	// Operator console auth
	JWTSecret            string
	OperatorPasswordHash string

	// Redis (optional; per-session turn locks)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ (optional; usage-record pipeline)
	RabbitURL   string
	RabbitQueue string

	// CORS
	FrontendOrigin string
}

func Load() Config {
	// .env is a convenience for local runs; a missing file is fine.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// DSN demo:
	// app:apppass@tcp(127.0.0.1:3306)/mindwell?charset=utf8mb4&parseTime=true&loc=Local
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			"app", "apppass", "127.0.0.1", "3306", "mindwell",
		)
	}

	upstreamBaseURL := os.Getenv("UPSTREAM_BASE_URL")
	if upstreamBaseURL == "" {
		upstreamBaseURL = "https://openrouter.ai/api/v1"
	}

	upstreamModel := os.Getenv("UPSTREAM_MODEL")
	if upstreamModel == "" {
		upstreamModel = "openai/gpt-4o-mini"
	}

	maxTokens := 600
	if v := os.Getenv("MAX_OUTPUT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxTokens = n
		}
	}

	temperature := 0.7
	if v := os.Getenv("TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			temperature = f
		}
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "usage_records"
	}

	return Config{
		Port:  port,
		DBDSN: dsn,

		UpstreamBaseURL: upstreamBaseURL,
		UpstreamAPIKey:  os.Getenv("UPSTREAM_API_KEY"),
		UpstreamModel:   upstreamModel,
		MaxOutputTokens: maxTokens,
		Temperature:     temperature,

		JWTSecret:            secret,
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: rabbitQueue,

		FrontendOrigin: os.Getenv("FRONTEND_ORIGIN"),
	}
}
