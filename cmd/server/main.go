package main

import (
	"context"
	"log"
	"time"

	"github.com/mindwellcare/chat-relay/internal/ai"
	"github.com/mindwellcare/chat-relay/internal/chat"
	"github.com/mindwellcare/chat-relay/internal/config"
	"github.com/mindwellcare/chat-relay/internal/db"
	"github.com/mindwellcare/chat-relay/internal/httpapi"
	"github.com/mindwellcare/chat-relay/internal/relay"
	"github.com/mindwellcare/chat-relay/internal/store/rabbitmq"
	"github.com/mindwellcare/chat-relay/internal/store/redisstore"
	"github.com/mindwellcare/chat-relay/internal/usage"
)

func main() {
	cfg := config.Load()

	if cfg.UpstreamAPIKey == "" {
		// Not fatal: the relay rejects each request with a configuration
		// error, but the rest of the API (sessions, console) still works.
		log.Printf("WARNING: UPSTREAM_API_KEY is not set; chat relay is disabled")
	}

	gdb := db.Connect(cfg.DBDSN)
	repo := chat.NewRepo(gdb)

	var rds *redisstore.Store
	if cfg.RedisAddr != "" {
		rds = redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rds.Ping(ctx); err != nil {
			log.Printf("WARNING: redis unavailable, turn locks disabled: %v", err)
			rds = nil
		}
		cancel()
	}

	var recorder relay.UsageRecorder
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Fatalf("rabbit connect: %v", err)
		}
		defer pub.Close()
		recorder = usage.NewQueueRecorder(pub)
	} else {
		recorder = usage.NewDBRecorder(repo)
	}

	upstream := ai.NewOpenRouterClient(cfg.UpstreamBaseURL, cfg.UpstreamAPIKey, cfg.UpstreamModel)
	relaySvc := relay.NewService(upstream, recorder, cfg.Temperature, cfg.MaxOutputTokens)

	r := httpapi.NewRouter(gdb, cfg, rds, relaySvc)

	log.Printf("server listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
