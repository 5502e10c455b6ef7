package main

import (
	"context"
	"log"
	"net/http"

	"party-service/internal/party"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx := context.Background()

	cfg := loadConfigFromEnv()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("party-service: invalid DATABASE_URL: %v", err)
	}
	defer pool.Close()

	if err := party.AutoMigrate(ctx, pool); err != nil {
		log.Fatalf("party-service: migrate: %v", err)
	}

	// Redis (logical-session state)
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("party-service: invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	// Hub + server
	hub := party.NewHub()
	go hub.Run()

	srv := party.NewServer(pool, rdb, hub, ctx, cfg.FrontendBaseURL)

	r := srv.Router(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	log.Printf("party-service listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("party-service: %v", err)
	}
}
