package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	webAdapter "consignment-tracker/internal/adapters/web"
	"consignment-tracker/internal/app"
	"consignment-tracker/internal/db"
	"consignment-tracker/internal/sync"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	var broadcaster sync.Broadcaster
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		broadcaster, err = sync.NewRedisBroadcaster(ctx, redisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
	} else {
		log.Println("REDIS_URL not set, running without cross-process sync")
		broadcaster = sync.NewMemoryBroadcaster()
	}

	svc := app.NewService(pool, broadcaster)
	if err := svc.Start(ctx); err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer svc.Close()

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
