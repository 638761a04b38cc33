package main

// Deletes read notifications past the retention window:
//   go run ./cmd/sweeper

import (
	"context"
	"log"

	"blueprint-backend/internal/bootstrap"
	"blueprint-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	deleted, err := app.NotificationsService.SweepRead(context.Background())
	if err != nil {
		log.Fatalf("sweep notifications: %v", err)
	}
	log.Printf("sweep complete, deleted %d notifications", deleted)
}
