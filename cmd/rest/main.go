package main

import (
	"context"
	"log"

	"ai-docreview-be/internal/bootstrap"
	"ai-docreview-be/internal/config"
	"ai-docreview-be/internal/server"
	"ai-docreview-be/internal/tracer"
	"ai-docreview-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	// Background workers: learning capture queue and live event relay.
	go func() {
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background consumer error: %v", err)
		}
	}()
	if container.EventRelayService != nil {
		go container.EventRelayService.Start()
	}

	srv := server.New(cfg, container, container.Logger)
	log.Fatal(srv.Run())
}
