package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/pizzariabella/reservas-api/internal/config"
	"github.com/pizzariabella/reservas-api/internal/database"
	"github.com/pizzariabella/reservas-api/internal/handler"
	"github.com/pizzariabella/reservas-api/internal/queue"
	"github.com/pizzariabella/reservas-api/internal/repository"
	"github.com/pizzariabella/reservas-api/internal/router"
	"github.com/pizzariabella/reservas-api/internal/service"
	"github.com/pizzariabella/reservas-api/internal/webhook"
)

func main() {
	// .env is optional; real deployments inject variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	reservas := repository.NewReservaRepo(db)
	webhooks := repository.NewWebhookRepo(db)
	dispatcher := webhook.NewDispatcher(webhooks)
	svc := service.NewReservaService(reservas, webhooks, dispatcher, service.AMQPPublisher{})

	// Redis is optional.  Without it the API runs uncached and unthrottled.
	rdb := config.NewRedisClient()

	// Consumer keeps the audit log of reservation events; it reconnects on
	// its own, so a startup failure only logs.
	go func() {
		if err := queue.StartReservaConsumer(); err != nil {
			log.Printf("queue consumer: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, handler.NewReservaHandler(svc), cfg.APISecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
