package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/weather-search/internal/stubapi"
)

type stubConfig struct {
	Port              string `envconfig:"STUB_PORT" default:"8089"`
	APIKey            string `envconfig:"STUB_API_KEY"`
	Cities            string `envconfig:"STUB_CITIES" default:"Tokyo:JP,London:GB,Paris:FR,New York:US,Sydney:AU,Lima:PE,Oslo:NO"`
	RequestsPerMinute int    `envconfig:"STUB_REQUESTS_PER_MINUTE" default:"60"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	var cfg stubConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	stub := stubapi.New(stubapi.Options{
		APIKey:            cfg.APIKey,
		Cities:            parseCities(cfg.Cities),
		RequestsPerMinute: cfg.RequestsPerMinute,
	})

	// Global middleware
	app := stub.App(logger.New(), recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "openweather-stub",
		})
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("openweather stub listening on :%s (base URL http://localhost:%s/data/2.5)", cfg.Port, cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// parseCities reads "Name:CC,Name:CC". Entries without a country get "XX".
func parseCities(s string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		name, country, ok := strings.Cut(strings.TrimSpace(part), ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !ok || strings.TrimSpace(country) == "" {
			country = "XX"
		}
		out[name] = strings.ToUpper(strings.TrimSpace(country))
	}
	return out
}
