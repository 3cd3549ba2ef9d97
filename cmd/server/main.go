package main

import (
	"context"
	"log"

	"sparkle-backend/internal/adapters"
	"sparkle-backend/internal/api"
	"sparkle-backend/internal/api/routes"
	v1 "sparkle-backend/internal/api/routes/v1"
	"sparkle-backend/internal/auth"
	"sparkle-backend/internal/config"
	"sparkle-backend/internal/events"
	"sparkle-backend/internal/llm"
	"sparkle-backend/internal/prompt"
	"sparkle-backend/internal/repo"
	"sparkle-backend/internal/session"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()

	// Connect to database
	if err := config.ConnectDB(cfg.DBURL); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Run migrations
	if err := config.MigrateAllModels(false); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	client, extractor, err := llm.New(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to build model client:", err)
	}

	chatRepo := repo.NewChatRepository(config.DB)
	engineRepo := repo.NewEngineRepository(config.DB)
	billingRepo := repo.NewBillingRepository(config.DB)

	assembler := prompt.NewAssembler(engineRepo, adapters.NewRegistry(), extractor)
	filter := llm.NewBrandFilter(cfg.BrandName)

	// The event queue is optional; without it turns still complete, they
	// just leave no usage trail.
	publisher, err := events.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Println("Warning: usage events disabled:", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	processor := session.NewProcessor(
		chatRepo, engineRepo, billingRepo,
		assembler, client, filter, publisher,
		cfg.JWTSecret, cfg.ChatHistoryWindow,
	)

	otp := auth.NewOTPStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer otp.Close()

	// Create and configure Fiber app
	app := api.NewServer()

	// Register routes
	routes.Register(app, v1.Deps{
		Cfg:       cfg,
		OTP:       otp,
		Processor: processor,
	})

	// Start server
	if err := api.StartServer(app, cfg); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
