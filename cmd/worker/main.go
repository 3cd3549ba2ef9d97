package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"sparkle-backend/internal/config"
	"sparkle-backend/internal/events"
	"sparkle-backend/internal/models"
	"sparkle-backend/internal/repo"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
)

// The worker drains the usage-event queue into the audit table and resets
// every customer's daily message counter shortly after midnight UTC.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()

	if err := config.ConnectDB(cfg.DBURL); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	billingRepo := repo.NewBillingRepository(config.DB)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("Failed to connect to queue:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open channel:", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, nil); err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	deliveries, err := ch.Consume(cfg.RabbitQueue, "usage-worker", false, false, false, false, nil)
	if err != nil {
		log.Fatal("Failed to start consumer:", err)
	}

	ctx := context.Background()
	go resetLoop(ctx, billingRepo)

	log.Printf("usage worker consuming %s", cfg.RabbitQueue)
	for d := range deliveries {
		if err := handleDelivery(ctx, billingRepo, d.Body); err != nil {
			log.Println("handle usage event:", err)
			d.Nack(false, false)
			continue
		}
		d.Ack(false)
	}
}

func handleDelivery(ctx context.Context, billing repo.BillingRepoInterface, body []byte) error {
	var ev events.TurnEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return err
	}
	return billing.CreateUsageEvent(ctx, &models.UsageEvent{
		ID:         ev.ID,
		CustomerID: ev.CustomerID,
		ChatSlug:   ev.ChatSlug,
		MessageID:  ev.MessageID,
		OccurredAt: ev.OccurredAt,
	})
}

// resetLoop fires once per day, one minute past midnight UTC.
func resetLoop(ctx context.Context, billing repo.BillingRepoInterface) {
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 1, 0, 0, time.UTC).Add(24 * time.Hour)
		time.Sleep(next.Sub(now))

		n, err := billing.ResetDailyCounters(ctx)
		if err != nil {
			log.Println("reset daily counters:", err)
			continue
		}
		log.Printf("reset daily counters for %d customers", n)
	}
}
