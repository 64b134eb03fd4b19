// Command reservation-events tails the reservation lifecycle topics and prints
// one line per event. It is meant for operators checking what the service
// publishes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ms-reservations/internal/config"
	"ms-reservations/internal/kafka"
	"ms-reservations/internal/logger"

	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
)

func main() {
	group := flag.String("group", "reservation-events-tail", "consumer group id")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	appLogger, err := logger.New(cfg.LogDir, "reservation-events", os.Stderr)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), *group, appLogger)
	defer consumer.Close()

	err = consumer.Start(ctx, func(msg kafkago.Message, event kafka.ReservationEvent) {
		transition := string(event.Status)
		if event.PreviousStatus != "" {
			transition = fmt.Sprintf("%s -> %s", event.PreviousStatus, event.Status)
		}
		fmt.Printf("%s %-28s %s %s %.2f %s\n",
			event.OccurredAt.Format("2006-01-02T15:04:05Z07:00"),
			event.Type, event.ReservationID, transition, event.TotalPrice, event.Currency)
	})
	if err != nil {
		appLogger.Error("KAFKA", err.Error())
	}
}
