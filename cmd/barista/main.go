package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/citi94/order-coffee/internal/config"
	"github.com/citi94/order-coffee/internal/events"
	"github.com/citi94/order-coffee/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateBarista()
	}
	log := logger.New(logger.Options{Service: "barista", Output: os.Stderr})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = logger.New(logger.Options{Service: "barista", Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printTicket := func(_ context.Context, e events.OrderPaid) error {
		_, err := fmt.Fprintln(os.Stdout, events.Ticket(e))
		return err
	}

	consumer := events.NewConsumer(cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Brokers, printTicket, log)
	defer consumer.Close()

	log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("waiting for paid orders")
	consumer.Run(ctx)
	log.Info().Msg("barista display stopped")
}
