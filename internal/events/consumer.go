package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Handler func(ctx context.Context, e OrderPaid) error

// readRetryDelay spaces out reads while the broker is unreachable.
const readRetryDelay = time.Second

// Consumer reads order paid events and hands them to a Handler.
type Consumer struct {
	reader     messageReader
	handle     Handler
	retryDelay time.Duration
	logger     zerolog.Logger
}

func NewConsumer(topic, groupID string, brokers []string, handle Handler, logger zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, handle: handle, retryDelay: readRetryDelay, logger: logger}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := c.consume(ctx)
		if err == nil || ctx.Err() != nil {
			continue
		}
		c.logger.Error().Err(err).Msg("failed to consume order event")
		if errors.Is(err, errRead) {
			select {
			case <-ctx.Done():
			case <-time.After(c.retryDelay):
			}
		}
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Msg("error closing reader")
	}
}

var (
	errSkipped = errors.New("message skipped")
	errRead    = errors.New("read message")
)

func (c *Consumer) consume(ctx context.Context) error {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", errRead, err)
	}

	if t := eventType(m); t != "" && t != EventTypeOrderPaid {
		return nil
	}

	var e OrderPaid
	if err := json.Unmarshal(m.Value, &e); err != nil {
		return fmt.Errorf("%w: parse: %v", errSkipped, err)
	}
	if e.OrderID == "" {
		return fmt.Errorf("%w: missing order_id", errSkipped)
	}
	return c.handle(ctx, e)
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
