package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/citi94/order-coffee/internal/cache"
	"github.com/citi94/order-coffee/internal/config"
	"github.com/citi94/order-coffee/internal/events"
	h "github.com/citi94/order-coffee/internal/http"
	"github.com/citi94/order-coffee/internal/menu"
	"github.com/citi94/order-coffee/internal/zettle"
	"github.com/citi94/order-coffee/pkg/logger"
)

// menuShopID keys the cached catalog; the client credentials always act on
// the organization they belong to.
const menuShopID = "self"

type publisher interface {
	h.OrderEvents
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateStorefront()
	}
	log := logger.New(logger.Options{Service: "storefront"})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = logger.New(logger.Options{Service: "storefront", Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	ctx := context.Background()

	vendor, err := zettle.New(zettle.Config{
		ClientID:          cfg.Zettle.ClientID,
		ClientSecret:      cfg.Zettle.ClientSecret,
		OAuthURL:          cfg.Zettle.OAuthURL,
		ProductsURL:       cfg.Zettle.ProductsURL,
		PurchaseURL:       cfg.Zettle.PurchaseURL,
		Currency:          cfg.Zettle.Currency,
		RedirectURL:       cfg.Zettle.SiteURL,
		Timeout:           cfg.Zettle.Timeout,
		RequestsPerSecond: cfg.Zettle.RPS,
		MaxRetries:        cfg.Zettle.MaxRetries,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create zettle client")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis connection failed")
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis ping succeeded")

	menuService := menu.NewService(vendor, cache.NewRedisCache(redisClient, cfg.Redis.MenuTTL), menuShopID, log)

	var orderEvents publisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		orderEvents = events.NewPublisher(cfg.Kafka.Topic, log, cfg.Kafka.Brokers...)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing order events")
	} else {
		log.Warn().Msg("KAFKA_BROKERS not set, order events are not published")
	}
	defer orderEvents.Close()

	router := h.NewRouter(h.Handlers{
		Menu:    h.NewMenuHandler(menuService, cfg.HTTP.RequestTimeout),
		Order:   h.NewOrderHandler(vendor, orderEvents, cfg.HTTP.RequestTimeout),
		Payment: h.NewPaymentHandler(vendor, cfg.HTTP.RequestTimeout),
	}, log, cfg.HTTP.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTP.Port).Msg("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
