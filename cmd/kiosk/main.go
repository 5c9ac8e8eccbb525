// Command kiosk is the customer-facing client: it browses the menu, keeps
// the cart and takes the customer through checkout.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/citi94/order-coffee/internal/cart"
	"github.com/citi94/order-coffee/internal/checkout"
	"github.com/citi94/order-coffee/internal/config"
	"github.com/citi94/order-coffee/internal/storage"
	"github.com/citi94/order-coffee/internal/storefront"
	"github.com/citi94/order-coffee/pkg/logger"
)

const usage = `usage: kiosk <command> [flags] [args]

commands:
  menu                          list the menu
  add [-qty n] [-opt k=v] <id>  add a product to the cart
  remove <index>                remove a cart line
  update <index> <quantity>     change the quantity of a cart line
  clear                         empty the cart
  cart                          show the cart
  pickup-times                  list the next pickup slots
  checkout -name ... -pickup HH:MM [-email ...] [-note ...]
                                place the order and wait for payment
  resume                        wait for a payment started earlier
`

type kiosk struct {
	cfg          *config.Config
	storefront   *storefront.Client
	cart         *cart.Store
	orchestrator *checkout.Orchestrator
	logger       zerolog.Logger
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateKiosk()
	}
	log := logger.New(logger.Options{Service: "kiosk", Output: os.Stderr})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = logger.New(logger.Options{Service: "kiosk", Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to open storage")
	}
	defer closeStore()

	cartStore, err := cart.NewStore(ctx, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load cart")
	}

	client := storefront.New(cfg.Checkout.StorefrontURL, cfg.HTTP.RequestTimeout)
	k := &kiosk{
		cfg:        cfg,
		storefront: client,
		cart:       cartStore,
		orchestrator: checkout.New(cartStore, client, store, checkout.Options{
			PollInterval: cfg.Checkout.PollInterval,
			MaxAttempts:  cfg.Checkout.PollMaxAttempts,
		}, log),
		logger: log,
	}

	if err := k.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(os.Stderr, "%s\n\n%s", ue, usage)
			stop()
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, checkout.UserMessage(err))
		log.Debug().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, func(), error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return storage.NewMemoryStore(), func() {}, nil
	case config.StorageMongo:
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewMongoStore(db, cfg.KioskID)
		if err := store.CreateIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, nil, err
		}
		return store, func() { _ = db.Client().Disconnect(context.Background()) }, nil
	default:
		store, err := storage.NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
