package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys of the client-local state.
const (
	KeyCart             = "cart"
	KeyPendingOrder     = "pendingOrder"
	KeyCurrentPaymentID = "currentPaymentId"
	KeyConfirmedOrder   = "confirmedOrder"
)

var ErrNotFound = errors.New("key not found")

// Store is durable key-value storage for state that must survive a restart
// of the kiosk.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

func GetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	return s.Set(ctx, key, data)
}
