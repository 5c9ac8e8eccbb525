package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/citi94/order-coffee/internal/domain"
	"github.com/citi94/order-coffee/internal/storage"
	"github.com/rs/zerolog"
)

// Store is the cart: an ordered list of line items with derived totals.
// Every mutation is persisted before it becomes visible.
type Store struct {
	mu     sync.Mutex
	items  []domain.LineItem
	store  storage.Store
	logger zerolog.Logger
}

// NewStore loads the persisted cart. A missing or unreadable cart starts
// empty; only storage failures are returned.
func NewStore(ctx context.Context, st storage.Store, logger zerolog.Logger) (*Store, error) {
	s := &Store{store: st, logger: logger}

	data, err := st.Get(ctx, storage.KeyCart)
	if errors.Is(err, storage.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	items, err := decodeItems(data)
	if err != nil {
		logger.Warn().Err(err).Msg("discarding unreadable persisted cart")
		return s, nil
	}
	s.items = items
	return s, nil
}

func decodeItems(data []byte) ([]domain.LineItem, error) {
	var snap domain.CartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	for i, item := range snap.Items {
		if err := validateItem(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		snap.Items[i].Options = domain.NormalizeOptions(item.Options)
	}
	return snap.Items, nil
}

func validateItem(item domain.LineItem) error {
	if item.ProductID == "" {
		return fmt.Errorf("%w: missing product id", ErrInvalidItem)
	}
	if item.UnitPrice < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalidItem)
	}
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// AddItem merges item into an existing line with the same product and
// options, or appends it as a new line.
func (s *Store) AddItem(ctx context.Context, item domain.LineItem) (domain.CartSnapshot, error) {
	if err := validateItem(item); err != nil {
		return domain.CartSnapshot{}, err
	}
	item = item.Clone()
	item.Options = domain.NormalizeOptions(item.Options)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneItems(s.items)
	key := item.Key()
	merged := false
	for i := range next {
		if next[i].Key() == key {
			next[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, item)
	}

	if err := s.commit(ctx, next); err != nil {
		return domain.CartSnapshot{}, err
	}
	return domain.NewCartSnapshot(s.items), nil
}

func (s *Store) RemoveItem(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return ErrInvalidIndex
	}
	next := slices.Delete(cloneItems(s.items), index, index+1)
	return s.commit(ctx, next)
}

// UpdateQuantity sets the quantity of the line at index. Callers clamp user
// input; a quantity below 1 is an error here.
func (s *Store) UpdateQuantity(ctx context.Context, index, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return ErrInvalidIndex
	}
	next := cloneItems(s.items)
	next[index].Quantity = quantity
	return s.commit(ctx, next)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, nil)
}

func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.NewCartSnapshot(s.items)
}

// commit persists next and only then makes it the current cart.
// Caller holds s.mu.
func (s *Store) commit(ctx context.Context, next []domain.LineItem) error {
	if err := storage.SetJSON(ctx, s.store, storage.KeyCart, domain.NewCartSnapshot(next)); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	s.items = next
	return nil
}

func cloneItems(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
