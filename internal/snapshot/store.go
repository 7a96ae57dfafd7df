// Package snapshot persists the cart as a single JSON document in a pluggable key-value backend.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/rocketcart/internal/cart"
	"github.com/angelmondragon/rocketcart/pkg/logger"
)

// Store reads and writes the cart snapshot kept under one key.
type Store struct {
	backend Backend
	key     string
	logg    *logger.Logger
}

func NewStore(backend Backend, key string, logg *logger.Logger) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{backend: backend, key: key, logg: logg}
}

// Load returns the stored cart. A missing or unreadable payload yields an empty cart;
// only backend failures are errors.
func (s *Store) Load(ctx context.Context) (cart.Cart, error) {
	raw, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return cart.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", s.key, err)
	}

	c, err := Decode(raw)
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"snapshot_key": s.key,
			"error":        err.Error(),
		}), "snapshot.corrupt_discarded")
		return cart.Cart{}, nil
	}
	return c, nil
}

func (s *Store) Save(ctx context.Context, c cart.Cart) error {
	payload, err := Encode(c)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, payload); err != nil {
		return fmt.Errorf("write snapshot %q: %w", s.key, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete snapshot %q: %w", s.key, err)
	}
	return nil
}

// Ping reports whether the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}
