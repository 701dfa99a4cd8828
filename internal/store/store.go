// Package store provides durable key/value storage of JSON blobs keyed by
// named slots. It carries no game logic.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Slot names a persisted record.
type Slot string

const (
	SlotProgress   Slot = "progress"
	SlotCurrencies Slot = "currencies"
	SlotTiles      Slot = "tiles"
	SlotMinigames  Slot = "minigames"
	SlotDay        Slot = "day"
	SlotStreak     Slot = "streak"
)

// Slots lists every slot the game persists.
var Slots = []Slot{SlotProgress, SlotCurrencies, SlotTiles, SlotMinigames, SlotDay, SlotStreak}

// ErrNotFound is returned when a slot has never been written.
var ErrNotFound = errors.New("slot not found")

// ErrCorrupt is returned when a stored payload fails an integrity check.
var ErrCorrupt = errors.New("slot payload corrupt")

// Recoverable reports whether a read error means the slot holds nothing
// usable, so callers may fall back to a default and overwrite it. Any
// other error leaves the stored record untouched.
func Recoverable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorrupt)
}

// Store persists raw slot payloads.
type Store interface {
	Get(ctx context.Context, slot Slot) ([]byte, error)
	Put(ctx context.Context, slot Slot, data []byte) error
	Close() error
}

// Load reads a slot and unmarshals it into dst.
// ErrNotFound and ErrCorrupt are returned unwrapped-compatible (use errors.Is).
func Load(ctx context.Context, s Store, slot Slot, dst any) error {
	data, err := s.Get(ctx, slot)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w: %v", slot, ErrCorrupt, err)
	}
	return nil
}

// Save marshals v and writes it to slot.
func Save(ctx context.Context, s Store, slot Slot, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", slot, err)
	}
	if err := s.Put(ctx, slot, data); err != nil {
		return fmt.Errorf("write %s: %w", slot, err)
	}
	return nil
}
