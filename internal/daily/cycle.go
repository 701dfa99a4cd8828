// Package daily tracks the in-game day, the once-per-day roll and the
// consecutive-day streak.
package daily

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/trailquest/internal/store"
	"github.com/samdwyer/trailquest/internal/telemetry"
)

// DayState is the persisted day record.
type DayState struct {
	Day      int  `json:"day"`
	RollUsed bool `json:"rollUsed"`
}

// StreakState is the persisted streak record.
type StreakState struct {
	Streak int `json:"streak"`
}

// State is a snapshot of both records.
type State struct {
	Day      int
	RollUsed bool
	Streak   int
}

// Cycle owns the day and streak records.
type Cycle struct {
	store  store.Store
	log    zerolog.Logger
	day    DayState
	streak StreakState
}

// NewCycle creates a cycle on day 1. Call Load to restore saved state.
func NewCycle(s store.Store, log zerolog.Logger) *Cycle {
	return &Cycle{store: s, log: log, day: DayState{Day: 1}}
}

// Load restores both records, defaulting each independently when absent
// or corrupt. Other read failures are returned and nothing changes.
func (c *Cycle) Load(ctx context.Context) error {
	var d DayState
	if err := store.Load(ctx, c.store, store.SlotDay, &d); err != nil {
		if !store.Recoverable(err) {
			return fmt.Errorf("load day: %w", err)
		}
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Warn().Err(err).Msg("day state unreadable, starting on day 1")
		}
		d = DayState{Day: 1}
	}
	if d.Day < 1 {
		d.Day = 1
	}

	var s StreakState
	if err := store.Load(ctx, c.store, store.SlotStreak, &s); err != nil {
		if !store.Recoverable(err) {
			return fmt.Errorf("load streak: %w", err)
		}
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Warn().Err(err).Msg("streak unreadable, starting from zero")
		}
		s = StreakState{}
	}
	if s.Streak < 0 {
		s.Streak = 0
	}

	c.day, c.streak = d, s
	return nil
}

// State returns the current day, roll gate and streak.
func (c *Cycle) State() State {
	return State{Day: c.day.Day, RollUsed: c.day.RollUsed, Streak: c.streak.Streak}
}

// CanRoll reports whether the daily roll is available.
func (c *Cycle) CanRoll(atEnd bool) bool {
	return !c.day.RollUsed && !atEnd
}

// UseRoll consumes today's roll. It is refused when the roll is already
// used or the player stands on the last tile. The used flag is persisted
// before the caller moves.
func (c *Cycle) UseRoll(ctx context.Context, atEnd bool) bool {
	tracer := telemetry.Tracer("daily")
	ctx, span := tracer.Start(ctx, "daily.roll")
	defer span.End()

	allowed := c.CanRoll(atEnd)
	span.SetAttributes(
		attribute.Int("day", c.day.Day),
		attribute.Bool("roll.allowed", allowed),
	)
	if !allowed {
		return false
	}
	c.day.RollUsed = true
	c.persistDay(ctx)
	return true
}

// AdvanceDay moves to the next day. The streak grows when today's roll was
// used and resets otherwise.
func (c *Cycle) AdvanceDay(ctx context.Context) State {
	tracer := telemetry.Tracer("daily")
	ctx, span := tracer.Start(ctx, "daily.advance")
	defer span.End()

	if c.day.RollUsed {
		c.streak.Streak++
	} else {
		c.streak.Streak = 0
	}
	c.persistStreak(ctx)

	c.day.Day++
	c.day.RollUsed = false
	c.persistDay(ctx)

	span.SetAttributes(
		attribute.Int("day", c.day.Day),
		attribute.Int("streak", c.streak.Streak),
	)
	c.log.Info().Int("day", c.day.Day).Int("streak", c.streak.Streak).Msg("day advanced")
	return c.State()
}

// Reset returns to day 1 with no streak.
func (c *Cycle) Reset(ctx context.Context) {
	c.day = DayState{Day: 1}
	c.streak = StreakState{}
	c.persistStreak(ctx)
	c.persistDay(ctx)
}

func (c *Cycle) persistDay(ctx context.Context) {
	if err := store.Save(ctx, c.store, store.SlotDay, c.day); err != nil {
		c.log.Error().Err(err).Msg("persist day state")
	}
}

func (c *Cycle) persistStreak(ctx context.Context) {
	if err := store.Save(ctx, c.store, store.SlotStreak, c.streak); err != nil {
		c.log.Error().Err(err).Msg("persist streak")
	}
}
