// Package progress owns the player's position on the trail and moves it one
// persisted hop at a time.
package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/trailquest/internal/store"
	"github.com/samdwyer/trailquest/internal/telemetry"
	"github.com/samdwyer/trailquest/internal/trail"
)

// State is the persisted position record.
type State struct {
	Current int `json:"current"` // 1..trail.LevelCount
}

// Arrival is called once when a move comes to rest on a tile.
type Arrival interface {
	Arrive(ctx context.Context, level int)
}

// TileLookup reports the tile a move lands on.
type TileLookup interface {
	Get(level int) (trail.Assignment, bool)
}

// Tracker is the progression state machine.
type Tracker struct {
	store   store.Store
	tiles   TileLookup
	log     zerolog.Logger
	state   State
	arrival Arrival
	hops    []func(level int)
}

// NewTracker creates a tracker at level 1. Call Load to restore the saved
// position.
func NewTracker(s store.Store, tiles TileLookup, log zerolog.Logger) *Tracker {
	return &Tracker{
		store: s,
		tiles: tiles,
		log:   log,
		state: State{Current: 1},
	}
}

// SetArrival installs the landing handler.
func (t *Tracker) SetArrival(a Arrival) {
	t.arrival = a
}

// OnHop registers fn to receive every level passed through, including the
// final one. Observers run after each hop has been persisted.
func (t *Tracker) OnHop(fn func(level int)) {
	t.hops = append(t.hops, fn)
}

// Load restores the saved position, defaulting to level 1 when absent or
// malformed and clamping out-of-range values. Other read failures are
// returned and the position is unchanged.
func (t *Tracker) Load(ctx context.Context) error {
	var s State
	if err := store.Load(ctx, t.store, store.SlotProgress, &s); err != nil {
		if !store.Recoverable(err) {
			return fmt.Errorf("load progress: %w", err)
		}
		if !errors.Is(err, store.ErrNotFound) {
			t.log.Warn().Err(err).Msg("progress unreadable, starting at level 1")
		}
		s = State{Current: 1}
	}
	s.Current = clamp(s.Current)
	t.state = s
	return nil
}

// Current returns the player's level.
func (t *Tracker) Current() int {
	return t.state.Current
}

// AtEnd reports whether the player stands on the last tile.
func (t *Tracker) AtEnd() bool {
	return t.state.Current >= trail.LevelCount
}

// Advance moves forward up to steps tiles, clamped at the last tile, and
// returns the number of steps taken.
func (t *Tracker) Advance(ctx context.Context, steps int) int {
	if steps <= 0 {
		return 0
	}
	tracer := telemetry.Tracer("progress")
	ctx, span := tracer.Start(ctx, "progress.advance")
	defer span.End()

	applied := min(steps, trail.LevelCount-t.state.Current)
	span.SetAttributes(
		attribute.Int("progress.from", t.state.Current),
		attribute.Int("progress.requested", steps),
		attribute.Int("progress.applied", applied),
	)
	t.walk(ctx, applied, 1)
	return applied
}

// Retreat moves back up to steps tiles, clamped at level 1, and returns
// the number of steps taken.
func (t *Tracker) Retreat(ctx context.Context, steps int) int {
	if steps <= 0 {
		return 0
	}
	tracer := telemetry.Tracer("progress")
	ctx, span := tracer.Start(ctx, "progress.retreat")
	defer span.End()

	applied := min(steps, t.state.Current-1)
	span.SetAttributes(
		attribute.Int("progress.from", t.state.Current),
		attribute.Int("progress.requested", steps),
		attribute.Int("progress.applied", applied),
	)
	t.walk(ctx, applied, -1)
	return applied
}

// CompleteCurrent moves to the next tile when level is the player's
// current tile and the end has not been reached. It reports whether the
// player moved.
func (t *Tracker) CompleteCurrent(ctx context.Context, level int) bool {
	if level != t.state.Current || t.AtEnd() {
		return false
	}
	t.walk(ctx, 1, 1)
	return true
}

// Reset puts the player back on level 1 without an arrival.
func (t *Tracker) Reset(ctx context.Context) {
	t.state = State{Current: 1}
	t.persist(ctx)
}

// walk performs n hops in direction dir and then lands.
func (t *Tracker) walk(ctx context.Context, n, dir int) {
	if n <= 0 {
		return
	}
	for i := 0; i < n; i++ {
		t.state.Current += dir
		t.persist(ctx)
		for _, fn := range t.hops {
			fn(t.state.Current)
		}
	}
	t.land(ctx)
}

// land fires the arrival for the current tile unless it is already completed.
func (t *Tracker) land(ctx context.Context) {
	level := t.state.Current
	if t.tiles != nil {
		if tile, ok := t.tiles.Get(level); ok && tile.Completed {
			t.log.Debug().Int("level", level).Msg("landed on completed tile")
			return
		}
	}
	if t.arrival != nil {
		t.arrival.Arrive(ctx, level)
	}
}

func (t *Tracker) persist(ctx context.Context) {
	if err := store.Save(ctx, t.store, store.SlotProgress, t.state); err != nil {
		t.log.Error().Err(err).Int("level", t.state.Current).Msg("persist progress")
	}
}

func clamp(level int) int {
	if level < 1 {
		return 1
	}
	if level > trail.LevelCount {
		return trail.LevelCount
	}
	return level
}
