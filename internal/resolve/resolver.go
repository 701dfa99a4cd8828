// Package resolve executes the effect of landing on a tile: credits,
// reveals, minigames and the movement tiles that chain into further
// landings.
package resolve

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/trailquest/internal/minigame"
	"github.com/samdwyer/trailquest/internal/override"
	"github.com/samdwyer/trailquest/internal/reward"
	"github.com/samdwyer/trailquest/internal/rng"
	"github.com/samdwyer/trailquest/internal/telemetry"
	"github.com/samdwyer/trailquest/internal/trail"
)

const (
	// maxRetries bounds re-reads of a tile whose category cannot be dispatched.
	maxRetries = 2
	// maxChain bounds nested landings caused by movement tiles.
	maxChain = trail.LevelCount
	// revealOptions is the number of concealed reveal options.
	revealOptions = 3
)

// Mover moves the player for movement tiles.
type Mover interface {
	Current() int
	Advance(ctx context.Context, steps int) int
	Retreat(ctx context.Context, steps int) int
}

// Tiles is the tile registry the resolver reads and completes.
type Tiles interface {
	Get(level int) (trail.Assignment, bool)
	ResolveMystery(ctx context.Context, level int, forced trail.Category) (trail.Assignment, bool)
	MarkCompleted(ctx context.Context, level int) bool
	Minigame(ctx context.Context, level int) (trail.MinigameAssignment, bool)
	CompleteMinigame(ctx context.Context, level int) bool
}

// round is an open reveal or minigame awaiting the player's choice.
type round struct {
	viaMystery bool
	winner     int             // Reveal: winning option
	game       *minigame.Round // Minigame rounds only
}

// Resolver dispatches tile effects.
type Resolver struct {
	tiles    Tiles
	ledger   reward.Crediter
	selector *reward.Selector
	games    *minigame.Engine
	mover    Mover
	force    *override.Slot
	rng      rng.Source
	log      zerolog.Logger

	rounds    map[int]*round
	depth     int
	observers []func(Outcome)
}

// Deps bundles the collaborators of a Resolver.
type Deps struct {
	Tiles    Tiles
	Ledger   reward.Crediter
	Selector *reward.Selector
	Games    *minigame.Engine
	Force    *override.Slot // may be nil
	Rand     rng.Source
	Log      zerolog.Logger
}

// New creates a resolver. Install a Mover with SetMover before resolving
// movement tiles.
func New(d Deps) *Resolver {
	return &Resolver{
		tiles:    d.Tiles,
		ledger:   d.Ledger,
		selector: d.Selector,
		games:    d.Games,
		force:    d.Force,
		rng:      d.Rand,
		log:      d.Log,
		rounds:   make(map[int]*round),
	}
}

// SetMover installs the progression used by movement tiles.
func (r *Resolver) SetMover(m Mover) {
	r.mover = m
}

// Subscribe registers fn to receive every outcome, including those of
// chained landings.
func (r *Resolver) Subscribe(fn func(Outcome)) {
	r.observers = append(r.observers, fn)
}

// Arrive resolves the tile the player just landed on.
func (r *Resolver) Arrive(ctx context.Context, level int) {
	r.Resolve(ctx, level)
}

// RollDie returns the next die value, honouring a forced die.
func (r *Resolver) RollDie() int {
	if d, ok := r.force.TakeDie(); ok && d >= 1 && d <= rng.DieSides {
		return d
	}
	return rng.RollDie(r.rng)
}

// forcedCategory consumes a forced mystery category.
func (r *Resolver) forcedCategory() trail.Category {
	c, ok := r.force.TakeCategory()
	if !ok {
		return ""
	}
	return trail.Category(c)
}

// Resolve runs the effect of level. Calling it again on a completed tile is
// a no-op reported as StatusAlreadyCompleted.
func (r *Resolver) Resolve(ctx context.Context, level int) Outcome {
	tracer := telemetry.Tracer("resolve")
	ctx, span := tracer.Start(ctx, "resolve.tile")
	defer span.End()

	r.depth++
	defer func() { r.depth-- }()

	span.SetAttributes(
		attribute.Int("tile.level", level),
		attribute.Int("resolve.depth", r.depth),
	)

	if r.depth > maxChain {
		r.log.Error().Int("level", level).Int("depth", r.depth).Msg("movement chain too deep, abandoning")
		return r.emit(Outcome{Level: level, Status: StatusAbandoned})
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		tile, ok := r.tiles.Get(level)
		if !ok {
			return r.emit(Outcome{Level: level, Status: StatusNoEffect})
		}
		if tile.Completed {
			return r.emit(Outcome{
				Level:      level,
				Category:   tile.Effective(),
				ViaMystery: tile.Category == trail.Mystery,
				Status:     StatusAlreadyCompleted,
				Label:      "Already completed",
			})
		}

		viaMystery := tile.Category == trail.Mystery
		if tile.Unresolved() {
			tile, _ = r.tiles.ResolveMystery(ctx, level, r.forcedCategory())
		}

		category := tile.Effective()
		span.SetAttributes(
			attribute.String("tile.category", string(category)),
			attribute.Bool("tile.via_mystery", viaMystery),
		)
		if out, ok := r.dispatch(ctx, tile, category, viaMystery); ok {
			return out
		}
		r.log.Warn().Int("level", level).Str("category", string(category)).Int("attempt", attempt).Msg("cannot dispatch tile")
	}

	r.log.Error().Int("level", level).Msg("tile dispatch retries exhausted")
	return r.emit(Outcome{Level: level, Status: StatusAbandoned})
}

// dispatch runs the branch for category. It reports false when the
// category has no branch.
func (r *Resolver) dispatch(ctx context.Context, tile trail.Assignment, category trail.Category, viaMystery bool) (Outcome, bool) {
	base := Outcome{Level: tile.Level, Category: category, ViaMystery: viaMystery}

	switch category {
	case trail.InstantTokens:
		return r.pay(ctx, base, r.selector.InstantTokens(r.rng)), true

	case trail.InstantPrize:
		return r.pay(ctx, base, r.selector.InstantPrize(r.rng)), true

	case trail.BonusRound:
		return r.pay(ctx, base, r.selector.BonusRound(r.rng)), true

	case trail.Reveal:
		r.openReveal(tile.Level, viaMystery)
		base.Status = StatusAwaitingChoice
		base.Choices = revealOptions
		return r.emit(base), true

	case trail.Minigame:
		return r.openMinigame(ctx, base), true

	case trail.ExtraMove:
		return r.move(ctx, base, 1), true

	case trail.TravelBack:
		return r.move(ctx, base, -1), true

	default:
		return Outcome{}, false
	}
}

// pay applies rw, completes the tile and reports the result.
func (r *Resolver) pay(ctx context.Context, base Outcome, rw reward.Reward) Outcome {
	reward.Apply(ctx, r.ledger, rw)
	r.tiles.MarkCompleted(ctx, base.Level)
	base.Status = StatusResolved
	base.Won = !rw.IsNothing()
	base.Label = rw.Label
	base.RewardKind = rw.Kind
	base.Amount = rw.Amount
	return r.emit(base)
}

// move completes a movement tile and then walks the die roll in dir. The
// movement outcome is published before the landings it causes.
func (r *Resolver) move(ctx context.Context, base Outcome, dir int) Outcome {
	r.tiles.MarkCompleted(ctx, base.Level)
	die := r.RollDie()
	base.Status = StatusResolved
	base.Die = die
	if r.mover == nil {
		r.log.Error().Int("level", base.Level).Msg("movement tile without a mover")
		return r.emit(base)
	}

	if dir > 0 {
		base.Moved = min(die, trail.LevelCount-r.mover.Current())
		base.Label = pluralSteps("Move forward", base.Moved)
	} else {
		base.Moved = min(die, r.mover.Current()-1)
		base.Label = pluralSteps("Travel back", base.Moved)
	}
	out := r.emit(base)

	if dir > 0 {
		r.mover.Advance(ctx, die)
	} else {
		r.mover.Retreat(ctx, die)
	}
	return out
}

func pluralSteps(prefix string, n int) string {
	switch n {
	case 0:
		return prefix + ": nowhere to go"
	case 1:
		return prefix + " 1 tile"
	default:
		return fmt.Sprintf("%s %d tiles", prefix, n)
	}
}

// emit stamps an ID on out and publishes it.
func (r *Resolver) emit(out Outcome) Outcome {
	out.ID = uuid.NewString()
	for _, fn := range r.observers {
		fn(out)
	}
	return out
}

// Pending reports whether level has an open round.
func (r *Resolver) Pending(level int) bool {
	_, ok := r.rounds[level]
	return ok
}

// Reset drops every open round.
func (r *Resolver) Reset() {
	r.rounds = make(map[int]*round)
}
