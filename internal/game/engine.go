package game

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/samdwyer/trailquest/internal/daily"
	"github.com/samdwyer/trailquest/internal/gamedata"
	"github.com/samdwyer/trailquest/internal/ledger"
	"github.com/samdwyer/trailquest/internal/minigame"
	"github.com/samdwyer/trailquest/internal/override"
	"github.com/samdwyer/trailquest/internal/progress"
	"github.com/samdwyer/trailquest/internal/resolve"
	"github.com/samdwyer/trailquest/internal/reward"
	"github.com/samdwyer/trailquest/internal/rng"
	"github.com/samdwyer/trailquest/internal/store"
	"github.com/samdwyer/trailquest/internal/trail"
)

// Options configures an Engine. Zero-valued fields fall back to defaults:
// the embedded catalogue and balance tables, a crypto-seeded random source
// and a memory store.
type Options struct {
	Store     store.Store
	Rand      rng.Source
	Catalogue *gamedata.RewardRegistry
	Balance   *gamedata.Balance
	Plan      override.Provider // Tutorial day plan, may be nil
	Log       zerolog.Logger
}

// Roll is the result of the daily roll.
type Roll struct {
	Die      int
	Moved    int
	Outcomes []resolve.Outcome
}

// Engine is the single entry point used by the presentation layer. Every
// operation is one interaction: interactions are serialised and each
// returns the outcomes it produced, chained landings included.
type Engine struct {
	mu sync.Mutex

	log      zerolog.Logger
	tiles    *trail.Registry
	ledger   *ledger.Ledger
	tracker  *progress.Tracker
	resolver *resolve.Resolver
	cycle    *daily.Cycle
	force    *override.Slot
	plan     override.Provider

	collected []resolve.Outcome
	observers []func(resolve.Outcome)
}

// NewEngine builds and loads every component.
func NewEngine(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Rand == nil {
		seed, err := rng.NewSeed()
		if err != nil {
			return nil, err
		}
		opts.Rand = rng.New(seed)
	}
	if opts.Catalogue == nil {
		catalogue, err := gamedata.LoadRewardRegistry()
		if err != nil {
			return nil, err
		}
		opts.Catalogue = catalogue
	}
	if opts.Balance == nil {
		balance, err := gamedata.LoadBalance("", opts.Catalogue)
		if err != nil {
			return nil, err
		}
		opts.Balance = &balance
	}

	e := &Engine{
		log:   opts.Log,
		force: override.NewSlot(),
		plan:  opts.Plan,
	}
	e.tiles = trail.NewRegistry(opts.Store, opts.Rand, opts.Log.With().Str("component", "trail").Logger())
	e.ledger = ledger.New(opts.Store, opts.Log.With().Str("component", "ledger").Logger())
	e.cycle = daily.NewCycle(opts.Store, opts.Log.With().Str("component", "daily").Logger())
	e.tracker = progress.NewTracker(opts.Store, e.tiles, opts.Log.With().Str("component", "progress").Logger())

	selector := reward.NewSelector(opts.Catalogue, opts.Balance.Prizes, e.force)
	e.resolver = resolve.New(resolve.Deps{
		Tiles:    e.tiles,
		Ledger:   e.ledger,
		Selector: selector,
		Games:    minigame.NewEngine(opts.Balance.Minigames, selector, e.force, opts.Rand),
		Force:    e.force,
		Rand:     opts.Rand,
		Log:      opts.Log.With().Str("component", "resolve").Logger(),
	})
	e.tracker.SetArrival(e.resolver)
	e.resolver.SetMover(e.tracker)
	e.resolver.Subscribe(e.publish)

	for _, load := range []func(context.Context) error{e.tiles.Ensure, e.ledger.Load, e.tracker.Load, e.cycle.Load} {
		if err := load(ctx); err != nil {
			return nil, err
		}
	}

	e.log.Info().
		Int("level", e.tracker.Current()).
		Int("day", e.cycle.State().Day).
		Msg("engine ready")
	return e, nil
}

// publish collects an outcome for the running interaction and forwards it.
func (e *Engine) publish(o resolve.Outcome) {
	e.collected = append(e.collected, o)
	for _, fn := range e.observers {
		fn(o)
	}
}

// interact runs fn as one serialised interaction and returns its outcomes.
// The day's planned override is primed before the first interaction of
// each day.
func (e *Engine) interact(fn func()) []resolve.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.force.Prime(e.cycle.State().Day, e.plan)
	e.collected = nil
	fn()
	out := e.collected
	e.collected = nil
	return out
}

// Subscribe registers fn to receive every outcome as it happens. fn runs
// inside the interaction and must not call back into the Engine.
func (e *Engine) Subscribe(fn func(resolve.Outcome)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// OnHop registers fn to receive every level the player passes through.
// fn runs inside the interaction and must not call back into the Engine.
func (e *Engine) OnHop(fn func(level int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracker.OnHop(fn)
}

// OnBalance registers fn to receive the balance after every change.
// fn runs inside the interaction and must not call back into the Engine.
func (e *Engine) OnBalance(fn func(ledger.Balance)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger.Subscribe(fn)
}

// Progress returns the player's level.
func (e *Engine) Progress() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Current()
}

// Tile returns the assignment of level.
func (e *Engine) Tile(level int) (trail.Assignment, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tiles.Get(level)
}

// Tiles returns every assignment ordered by level.
func (e *Engine) Tiles() []trail.Assignment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tiles.All()
}

// Balance returns the currency counters.
func (e *Engine) Balance() ledger.Balance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Balance()
}

// Day returns the day, roll gate and streak.
func (e *Engine) Day() daily.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cycle.State()
}

// CanRoll reports whether the daily roll is available.
func (e *Engine) CanRoll() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cycle.CanRoll(e.tracker.AtEnd())
}

// Pending reports whether level has an open reveal or minigame round.
func (e *Engine) Pending(level int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.Pending(level)
}

// Advance moves forward up to n tiles and returns the steps applied.
func (e *Engine) Advance(ctx context.Context, n int) (int, []resolve.Outcome) {
	var applied int
	out := e.interact(func() { applied = e.tracker.Advance(ctx, n) })
	return applied, out
}

// Retreat moves back up to n tiles and returns the steps applied.
func (e *Engine) Retreat(ctx context.Context, n int) (int, []resolve.Outcome) {
	var applied int
	out := e.interact(func() { applied = e.tracker.Retreat(ctx, n) })
	return applied, out
}

// CompleteCurrent moves past level when it is the player's current tile.
func (e *Engine) CompleteCurrent(ctx context.Context, level int) (bool, []resolve.Outcome) {
	var moved bool
	out := e.interact(func() { moved = e.tracker.CompleteCurrent(ctx, level) })
	return moved, out
}

// Resolve interacts with level directly.
func (e *Engine) Resolve(ctx context.Context, level int) []resolve.Outcome {
	return e.interact(func() { e.resolver.Resolve(ctx, level) })
}

// Pick finishes an open reveal.
func (e *Engine) Pick(ctx context.Context, level, option int) []resolve.Outcome {
	return e.interact(func() { e.resolver.Pick(ctx, level, option) })
}

// Play finishes an open minigame.
func (e *Engine) Play(ctx context.Context, level, choice int) []resolve.Outcome {
	return e.interact(func() { e.resolver.Play(ctx, level, choice) })
}

// UseRoll spends the daily roll and advances by the die. The roll stays
// spent whatever the move does.
func (e *Engine) UseRoll(ctx context.Context) (Roll, bool) {
	var roll Roll
	ok := false
	roll.Outcomes = e.interact(func() {
		if !e.cycle.UseRoll(ctx, e.tracker.AtEnd()) {
			return
		}
		ok = true
		roll.Die = e.resolver.RollDie()
		roll.Moved = e.tracker.Advance(ctx, roll.Die)
	})
	return roll, ok
}

// AdvanceDay moves to the next day.
func (e *Engine) AdvanceDay(ctx context.Context) daily.State {
	var s daily.State
	e.interact(func() { s = e.cycle.AdvanceDay(ctx) })
	return s
}

// Force arms a one-shot forced outcome for the next draws.
func (e *Engine) Force(o override.Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.force.Arm(o)
}

// Reset returns the player to level 1 with no completed tiles, zero
// currencies and a fresh day cycle. The trail layout is kept.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resolver.Reset()
	e.force.Clear()
	e.tiles.Reset(ctx)
	e.ledger.Reset(ctx)
	e.tracker.Reset(ctx)
	e.cycle.Reset(ctx)
	e.log.Info().Msg("progress reset")
}
