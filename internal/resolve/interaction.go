package resolve

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/trailquest/internal/reward"
	"github.com/samdwyer/trailquest/internal/telemetry"
	"github.com/samdwyer/trailquest/internal/trail"
)

// openReveal pre-selects the winning option of a reveal, reusing an open
// round so reopening cannot reshuffle it.
func (r *Resolver) openReveal(level int, viaMystery bool) *round {
	if rd, ok := r.rounds[level]; ok && rd.game == nil {
		return rd
	}
	rd := &round{viaMystery: viaMystery, winner: r.rng.IntN(revealOptions)}
	r.rounds[level] = rd
	return rd
}

// Pick finishes a reveal with the player's option. The winning option pays
// an instant-prize draw; any pick completes the tile. It reports false when
// level is not an open reveal.
func (r *Resolver) Pick(ctx context.Context, level, option int) (Outcome, bool) {
	tracer := telemetry.Tracer("resolve")
	ctx, span := tracer.Start(ctx, "resolve.reveal")
	defer span.End()

	tile, ok := r.tiles.Get(level)
	if !ok || tile.Completed || tile.Effective() != trail.Reveal {
		return Outcome{}, false
	}
	rd := r.openReveal(level, tile.Category == trail.Mystery)

	option = min(max(option, 0), revealOptions-1)
	rw := reward.Nothing
	if option == rd.winner {
		rw = r.selector.InstantPrize(r.rng)
	}
	delete(r.rounds, level)

	span.SetAttributes(
		attribute.Int("tile.level", level),
		attribute.Int("reveal.option", option),
		attribute.Int("reveal.winner", rd.winner),
	)

	out := r.pay(ctx, Outcome{Level: level, Category: trail.Reveal, ViaMystery: rd.viaMystery, Landed: rd.winner}, rw)
	return out, true
}

// openMinigame ensures the minigame record for a minigame tile and prepares
// a round unless one is already open.
func (r *Resolver) openMinigame(ctx context.Context, base Outcome) Outcome {
	m, ok := r.tiles.Minigame(ctx, base.Level)
	if !ok {
		r.log.Error().Int("level", base.Level).Msg("minigame tile without a minigame")
		base.Status = StatusAbandoned
		return r.emit(base)
	}
	base.Minigame = m.Kind
	if m.Completed {
		r.tiles.MarkCompleted(ctx, base.Level)
		base.Status = StatusAlreadyCompleted
		base.Label = "Already played"
		return r.emit(base)
	}

	rd, open := r.rounds[base.Level]
	if !open || rd.game == nil || rd.game.Kind != m.Kind {
		rd = &round{viaMystery: base.ViaMystery, game: r.games.Prepare(base.Level, m.Kind)}
		r.rounds[base.Level] = rd
	}
	base.Status = StatusAwaitingChoice
	base.Choices = rd.game.Choices
	return r.emit(base)
}

// Play finishes a minigame with the player's choice (coin face or chest
// index; ignored by the wheel and loot box). The minigame and its tile are
// completed whether or not the player won. It reports false when level is
// not a playable minigame.
func (r *Resolver) Play(ctx context.Context, level, choice int) (Outcome, bool) {
	tracer := telemetry.Tracer("resolve")
	ctx, span := tracer.Start(ctx, "resolve.minigame")
	defer span.End()

	tile, ok := r.tiles.Get(level)
	if !ok || tile.Completed || tile.Effective() != trail.Minigame {
		return Outcome{}, false
	}
	m, ok := r.tiles.Minigame(ctx, level)
	if !ok || m.Completed {
		return Outcome{}, false
	}

	rd, open := r.rounds[level]
	if !open || rd.game == nil || rd.game.Kind != m.Kind {
		rd = &round{viaMystery: tile.Category == trail.Mystery, game: r.games.Prepare(level, m.Kind)}
	}
	res := r.games.Play(rd.game, choice)
	delete(r.rounds, level)

	reward.Apply(ctx, r.ledger, res.Reward)
	r.tiles.CompleteMinigame(ctx, level)

	span.SetAttributes(
		attribute.Int("tile.level", level),
		attribute.String("minigame.kind", string(m.Kind)),
		attribute.Bool("minigame.success", res.Success),
	)
	r.log.Debug().Int("level", level).Str("minigame", string(m.Kind)).Bool("success", res.Success).Msg("minigame played")

	label := res.Reward.Label
	if !res.Success {
		label = "No win"
	}
	if res.Detail != "" {
		label = fmt.Sprintf("%s: %s", res.Detail, label)
	}
	return r.emit(Outcome{
		Level:      level,
		Category:   trail.Minigame,
		ViaMystery: rd.viaMystery,
		Status:     StatusResolved,
		Minigame:   m.Kind,
		Won:        res.Success,
		Label:      label,
		RewardKind: res.Reward.Kind,
		Amount:     res.Reward.Amount,
		Landed:     res.Landed,
	}), true
}
