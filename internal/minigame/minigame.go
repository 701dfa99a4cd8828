// Package minigame runs the four minigames. Every round is prepared before
// the player sees it, so anything shown during play (the wheel segment,
// the winning chest, the loot tier) is fixed before the player acts.
package minigame

import (
	"github.com/samdwyer/trailquest/internal/gamedata"
	"github.com/samdwyer/trailquest/internal/override"
	"github.com/samdwyer/trailquest/internal/reward"
	"github.com/samdwyer/trailquest/internal/rng"
	"github.com/samdwyer/trailquest/internal/trail"
)

// Coin faces for a coin flip call.
const (
	Heads = 0
	Tails = 1
)

// Round is a prepared minigame awaiting the player's choice.
type Round struct {
	Level   int
	Kind    trail.MinigameKind
	Choices int // Options the player picks from; 1 means "just play"

	winner  int           // Chest pick: winning chest
	segment int           // Prize wheel: landed segment
	tier    string        // Loot box: landed tier name
	prize   reward.Reward // Prize wheel and loot box: pre-selected reward
}

// Result is the outcome of a played round.
type Result struct {
	Kind    trail.MinigameKind
	Success bool
	Reward  reward.Reward
	Choice  int    // The player's choice
	Landed  int    // Coin face, wheel segment or winning chest
	Detail  string // Loot tier name
}

// Engine prepares and plays rounds.
type Engine struct {
	tables   gamedata.MinigameTables
	selector *reward.Selector
	force    *override.Slot
	rng      rng.Source
}

// NewEngine creates a minigame engine. force may be nil.
func NewEngine(tables gamedata.MinigameTables, selector *reward.Selector, force *override.Slot, src rng.Source) *Engine {
	return &Engine{tables: tables, selector: selector, force: force, rng: src}
}

// Prepare fixes the hidden outcome of a new round.
func (e *Engine) Prepare(level int, kind trail.MinigameKind) *Round {
	r := &Round{Level: level, Kind: kind, Choices: 1}
	switch kind {
	case trail.CoinFlip:
		r.Choices = 2
	case trail.ChestPick:
		r.Choices = max(e.tables.ChestCount, 2)
		r.winner = e.rng.IntN(r.Choices)
	case trail.PrizeWheel:
		r.segment = e.spinWheel()
		r.prize = e.segmentReward(r.segment)
	case trail.LootBox:
		r.tier, r.prize = e.openBox()
	}
	return r
}

// Play resolves a prepared round with the player's choice. Out-of-range
// choices are clamped.
func (e *Engine) Play(r *Round, choice int) Result {
	choice = min(max(choice, 0), r.Choices-1)
	res := Result{Kind: r.Kind, Choice: choice, Reward: reward.Nothing}

	switch r.Kind {
	case trail.CoinFlip:
		res.Landed = e.rng.IntN(2)
		if win, ok := e.force.TakeWin(); ok {
			res.Landed = choice
			if !win {
				res.Landed = 1 - choice
			}
		}
		res.Success = res.Landed == choice
		if res.Success {
			res.Reward = e.selector.SelectUniform(e.rng)
		}

	case trail.ChestPick:
		if win, ok := e.force.TakeWin(); ok {
			r.winner = e.forcedChest(r, choice, win)
		}
		res.Landed = r.winner
		res.Success = choice == r.winner
		if res.Success {
			res.Reward = e.selector.SelectUniform(e.rng)
		}

	case trail.PrizeWheel:
		res.Landed = r.segment
		res.Reward = r.prize
		res.Success = !r.prize.IsNothing()

	case trail.LootBox:
		res.Detail = r.tier
		res.Reward = r.prize
		res.Success = true
	}
	return res
}

// forcedChest moves the winning chest so the pick wins or loses as forced.
func (e *Engine) forcedChest(r *Round, choice int, win bool) int {
	if win {
		return choice
	}
	if r.winner != choice {
		return r.winner
	}
	return (choice + 1 + e.rng.IntN(r.Choices-1)) % r.Choices
}

// spinWheel picks the landed segment. A forced reward lands on its
// segment; a forced win or loss restricts the draw to paying or empty
// segments.
func (e *Engine) spinWheel() int {
	segments := e.tables.Wheel
	if id, ok := e.force.TakeReward(); ok {
		for i, s := range segments {
			if s.Reward == id {
				return i
			}
		}
	}

	weights := make([]int, len(segments))
	for i, s := range segments {
		weights[i] = s.Weight
	}
	if win, ok := e.force.TakeWin(); ok {
		filtered := make([]int, len(segments))
		found := false
		for i, s := range segments {
			pays := !e.segmentReward(i).IsNothing()
			if pays == win && s.Weight > 0 {
				filtered[i] = s.Weight
				found = true
			}
		}
		if found {
			weights = filtered
		}
	}

	idx := gamedata.PickWeighted(weights, e.rng)
	if idx < 0 {
		return 0
	}
	return idx
}

func (e *Engine) segmentReward(i int) reward.Reward {
	if i < 0 || i >= len(e.tables.Wheel) {
		return reward.Nothing
	}
	r, ok := e.selector.ByID(e.tables.Wheel[i].Reward)
	if !ok {
		return reward.Nothing
	}
	return r
}

// openBox rolls a rarity tier and a reward within it. The roll is uniform
// over the total weight and the first tier whose cumulative weight reaches
// it wins.
func (e *Engine) openBox() (string, reward.Reward) {
	if r, ok := e.selector.Forced(); ok {
		for _, tier := range e.tables.LootBox {
			for _, id := range tier.Rewards {
				if id == r.ID {
					return tier.Name, r
				}
			}
		}
		return "", r
	}

	tiers := e.tables.LootBox
	total := 0.0
	for _, t := range tiers {
		if t.Weight > 0 {
			total += t.Weight
		}
	}
	if total <= 0 {
		return "", reward.Nothing
	}

	roll := e.rng.Float64() * total
	cumulative := 0.0
	picked := -1
	for i, t := range tiers {
		if t.Weight <= 0 {
			continue
		}
		cumulative += t.Weight
		picked = i
		if cumulative >= roll {
			break
		}
	}

	tier := tiers[picked]
	if len(tier.Rewards) == 0 {
		return tier.Name, reward.Nothing
	}
	r, ok := e.selector.ByID(tier.Rewards[e.rng.IntN(len(tier.Rewards))])
	if !ok {
		return tier.Name, reward.Nothing
	}
	return tier.Name, r
}
