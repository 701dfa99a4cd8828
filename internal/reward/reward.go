// Package reward selects rewards from the catalogue and the prize
// distributions, and routes them to the ledger.
package reward

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/samdwyer/trailquest/internal/gamedata"
	"github.com/samdwyer/trailquest/internal/override"
	"github.com/samdwyer/trailquest/internal/rng"
)

// Reward is a concrete prize ready to be applied.
type Reward struct {
	ID     string              // Catalogue ID, empty for distribution draws
	Kind   gamedata.RewardKind // Currency credited
	Amount int                 // Pence for cash/bonus, a count otherwise
	Label  string              // Player-facing description
}

// Nothing is the empty reward.
var Nothing = Reward{ID: "nothing", Kind: gamedata.RewardNothing, Label: "Nothing"}

// IsNothing reports whether applying r credits nothing.
func (r Reward) IsNothing() bool {
	return r.Kind == gamedata.RewardNothing || r.Amount <= 0
}

// FromDef converts a catalogue definition, deriving a label when the
// definition has none.
func FromDef(d gamedata.RewardDef) Reward {
	label := d.Label
	if label == "" {
		label = Describe(d.Kind, d.Amount)
	}
	return Reward{ID: d.ID, Kind: d.Kind, Amount: d.Amount, Label: label}
}

// Describe renders an amount of a currency for display.
func Describe(kind gamedata.RewardKind, amount int) string {
	switch kind {
	case gamedata.RewardTokens:
		if amount == 1 {
			return "1 token"
		}
		return fmt.Sprintf("%d tokens", amount)
	case gamedata.RewardFreePlays:
		if amount == 1 {
			return "1 free play"
		}
		return fmt.Sprintf("%d free plays", amount)
	case gamedata.RewardCash:
		return Pounds(amount) + " cash"
	case gamedata.RewardBonus:
		return Pounds(amount) + " bonus"
	default:
		return "Nothing"
	}
}

// Pounds formats pence as a sterling amount, e.g. 150 -> "£1.50".
func Pounds(pence int) string {
	return "£" + decimal.New(int64(pence), -2).StringFixed(2)
}

// Selector draws rewards. Forced reward IDs from the override slot replace
// the next draw of any kind.
type Selector struct {
	catalogue *gamedata.RewardRegistry
	prizes    gamedata.PrizeTables
	force     *override.Slot
}

// NewSelector creates a selector over a catalogue and prize tables.
// force may be nil.
func NewSelector(catalogue *gamedata.RewardRegistry, prizes gamedata.PrizeTables, force *override.Slot) *Selector {
	return &Selector{catalogue: catalogue, prizes: prizes, force: force}
}

// ByID looks up a catalogue reward.
func (s *Selector) ByID(id string) (Reward, bool) {
	def := s.catalogue.GetByID(id)
	if def == nil {
		return Reward{}, false
	}
	return FromDef(*def), true
}

// Forced consumes a pending forced reward, if one names a catalogue entry.
func (s *Selector) Forced() (Reward, bool) {
	id, ok := s.force.TakeReward()
	if !ok {
		return Reward{}, false
	}
	return s.ByID(id)
}

// SelectUniform picks a catalogue reward uniformly.
func (s *Selector) SelectUniform(src rng.Source) Reward {
	if r, ok := s.Forced(); ok {
		return r
	}
	all := s.catalogue.All()
	if len(all) == 0 {
		return Nothing
	}
	return FromDef(all[src.IntN(len(all))])
}

// InstantTokens draws the token amount of an instant_tokens tile.
func (s *Selector) InstantTokens(src rng.Source) Reward {
	if r, ok := s.Forced(); ok {
		return r
	}
	n := rng.Between(src, s.prizes.InstantTokens.Min, s.prizes.InstantTokens.Max)
	return Reward{Kind: gamedata.RewardTokens, Amount: n, Label: Describe(gamedata.RewardTokens, n)}
}

// InstantPrize draws from the instant-prize distribution.
func (s *Selector) InstantPrize(src rng.Source) Reward {
	if r, ok := s.Forced(); ok {
		return r
	}
	return drawBand(s.prizes.InstantPrize, src)
}

// BonusRound draws from the bonus-round distribution. It always pays.
func (s *Selector) BonusRound(src rng.Source) Reward {
	if r, ok := s.Forced(); ok {
		return r
	}
	return drawBand(s.prizes.BonusRound, src)
}

func drawBand(bands []gamedata.PrizeBand, src rng.Source) Reward {
	weights := make([]int, len(bands))
	for i, b := range bands {
		weights[i] = b.Weight
	}
	idx := gamedata.PickWeighted(weights, src)
	if idx < 0 {
		return Nothing
	}
	band := bands[idx]
	n := rng.Between(src, band.Min, band.Max)
	return Reward{Kind: band.Kind, Amount: n, Label: Describe(band.Kind, n)}
}

// Crediter is the ledger surface rewards are applied to.
type Crediter interface {
	CreditTokens(ctx context.Context, n int)
	CreditFreePlays(ctx context.Context, n int)
	CreditCashPence(ctx context.Context, n int)
	CreditBonusPence(ctx context.Context, n int)
}

// Apply credits r to the ledger. Nothing rewards credit nothing.
func Apply(ctx context.Context, c Crediter, r Reward) {
	switch r.Kind {
	case gamedata.RewardTokens:
		c.CreditTokens(ctx, r.Amount)
	case gamedata.RewardFreePlays:
		c.CreditFreePlays(ctx, r.Amount)
	case gamedata.RewardCash:
		c.CreditCashPence(ctx, r.Amount)
	case gamedata.RewardBonus:
		c.CreditBonusPence(ctx, r.Amount)
	}
}
