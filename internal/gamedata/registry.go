package gamedata

import (
	"errors"
	"fmt"

	"github.com/samdwyer/trailquest/internal/rng"
)

// RewardRegistry holds the reward catalogue and provides lookup utilities.
type RewardRegistry struct {
	rewards map[string]*RewardDef
	all     []RewardDef
}

// NewRewardRegistry creates a registry from loaded reward definitions.
func NewRewardRegistry(rewards []RewardDef) *RewardRegistry {
	registry := &RewardRegistry{
		rewards: make(map[string]*RewardDef),
		all:     rewards,
	}
	for i := range rewards {
		registry.rewards[rewards[i].ID] = &rewards[i]
	}
	return registry
}

// LoadRewardRegistry loads and creates a registry from the embedded rewards.json.
func LoadRewardRegistry() (*RewardRegistry, error) {
	file, err := Load[RewardsFile]("rewards.json")
	if err != nil {
		return nil, err
	}
	if len(file.Rewards) == 0 {
		return nil, errors.New("no rewards loaded from rewards.json")
	}
	for i, r := range file.Rewards {
		if r.ID == "" || !r.Kind.Valid() || r.Amount < 0 {
			return nil, fmt.Errorf("rewards.json[%d]: invalid reward %+v", i, r)
		}
	}
	return NewRewardRegistry(file.Rewards), nil
}

// MustLoadRewardRegistry loads a registry, panicking on error.
func MustLoadRewardRegistry() *RewardRegistry {
	registry, err := LoadRewardRegistry()
	if err != nil {
		panic(err)
	}
	return registry
}

// GetByID returns the reward definition with the given ID, or nil if not found.
func (r *RewardRegistry) GetByID(id string) *RewardDef {
	return r.rewards[id]
}

// All returns all reward definitions.
func (r *RewardRegistry) All() []RewardDef {
	return r.all
}

// Count returns the number of rewards in the registry.
func (r *RewardRegistry) Count() int {
	return len(r.all)
}

// PickWeighted selects an index using weighted probability.
// Entries with higher weight are more likely to be selected. Returns -1 when
// no entry has positive weight.
func PickWeighted(weights []int, src rng.Source) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	roll := src.IntN(total)

	cumulative := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		if roll < cumulative {
			return i
		}
	}

	// Fallback (shouldn't happen)
	return len(weights) - 1
}

// LoadBalance loads the embedded prize and minigame tables and, when
// overridePath is not empty, applies the YAML overrides on top. The result
// is validated against the reward catalogue.
func LoadBalance(overridePath string, catalogue *RewardRegistry) (Balance, error) {
	prizes, err := Load[PrizeTables]("prizes.json")
	if err != nil {
		return Balance{}, err
	}
	minigames, err := Load[MinigameTables]("minigames.json")
	if err != nil {
		return Balance{}, err
	}
	balance := Balance{Prizes: prizes, Minigames: minigames}

	if overridePath != "" {
		override, err := LoadYAMLFile[Balance](overridePath)
		if err != nil {
			return Balance{}, err
		}
		balance = mergeBalance(balance, override)
	}

	if err := balance.Validate(catalogue); err != nil {
		return Balance{}, err
	}
	return balance, nil
}

func mergeBalance(base, override Balance) Balance {
	if override.Prizes.InstantTokens != (Range{}) {
		base.Prizes.InstantTokens = override.Prizes.InstantTokens
	}
	if len(override.Prizes.InstantPrize) > 0 {
		base.Prizes.InstantPrize = override.Prizes.InstantPrize
	}
	if len(override.Prizes.BonusRound) > 0 {
		base.Prizes.BonusRound = override.Prizes.BonusRound
	}
	if override.Minigames.ChestCount > 0 {
		base.Minigames.ChestCount = override.Minigames.ChestCount
	}
	if len(override.Minigames.Wheel) > 0 {
		base.Minigames.Wheel = override.Minigames.Wheel
	}
	if len(override.Minigames.LootBox) > 0 {
		base.Minigames.LootBox = override.Minigames.LootBox
	}
	return base
}

// Validate checks ranges, weights and reward references.
func (b Balance) Validate(catalogue *RewardRegistry) error {
	if err := validateRange("instantTokens", b.Prizes.InstantTokens); err != nil {
		return err
	}
	if err := validateBands("instantPrize", b.Prizes.InstantPrize); err != nil {
		return err
	}
	if err := validateBands("bonusRound", b.Prizes.BonusRound); err != nil {
		return err
	}
	if b.Minigames.ChestCount < 2 {
		return fmt.Errorf("chestCount must be at least 2, got %d", b.Minigames.ChestCount)
	}

	wheelWeight := 0
	for i, seg := range b.Minigames.Wheel {
		if catalogue != nil && catalogue.GetByID(seg.Reward) == nil {
			return fmt.Errorf("wheel[%d]: unknown reward %q", i, seg.Reward)
		}
		if seg.Weight < 0 {
			return fmt.Errorf("wheel[%d]: negative weight", i)
		}
		wheelWeight += seg.Weight
	}
	if wheelWeight <= 0 {
		return fmt.Errorf("wheel: %w", ErrNoWeight)
	}

	lootWeight := 0.0
	for i, tier := range b.Minigames.LootBox {
		if tier.Weight < 0 {
			return fmt.Errorf("lootBox[%d]: negative weight", i)
		}
		if len(tier.Rewards) == 0 {
			return fmt.Errorf("lootBox[%d]: tier %q has no rewards", i, tier.ID)
		}
		for _, id := range tier.Rewards {
			if catalogue != nil && catalogue.GetByID(id) == nil {
				return fmt.Errorf("lootBox[%d]: unknown reward %q", i, id)
			}
		}
		lootWeight += tier.Weight
	}
	if lootWeight <= 0 {
		return fmt.Errorf("lootBox: %w", ErrNoWeight)
	}
	return nil
}

// LoadCategoryStyles loads category display styles keyed by category ID.
func LoadCategoryStyles() (map[string]CategoryStyle, error) {
	file, err := Load[CategoriesFile]("categories.json")
	if err != nil {
		return nil, err
	}
	styles := make(map[string]CategoryStyle, len(file.Categories))
	for _, c := range file.Categories {
		styles[c.ID] = c
	}
	return styles, nil
}
