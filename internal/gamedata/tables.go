package gamedata

import (
	"errors"
	"fmt"
)

// RewardKind identifies which currency a reward credits.
type RewardKind string

const (
	RewardTokens    RewardKind = "tokens"
	RewardFreePlays RewardKind = "free_plays"
	RewardCash      RewardKind = "cash"
	RewardBonus     RewardKind = "bonus"
	RewardNothing   RewardKind = "nothing"
)

// Valid reports whether k is a known reward kind.
func (k RewardKind) Valid() bool {
	switch k {
	case RewardTokens, RewardFreePlays, RewardCash, RewardBonus, RewardNothing:
		return true
	default:
		return false
	}
}

// RewardDef defines a catalogue reward loaded from JSON.
type RewardDef struct {
	ID     string     `json:"id" yaml:"id"`
	Kind   RewardKind `json:"kind" yaml:"kind"`
	Amount int        `json:"amount" yaml:"amount"` // Pence for cash/bonus, a count otherwise
	Label  string     `json:"label,omitempty" yaml:"label,omitempty"`
}

// RewardsFile represents the structure of rewards.json.
type RewardsFile struct {
	Rewards []RewardDef `json:"rewards"`
}

// Range is an inclusive amount range.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// PrizeBand is one weighted entry of a prize distribution.
type PrizeBand struct {
	Kind   RewardKind `json:"kind" yaml:"kind"`
	Weight int        `json:"weight" yaml:"weight"`
	Min    int        `json:"min" yaml:"min"`
	Max    int        `json:"max" yaml:"max"`
}

// PrizeTables holds the designer-tunable prize distributions (prizes.json).
type PrizeTables struct {
	InstantTokens Range       `json:"instantTokens" yaml:"instant_tokens"`
	InstantPrize  []PrizeBand `json:"instantPrize" yaml:"instant_prize"`
	BonusRound    []PrizeBand `json:"bonusRound" yaml:"bonus_round"`
}

// WheelSegment is one slice of the prize wheel.
type WheelSegment struct {
	Reward string `json:"reward" yaml:"reward"` // Catalogue reward ID
	Weight int    `json:"weight" yaml:"weight"`
}

// LootTier is one rarity bucket of the loot box.
type LootTier struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Weight  float64  `json:"weight" yaml:"weight"`
	Rewards []string `json:"rewards" yaml:"rewards"` // Catalogue reward IDs
}

// MinigameTables holds minigame configuration (minigames.json).
type MinigameTables struct {
	ChestCount int            `json:"chestCount" yaml:"chest_count"`
	Wheel      []WheelSegment `json:"wheel" yaml:"wheel"`
	LootBox    []LootTier     `json:"lootBox" yaml:"loot_box"`
}

// CategoryStyle describes how a tile category is drawn.
type CategoryStyle struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Glyph string `json:"glyph"`
	Color string `json:"color"` // Hex color code (e.g., "#00FF00")
}

// GlyphRune returns the glyph as a rune for rendering.
func (c *CategoryStyle) GlyphRune() rune {
	if len(c.Glyph) == 0 {
		return '?'
	}
	return rune(c.Glyph[0])
}

// CategoriesFile represents the structure of categories.json.
type CategoriesFile struct {
	Categories []CategoryStyle `json:"categories"`
}

// Balance bundles every tunable table. A YAML balance file may override any
// non-empty section of the embedded defaults.
type Balance struct {
	Prizes    PrizeTables    `yaml:"prizes"`
	Minigames MinigameTables `yaml:"minigames"`
}

// ErrNoWeight indicates a weighted table has no positive weight.
var ErrNoWeight = errors.New("weighted table has no positive weight")

func validateRange(name string, r Range) error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%s: invalid range [%d,%d]", name, r.Min, r.Max)
	}
	return nil
}

func validateBands(name string, bands []PrizeBand) error {
	total := 0
	for i, b := range bands {
		if !b.Kind.Valid() || b.Kind == RewardNothing {
			return fmt.Errorf("%s[%d]: invalid kind %q", name, i, b.Kind)
		}
		if b.Weight < 0 {
			return fmt.Errorf("%s[%d]: negative weight", name, i)
		}
		if err := validateRange(fmt.Sprintf("%s[%d]", name, i), Range{Min: b.Min, Max: b.Max}); err != nil {
			return err
		}
		if b.Min == 0 {
			return fmt.Errorf("%s[%d]: prize bands must pay at least 1", name, i)
		}
		total += b.Weight
	}
	if total <= 0 {
		return fmt.Errorf("%s: %w", name, ErrNoWeight)
	}
	return nil
}
