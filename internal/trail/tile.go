// Package trail owns the 30-tile trail: which category sits on each level,
// which minigame a minigame tile plays, and per-tile completion flags.
package trail

// LevelCount is the number of tiles on the trail.
const LevelCount = 30

// Category identifies what landing on a tile does.
type Category string

const (
	InstantTokens Category = "instant_tokens"
	InstantPrize  Category = "instant_prize"
	Reveal        Category = "reveal"
	Minigame      Category = "minigame"
	BonusRound    Category = "bonus_round"
	Mystery       Category = "mystery"
	ExtraMove     Category = "extra_move"
	TravelBack    Category = "travel_back"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case InstantTokens, InstantPrize, Reveal, Minigame, BonusRound, Mystery, ExtraMove, TravelBack:
		return true
	default:
		return false
	}
}

// MysteryPool is what an unresolved mystery tile may turn into.
var MysteryPool = []Category{InstantTokens, InstantPrize, Reveal, Minigame, BonusRound, ExtraMove, TravelBack}

// InPool reports whether c is a valid mystery resolution.
func InPool(c Category) bool {
	for _, p := range MysteryPool {
		if p == c {
			return true
		}
	}
	return false
}

// mandatory categories each get at least one tile on generation.
var mandatory = []Category{InstantTokens, InstantPrize, Reveal, BonusRound, Mystery}

// fillPool is drawn from for every tile generation leaves unassigned.
var fillPool = []Category{InstantTokens, InstantPrize, Reveal, Mystery, Minigame}

// MinigameKind identifies one of the minigames.
type MinigameKind string

const (
	CoinFlip   MinigameKind = "coin_flip"
	PrizeWheel MinigameKind = "prize_wheel"
	ChestPick  MinigameKind = "chest_pick"
	LootBox    MinigameKind = "loot_box"
)

// MinigameKinds lists every supported minigame.
var MinigameKinds = []MinigameKind{CoinFlip, PrizeWheel, ChestPick, LootBox}

// Valid reports whether k is a supported minigame.
func (k MinigameKind) Valid() bool {
	for _, known := range MinigameKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Assignment is the persisted state of one tile.
type Assignment struct {
	Level        int          `json:"level"`
	Category     Category     `json:"category"`
	MinigameKind MinigameKind `json:"minigameKind,omitempty"`
	Completed    bool         `json:"completed"`
	ResolvedAs   Category     `json:"resolvedAs,omitempty"`
}

// Effective returns the category the tile behaves as: the stored resolution
// for a resolved mystery tile, its own category otherwise.
func (a Assignment) Effective() Category {
	if a.Category == Mystery && a.ResolvedAs != "" {
		return a.ResolvedAs
	}
	return a.Category
}

// Unresolved reports whether a is a mystery tile awaiting its first draw.
func (a Assignment) Unresolved() bool {
	return a.Category == Mystery && a.ResolvedAs == ""
}

// MinigameAssignment links a minigame tile to its minigame record.
type MinigameAssignment struct {
	Level     int          `json:"level"`
	Kind      MinigameKind `json:"kind"`
	Completed bool         `json:"completed"`
}
