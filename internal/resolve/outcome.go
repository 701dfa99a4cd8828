package resolve

import (
	"github.com/samdwyer/trailquest/internal/gamedata"
	"github.com/samdwyer/trailquest/internal/trail"
)

// Status describes how an interaction with a tile ended.
type Status string

const (
	// StatusResolved means the tile's effect ran and the tile is completed.
	StatusResolved Status = "resolved"
	// StatusAlreadyCompleted means nothing happened because the tile was done.
	StatusAlreadyCompleted Status = "already_completed"
	// StatusAwaitingChoice means a reveal or minigame round is open.
	StatusAwaitingChoice Status = "awaiting_choice"
	// StatusNoEffect is a landing on a level without an assignment.
	StatusNoEffect Status = "no_effect"
	// StatusAbandoned means resolution gave up (unknown category or a
	// movement chain that would not terminate).
	StatusAbandoned Status = "abandoned"
)

// Outcome describes one tile interaction for presentation.
type Outcome struct {
	ID         string              `json:"id"`
	Level      int                 `json:"level"`
	Category   trail.Category      `json:"category,omitempty"` // Effective category
	ViaMystery bool                `json:"viaMystery,omitempty"`
	Status     Status              `json:"status"`
	Minigame   trail.MinigameKind  `json:"minigame,omitempty"`
	Won        bool                `json:"won,omitempty"`
	Label      string              `json:"label,omitempty"`
	RewardKind gamedata.RewardKind `json:"rewardKind,omitempty"`
	Amount     int                 `json:"amount,omitempty"`
	Choices    int                 `json:"choices,omitempty"` // Options offered while awaiting a choice
	Landed     int                 `json:"landed,omitempty"`  // Winning option, coin face or wheel segment
	Die        int                 `json:"die,omitempty"`     // Die rolled by a movement tile
	Moved      int                 `json:"moved,omitempty"`   // Steps a movement tile will apply
}

// Credited reports whether the outcome paid anything.
func (o Outcome) Credited() bool {
	return o.Status == StatusResolved && o.Amount > 0 && o.RewardKind != gamedata.RewardNothing && o.RewardKind != ""
}
