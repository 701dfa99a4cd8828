package gamedata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samdwyer/trailquest/internal/rng"
)

func TestRewardRegistry(t *testing.T) {
	registry, err := LoadRewardRegistry()
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}

	if registry.Count() != 10 {
		t.Errorf("Expected 10 rewards, got %d", registry.Count())
	}

	nothing := registry.GetByID("nothing")
	if nothing == nil {
		t.Fatal("nothing reward not found by ID")
	}
	if nothing.Kind != RewardNothing || nothing.Amount != 0 {
		t.Errorf("nothing reward = %+v, want kind nothing with amount 0", *nothing)
	}

	if registry.GetByID("missing") != nil {
		t.Error("GetByID(missing) should return nil")
	}

	kinds := make(map[RewardKind]bool)
	for _, r := range registry.All() {
		kinds[r.Kind] = true
	}
	for _, k := range []RewardKind{RewardTokens, RewardFreePlays, RewardCash, RewardBonus, RewardNothing} {
		if !kinds[k] {
			t.Errorf("catalogue missing kind %q", k)
		}
	}
}

func TestPickWeightedDeterministic(t *testing.T) {
	weights := []int{50, 0, 30, 20}

	rng1 := rng.New(12345)
	rng2 := rng.New(12345)

	for i := 0; i < 20; i++ {
		a, b := PickWeighted(weights, rng1), PickWeighted(weights, rng2)
		if a != b {
			t.Errorf("Pick %d mismatch: %d != %d", i, a, b)
		}
		if a == 1 {
			t.Errorf("Pick %d selected a zero-weight entry", i)
		}
	}
}

func TestPickWeightedBuckets(t *testing.T) {
	weights := []int{2, 0, 3}

	tests := []struct {
		roll int
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 2},
		{4, 2},
	}
	for _, tt := range tests {
		if got := PickWeighted(weights, rng.NewScript(tt.roll)); got != tt.want {
			t.Errorf("PickWeighted(roll=%d) = %d, want %d", tt.roll, got, tt.want)
		}
	}

	if got := PickWeighted([]int{0, 0}, rng.New(1)); got != -1 {
		t.Errorf("PickWeighted(all zero) = %d, want -1", got)
	}
}

func TestLoadBalanceDefaults(t *testing.T) {
	catalogue := MustLoadRewardRegistry()
	balance, err := LoadBalance("", catalogue)
	if err != nil {
		t.Fatalf("LoadBalance() error: %v", err)
	}

	if balance.Prizes.InstantTokens != (Range{Min: 10, Max: 50}) {
		t.Errorf("InstantTokens = %+v, want [10,50]", balance.Prizes.InstantTokens)
	}
	if balance.Minigames.ChestCount != 3 {
		t.Errorf("ChestCount = %d, want 3", balance.Minigames.ChestCount)
	}
	if len(balance.Minigames.LootBox) != 3 {
		t.Errorf("LootBox tiers = %d, want 3", len(balance.Minigames.LootBox))
	}
}

func TestLoadBalanceYAMLOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.yaml")
	content := `
prizes:
  instant_tokens:
    min: 20
    max: 30
minigames:
  chest_count: 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	balance, err := LoadBalance(path, MustLoadRewardRegistry())
	if err != nil {
		t.Fatalf("LoadBalance() error: %v", err)
	}
	if balance.Prizes.InstantTokens != (Range{Min: 20, Max: 30}) {
		t.Errorf("InstantTokens = %+v, want [20,30]", balance.Prizes.InstantTokens)
	}
	if balance.Minigames.ChestCount != 4 {
		t.Errorf("ChestCount = %d, want 4", balance.Minigames.ChestCount)
	}
	// Untouched sections keep embedded defaults
	if len(balance.Prizes.BonusRound) != 3 {
		t.Errorf("BonusRound bands = %d, want 3", len(balance.Prizes.BonusRound))
	}
}

func TestLoadBalanceRejectsUnknownReward(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.yaml")
	content := `
minigames:
  wheel:
    - reward: jackpot
      weight: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadBalance(path, MustLoadRewardRegistry()); err == nil {
		t.Error("expected error for unknown wheel reward")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"#FF0000", true},
		{"FF0000", true},
		{"#00FF00", true},
		{"#0000FF", true},
		{"#FFFFFF", true},
		{"#000000", true},
		{"invalid", false},
		{"#FFF", false}, // Too short
		{"#GGGGGG", false},
	}

	for _, tt := range tests {
		_, err := ParseHexColor(tt.input)
		if tt.valid && err != nil {
			t.Errorf("ParseHexColor(%q) should be valid, got error: %v", tt.input, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("ParseHexColor(%q) should be invalid, got no error", tt.input)
		}
	}
}

func TestCategoryStyles(t *testing.T) {
	styles, err := LoadCategoryStyles()
	if err != nil {
		t.Fatalf("LoadCategoryStyles() error: %v", err)
	}
	if len(styles) != 8 {
		t.Errorf("Expected 8 category styles, got %d", len(styles))
	}
	for id, s := range styles {
		if _, err := ParseHexColor(s.Color); err != nil {
			t.Errorf("category %s has bad color %q: %v", id, s.Color, err)
		}
		if s.GlyphRune() == '?' && id != "mystery" {
			t.Errorf("category %s has no glyph", id)
		}
	}
}
