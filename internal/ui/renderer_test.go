package ui

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/trailquest/internal/daily"
	"github.com/samdwyer/trailquest/internal/ledger"
	"github.com/samdwyer/trailquest/internal/trail"
)

func newTestRenderer(t *testing.T) (*Screen, *Renderer) {
	t.Helper()
	screen, err := NewSimulationScreen(80, 24)
	if err != nil {
		t.Fatalf("NewSimulationScreen() error = %v", err)
	}
	t.Cleanup(screen.Close)
	r, err := NewRenderer(screen)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return screen, r
}

func rowText(s *Screen, y int) string {
	width, _ := s.Size()
	var b strings.Builder
	for x := 0; x < width; x++ {
		r, _ := s.Content(x, y)
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func testView() View {
	tiles := make([]trail.Assignment, trail.LevelCount)
	for i := range tiles {
		tiles[i] = trail.Assignment{Level: i + 1, Category: trail.InstantTokens}
	}
	tiles[0].Completed = true
	tiles[1] = trail.Assignment{Level: 2, Category: trail.Mystery, ResolvedAs: trail.ExtraMove, Completed: true}
	tiles[2] = trail.Assignment{Level: 3, Category: trail.Mystery}
	tiles[3] = trail.Assignment{Level: 4, Category: trail.Minigame, MinigameKind: trail.CoinFlip}

	return View{
		Tiles:    tiles,
		Current:  2,
		Balance:  ledger.Balance{Tokens: 12, FreePlays: 1, CashPence: 150},
		Day:      daily.State{Day: 3, Streak: 2},
		CanRoll:  true,
		Prompt:   "Press r to roll",
		Messages: []string{"Level 1: 3 tokens", "Level 2: Extra move"},
	}
}

func TestRenderTrail(t *testing.T) {
	screen, r := newTestRenderer(t)
	r.Render(testView())

	tests := []struct {
		level int
		want  rune
	}{
		{1, 'T'},
		{2, '+'}, // resolved mystery shows what it became
		{3, '?'},
		{4, 'M'},
		{30, 'T'},
	}
	for _, tt := range tests {
		if got, _ := screen.Content(TileX(tt.level), rowTrail); got != tt.want {
			t.Errorf("level %d glyph = %q, want %q", tt.level, got, tt.want)
		}
	}

	_, style := screen.Content(TileX(1), rowTrail)
	if _, _, attr := style.Decompose(); attr&tcell.AttrDim == 0 {
		t.Error("completed tile not dimmed")
	}
	_, style = screen.Content(TileX(4), rowTrail)
	if _, _, attr := style.Decompose(); attr&tcell.AttrDim != 0 {
		t.Error("open tile dimmed")
	}

	if got, _ := screen.Content(TileX(2), rowPlayer); got != '@' {
		t.Errorf("player marker = %q, want '@'", got)
	}
	if got, _ := screen.Content(TileX(1), rowPlayer); got == '@' {
		t.Error("player marker drawn on the wrong level")
	}
}

func TestRenderStatus(t *testing.T) {
	screen, r := newTestRenderer(t)
	r.Render(testView())

	checks := map[int]string{
		rowHeader:  "Day 3  Streak 2  Level 2/30",
		rowBalance: "Tokens 12  Free plays 1  Cash £1.50  Bonus £0.00",
		rowRoll:    "Roll: ready",
		rowPrompt:  "Press r to roll",
		rowLog:     "Level 1: 3 tokens",
		rowLog + 1: "Level 2: Extra move",
	}
	for y, want := range checks {
		if got := rowText(screen, y); !strings.Contains(got, want) {
			t.Errorf("row %d = %q, want it to contain %q", y, got, want)
		}
	}
}

func TestRenderKeepsNewestMessages(t *testing.T) {
	screen, r := newTestRenderer(t)
	v := testView()
	v.Messages = nil
	for i := 0; i < 20; i++ {
		v.Messages = append(v.Messages, strings.Repeat("x", i+1))
	}
	r.Render(v)

	_, height := screen.Size()
	last := rowText(screen, height-1)
	if last != strings.Repeat("x", 20) {
		t.Errorf("bottom row = %q, want the newest message", last)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hell…"},
		{"日本語", 4, "日…"},
		{"héllo", 3, "hé…"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
