package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/samdwyer/trailquest/internal/daily"
	"github.com/samdwyer/trailquest/internal/gamedata"
	"github.com/samdwyer/trailquest/internal/ledger"
	"github.com/samdwyer/trailquest/internal/reward"
	"github.com/samdwyer/trailquest/internal/trail"
)

// Screen rows used by the renderer.
const (
	rowHeader  = 0
	rowTrail   = 2
	rowPlayer  = 3
	rowBalance = 5
	rowRoll    = 6
	rowPrompt  = 8
	rowLog     = 10

	trailLeft = 2
	tileWidth = 2
)

// View is everything drawn in one frame.
type View struct {
	Tiles    []trail.Assignment
	Current  int
	Balance  ledger.Balance
	Day      daily.State
	CanRoll  bool
	Prompt   string
	Messages []string // Most recent last
}

// Renderer handles drawing the game to the screen.
type Renderer struct {
	screen *Screen
	styles map[trail.Category]tileStyle
}

type tileStyle struct {
	glyph rune
	style tcell.Style
}

// NewRenderer creates a renderer for the given screen using the embedded
// category styles.
func NewRenderer(screen *Screen) (*Renderer, error) {
	defs, err := gamedata.LoadCategoryStyles()
	if err != nil {
		return nil, fmt.Errorf("load category styles: %w", err)
	}
	styles := make(map[trail.Category]tileStyle, len(defs))
	for id, def := range defs {
		color, err := gamedata.ParseHexColor(def.Color)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", id, err)
		}
		styles[trail.Category(id)] = tileStyle{
			glyph: def.GlyphRune(),
			style: tcell.StyleDefault.Foreground(color),
		}
	}
	return &Renderer{screen: screen, styles: styles}, nil
}

// TileX returns the column a level is drawn at.
func TileX(level int) int {
	return trailLeft + (level-1)*tileWidth
}

// Render draws a full frame.
func (r *Renderer) Render(v View) {
	r.screen.Clear()

	r.drawText(0, rowHeader, fmt.Sprintf("Trail Quest  Day %d  Streak %d  Level %d/%d",
		v.Day.Day, v.Day.Streak, v.Current, trail.LevelCount), tcell.StyleDefault.Bold(true))

	for _, a := range v.Tiles {
		glyph, style := r.tileLook(a)
		r.screen.SetContent(TileX(a.Level), rowTrail, glyph, style)
	}

	// Draw player under the trail
	playerStyle := tcell.StyleDefault.
		Foreground(tcell.ColorYellow).
		Bold(true)
	r.screen.SetContent(TileX(v.Current), rowPlayer, '@', playerStyle)

	r.drawText(0, rowBalance, fmt.Sprintf("Tokens %d  Free plays %d  Cash %s  Bonus %s",
		v.Balance.Tokens, v.Balance.FreePlays,
		reward.Pounds(v.Balance.CashPence), reward.Pounds(v.Balance.BonusPence)), tcell.StyleDefault)

	roll := "Roll: used"
	if v.CanRoll {
		roll = "Roll: ready"
	}
	r.drawText(0, rowRoll, roll, tcell.StyleDefault)
	r.drawText(0, rowPrompt, v.Prompt, tcell.StyleDefault.Foreground(tcell.ColorAqua))

	_, height := r.screen.Size()
	room := height - rowLog
	msgs := v.Messages
	if room < len(msgs) {
		msgs = msgs[len(msgs)-max(room, 0):]
	}
	for i, msg := range msgs {
		r.RenderMessage(msg, rowLog+i)
	}

	r.screen.Show()
}

// tileLook returns the glyph and style for a tile. Resolved mystery tiles
// show what they became; completed tiles are dimmed.
func (r *Renderer) tileLook(a trail.Assignment) (rune, tcell.Style) {
	ts, ok := r.styles[a.Category]
	if !ok {
		return '?', tcell.StyleDefault
	}
	glyph, style := ts.glyph, ts.style
	if a.Category == trail.Mystery && a.ResolvedAs != "" {
		if resolved, ok := r.styles[a.ResolvedAs]; ok {
			glyph = resolved.glyph
			style = style.Underline(true)
		}
	}
	if a.Completed {
		style = style.Dim(true)
	}
	return glyph, style
}

// RenderMessage displays a message on row y, truncated to the screen width.
func (r *Renderer) RenderMessage(msg string, y int) {
	width, _ := r.screen.Size()
	r.drawText(0, y, Truncate(msg, width), tcell.StyleDefault.Foreground(tcell.ColorWhite))
}

// drawText writes s from column x, one grapheme cluster per cell run,
// stopping at the right edge.
func (r *Renderer) drawText(x, y int, s string, style tcell.Style) {
	width, _ := r.screen.Size()
	state := -1
	for s != "" {
		var cluster string
		var w int
		cluster, s, w, state = uniseg.FirstGraphemeClusterInString(s, state)
		if w == 0 {
			continue
		}
		if x+w > width {
			return
		}
		runes := []rune(cluster)
		r.screen.screen.SetContent(x, y, runes[0], runes[1:], style)
		x += w
	}
}

// Truncate shortens s to at most width display cells, ending it with an
// ellipsis when anything was cut.
func Truncate(s string, width int) string {
	if uniseg.StringWidth(s) <= width {
		return s
	}
	if width < 1 {
		return ""
	}
	width--
	out, used, state := "", 0, -1
	for s != "" {
		var cluster string
		var w int
		cluster, s, w, state = uniseg.FirstGraphemeClusterInString(s, state)
		if used+w > width {
			break
		}
		out += cluster
		used += w
	}
	return out + "…"
}
