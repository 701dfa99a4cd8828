package game

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/trailquest/internal/ledger"
	"github.com/samdwyer/trailquest/internal/resolve"
	"github.com/samdwyer/trailquest/internal/telemetry"
	"github.com/samdwyer/trailquest/internal/trail"
	"github.com/samdwyer/trailquest/internal/ui"
)

// maxMessages bounds the outcome log kept for display.
const maxMessages = 50

// Game is the terminal front end for an Engine.
type Game struct {
	engine    *Engine
	screen    *ui.Screen
	renderer  *ui.Renderer
	log       zerolog.Logger
	stepDelay time.Duration

	state    State
	pending  resolve.Outcome // Open reveal or minigame
	balance  ledger.Balance  // Kept current by the ledger observer
	messages []string
	hops     []int
	running  bool
}

// New creates a game drawing to screen. Hops are animated with stepDelay
// between frames.
func New(engine *Engine, screen *ui.Screen, stepDelay time.Duration, log zerolog.Logger) (*Game, error) {
	renderer, err := ui.NewRenderer(screen)
	if err != nil {
		return nil, err
	}

	g := &Game{
		engine:    engine,
		screen:    screen,
		renderer:  renderer,
		log:       log,
		stepDelay: stepDelay,
		state:     StateExplore,
		balance:   engine.Balance(),
		running:   true,
	}
	engine.OnHop(func(level int) { g.hops = append(g.hops, level) })
	engine.OnBalance(func(b ledger.Balance) { g.balance = b })
	return g, nil
}

// Run executes the main game loop until the player quits, then closes the
// screen.
func (g *Game) Run(ctx context.Context) error {
	tracer := telemetry.Tracer("game")

	_, initSpan := tracer.Start(ctx, "game.init")
	day := g.engine.Day()
	initSpan.SetAttributes(
		attribute.Int("trail.level", g.engine.Progress()),
		attribute.Int("day.number", day.Day),
		attribute.Int("day.streak", day.Streak),
	)
	initSpan.End()

	g.say(fmt.Sprintf("Day %d. Roll the die to move along the trail.", day.Day))

	for g.running {
		g.render()
		g.handleInput(ctx)
	}

	g.screen.Close()
	return nil
}

// handleInput processes a single input event.
func (g *Game) handleInput(ctx context.Context) {
	ev := g.screen.PollEvent()

	switch ev := ev.(type) {
	case *tcell.EventKey:
		g.handleKeyEvent(ctx, ev)
	case *tcell.EventResize:
		g.screen.Sync()
	case nil:
		// Screen finalized
		g.running = false
	}
}

// handleKeyEvent processes keyboard input for the current mode.
func (g *Game) handleKeyEvent(ctx context.Context, ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC {
		g.running = false
		return
	}

	switch g.state {
	case StateReveal:
		g.handleRevealKey(ctx, ev)
	case StateMinigame:
		g.handleMinigameKey(ctx, ev)
	default:
		g.handleExploreKey(ctx, ev)
	}
}

func (g *Game) handleExploreKey(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		g.running = false
	case tcell.KeyEnter:
		g.openCurrent(ctx)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			g.running = false
		case 'r', 'R':
			g.roll(ctx)
		case 'n', 'N':
			s := g.engine.AdvanceDay(ctx)
			g.say(fmt.Sprintf("Day %d begins. Streak %d.", s.Day, s.Streak))
		case 'e', 'E':
			g.openCurrent(ctx)
		case 'c', 'C':
			level := g.engine.Progress()
			moved, outcomes := g.engine.CompleteCurrent(ctx, level)
			if !moved {
				g.say("Nothing to continue from here.")
			}
			g.absorb(ctx, outcomes)
		case 'x', 'X':
			g.engine.Reset(ctx)
			g.state = StateExplore
			g.pending = resolve.Outcome{}
			g.say("Progress reset.")
		}
	}
}

func (g *Game) handleRevealKey(ctx context.Context, ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyEscape {
		g.state = StateExplore
		return
	}
	option, ok := digit(ev, g.pending.Choices)
	if !ok {
		return
	}
	g.absorb(ctx, g.engine.Pick(ctx, g.pending.Level, option))
}

func (g *Game) handleMinigameKey(ctx context.Context, ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyEscape {
		g.state = StateExplore
		return
	}

	choice := -1
	switch g.pending.Minigame {
	case trail.CoinFlip:
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'h', 'H':
				choice = 0
			case 't', 'T':
				choice = 1
			}
		}
	case trail.ChestPick:
		if n, ok := digit(ev, g.pending.Choices); ok {
			choice = n
		}
	default:
		if ev.Key() == tcell.KeyEnter || (ev.Key() == tcell.KeyRune && ev.Rune() == ' ') {
			choice = 0
		}
	}
	if choice < 0 {
		return
	}
	g.absorb(ctx, g.engine.Play(ctx, g.pending.Level, choice))
}

// digit maps keys 1..n to option indexes 0..n-1.
func digit(ev *tcell.EventKey, n int) (int, bool) {
	if ev.Key() != tcell.KeyRune {
		return 0, false
	}
	d := int(ev.Rune() - '1')
	if d < 0 || d >= n || d > 8 {
		return 0, false
	}
	return d, true
}

func (g *Game) roll(ctx context.Context) {
	if g.engine.Progress() == trail.LevelCount {
		g.say("You have reached the end of the trail.")
		return
	}
	roll, ok := g.engine.UseRoll(ctx)
	if !ok {
		g.say("Today's roll is used. Press n for the next day.")
		return
	}
	g.say(fmt.Sprintf("Rolled a %d.", roll.Die))
	g.absorb(ctx, roll.Outcomes)
}

// openCurrent interacts with the player's tile, reopening any round the
// player closed.
func (g *Game) openCurrent(ctx context.Context) {
	g.absorb(ctx, g.engine.Resolve(ctx, g.engine.Progress()))
}

// absorb animates the hops of the last interaction, logs its outcomes and
// switches mode when a round is left open.
func (g *Game) absorb(ctx context.Context, outcomes []resolve.Outcome) {
	g.animate(ctx)

	g.state = StateExplore
	g.pending = resolve.Outcome{}
	for _, o := range outcomes {
		g.say(describe(o))
		g.log.Debug().Int("level", o.Level).Str("status", string(o.Status)).Str("category", string(o.Category)).Msg("outcome")
		if o.Status != resolve.StatusAwaitingChoice {
			continue
		}
		g.pending = o
		if o.Minigame != "" {
			g.state = StateMinigame
		} else {
			g.state = StateReveal
		}
	}
}

// animate replays the recorded hops one frame at a time.
func (g *Game) animate(ctx context.Context) {
	hops := g.hops
	g.hops = nil
	if g.stepDelay <= 0 || len(hops) == 0 {
		return
	}

	v := g.view()
	for _, level := range hops {
		v.Current = level
		g.renderer.Render(v)
		select {
		case <-ctx.Done():
			return
		case <-time.After(g.stepDelay):
		}
	}
}

func (g *Game) say(msg string) {
	g.messages = append(g.messages, msg)
	if len(g.messages) > maxMessages {
		g.messages = g.messages[len(g.messages)-maxMessages:]
	}
}

func (g *Game) render() {
	g.renderer.Render(g.view())
}

func (g *Game) view() ui.View {
	return ui.View{
		Tiles:    g.engine.Tiles(),
		Current:  g.engine.Progress(),
		Balance:  g.balance,
		Day:      g.engine.Day(),
		CanRoll:  g.engine.CanRoll(),
		Prompt:   g.prompt(),
		Messages: g.messages,
	}
}

// prompt lists the keys that do something in the current mode.
func (g *Game) prompt() string {
	switch g.state {
	case StateReveal:
		return fmt.Sprintf("Pick an option 1-%d (esc to close)", g.pending.Choices)
	case StateMinigame:
		switch g.pending.Minigame {
		case trail.CoinFlip:
			return "h heads, t tails (esc to close)"
		case trail.ChestPick:
			return fmt.Sprintf("Pick a chest 1-%d (esc to close)", g.pending.Choices)
		case trail.PrizeWheel:
			return "space to spin (esc to close)"
		default:
			return "space to open (esc to close)"
		}
	default:
		if g.engine.Pending(g.engine.Progress()) {
			return "e resume  r roll  n next day  c continue  x reset  q quit"
		}
		return "r roll  n next day  e open tile  c continue  x reset  q quit"
	}
}

// describe renders an outcome as one log line.
func describe(o resolve.Outcome) string {
	where := fmt.Sprintf("Level %d", o.Level)
	if o.ViaMystery {
		where += " (mystery)"
	}

	switch o.Status {
	case resolve.StatusAwaitingChoice:
		if o.Minigame != "" {
			return fmt.Sprintf("%s: %s!", where, minigameName(o.Minigame))
		}
		return fmt.Sprintf("%s: Reveal! %d hidden prizes, one is real.", where, o.Choices)
	case resolve.StatusAlreadyCompleted:
		if o.Label != "" {
			return fmt.Sprintf("%s: %s", where, o.Label)
		}
		return where + ": already completed"
	case resolve.StatusNoEffect, resolve.StatusAbandoned:
		return where + ": nothing happens"
	}

	if o.Minigame != "" {
		return fmt.Sprintf("%s: %s: %s", where, minigameName(o.Minigame), o.Label)
	}
	return fmt.Sprintf("%s: %s", where, o.Label)
}

func minigameName(k trail.MinigameKind) string {
	switch k {
	case trail.CoinFlip:
		return "Coin flip"
	case trail.PrizeWheel:
		return "Prize wheel"
	case trail.ChestPick:
		return "Chest pick"
	case trail.LootBox:
		return "Loot box"
	default:
		return string(k)
	}
}
