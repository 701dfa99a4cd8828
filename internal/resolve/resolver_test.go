package resolve

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/samdwyer/trailquest/internal/gamedata"
	"github.com/samdwyer/trailquest/internal/ledger"
	"github.com/samdwyer/trailquest/internal/minigame"
	"github.com/samdwyer/trailquest/internal/override"
	"github.com/samdwyer/trailquest/internal/progress"
	"github.com/samdwyer/trailquest/internal/reward"
	"github.com/samdwyer/trailquest/internal/rng"
	"github.com/samdwyer/trailquest/internal/store"
	"github.com/samdwyer/trailquest/internal/trail"
)

type fixture struct {
	tiles    *trail.Registry
	ledger   *ledger.Ledger
	resolver *Resolver
	tracker  *progress.Tracker
	force    *override.Slot
	outcomes []Outcome
}

// layout returns a valid trail of instant_tokens tiles with the given
// levels replaced.
func layout(special map[int]trail.Assignment) []trail.Assignment {
	tiles := make([]trail.Assignment, trail.LevelCount)
	for i := range tiles {
		tiles[i] = trail.Assignment{Level: i + 1, Category: trail.InstantTokens}
		if a, ok := special[i+1]; ok {
			a.Level = i + 1
			tiles[i] = a
		}
	}
	return tiles
}

func newFixture(t *testing.T, src rng.Source, tiles []trail.Assignment) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	if err := store.Save(ctx, mem, store.SlotTiles, tiles); err != nil {
		t.Fatal(err)
	}

	catalogue := gamedata.MustLoadRewardRegistry()
	balance, err := gamedata.LoadBalance("", catalogue)
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{force: override.NewSlot()}
	f.tiles = trail.NewRegistry(mem, src, zerolog.Nop())
	if err := f.tiles.Ensure(ctx); err != nil {
		t.Fatal(err)
	}
	f.ledger = ledger.New(mem, zerolog.Nop())
	if err := f.ledger.Load(ctx); err != nil {
		t.Fatal(err)
	}

	selector := reward.NewSelector(catalogue, balance.Prizes, f.force)
	f.resolver = New(Deps{
		Tiles:    f.tiles,
		Ledger:   f.ledger,
		Selector: selector,
		Games:    minigame.NewEngine(balance.Minigames, selector, f.force, src),
		Force:    f.force,
		Rand:     src,
		Log:      zerolog.Nop(),
	})
	f.tracker = progress.NewTracker(mem, f.tiles, zerolog.Nop())
	if err := f.tracker.Load(ctx); err != nil {
		t.Fatal(err)
	}
	f.tracker.SetArrival(f.resolver)
	f.resolver.SetMover(f.tracker)
	f.resolver.Subscribe(func(o Outcome) { f.outcomes = append(f.outcomes, o) })
	return f
}

func (f *fixture) completed(level int) bool {
	tile, _ := f.tiles.Get(level)
	return tile.Completed
}

func TestInstantTokensResolveOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.New(1), layout(nil))

	first := f.resolver.Resolve(ctx, 4)
	if first.Status != StatusResolved || first.RewardKind != gamedata.RewardTokens {
		t.Fatalf("first Resolve() = %+v", first)
	}
	tokens := f.ledger.Balance().Tokens
	if tokens < 10 || tokens > 50 || tokens != first.Amount {
		t.Errorf("tokens = %d, outcome amount %d", tokens, first.Amount)
	}

	second := f.resolver.Resolve(ctx, 4)
	if second.Status != StatusAlreadyCompleted {
		t.Errorf("second Resolve() status = %s", second.Status)
	}
	if f.ledger.Balance().Tokens != tokens {
		t.Error("second resolution credited again")
	}
}

func TestEveryPayingCategoryCreditsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.New(9), layout(map[int]trail.Assignment{
		2: {Category: trail.InstantPrize},
		3: {Category: trail.BonusRound},
	}))

	for _, level := range []int{2, 3} {
		out := f.resolver.Resolve(ctx, level)
		if !out.Credited() || !f.completed(level) {
			t.Errorf("level %d: outcome %+v, completed=%v", level, out, f.completed(level))
		}
		before := f.ledger.Balance()
		f.resolver.Resolve(ctx, level)
		if f.ledger.Balance() != before {
			t.Errorf("level %d credited twice", level)
		}
	}
}

func TestNoTileIsNeutral(t *testing.T) {
	f := newFixture(t, rng.New(1), layout(nil))
	for _, level := range []int{0, -3, trail.LevelCount + 1} {
		if out := f.resolver.Resolve(context.Background(), level); out.Status != StatusNoEffect {
			t.Errorf("Resolve(%d) = %s, want no_effect", level, out.Status)
		}
	}
	if f.ledger.Balance() != (ledger.Balance{}) {
		t.Error("neutral landings credited currency")
	}
}

func TestMysteryDeterminism(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.New(3), layout(map[int]trail.Assignment{
		6: {Category: trail.Mystery},
	}))

	f.force.Arm(override.Outcome{Category: string(trail.Reveal)})
	first := f.resolver.Resolve(ctx, 6)
	if first.Category != trail.Reveal || !first.ViaMystery || first.Status != StatusAwaitingChoice {
		t.Fatalf("first Resolve() = %+v", first)
	}

	for i := 0; i < 5; i++ {
		again := f.resolver.Resolve(ctx, 6)
		if again.Category != trail.Reveal {
			t.Fatalf("resolution %d dispatched to %s", i, again.Category)
		}
	}
	tile, _ := f.tiles.Get(6)
	if tile.ResolvedAs != trail.Reveal {
		t.Errorf("resolvedAs = %q, want reveal", tile.ResolvedAs)
	}
}

func TestMysteryExtraMoveChain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.New(4), layout(map[int]trail.Assignment{
		2: {Category: trail.Mystery},
	}))

	f.force.Arm(override.Outcome{Category: string(trail.ExtraMove), Die: 3})
	f.tracker.Advance(ctx, 1)

	if f.tracker.Current() != 5 {
		t.Errorf("Current() = %d, want 5", f.tracker.Current())
	}
	if !f.completed(2) || !f.completed(5) {
		t.Errorf("chain tiles not completed: 2=%v 5=%v", f.completed(2), f.completed(5))
	}
	if len(f.outcomes) != 2 {
		t.Fatalf("outcomes = %+v, want extra_move then landing", f.outcomes)
	}
	move := f.outcomes[0]
	if move.Category != trail.ExtraMove || !move.ViaMystery || move.Die != 3 || move.Moved != 3 {
		t.Errorf("movement outcome = %+v", move)
	}
	if f.outcomes[1].Level != 5 || f.outcomes[1].Status != StatusResolved {
		t.Errorf("landing outcome = %+v", f.outcomes[1])
	}
}

func TestMysteryExtraMoveAdvancesOneToSix(t *testing.T) {
	ctx := context.Background()
	for seed := uint64(1); seed <= 50; seed++ {
		f := newFixture(t, rng.New(seed), layout(map[int]trail.Assignment{
			2: {Category: trail.Mystery},
		}))
		f.force.Arm(override.Outcome{Category: string(trail.ExtraMove)})
		f.tracker.Advance(ctx, 1)

		if d := f.tracker.Current() - 2; d < 1 || d > 6 {
			t.Fatalf("seed %d: extra move advanced %d tiles", seed, d)
		}
		if !f.completed(2) || !f.completed(f.tracker.Current()) {
			t.Fatalf("seed %d: chain tiles not completed", seed)
		}
	}
}

func TestTravelBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.New(5), layout(map[int]trail.Assignment{
		8: {Category: trail.Mystery, ResolvedAs: trail.TravelBack},
	}))

	f.force.Arm(override.Outcome{Die: 2})
	f.tracker.Advance(ctx, 7)
	if f.tracker.Current() != 6 {
		t.Errorf("Current() = %d, want 6", f.tracker.Current())
	}
	if !f.completed(8) || !f.completed(6) {
		t.Error("travel back tiles not completed")
	}

	// Travelling back from level 1 has nowhere to go
	f = newFixture(t, rng.New(5), layout(map[int]trail.Assignment{
		1: {Category: trail.Mystery, ResolvedAs: trail.TravelBack},
	}))
	out := f.resolver.Resolve(ctx, 1)
	if out.Moved != 0 || f.tracker.Current() != 1 {
		t.Errorf("travel back at level 1 = %+v, current %d", out, f.tracker.Current())
	}
}

func TestChainDepthBounded(t *testing.T) {
	f := newFixture(t, rng.New(1), layout(nil))
	f.resolver.depth = maxChain
	out := f.resolver.Resolve(context.Background(), 3)
	if out.Status != StatusAbandoned {
		t.Errorf("Resolve() beyond chain depth = %s, want abandoned", out.Status)
	}
	if f.completed(3) {
		t.Error("abandoned resolution completed the tile")
	}
}

func TestRevealPreselectionAndPick(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.New(6), layout(map[int]trail.Assignment{
		4: {Category: trail.Reveal},
	}))

	out := f.resolver.Resolve(ctx, 4)
	if out.Status != StatusAwaitingChoice || out.Choices != 3 {
		t.Fatalf("Resolve() = %+v", out)
	}
	winner := f.resolver.rounds[4].winner
	f.resolver.Resolve(ctx, 4)
	if f.resolver.rounds[4].winner != winner {
		t.Error("reopening the reveal changed the winner")
	}
	if f.completed(4) {
		t.Error("opening a reveal must not complete it")
	}

	picked, ok := f.resolver.Pick(ctx, 4, winner)
	if !ok || !picked.Won || !picked.Credited() || picked.Landed != winner {
		t.Errorf("Pick(winner) = %+v, %v", picked, ok)
	}
	if !f.completed(4) || f.resolver.Pending(4) {
		t.Error("pick did not complete the reveal")
	}
	if _, ok := f.resolver.Pick(ctx, 4, winner); ok {
		t.Error("second pick accepted")
	}
}

func TestRevealLosingPick(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.New(6), layout(map[int]trail.Assignment{
		4: {Category: trail.Reveal},
	}))

	f.resolver.Resolve(ctx, 4)
	loser := (f.resolver.rounds[4].winner + 1) % revealOptions
	out, ok := f.resolver.Pick(ctx, 4, loser)
	if !ok || out.Won || out.Credited() {
		t.Errorf("losing pick = %+v", out)
	}
	if !f.completed(4) {
		t.Error("losing pick should still complete the tile")
	}
	if f.ledger.Balance() != (ledger.Balance{}) {
		t.Error("losing pick credited currency")
	}
}

func TestMinigameNoReplay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.New(7), layout(map[int]trail.Assignment{
		3: {Category: trail.Minigame, MinigameKind: trail.ChestPick},
	}))

	out := f.resolver.Resolve(ctx, 3)
	if out.Status != StatusAwaitingChoice || out.Minigame != trail.ChestPick || out.Choices != 3 {
		t.Fatalf("Resolve() = %+v", out)
	}

	f.force.Arm(override.Outcome{Win: boolPtr(true), Reward: "cash_100"})
	played, ok := f.resolver.Play(ctx, 3, 1)
	if !ok || !played.Won || played.Amount != 100 {
		t.Fatalf("Play() = %+v, %v", played, ok)
	}
	if got := f.ledger.Balance().CashPence; got != 100 {
		t.Errorf("cash = %d, want 100", got)
	}

	if _, ok := f.resolver.Play(ctx, 3, 1); ok {
		t.Error("replay accepted")
	}
	if again := f.resolver.Resolve(ctx, 3); again.Status != StatusAlreadyCompleted {
		t.Errorf("Resolve() after play = %s", again.Status)
	}
	if m, _ := f.tiles.Minigame(ctx, 3); !m.Completed {
		t.Error("minigame record not completed")
	}
	if f.ledger.Balance().CashPence != 100 {
		t.Error("replay credited again")
	}
}

func TestMinigameLossStillCompletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.New(8), layout(map[int]trail.Assignment{
		3: {Category: trail.Minigame, MinigameKind: trail.CoinFlip},
	}))

	f.force.Arm(override.Outcome{Win: boolPtr(false)})
	out, ok := f.resolver.Play(ctx, 3, minigame.Heads)
	if !ok || out.Won || out.Label != "No win" {
		t.Errorf("Play() = %+v, %v", out, ok)
	}
	if !f.completed(3) {
		t.Error("lost minigame did not complete the tile")
	}
}

func TestMinigameKindRepairedLazily(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.New(2), layout(map[int]trail.Assignment{
		9: {Category: trail.Minigame},
	}))

	out := f.resolver.Resolve(ctx, 9)
	if !out.Minigame.Valid() {
		t.Fatalf("Resolve() minigame kind = %q", out.Minigame)
	}
	tile, _ := f.tiles.Get(9)
	if tile.MinigameKind != out.Minigame {
		t.Errorf("tile kind %q not stored", tile.MinigameKind)
	}
}

func TestOutcomesCarryUniqueIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, rng.New(1), layout(nil))
	for level := 1; level <= 5; level++ {
		f.resolver.Resolve(ctx, level)
	}
	seen := make(map[string]bool)
	for _, o := range f.outcomes {
		if o.ID == "" || seen[o.ID] {
			t.Fatalf("outcome ID %q missing or repeated", o.ID)
		}
		seen[o.ID] = true
	}
}

func boolPtr(b bool) *bool { return &b }

// unknownTiles serves a category the resolver has no branch for.
type unknownTiles struct {
	gets      int
	completed int
}

func (u *unknownTiles) Get(level int) (trail.Assignment, bool) {
	u.gets++
	return trail.Assignment{Level: level, Category: "portal"}, true
}

func (u *unknownTiles) ResolveMystery(_ context.Context, level int, _ trail.Category) (trail.Assignment, bool) {
	return trail.Assignment{}, false
}

func (u *unknownTiles) MarkCompleted(context.Context, int) bool {
	u.completed++
	return true
}

func (u *unknownTiles) Minigame(context.Context, int) (trail.MinigameAssignment, bool) {
	return trail.MinigameAssignment{}, false
}

func (u *unknownTiles) CompleteMinigame(context.Context, int) bool {
	u.completed++
	return true
}

func TestUnknownCategoryGivesUp(t *testing.T) {
	ctx := context.Background()
	tiles := &unknownTiles{}
	l := ledger.New(store.NewMemory(), zerolog.Nop())
	if err := l.Load(ctx); err != nil {
		t.Fatal(err)
	}
	r := New(Deps{Tiles: tiles, Ledger: l, Rand: rng.New(1), Log: zerolog.Nop()})

	var seen []Outcome
	r.Subscribe(func(o Outcome) { seen = append(seen, o) })

	out := r.Resolve(ctx, 4)
	if out.Status != StatusAbandoned || out.Level != 4 {
		t.Errorf("Resolve() = %+v, want abandoned", out)
	}
	if tiles.gets != maxRetries+1 {
		t.Errorf("tile read %d times, want %d", tiles.gets, maxRetries+1)
	}
	if tiles.completed != 0 {
		t.Error("unknown category completed the tile")
	}
	if l.Balance() != (ledger.Balance{}) {
		t.Errorf("balance changed to %+v", l.Balance())
	}
	if len(seen) != 1 || seen[0].Credited() {
		t.Errorf("outcomes = %+v", seen)
	}
}
