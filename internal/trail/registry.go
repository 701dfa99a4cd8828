package trail

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/trailquest/internal/rng"
	"github.com/samdwyer/trailquest/internal/store"
	"github.com/samdwyer/trailquest/internal/telemetry"
)

// Registry holds every tile assignment and the minigame records linked to
// them. Every mutation is written through to the store.
type Registry struct {
	store     store.Store
	rng       rng.Source
	log       zerolog.Logger
	tiles     []Assignment // index = level-1
	minigames map[int]MinigameAssignment
}

// NewRegistry creates a registry. Call Ensure before use.
func NewRegistry(s store.Store, src rng.Source, log zerolog.Logger) *Registry {
	return &Registry{
		store:     s,
		rng:       src,
		log:       log,
		minigames: make(map[int]MinigameAssignment),
	}
}

// Ensure loads the persisted trail, regenerating it when absent or
// malformed and migrating legacy movement tiles to mystery tiles. Read
// failures other than a missing or corrupt record are returned and
// nothing is written.
func (r *Registry) Ensure(ctx context.Context) error {
	var tiles []Assignment
	err := store.Load(ctx, r.store, store.SlotTiles, &tiles)
	if err != nil && !store.Recoverable(err) {
		return fmt.Errorf("load tiles: %w", err)
	}
	if err == nil {
		err = validate(tiles)
	}
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.log.Warn().Err(err).Msg("tile assignments invalid, regenerating")
		}
		r.generate(ctx)
		r.minigames = make(map[int]MinigameAssignment)
		r.persistTiles(ctx)
		r.persistMinigames(ctx)
		return nil
	}

	sort.Slice(tiles, func(i, j int) bool { return tiles[i].Level < tiles[j].Level })
	r.tiles = tiles
	if n := r.migrate(); n > 0 {
		r.log.Info().Int("tiles", n).Msg("migrated legacy movement tiles to mystery")
		r.persistTiles(ctx)
	}
	return r.loadMinigames(ctx)
}

// validate checks full coverage and field values.
func validate(tiles []Assignment) error {
	if len(tiles) != LevelCount {
		return fmt.Errorf("expected %d tiles, got %d", LevelCount, len(tiles))
	}
	seenLevel := make(map[int]bool, LevelCount)
	seenKind := make(map[MinigameKind]bool)
	for _, t := range tiles {
		if t.Level < 1 || t.Level > LevelCount || seenLevel[t.Level] {
			return fmt.Errorf("level %d: out of range or duplicate", t.Level)
		}
		seenLevel[t.Level] = true
		if !t.Category.Valid() {
			return fmt.Errorf("level %d: unknown category %q", t.Level, t.Category)
		}
		if t.ResolvedAs != "" && (t.Category != Mystery || !InPool(t.ResolvedAs)) {
			return fmt.Errorf("level %d: invalid resolution %q", t.Level, t.ResolvedAs)
		}
		if t.MinigameKind != "" {
			if !t.MinigameKind.Valid() || t.Effective() != Minigame {
				return fmt.Errorf("level %d: invalid minigame kind %q", t.Level, t.MinigameKind)
			}
			// Resolved mystery tiles may repeat a kind once every kind is placed
			if t.Category == Minigame {
				if seenKind[t.MinigameKind] {
					return fmt.Errorf("level %d: duplicate minigame kind %q", t.Level, t.MinigameKind)
				}
				seenKind[t.MinigameKind] = true
			}
		}
	}
	return nil
}

// migrate turns directly assigned extra_move/travel_back tiles into
// unresolved mystery tiles.
func (r *Registry) migrate() int {
	n := 0
	for i := range r.tiles {
		if c := r.tiles[i].Category; c == ExtraMove || c == TravelBack {
			r.tiles[i].Category = Mystery
			r.tiles[i].ResolvedAs = ""
			n++
		}
	}
	return n
}

func (r *Registry) loadMinigames(ctx context.Context) error {
	var list []MinigameAssignment
	if err := store.Load(ctx, r.store, store.SlotMinigames, &list); err != nil {
		if !store.Recoverable(err) {
			return fmt.Errorf("load minigames: %w", err)
		}
		if !errors.Is(err, store.ErrNotFound) {
			r.log.Warn().Err(err).Msg("minigame assignments unreadable, recreating lazily")
		}
		list = nil
	}

	r.minigames = make(map[int]MinigameAssignment, len(list))
	dropped := 0
	for _, m := range list {
		t, ok := r.Get(m.Level)
		if !ok || t.Effective() != Minigame || r.minigames[m.Level] != (MinigameAssignment{}) {
			dropped++
			continue
		}
		if t.MinigameKind.Valid() {
			m.Kind = t.MinigameKind
		}
		if !m.Kind.Valid() {
			dropped++
			continue
		}
		r.minigames[m.Level] = m
	}
	if dropped > 0 {
		r.log.Warn().Int("dropped", dropped).Msg("dropped orphaned minigame assignments")
		r.persistMinigames(ctx)
	}
	return nil
}

// generate builds a fresh trail.
func (r *Registry) generate(ctx context.Context) {
	tracer := telemetry.Tracer("trail")
	_, span := tracer.Start(ctx, "trail.generate")
	defer span.End()

	startTime := time.Now()

	tiles := make([]Assignment, LevelCount)
	for i := range tiles {
		tiles[i].Level = i + 1
	}

	// Levels 2..30 in random order; level 1 is reserved for instant_tokens
	free := make([]int, 0, LevelCount-1)
	for level := 2; level <= LevelCount; level++ {
		free = append(free, level)
	}
	r.shuffle(free)

	// One tile per minigame kind
	used := make(map[MinigameKind]bool, len(MinigameKinds))
	for _, kind := range MinigameKinds {
		if len(free) == 0 {
			break
		}
		level := free[0]
		free = free[1:]
		tiles[level-1].Category = Minigame
		tiles[level-1].MinigameKind = kind
		used[kind] = true
	}

	// One tile per mandatory category
	for _, c := range mandatory {
		if len(free) == 0 {
			break
		}
		tiles[free[0]-1].Category = c
		free = free[1:]
	}

	tiles[0].Category = InstantTokens

	for _, level := range free {
		c := fillPool[r.rng.IntN(len(fillPool))]
		if c == Minigame {
			kind, ok := unusedKind(used)
			if !ok {
				c = InstantTokens
			} else {
				tiles[level-1].MinigameKind = kind
				used[kind] = true
			}
		}
		tiles[level-1].Category = c
	}

	r.tiles = tiles

	counts := make(map[Category]int)
	for _, t := range tiles {
		counts[t.Category]++
	}
	span.SetAttributes(
		attribute.Int("trail.levels", LevelCount),
		attribute.Int("trail.minigames", counts[Minigame]),
		attribute.Int("trail.mystery", counts[Mystery]),
		attribute.Int64("trail.generation_us", time.Since(startTime).Microseconds()),
	)
	r.log.Info().Int("minigames", counts[Minigame]).Int("mystery", counts[Mystery]).Msg("generated trail")
}

func (r *Registry) shuffle(levels []int) {
	for i := len(levels) - 1; i > 0; i-- {
		j := r.rng.IntN(i + 1)
		levels[i], levels[j] = levels[j], levels[i]
	}
}

func unusedKind(used map[MinigameKind]bool) (MinigameKind, bool) {
	for _, k := range MinigameKinds {
		if !used[k] {
			return k, true
		}
	}
	return "", false
}

// Get returns the assignment for level.
func (r *Registry) Get(level int) (Assignment, bool) {
	if level < 1 || level > len(r.tiles) {
		return Assignment{}, false
	}
	return r.tiles[level-1], true
}

// All returns a copy of every assignment ordered by level.
func (r *Registry) All() []Assignment {
	out := make([]Assignment, len(r.tiles))
	copy(out, r.tiles)
	return out
}

// minigameFor returns the minigame record for level without creating one.
func (r *Registry) minigameFor(level int) (MinigameAssignment, bool) {
	m, ok := r.minigames[level]
	return m, ok
}

// ResolveMystery fixes the resolution of an unresolved mystery tile. A
// forced category from the mystery pool replaces the random draw. Resolved
// tiles keep their stored value and non-mystery tiles are returned as is.
func (r *Registry) ResolveMystery(ctx context.Context, level int, forced Category) (Assignment, bool) {
	t, ok := r.Get(level)
	if !ok || !t.Unresolved() {
		return t, false
	}
	c := forced
	if !InPool(c) {
		c = MysteryPool[r.rng.IntN(len(MysteryPool))]
	}
	r.tiles[level-1].ResolvedAs = c
	r.persistTiles(ctx)
	r.log.Debug().Int("level", level).Str("category", string(c)).Msg("mystery resolved")
	return r.tiles[level-1], true
}

// MarkCompleted flags level as completed. It reports false when the level
// is unknown or already completed.
func (r *Registry) MarkCompleted(ctx context.Context, level int) bool {
	t, ok := r.Get(level)
	if !ok || t.Completed {
		return false
	}
	r.tiles[level-1].Completed = true
	r.persistTiles(ctx)
	return true
}

// Minigame returns the minigame record for a minigame tile, creating it on
// first use. A tile without a kind gets one, preferring kinds no other tile
// plays. It reports false when level does not behave as a minigame tile.
func (r *Registry) Minigame(ctx context.Context, level int) (MinigameAssignment, bool) {
	t, ok := r.Get(level)
	if !ok || t.Effective() != Minigame {
		return MinigameAssignment{}, false
	}

	tileChanged := false
	if !t.MinigameKind.Valid() {
		r.tiles[level-1].MinigameKind = r.pickKind()
		tileChanged = true
	}
	kind := r.tiles[level-1].MinigameKind

	m, exists := r.minigameFor(level)
	if exists && m.Kind == kind {
		if tileChanged {
			r.persistTiles(ctx)
		}
		return m, true
	}
	if !exists {
		m = MinigameAssignment{Level: level, Completed: t.Completed}
	}
	m.Kind = kind
	r.minigames[level] = m

	if tileChanged {
		r.persistTiles(ctx)
	}
	r.persistMinigames(ctx)
	return m, true
}

// pickKind draws a kind for a tile that has none, preferring unused kinds.
func (r *Registry) pickKind() MinigameKind {
	used := make(map[MinigameKind]bool)
	for _, t := range r.tiles {
		if t.MinigameKind != "" {
			used[t.MinigameKind] = true
		}
	}
	var unused []MinigameKind
	for _, k := range MinigameKinds {
		if !used[k] {
			unused = append(unused, k)
		}
	}
	if len(unused) > 0 {
		return unused[r.rng.IntN(len(unused))]
	}
	return MinigameKinds[r.rng.IntN(len(MinigameKinds))]
}

// CompleteMinigame marks the minigame of level completed along with its tile.
func (r *Registry) CompleteMinigame(ctx context.Context, level int) bool {
	m, ok := r.minigameFor(level)
	if !ok || m.Completed {
		return false
	}
	m.Completed = true
	r.minigames[level] = m
	r.persistMinigames(ctx)
	r.MarkCompleted(ctx, level)
	return true
}

// Reset clears completion flags and mystery resolutions while keeping the
// layout and minigame kinds.
func (r *Registry) Reset(ctx context.Context) {
	for i := range r.tiles {
		r.tiles[i].Completed = false
		if r.tiles[i].Category == Mystery {
			r.tiles[i].ResolvedAs = ""
			r.tiles[i].MinigameKind = ""
			delete(r.minigames, r.tiles[i].Level)
		}
	}
	for level, m := range r.minigames {
		m.Completed = false
		r.minigames[level] = m
	}
	r.persistTiles(ctx)
	r.persistMinigames(ctx)
}

func (r *Registry) persistTiles(ctx context.Context) {
	if err := store.Save(ctx, r.store, store.SlotTiles, r.tiles); err != nil {
		r.log.Error().Err(err).Msg("persist tile assignments")
	}
}

func (r *Registry) persistMinigames(ctx context.Context) {
	list := make([]MinigameAssignment, 0, len(r.minigames))
	for _, m := range r.minigames {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Level < list[j].Level })
	if err := store.Save(ctx, r.store, store.SlotMinigames, list); err != nil {
		r.log.Error().Err(err).Msg("persist minigame assignments")
	}
}
