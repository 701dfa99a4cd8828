package rng

import "testing"

func TestSeededReproducibility(t *testing.T) {
	a := New(12345)
	b := New(12345)

	for i := 0; i < 50; i++ {
		if x, y := a.IntN(100), b.IntN(100); x != y {
			t.Fatalf("draw %d mismatch: %d != %d", i, x, y)
		}
	}
}

func TestBetweenBounds(t *testing.T) {
	src := New(7)
	for i := 0; i < 1000; i++ {
		v := Between(src, 10, 50)
		if v < 10 || v > 50 {
			t.Fatalf("Between(10, 50) = %d, out of range", v)
		}
	}

	// Swapped bounds are reordered
	if v := Between(NewScript(0), 5, 2); v != 2 {
		t.Errorf("Between(5, 2) with zero draw = %d, want 2", v)
	}
}

func TestRollDieRange(t *testing.T) {
	src := New(99)
	seen := make(map[int]bool)
	for i := 0; i < 600; i++ {
		v := RollDie(src)
		if v < 1 || v > DieSides {
			t.Fatalf("RollDie() = %d, out of range", v)
		}
		seen[v] = true
	}
	if len(seen) != DieSides {
		t.Errorf("expected all %d faces over 600 rolls, saw %d", DieSides, len(seen))
	}
}

func TestScript(t *testing.T) {
	s := NewScript(3, 9, -1).WithFloats(0.25, 2)
	if s.Remaining() != 3 {
		t.Errorf("Remaining() = %d, want 3", s.Remaining())
	}

	tests := []struct {
		n    int
		want int
	}{
		{10, 3},
		{5, 4}, // clamped to n-1
		{5, 0}, // negative clamps to 0
		{5, 0}, // exhausted
	}
	for i, tt := range tests {
		if got := s.IntN(tt.n); got != tt.want {
			t.Errorf("IntN #%d = %d, want %d", i, got, tt.want)
		}
	}
	if s.Remaining() != 0 {
		t.Errorf("Remaining() = %d after exhaustion", s.Remaining())
	}

	if got := s.Float64(); got != 0.25 {
		t.Errorf("Float64() = %v, want 0.25", got)
	}
	if got := s.Float64(); got >= 1 {
		t.Errorf("Float64() = %v, want < 1", got)
	}
	if got := s.Float64(); got != 0 {
		t.Errorf("exhausted Float64() = %v, want 0", got)
	}
}

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed() error: %v", err)
	}
	b, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed() error: %v", err)
	}
	if a == b {
		t.Error("two crypto seeds should differ")
	}
}
