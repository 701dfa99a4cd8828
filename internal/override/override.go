// Package override lets an outside collaborator (the tutorial day plan, a
// test) force the next random draws. Each part of a forced outcome is
// consumed independently by the first draw of its kind.
package override

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Outcome is a set of forced draws. Zero-valued parts force nothing.
type Outcome struct {
	Die      int    `yaml:"die,omitempty"`      // Next die value (1..6)
	Category string `yaml:"category,omitempty"` // Next mystery resolution
	Win      *bool  `yaml:"win,omitempty"`      // Next minigame win/lose draw
	Reward   string `yaml:"reward,omitempty"`   // Next catalogue reward ID
}

// IsZero reports whether the outcome forces nothing.
func (o Outcome) IsZero() bool {
	return o.Die == 0 && o.Category == "" && o.Win == nil && o.Reward == ""
}

// Provider returns the forced outcome for an in-game day.
type Provider interface {
	For(day int) (Outcome, bool)
}

// Slot holds the pending forced outcome. A nil *Slot forces nothing.
type Slot struct {
	pending   Outcome
	primedDay int
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Arm replaces the pending outcome.
func (s *Slot) Arm(o Outcome) {
	if s == nil {
		return
	}
	s.pending = o
}

// Prime arms the slot from p the first time it is called for day. Parts
// left over from an earlier day are dropped, so a day without a plan entry
// forces nothing.
func (s *Slot) Prime(day int, p Provider) {
	if s == nil || p == nil || s.primedDay == day {
		return
	}
	s.primedDay = day
	o, _ := p.For(day)
	s.pending = o
}

// Pending returns the unconsumed parts.
func (s *Slot) Pending() Outcome {
	if s == nil {
		return Outcome{}
	}
	return s.pending
}

// Clear drops everything pending and forgets the primed day.
func (s *Slot) Clear() {
	if s == nil {
		return
	}
	s.pending = Outcome{}
	s.primedDay = 0
}

// TakeDie consumes a forced die value.
func (s *Slot) TakeDie() (int, bool) {
	if s == nil || s.pending.Die == 0 {
		return 0, false
	}
	v := s.pending.Die
	s.pending.Die = 0
	return v, true
}

// TakeCategory consumes a forced mystery category.
func (s *Slot) TakeCategory() (string, bool) {
	if s == nil || s.pending.Category == "" {
		return "", false
	}
	v := s.pending.Category
	s.pending.Category = ""
	return v, true
}

// TakeWin consumes a forced minigame result.
func (s *Slot) TakeWin() (bool, bool) {
	if s == nil || s.pending.Win == nil {
		return false, false
	}
	v := *s.pending.Win
	s.pending.Win = nil
	return v, true
}

// TakeReward consumes a forced reward ID.
func (s *Slot) TakeReward() (string, bool) {
	if s == nil || s.pending.Reward == "" {
		return "", false
	}
	v := s.pending.Reward
	s.pending.Reward = ""
	return v, true
}

// DayPlan is the forced outcome for one in-game day.
type DayPlan struct {
	Day     int `yaml:"day"`
	Outcome `yaml:",inline"`
}

// Plan is a table of forced outcomes keyed by day, usually authored in YAML:
//
//	days:
//	  - day: 1
//	    die: 4
//	    category: minigame
//	    win: true
//	    reward: cash_50
type Plan struct {
	Days []DayPlan `yaml:"days"`
}

// LoadPlan reads a YAML plan from path.
func LoadPlan(path string) (*Plan, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	return ParsePlan(content)
}

// ParsePlan decodes and validates a YAML plan.
func ParsePlan(content []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(content, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	seen := make(map[int]bool, len(p.Days))
	for i, d := range p.Days {
		if d.Day < 1 {
			return nil, fmt.Errorf("plan day %d: day must be >= 1", i)
		}
		if seen[d.Day] {
			return nil, fmt.Errorf("plan day %d: duplicate day", d.Day)
		}
		if d.Die < 0 || d.Die > 6 {
			return nil, fmt.Errorf("plan day %d: die must be 1..6", d.Day)
		}
		seen[d.Day] = true
	}
	sort.Slice(p.Days, func(i, j int) bool { return p.Days[i].Day < p.Days[j].Day })
	return &p, nil
}

// For returns the outcome planned for day.
func (p *Plan) For(day int) (Outcome, bool) {
	if p == nil {
		return Outcome{}, false
	}
	for _, d := range p.Days {
		if d.Day == day {
			return d.Outcome, !d.Outcome.IsZero()
		}
	}
	return Outcome{}, false
}
