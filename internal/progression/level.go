package progression

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLadder is returned when a level ladder breaks its ordering rules.
var ErrInvalidLadder = errors.New("invalid level ladder")

// LevelDefinition is one named stage on the ladder. Threshold is an
// inclusive lower bound on score.
type LevelDefinition struct {
	Index     int    `json:"level_index"`
	Name      string `json:"name"`
	Threshold int64  `json:"score_threshold"`
}

// Ladder is an ordered set of levels with strictly increasing thresholds,
// the first of which is zero.
type Ladder []LevelDefinition

var defaultLevels = []LevelDefinition{
	{Index: 0, Name: "Seed", Threshold: 0},
	{Index: 1, Name: "Sprouting Bud", Threshold: 500},
	{Index: 2, Name: "Rising Stem", Threshold: 1500},
	{Index: 3, Name: "Floating Leaf", Threshold: 3500},
	{Index: 4, Name: "Opening Lotus", Threshold: 7500},
	{Index: 5, Name: "Radiant Lotus", Threshold: 15000},
}

// DefaultLadder returns a copy of the built-in lotus ladder.
func DefaultLadder() Ladder {
	l := make(Ladder, len(defaultLevels))
	copy(l, defaultLevels)
	return l
}

// NewLadder builds a ladder from levels in order, assigning each level its
// position as Index, and validates it.
func NewLadder(levels []LevelDefinition) (Ladder, error) {
	l := make(Ladder, len(levels))
	for i, lvl := range levels {
		lvl.Index = i
		lvl.Name = strings.TrimSpace(lvl.Name)
		l[i] = lvl
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks the ladder shape: at least one level, a zero first
// threshold, strictly increasing thresholds, named levels and positional
// indexes.
func (l Ladder) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("%w: no levels", ErrInvalidLadder)
	}
	if l[0].Threshold != 0 {
		return fmt.Errorf("%w: first threshold must be 0, got %d", ErrInvalidLadder, l[0].Threshold)
	}
	for i, lvl := range l {
		if lvl.Index != i {
			return fmt.Errorf("%w: level %q has index %d at position %d", ErrInvalidLadder, lvl.Name, lvl.Index, i)
		}
		if lvl.Name == "" {
			return fmt.Errorf("%w: level %d has no name", ErrInvalidLadder, i)
		}
		if i > 0 && lvl.Threshold <= l[i-1].Threshold {
			return fmt.Errorf("%w: threshold %d at level %d does not exceed %d",
				ErrInvalidLadder, lvl.Threshold, i, l[i-1].Threshold)
		}
	}
	return nil
}

// Top returns the highest level.
func (l Ladder) Top() LevelDefinition {
	if len(l) == 0 {
		return LevelDefinition{}
	}
	return l[len(l)-1]
}

// ResolveLevel places score on the ladder. current is the highest level
// whose threshold is <= score; next is the lowest level whose threshold is
// > score, or nil once score reaches the top threshold.
func ResolveLevel(score int64, ladder Ladder) (current LevelDefinition, next *LevelDefinition) {
	if len(ladder) == 0 {
		return LevelDefinition{}, nil
	}
	if top := ladder.Top(); score >= top.Threshold {
		return top, nil
	}

	current = ladder[0]
	for i := len(ladder) - 1; i >= 0; i-- {
		if ladder[i].Threshold <= score {
			current = ladder[i]
			break
		}
	}

	for i := range ladder {
		if ladder[i].Threshold > score {
			n := ladder[i]
			return current, &n
		}
	}
	return current, nil
}

// ProgressPercent returns how far score has moved from current toward next,
// in [0, 100]. A nil next means the top level and yields 100.
func ProgressPercent(score int64, current LevelDefinition, next *LevelDefinition) float64 {
	if next == nil {
		return 100
	}
	span := next.Threshold - current.Threshold
	if span <= 0 {
		// Unreachable for a validated ladder.
		return 100
	}
	pct := float64(score-current.Threshold) / float64(span) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
