// Package scoring counts how many of each participant's picked numbers appear
// in each official draw.  It is a pure library: inputs are plain values, and
// aggregation across multiple entries per participant (collaborative pools,
// multi-quota pools) is the caller's business.
package scoring

import (
	"fmt"
)

// Rules parameterizes validation for one game.  The national lottery fixes
// these per game type; pools only vary RequiredPicks.
type Rules struct {
	RequiredPicks    int // numbers each entry must carry
	OfficialDrawSize int // numbers in a completed official draw
	MaxNumber        int // picks and draws are in [1, MaxNumber]
}

// Entry is one participant's pick set.
type Entry struct {
	ParticipantID int64
	Numbers       []int
}

// Score is the per-draw and total match count for one entry.
type Score struct {
	ParticipantID int64
	PerDraw       []int
	Total         int
}

// ValidateNumbers checks that numbers holds exactly count distinct values in
// [1, max].  Bad pick sets are caller bugs; they fail the call rather than
// being clamped or deduplicated here.
func ValidateNumbers(numbers []int, count, max int) error {
	if len(numbers) != count {
		return fmt.Errorf("got %d numbers, want %d", len(numbers), count)
	}
	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if n < 1 || n > max {
			return fmt.Errorf("number %d out of range [1,%d]", n, max)
		}
		if seen[n] {
			return fmt.Errorf("duplicate number %d", n)
		}
		seen[n] = true
	}
	return nil
}

// Compute scores each entry against each draw, in draw-sequence order.
//
// A pending draw is an empty number slice.  It scores zero for every entry
// but still occupies its position in PerDraw, so totals are stable as results
// arrive over the cycle.  Output order follows input entry order; callers
// must not read meaning into it.
func Compute(entries []*Entry, draws [][]int, rules Rules) ([]*Score, error) {
	for i, draw := range draws {
		if len(draw) == 0 {
			continue // pending
		}
		if err := ValidateNumbers(draw, rules.OfficialDrawSize, rules.MaxNumber); err != nil {
			return nil, fmt.Errorf("draw %d: %w", i+1, err)
		}
	}

	scores := make([]*Score, 0, len(entries))
	for _, e := range entries {
		if err := ValidateNumbers(e.Numbers, rules.RequiredPicks, rules.MaxNumber); err != nil {
			return nil, fmt.Errorf("entry for participant %d: %w", e.ParticipantID, err)
		}
		picked := make(map[int]bool, len(e.Numbers))
		for _, n := range e.Numbers {
			picked[n] = true
		}
		s := &Score{
			ParticipantID: e.ParticipantID,
			PerDraw:       make([]int, len(draws)),
		}
		for i, draw := range draws {
			matches := 0
			for _, n := range draw {
				if picked[n] {
					matches++
				}
			}
			s.PerDraw[i] = matches
			s.Total += matches
		}
		scores = append(scores, s)
	}
	return scores, nil
}
