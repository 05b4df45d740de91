// Package ranking turns a score set and tiered prize pools into an ordered
// prize list.  The 1st, 2nd and 3rd highest distinct totals form tiers 1-3;
// everyone tied at a tier's total splits that tier's pool evenly.
package ranking

import (
	"fmt"
	"sort"

	"github.com/bolao-jogos/bolao/finance"
	"github.com/bolao-jogos/bolao/scoring"
)

// Directory resolves participant IDs to display names.
type Directory map[int64]string

// Entry is one row of the ranking.  Tier 0 means no prize.
type Entry struct {
	ParticipantID int64
	DisplayName   string
	PerDraw       []int
	Total         int
	Tier          int
	Prize         int64 // centavos
}

// Ranking is the full result.  UnawardedCents collects the money that found
// no winner: pools for tiers with no distinct total at their rank, plus the
// truncation residue when a tier's pool doesn't divide evenly among its tied
// winners.  The surrounding application holds it in reserve; this package
// never redistributes it to other tiers.
type Ranking struct {
	Entries        []*Entry
	UnawardedCents int64
}

// PlaceholderName is the display name for a participant with no directory
// mapping.  A cosmetic gap must never block the prize computation.
func PlaceholderName(participantID int64) string {
	return fmt.Sprintf("Participante %d", participantID)
}

func (d Directory) name(id int64) string {
	if name, ok := d[id]; ok && name != "" {
		return name
	}
	return PlaceholderName(id)
}

// Generate produces one Entry per input score.  Order within a tie group is
// the (stable-sorted) input order; tied winners get identical prizes, so
// their relative order carries no meaning.
func Generate(scores []*scoring.Score, names Directory, pools [finance.TierCount]int64) *Ranking {
	r := &Ranking{Entries: make([]*Entry, 0, len(scores))}

	sorted := make([]*scoring.Score, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total > sorted[j].Total
	})

	// Distinct totals, descending.  sorted is already descending, so a
	// single pass collects them in order.
	distinct := []int{}
	for _, s := range sorted {
		if len(distinct) == 0 || distinct[len(distinct)-1] != s.Total {
			distinct = append(distinct, s.Total)
		}
	}

	// Keyed by score, not participant: a participant holding several
	// entries (multi-quota pools) gets one ranking row per entry.
	awarded := make(map[*scoring.Score]bool, len(sorted))
	for tier := 0; tier < finance.TierCount; tier++ {
		if tier >= len(distinct) {
			// No group at this rank; the pool stays unawarded.
			r.UnawardedCents += pools[tier]
			continue
		}
		target := distinct[tier]
		winners := []*scoring.Score{}
		for _, s := range sorted {
			if s.Total == target {
				winners = append(winners, s)
			}
		}
		prize := pools[tier] / int64(len(winners))
		r.UnawardedCents += pools[tier] - prize*int64(len(winners))
		for _, w := range winners {
			awarded[w] = true
			r.Entries = append(r.Entries, &Entry{
				ParticipantID: w.ParticipantID,
				DisplayName:   names.name(w.ParticipantID),
				PerDraw:       w.PerDraw,
				Total:         w.Total,
				Tier:          tier + 1,
				Prize:         prize,
			})
		}
	}

	for _, s := range sorted {
		if awarded[s] {
			continue
		}
		r.Entries = append(r.Entries, &Entry{
			ParticipantID: s.ParticipantID,
			DisplayName:   names.name(s.ParticipantID),
			PerDraw:       s.PerDraw,
			Total:         s.Total,
			Tier:          0,
			Prize:         0,
		})
	}

	return r
}
