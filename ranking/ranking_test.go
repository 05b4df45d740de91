package ranking

import (
	"testing"

	"github.com/bolao-jogos/bolao/finance"
	"github.com/bolao-jogos/bolao/scoring"
)

func score(id int64, total int) *scoring.Score {
	return &scoring.Score{ParticipantID: id, Total: total}
}

func TestGenerate(t *testing.T) {
	scores := []*scoring.Score{
		score(1, 5),
		score(2, 12),
		score(3, 8),
		score(4, 12),
		score(5, 2),
	}
	names := Directory{1: "Ana", 2: "Bruno", 3: "Carla", 4: "Davi", 5: "Elisa"}
	pools := [finance.TierCount]int64{240000, 48000, 32000}

	r := Generate(scores, names, pools)

	if len(r.Entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(r.Entries))
	}

	// Bruno and Davi tie at 12 and split tier 1.
	for _, e := range r.Entries[:2] {
		if e.Total != 12 || e.Tier != 1 || e.Prize != 120000 {
			t.Errorf("tier 1 entry %+v, want total 12 tier 1 prize 120000", e)
		}
	}
	if r.Entries[0].DisplayName != "Bruno" || r.Entries[1].DisplayName != "Davi" {
		t.Errorf("tie order not stable: %q, %q", r.Entries[0].DisplayName, r.Entries[1].DisplayName)
	}

	if e := r.Entries[2]; e.DisplayName != "Carla" || e.Tier != 2 || e.Prize != 48000 {
		t.Errorf("tier 2 entry %+v, want Carla tier 2 prize 48000", e)
	}
	if e := r.Entries[3]; e.DisplayName != "Ana" || e.Tier != 3 || e.Prize != 32000 {
		t.Errorf("tier 3 entry %+v, want Ana tier 3 prize 32000", e)
	}
	if e := r.Entries[4]; e.DisplayName != "Elisa" || e.Tier != 0 || e.Prize != 0 {
		t.Errorf("unranked entry %+v, want Elisa tier 0 no prize", e)
	}

	if r.UnawardedCents != 0 {
		t.Errorf("UnawardedCents = %d, want 0", r.UnawardedCents)
	}
}

func TestGenerateSplitResidue(t *testing.T) {
	// Three-way tie over a pool that doesn't divide evenly.
	scores := []*scoring.Score{score(1, 9), score(2, 9), score(3, 9)}
	pools := [finance.TierCount]int64{100, 50, 30}

	r := Generate(scores, nil, pools)

	for _, e := range r.Entries {
		if e.Tier != 1 || e.Prize != 33 {
			t.Errorf("entry %+v, want tier 1 prize 33", e)
		}
	}
	// 1 centavo residue from tier 1, plus tiers 2 and 3 with no group left.
	if r.UnawardedCents != 1+50+30 {
		t.Errorf("UnawardedCents = %d, want 81", r.UnawardedCents)
	}
}

func TestGenerateFewDistinctTotals(t *testing.T) {
	// Two distinct totals: tier 3's pool has no one to pay.
	scores := []*scoring.Score{score(1, 7), score(2, 3), score(3, 3)}
	pools := [finance.TierCount]int64{1000, 500, 300}

	r := Generate(scores, nil, pools)

	if r.Entries[0].Tier != 1 || r.Entries[0].Prize != 1000 {
		t.Errorf("top entry %+v, want tier 1 prize 1000", r.Entries[0])
	}
	for _, e := range r.Entries[1:] {
		if e.Tier != 2 || e.Prize != 250 {
			t.Errorf("entry %+v, want tier 2 prize 250", e)
		}
	}
	if r.UnawardedCents != 300 {
		t.Errorf("UnawardedCents = %d, want 300", r.UnawardedCents)
	}
}

func TestGeneratePlaceholderNames(t *testing.T) {
	scores := []*scoring.Score{score(42, 1)}
	r := Generate(scores, Directory{}, [finance.TierCount]int64{0, 0, 0})

	if got, want := r.Entries[0].DisplayName, "Participante 42"; got != want {
		t.Errorf("DisplayName = %q, want %q", got, want)
	}
}

func TestGenerateEmpty(t *testing.T) {
	pools := [finance.TierCount]int64{100, 50, 30}
	r := Generate(nil, nil, pools)

	if len(r.Entries) != 0 {
		t.Errorf("got %d entries, want 0", len(r.Entries))
	}
	if r.UnawardedCents != 180 {
		t.Errorf("UnawardedCents = %d, want 180", r.UnawardedCents)
	}
}
