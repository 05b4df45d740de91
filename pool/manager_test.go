package pool

import (
	"context"
	"slices"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/bolao-jogos/bolao/builtins"
	"github.com/bolao-jogos/bolao/defaults"
	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/ranking"
	"github.com/bolao-jogos/bolao/state"
)

func newTestManager() (*Manager, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	return NewManager(clock, state.NewBuiltinFeeScheduleStorage()), clock
}

func newTestPool(t *testing.T) *model.Pool {
	t.Helper()
	p, err := defaults.Pool(model.MegaSena)
	if err != nil {
		t.Fatalf("defaults.Pool: %v", err)
	}
	p.PoolID = 1
	p.Name = "Bolão de teste"
	p.Capacity = 3
	p.PricePerEntry = 5000
	return p
}

func picks(base int) []int {
	// Ten distinct numbers starting at base.
	nums := make([]int, 10)
	for i := range nums {
		nums[i] = base + i
	}
	return nums
}

func TestJoin(t *testing.T) {
	mgr, _ := newTestManager()
	p := newTestPool(t)

	for _, id := range []int64{10, 20} {
		if err := mgr.Join(p, id); err != nil {
			t.Fatalf("Join(%d): %v", id, err)
		}
	}
	if p.Status != model.Awaiting {
		t.Errorf("status = %v, want %v", p.Status, model.Awaiting)
	}

	// Rejoining is a no-op.
	if err := mgr.Join(p, 10); err != nil {
		t.Errorf("rejoin: %v", err)
	}
	if len(p.ParticipantIDs) != 2 {
		t.Errorf("got %d participants, want 2", len(p.ParticipantIDs))
	}

	// The last seat flips the pool to full.
	if err := mgr.Join(p, 30); err != nil {
		t.Fatalf("Join(30): %v", err)
	}
	if p.Status != model.Full {
		t.Errorf("status = %v, want %v", p.Status, model.Full)
	}

	// And a full pool accepts nobody new.
	if err := mgr.Join(p, 40); err == nil {
		t.Error("expected error joining a full pool")
	}
}

func TestApplyGuess(t *testing.T) {
	mgr, clock := newTestManager()
	p := newTestPool(t)
	if err := mgr.Join(p, 10); err != nil {
		t.Fatalf("Join: %v", err)
	}

	g := &model.Guess{ParticipantID: 10, Numbers: picks(1)}
	if err := mgr.ApplyGuess(p, nil, g); err != nil {
		t.Fatalf("ApplyGuess: %v", err)
	}
	if !g.Locked {
		t.Error("guess not locked after submission")
	}
	if g.PoolID != p.PoolID {
		t.Errorf("guess PoolID = %d, want %d", g.PoolID, p.PoolID)
	}
	if g.SubmittedAt != clock.Now().UnixMilli() {
		t.Errorf("SubmittedAt = %d, want %d", g.SubmittedAt, clock.Now().UnixMilli())
	}

	// Locked means locked.
	again := &model.Guess{ParticipantID: 10, Numbers: picks(11)}
	if err := mgr.ApplyGuess(p, g, again); err == nil {
		t.Error("expected error resubmitting a locked guess")
	}
}

func TestApplyGuessRejections(t *testing.T) {
	mgr, _ := newTestManager()

	tests := []struct {
		name  string
		setup func(t *testing.T) (*model.Pool, *model.Guess)
	}{
		{
			name: "non-member",
			setup: func(t *testing.T) (*model.Pool, *model.Guess) {
				return newTestPool(t), &model.Guess{ParticipantID: 99, Numbers: picks(1)}
			},
		},
		{
			name: "finished pool",
			setup: func(t *testing.T) (*model.Pool, *model.Guess) {
				p := newTestPool(t)
				mgr.Join(p, 10)
				p.Status = model.Finished
				return p, &model.Guess{ParticipantID: 10, Numbers: picks(1)}
			},
		},
		{
			name: "wrong pick count",
			setup: func(t *testing.T) (*model.Pool, *model.Guess) {
				p := newTestPool(t)
				mgr.Join(p, 10)
				return p, &model.Guess{ParticipantID: 10, Numbers: []int{1, 2, 3}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, g := tt.setup(t)
			if err := mgr.ApplyGuess(p, nil, g); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRecordDraw(t *testing.T) {
	mgr, _ := newTestManager()
	p := newTestPool(t)
	mgr.Join(p, 10)

	if err := mgr.RecordDraw(p, 1, []int{1, 2, 3, 4, 5, 6}, false); err != nil {
		t.Fatalf("RecordDraw: %v", err)
	}
	if p.Status != model.InProgress {
		t.Errorf("status = %v, want %v", p.Status, model.InProgress)
	}

	// Recorded draws are immutable without override.
	if err := mgr.RecordDraw(p, 1, []int{7, 8, 9, 10, 11, 12}, false); err == nil {
		t.Error("expected error re-recording a draw")
	}
	if err := mgr.RecordDraw(p, 1, []int{7, 8, 9, 10, 11, 12}, true); err != nil {
		t.Errorf("override: %v", err)
	}
	if got := p.DrawBySequence(1).Numbers; got[0] != 7 {
		t.Errorf("override didn't take: %v", got)
	}

	if err := mgr.RecordDraw(p, 2, []int{13, 14, 15, 16, 17, 18}, false); err != nil {
		t.Fatalf("RecordDraw 2: %v", err)
	}
	if err := mgr.RecordDraw(p, 3, []int{19, 20, 21, 22, 23, 24}, false); err != nil {
		t.Fatalf("RecordDraw 3: %v", err)
	}
	if p.Status != model.Finished {
		t.Errorf("status = %v, want %v after last draw", p.Status, model.Finished)
	}

	if err := mgr.RecordDraw(p, 4, []int{1, 2, 3, 4, 5, 6}, false); err == nil {
		t.Error("expected error for unknown sequence")
	}
}

func TestCollaborativeTicket(t *testing.T) {
	guesses := []*model.Guess{
		{ParticipantID: 1, Numbers: []int{1, 2, 3}},
		{ParticipantID: 2, Numbers: []int{2, 3, 4}},
		{ParticipantID: 3, Numbers: []int{3, 4, 5}},
	}

	// Votes: 3x3, 2x2, 2x4, 1x1, 1x5.  The last slot goes to the lower
	// number among the single-vote candidates.
	got := CollaborativeTicket(guesses, 4)
	want := []int{1, 2, 3, 4}
	if !slices.Equal(got, want) {
		t.Errorf("CollaborativeTicket = %v, want %v", got, want)
	}
}

func TestCollaborativeTicketFewVotes(t *testing.T) {
	guesses := []*model.Guess{{ParticipantID: 1, Numbers: []int{7, 9}}}
	got := CollaborativeTicket(guesses, 5)
	want := []int{7, 9}
	if !slices.Equal(got, want) {
		t.Errorf("CollaborativeTicket = %v, want %v", got, want)
	}
}

func TestFillTransients(t *testing.T) {
	mgr, _ := newTestManager()
	p := newTestPool(t)
	p.FeeScheduleID = builtins.StandardFeeScheduleID

	guesses := []*model.Guess{}
	for i, id := range []int64{10, 20} {
		if err := mgr.Join(p, id); err != nil {
			t.Fatalf("Join(%d): %v", id, err)
		}
		g := &model.Guess{ParticipantID: id, Numbers: picks(i*10 + 1)}
		if err := mgr.ApplyGuess(p, nil, g); err != nil {
			t.Fatalf("ApplyGuess(%d): %v", id, err)
		}
		guesses = append(guesses, g)
	}

	// First draw matches participant 10's picks entirely.
	if err := mgr.RecordDraw(p, 1, []int{1, 2, 3, 4, 5, 6}, false); err != nil {
		t.Fatalf("RecordDraw: %v", err)
	}

	names := ranking.Directory{10: "Ana", 20: "Bruno"}
	if err := mgr.FillTransients(context.Background(), p, guesses, names); err != nil {
		t.Fatalf("FillTransients: %v", err)
	}

	tr := p.Transients
	if tr.CompletedDraws != 1 {
		t.Errorf("CompletedDraws = %d, want 1", tr.CompletedDraws)
	}
	if tr.Finances == nil || tr.Finances.TotalCollected != 10000 {
		t.Errorf("Finances = %+v, want total 10000", tr.Finances)
	}
	if len(tr.Scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(tr.Scores))
	}
	if tr.Ranking == nil || len(tr.Ranking.Entries) != 2 {
		t.Fatalf("Ranking = %+v, want 2 entries", tr.Ranking)
	}
	top := tr.Ranking.Entries[0]
	if top.DisplayName != "Ana" || top.Tier != 1 || top.Total != 6 {
		t.Errorf("top entry %+v, want Ana tier 1 total 6", top)
	}
}

func TestFillTransientsNoDraws(t *testing.T) {
	mgr, _ := newTestManager()
	p := newTestPool(t)

	g := &model.Guess{ParticipantID: 10, Numbers: picks(1)}
	if err := mgr.Join(p, 10); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := mgr.ApplyGuess(p, nil, g); err != nil {
		t.Fatalf("ApplyGuess: %v", err)
	}

	if err := mgr.FillTransients(context.Background(), p, []*model.Guess{g}, nil); err != nil {
		t.Fatalf("FillTransients: %v", err)
	}

	// Nothing drawn: everyone ranks at tier zero with no prize.
	for _, e := range p.Transients.Ranking.Entries {
		if e.Tier != 0 || e.Prize != 0 {
			t.Errorf("entry %+v, want tier 0 and no prize before any draw", e)
		}
	}
	if p.Transients.Ranking.UnawardedCents != 0 {
		t.Errorf("UnawardedCents = %d, want 0", p.Transients.Ranking.UnawardedCents)
	}
}

func TestFillTransientsCollaborative(t *testing.T) {
	mgr, _ := newTestManager()
	p := newTestPool(t)
	p.BetType = model.Collaborative

	guesses := []*model.Guess{}
	for i, id := range []int64{10, 20, 30} {
		if err := mgr.Join(p, id); err != nil {
			t.Fatalf("Join(%d): %v", id, err)
		}
		g := &model.Guess{ParticipantID: id, Numbers: picks(i*5 + 1)}
		if err := mgr.ApplyGuess(p, nil, g); err != nil {
			t.Fatalf("ApplyGuess(%d): %v", id, err)
		}
		guesses = append(guesses, g)
	}

	if err := mgr.RecordDraw(p, 1, []int{1, 2, 3, 4, 5, 6}, false); err != nil {
		t.Fatalf("RecordDraw: %v", err)
	}

	if err := mgr.FillTransients(context.Background(), p, guesses, nil); err != nil {
		t.Fatalf("FillTransients: %v", err)
	}

	// Everyone plays the same ticket, so everyone ties at tier 1 and
	// splits its pool evenly.
	entries := p.Transients.Ranking.Entries
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	tier1Pool := p.Transients.Finances.TierPools[0]
	for _, e := range entries {
		if e.Tier != 1 {
			t.Errorf("entry %+v, want tier 1", e)
		}
		if e.Prize != tier1Pool/3 {
			t.Errorf("prize = %d, want %d", e.Prize, tier1Pool/3)
		}
	}
}

func TestSuggestPicks(t *testing.T) {
	got := SuggestPicks(10, 60)
	if len(got) != 10 {
		t.Fatalf("got %d picks, want 10", len(got))
	}
	seen := map[int]bool{}
	for _, n := range got {
		if n < 1 || n > 60 {
			t.Errorf("pick %d out of range", n)
		}
		if seen[n] {
			t.Errorf("duplicate pick %d", n)
		}
		seen[n] = true
	}
}
