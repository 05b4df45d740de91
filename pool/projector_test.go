package pool

import (
	"context"
	"testing"

	"github.com/bolao-jogos/bolao/fakes"
	"github.com/bolao-jogos/bolao/model"
)

func TestProjectorFill(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager()
	p := newTestPool(t)

	guessStorage := fakes.NewFakeGuessStorage()
	userStorage := fakes.NewFakeUserStorage(
		&model.UserIdentity{UserID: 10, Nick: "Ana"},
		// User 20 exists in the pool but not in user storage.
	)
	pr := NewProjector(mgr, guessStorage, userStorage)

	for i, id := range []int64{10, 20} {
		if err := mgr.Join(p, id); err != nil {
			t.Fatalf("Join(%d): %v", id, err)
		}
		g := &model.Guess{ParticipantID: id, Numbers: picks(i*10 + 1)}
		if err := mgr.ApplyGuess(p, nil, g); err != nil {
			t.Fatalf("ApplyGuess(%d): %v", id, err)
		}
		if _, err := guessStorage.CreateGuess(ctx, g); err != nil {
			t.Fatalf("CreateGuess(%d): %v", id, err)
		}
	}
	if err := mgr.RecordDraw(p, 1, []int{1, 2, 3, 4, 5, 6}, false); err != nil {
		t.Fatalf("RecordDraw: %v", err)
	}

	if err := pr.Fill(ctx, p); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	entries := p.Transients.Ranking.Entries
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].DisplayName != "Ana" {
		t.Errorf("top entry name = %q, want Ana", entries[0].DisplayName)
	}
	// The unknown user falls back to a placeholder, not an error.
	if entries[1].DisplayName != "Participante 20" {
		t.Errorf("fallback name = %q, want Participante 20", entries[1].DisplayName)
	}
}
