package permission

import (
	"context"

	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/state"
)

// GuessStorage gates guess writes: you only write your own guess, unless
// you're an admin.  Reads are open; published guesses are part of the
// ranking everyone sees.
type GuessStorage struct {
	next state.GuessStorage
}

var _ state.GuessStorage = &GuessStorage{}

func NewGuessStorage(next state.GuessStorage) *GuessStorage {
	return &GuessStorage{next: next}
}

func (s *GuessStorage) Close() {
	s.next.Close()
}

func (s *GuessStorage) FetchGuessesByPoolID(ctx context.Context, poolID int64) ([]*model.Guess, error) {
	return s.next.FetchGuessesByPoolID(ctx, poolID)
}

func (s *GuessStorage) FetchGuess(ctx context.Context, poolID, participantID int64) (*model.Guess, error) {
	return s.next.FetchGuess(ctx, poolID, participantID)
}

func (s *GuessStorage) CreateGuess(ctx context.Context, g *model.Guess) (int64, error) {
	var id int64
	err := requireAdminOrUserID(ctx, g.ParticipantID, func() error {
		var err error
		id, err = s.next.CreateGuess(ctx, g)
		return err
	})
	return id, err
}

func (s *GuessStorage) SaveGuess(ctx context.Context, g *model.Guess) error {
	return requireAdminOrUserID(ctx, g.ParticipantID, func() error {
		return s.next.SaveGuess(ctx, g)
	})
}
