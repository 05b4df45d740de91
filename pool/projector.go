package pool

import (
	"context"

	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/ranking"
)

// GuessFetcher is the piece of guess storage the projector needs.
type GuessFetcher interface {
	FetchGuessesByPoolID(ctx context.Context, poolID int64) ([]*model.Guess, error)
}

// UserFetcher resolves participant display names.
type UserFetcher interface {
	FetchUserByUserID(ctx context.Context, id int64) (*model.UserIdentity, error)
}

// Projector bundles the manager with the storage it needs to fill a pool's
// transients.  Everything that hands a pool to a client goes through here.
type Projector struct {
	mgr     *Manager
	guesses GuessFetcher
	users   UserFetcher
}

func NewProjector(mgr *Manager, guesses GuessFetcher, users UserFetcher) *Projector {
	return &Projector{
		mgr:     mgr,
		guesses: guesses,
		users:   users,
	}
}

func (pr *Projector) Manager() *Manager {
	return pr.mgr
}

// Fill computes the pool's transients from its stored guesses and the user
// directory.  A participant whose identity can't be fetched keeps a
// placeholder name; a missing nick must not break the ranking.
func (pr *Projector) Fill(ctx context.Context, p *model.Pool) error {
	guesses, err := pr.guesses.FetchGuessesByPoolID(ctx, p.PoolID)
	if err != nil {
		return err
	}

	names := ranking.Directory{}
	for _, id := range p.ParticipantIDs {
		if u, err := pr.users.FetchUserByUserID(ctx, id); err == nil {
			names[id] = u.Nick
		}
	}

	return pr.mgr.FillTransients(ctx, p, guesses, names)
}
