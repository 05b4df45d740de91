package permission

import (
	"context"

	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/state"
)

// AccessCodeStorage gates the invite codes.  Minting and listing need
// operator rights; fetching and redeeming only need a logged-in user, since
// redeeming is how an invited stranger becomes a participant.
type AccessCodeStorage struct {
	next state.AccessCodeStorage
}

var _ state.AccessCodeStorage = &AccessCodeStorage{}

func NewAccessCodeStorage(next state.AccessCodeStorage) *AccessCodeStorage {
	return &AccessCodeStorage{next: next}
}

func (s *AccessCodeStorage) Close() {
	s.next.Close()
}

func (s *AccessCodeStorage) CreateAccessCode(ctx context.Context, ac *model.AccessCode) error {
	return requireOperator(ctx, func() error {
		return s.next.CreateAccessCode(ctx, ac)
	})
}

func (s *AccessCodeStorage) FetchAccessCode(ctx context.Context, code string) (*model.AccessCode, error) {
	if UserFromContext(ctx) == nil {
		return nil, he403()
	}
	return s.next.FetchAccessCode(ctx, code)
}

func (s *AccessCodeStorage) SaveAccessCode(ctx context.Context, ac *model.AccessCode) error {
	if UserFromContext(ctx) == nil {
		return he403()
	}
	return s.next.SaveAccessCode(ctx, ac)
}

func (s *AccessCodeStorage) FetchAccessCodesByPoolID(ctx context.Context, poolID int64) ([]*model.AccessCode, error) {
	return requireOperatorReturning(ctx, func() ([]*model.AccessCode, error) {
		return s.next.FetchAccessCodesByPoolID(ctx, poolID)
	})
}
