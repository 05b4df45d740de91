package permission

import (
	"context"

	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/state"
)

// PoolStorage gates pool writes.  Reads are open: anyone can browse pools.
type PoolStorage struct {
	next state.PoolListenerStorage
}

var _ state.PoolListenerStorage = &PoolStorage{}

func NewPoolStorage(next state.PoolListenerStorage) *PoolStorage {
	return &PoolStorage{next: next}
}

func (s *PoolStorage) Close() {
	s.next.Close()
}

func (s *PoolStorage) FetchOverview(ctx context.Context, offset, limit int) (*model.Overview, error) {
	return s.next.FetchOverview(ctx, offset, limit)
}

func (s *PoolStorage) FetchPool(ctx context.Context, id int64) (*model.Pool, error) {
	return s.next.FetchPool(ctx, id)
}

func (s *PoolStorage) CreatePool(ctx context.Context, p *model.Pool) (int64, error) {
	return requireOperatorReturning(ctx, func() (int64, error) {
		return s.next.CreatePool(ctx, p)
	})
}

// SavePool is deliberately not operator-only: joining a pool and submitting
// a guess both write pool state on behalf of a plain participant.  The
// membership rules live in the pool manager; this layer only blocks writes
// from requests with no user at all.
func (s *PoolStorage) SavePool(ctx context.Context, p *model.Pool) error {
	if UserFromContext(ctx) == nil {
		return he403()
	}
	return s.next.SavePool(ctx, p)
}

func (s *PoolStorage) DeletePool(ctx context.Context, id int64) error {
	return requireOperator(ctx, func() error {
		return s.next.DeletePool(ctx, id)
	})
}

func (s *PoolStorage) ListenPoolVersion(ctx context.Context, id int64, version int64, errCh chan<- error, poolCh chan<- *model.Pool) {
	s.next.ListenPoolVersion(ctx, id, version, errCh, poolCh)
}
