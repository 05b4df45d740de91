// Package fakes provides in-memory storage for tests.
package fakes

import (
	"context"
	"sort"
	"sync"

	"github.com/bolao-jogos/bolao/he"
	"github.com/bolao-jogos/bolao/model"
)

type FakePoolStorage struct {
	mu     sync.Mutex
	nextID int64
	pools  map[int64]*model.Pool
}

func NewFakePoolStorage() *FakePoolStorage {
	return &FakePoolStorage{
		nextID: 1,
		pools:  map[int64]*model.Pool{},
	}
}

func (s *FakePoolStorage) Close() {}

func (s *FakePoolStorage) FetchOverview(ctx context.Context, offset, limit int) (*model.Overview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.pools))
	for id := range s.pools {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	o := &model.Overview{Slugs: []model.PoolSlug{}}
	for _, id := range ids {
		o.Slugs = append(o.Slugs, s.pools[id].Slug())
	}
	return o, nil
}

func (s *FakePoolStorage) CreatePool(ctx context.Context, p *model.Pool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.PoolID = s.nextID
	s.nextID++
	s.pools[p.PoolID] = p.Clone()
	return p.PoolID, nil
}

func (s *FakePoolStorage) SavePool(ctx context.Context, p *model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.pools[p.PoolID]
	if !ok {
		return he.HTTPCodedErrorf(404, "pool %d not found", p.PoolID)
	}
	if old.OptimisticLock != p.OptimisticLock {
		return he.HTTPCodedErrorf(409, "pool %d lock mismatch", p.PoolID)
	}
	p.OptimisticLock++
	s.pools[p.PoolID] = p.Clone()
	return nil
}

func (s *FakePoolStorage) DeletePool(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pools[id]; !ok {
		return he.HTTPCodedErrorf(404, "pool %d not found", id)
	}
	delete(s.pools, id)
	return nil
}

func (s *FakePoolStorage) FetchPool(ctx context.Context, id int64) (*model.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pools[id]; ok {
		return p.Clone(), nil
	}
	return nil, he.HTTPCodedErrorf(404, "pool %d not found", id)
}

type FakeGuessStorage struct {
	mu      sync.Mutex
	nextID  int64
	guesses map[int64]*model.Guess
}

func NewFakeGuessStorage() *FakeGuessStorage {
	return &FakeGuessStorage{
		nextID:  1,
		guesses: map[int64]*model.Guess{},
	}
}

func (s *FakeGuessStorage) Close() {}

func (s *FakeGuessStorage) FetchGuessesByPoolID(ctx context.Context, poolID int64) ([]*model.Guess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := []*model.Guess{}
	for _, g := range s.guesses {
		if g.PoolID == poolID {
			r = append(r, g.Clone())
		}
	}
	sort.Slice(r, func(i, j int) bool { return r[i].GuessID < r[j].GuessID })
	return r, nil
}

func (s *FakeGuessStorage) FetchGuess(ctx context.Context, poolID, participantID int64) (*model.Guess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.guesses {
		if g.PoolID == poolID && g.ParticipantID == participantID {
			return g.Clone(), nil
		}
	}
	return nil, he.HTTPCodedErrorf(404, "no guess for user %d in pool %d", participantID, poolID)
}

func (s *FakeGuessStorage) CreateGuess(ctx context.Context, g *model.Guess) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g.GuessID = s.nextID
	s.nextID++
	s.guesses[g.GuessID] = g.Clone()
	return g.GuessID, nil
}

func (s *FakeGuessStorage) SaveGuess(ctx context.Context, g *model.Guess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.guesses[g.GuessID]
	if !ok {
		return he.HTTPCodedErrorf(404, "guess %d not found", g.GuessID)
	}
	if old.OptimisticLock != g.OptimisticLock {
		return he.HTTPCodedErrorf(409, "guess %d lock mismatch", g.GuessID)
	}
	g.OptimisticLock++
	s.guesses[g.GuessID] = g.Clone()
	return nil
}

type FakeUserStorage struct {
	mu    sync.Mutex
	users map[int64]*model.UserIdentity
}

func NewFakeUserStorage(users ...*model.UserIdentity) *FakeUserStorage {
	s := &FakeUserStorage{users: map[int64]*model.UserIdentity{}}
	for _, u := range users {
		s.users[u.UserID] = u
	}
	return s
}

func (s *FakeUserStorage) FetchUserByUserID(ctx context.Context, id int64) (*model.UserIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		return u.Clone(), nil
	}
	return nil, he.HTTPCodedErrorf(404, "user %d not found", id)
}
