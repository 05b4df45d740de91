package dbcache

import (
	"context"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/state"
	"github.com/bolao-jogos/bolao/varz"
)

var (
	poolStorageCacheHits            = varz.NewInt("poolStorageCacheHits")
	poolStorageCacheMisses          = varz.NewInt("poolStorageCacheMisses")
	poolStorageCacheDuplicateUpdate = varz.NewInt("poolStorageCacheDuplicateUpdate")
)

// PoolStorage is a read-through cache in front of the pool table.  Writes go
// through and update the cache; db notifications invalidate stale versions.
type PoolStorage struct {
	cache *lru.Cache[int64, *model.Pool]
	lock  sync.Mutex
	next  state.PoolStorage
}

var _ state.PoolStorage = (*PoolStorage)(nil)

func NewPoolStorage(size int, next state.PoolStorage) *PoolStorage {
	cache, err := lru.New[int64, *model.Pool](size)
	if err != nil {
		log.Fatalf("can't create PoolStorage cache: %v", err)
	}
	return &PoolStorage{
		cache: cache,
		next:  next,
	}
}

func (s *PoolStorage) Close() {
	s.next.Close()
}

// CreatePool implements state.PoolStorage.
func (s *PoolStorage) CreatePool(ctx context.Context, p *model.Pool) (int64, error) {
	return s.next.CreatePool(ctx, p)
}

// DeletePool implements state.PoolStorage.
func (s *PoolStorage) DeletePool(ctx context.Context, id int64) error {
	err := s.next.DeletePool(ctx, id)
	if err == nil {
		s.cache.Remove(id)
	}
	return err
}

// FetchOverview implements state.PoolStorage.
func (s *PoolStorage) FetchOverview(ctx context.Context, offset int, limit int) (*model.Overview, error) {
	return s.next.FetchOverview(ctx, offset, limit)
}

// Alternate name, making this suitable for the dbnotify fetcher interface.
func (s *PoolStorage) Fetch(ctx context.Context, id int64) (*model.Pool, error) {
	return s.FetchPool(ctx, id)
}

func (s *PoolStorage) CacheInvalidate(_ context.Context, id int64, version int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if p, ok := s.cache.Get(id); ok {
		if p.OptimisticLock <= version {
			s.cache.Remove(id)
		}
	}
}

func (s *PoolStorage) CacheStore(ctx context.Context, p *model.Pool) {
	id := p.PoolID
	s.lock.Lock()
	defer s.lock.Unlock()
	cached, ok := s.cache.Get(id)
	if ok {
		if cached.OptimisticLock > p.OptimisticLock {
			log.Printf("cache: have version %d, incoming %d, ignoring", cached.OptimisticLock, p.OptimisticLock)
			return
		} else if cached.OptimisticLock == p.OptimisticLock {
			poolStorageCacheDuplicateUpdate.Add(1)
			return
		}
	}
	s.cache.Add(id, p.Clone())
}

func (s *PoolStorage) FetchPool(ctx context.Context, id int64) (*model.Pool, error) {
	if p, ok := s.cache.Get(id); ok {
		poolStorageCacheHits.Add(1)
		return p.Clone(), nil
	}

	poolStorageCacheMisses.Add(1)
	p, err := s.next.FetchPool(ctx, id)
	if err != nil {
		return nil, err
	}
	s.CacheStore(ctx, p)
	return p, nil
}

func (s *PoolStorage) SavePool(ctx context.Context, p *model.Pool) error {
	err := s.next.SavePool(ctx, p)
	if err != nil {
		return err
	}
	s.CacheStore(ctx, p)
	return nil
}
