// Package listener parks long-poll clients until a pool changes.
//
// Changes arrive two ways: local writes are intercepted by the PoolStorage
// decorator, and writes from other server instances come back through
// dbnotify, which calls NotifyUpdated.  Either way each parked client gets
// exactly one write on one of its channels.
package listener

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/pool"
	"github.com/bolao-jogos/bolao/state"
)

// A listen request eventually results in exactly one write to one of these
// channels (possibly before the pair is constructed).
type channels struct {
	errCh  chan<- error
	poolCh chan<- *model.Pool
}

// PoolStorage provides a place to hang listeners.  This intercepts writes
// and notifies other interested listeners that the object has changed.
type PoolStorage struct {
	poolListeners   map[int64][]channels
	poolListenersMu sync.Mutex

	projector *pool.Projector
	next      state.PoolStorage
}

func NewPoolStorage(storage state.PoolStorage, projector *pool.Projector) *PoolStorage {
	return &PoolStorage{
		next:          storage,
		projector:     projector,
		poolListeners: make(map[int64][]channels),
	}
}

var _ state.PoolListenerStorage = (*PoolStorage)(nil)

func (s *PoolStorage) Close() {
	s.next.Close()
}

// CreatePool implements state.PoolListenerStorage.
func (s *PoolStorage) CreatePool(ctx context.Context, p *model.Pool) (int64, error) {
	return s.next.CreatePool(ctx, p)
}

// DeletePool implements state.PoolListenerStorage.
func (s *PoolStorage) DeletePool(ctx context.Context, id int64) error {
	err := s.next.DeletePool(ctx, id)
	if err != nil {
		return err
	}

	// Purge any active listeners.
	listeners := s.resetPoolListeners(id)
	for _, ch := range listeners {
		go func(chs channels) {
			chs.errCh <- fmt.Errorf("pool %d has been deleted", id)
		}(ch)
	}
	return nil
}

// FetchOverview implements state.PoolListenerStorage.
func (s *PoolStorage) FetchOverview(ctx context.Context, offset int, limit int) (*model.Overview, error) {
	return s.next.FetchOverview(ctx, offset, limit)
}

// FetchPool implements state.PoolListenerStorage.
func (s *PoolStorage) FetchPool(ctx context.Context, id int64) (*model.Pool, error) {
	return s.next.FetchPool(ctx, id)
}

// ListenPoolVersion implements state.PoolListenerStorage.
func (s *PoolStorage) ListenPoolVersion(ctx context.Context, id int64, version int64, errCh chan<- error, poolCh chan<- *model.Pool) {
	s.poolListenersMu.Lock()
	defer s.poolListenersMu.Unlock()

	p, err := s.next.FetchPool(ctx, id)
	if err != nil {
		errCh <- fmt.Errorf("can't listen for changes: can't fetch %d: %v", id, err)
		return
	}

	if p.OptimisticLock != version {
		// Database already has something different, just send it.
		if p.OptimisticLock < version {
			// This is un-possible, but a malicious client could be messing
			// with us, or we could just have a bug.
			log.Printf("can't happen: reported version %d is newer than stored version %d for pool %d", version, p.OptimisticLock, id)
		}
		if err := s.projector.Fill(ctx, p); err != nil {
			log.Printf("can't fill transients for pool %d: %v", id, err)
		}
		poolCh <- p
		return
	}

	log.Printf("listening for pool %d changes from version %d", id, version)
	s.poolListeners[id] = append(s.poolListeners[id], channels{errCh, poolCh})
}

func (s *PoolStorage) resetPoolListeners(id int64) []channels {
	s.poolListenersMu.Lock()
	defer s.poolListenersMu.Unlock()
	listeners := s.poolListeners[id]
	delete(s.poolListeners, id)
	return listeners
}

// SavePool implements state.PoolListenerStorage.
func (s *PoolStorage) SavePool(ctx context.Context, p *model.Pool) error {
	err := s.next.SavePool(ctx, p)
	if err != nil {
		return err
	}
	s.notify(ctx, p)
	return nil
}

// NotifyUpdated accepts a change that arrived from the database notification
// channel.  This is the dbnotify client notifier for pools.
func (s *PoolStorage) NotifyUpdated(ctx context.Context, p *model.Pool) {
	if p == nil {
		return
	}
	s.notify(ctx, p)
}

func (s *PoolStorage) notify(ctx context.Context, p *model.Pool) {
	listeners := s.resetPoolListeners(p.PoolID)
	if len(listeners) == 0 {
		return
	}

	go func() {
		if err := s.projector.Fill(ctx, p); err != nil {
			log.Printf("can't fill transients for pool %d: %v", p.PoolID, err)
		}
		for _, chs := range listeners {
			chs.poolCh <- p.Clone()
		}
		log.Printf("notified %d listeners of pool %d version %d change", len(listeners), p.PoolID, p.OptimisticLock)
	}()
}
