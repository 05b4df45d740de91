package permission

import (
	"context"
	"fmt"
	"sync"

	"github.com/bolao-jogos/bolao/dep"
	"github.com/bolao-jogos/bolao/state"
)

// BakeryFactory builds Bakery instances from the current site config and
// caches them by config version, so a key rotation takes effect without a
// restart once the config cache turns over.
type BakeryFactory struct {
	clock       BakeryClock
	siteStorage state.SiteStorageReader

	mu            sync.Mutex
	cached        *Bakery
	cachedVersion int64
}

func NewBakeryFactory(clock BakeryClock, siteStorage state.SiteStorageReader) *BakeryFactory {
	return &BakeryFactory{
		clock:       dep.Required(clock),
		siteStorage: dep.Required(siteStorage),
	}
}

func (f *BakeryFactory) Bakery(ctx context.Context) (*Bakery, error) {
	conf, err := f.siteStorage.FetchSiteConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't fetch site config: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached != nil && f.cachedVersion == conf.OptimisticLock {
		return f.cached, nil
	}

	bakery, err := New(f.clock, conf)
	if err != nil {
		return nil, fmt.Errorf("can't build bakery: %w", err)
	}
	f.cached = bakery
	f.cachedVersion = conf.OptimisticLock
	return bakery, nil
}
