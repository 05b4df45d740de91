package main

import (
	"context"
	"log"

	"github.com/bolao-jogos/bolao/config"
	"github.com/bolao-jogos/bolao/dbcache"
	"github.com/bolao-jogos/bolao/dbnotify"
	"github.com/bolao-jogos/bolao/dbutil"
	"github.com/bolao-jogos/bolao/form"
	"github.com/bolao-jogos/bolao/listener"
	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/permission"
	"github.com/bolao-jogos/bolao/pool"
	"github.com/bolao-jogos/bolao/state"
	"github.com/bolao-jogos/bolao/ts"
	"github.com/bolao-jogos/bolao/webapp"
)

const (
	poolCacheSize = 128
	userCacheSize = 1024
)

func main() {
	ctx := context.Background()
	config.Init()

	clock := ts.NewRealClock()

	db, err := dbutil.Connect()
	if err != nil {
		log.Fatalf("can't configure database: %v", err)
	}
	dbStorage := state.NewDBStorage(db)

	feeStorage := state.NewBuiltinFeeScheduleStorage()
	manager := pool.NewManager(clock, feeStorage)

	cachedPools := dbcache.NewPoolStorage(poolCacheSize, dbStorage)
	cachedUsers := dbcache.NewUserStorage(userCacheSize, dbStorage)
	cachedSite := dbcache.NewSiteConfigStorage(dbStorage, clock)

	projector := pool.NewProjector(manager, dbStorage, cachedUsers)
	listenerStorage := listener.NewPoolStorage(cachedPools, projector)

	// Writes from other server instances come back through LISTEN/NOTIFY.
	notifyDB, err := dbutil.Connect()
	if err != nil {
		log.Fatalf("can't configure notification database connection: %v", err)
	}
	poolDispatcher := dbnotify.NewChangeDispatcher[*model.Pool](
		"pools", listenerStorage, cachedPools, cachedPools)
	userDispatcher := dbnotify.NewChangeDispatcher[*model.UserIdentity](
		"users", nil, cachedUsers, cachedUsers)
	notifyListener, err := dbnotify.NewDBNotifyListener(notifyDB, poolDispatcher, userDispatcher)
	if err != nil {
		log.Fatalf("can't create notify listener: %v", err)
	}
	go func() {
		if err := notifyListener.Listen(ctx); err != nil {
			log.Fatalf("notify listener exited: %v", err)
		}
	}()

	bakeryFactory := permission.NewBakeryFactory(clock, cachedSite)

	poolStorage := permission.NewPoolStorage(listenerStorage)
	guessStorage := permission.NewGuessStorage(dbStorage)
	userStorage := permission.NewUserStorage(cachedUsers)
	siteStorage := permission.NewSiteConfigStorage(cachedSite)
	accessCodeStorage := permission.NewAccessCodeStorage(dbStorage)

	formProcessor := form.NewProcessor(poolStorage, userStorage, clock)

	app := webapp.New(ctx, &webapp.Config{
		PoolStorage:       poolStorage,
		GuessStorage:      guessStorage,
		SiteStorage:       siteStorage,
		UserStorage:       userStorage,
		AccessCodeStorage: accessCodeStorage,
		FeeStorage:        feeStorage,
		FormProcessor:     formProcessor,
		BakeryFactory:     bakeryFactory,
		Clock:             clock,
		Projector:         projector,
	})

	if err := app.Serve(ctx, config.ListenAddress()); err != nil {
		log.Fatalf("can't serve: %v", err)
	}
}
