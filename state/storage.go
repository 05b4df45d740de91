package state

// package state manages persistence.

import (
	"context"
	"time"

	"github.com/bolao-jogos/bolao/finance"
	"github.com/bolao-jogos/bolao/model"
)

type Closer interface {
	Close()
}

// PoolStorage describes storage's view of pool management.
type PoolStorage interface {
	Closer

	FetchOverview(ctx context.Context, offset, limit int) (*model.Overview, error)

	CreatePool(ctx context.Context, p *model.Pool) (int64, error)
	SavePool(ctx context.Context, p *model.Pool) error
	DeletePool(ctx context.Context, id int64) error
	FetchPool(ctx context.Context, id int64) (*model.Pool, error)
}

// PoolListenerStorage additionally parks clients until a pool changes.
type PoolListenerStorage interface {
	PoolStorage

	ListenPoolVersion(ctx context.Context, id int64, version int64, errCh chan<- error, poolCh chan<- *model.Pool)
}

type GuessStorage interface {
	Closer

	FetchGuessesByPoolID(ctx context.Context, poolID int64) ([]*model.Guess, error)
	FetchGuess(ctx context.Context, poolID, participantID int64) (*model.Guess, error)
	CreateGuess(ctx context.Context, g *model.Guess) (int64, error)
	SaveGuess(ctx context.Context, g *model.Guess) error
}

// SiteStorageReader is the unauthenticated read path; the cookie machinery
// needs the site config before there is a user in the context.
type SiteStorageReader interface {
	FetchSiteConfig(ctx context.Context) (*model.SiteConfig, error)
}

type SiteStorage interface {
	Closer
	SiteStorageReader

	SaveSiteConfig(ctx context.Context, config *model.SiteConfig) error
}

type UserStorage interface {
	Closer

	FetchUsers(ctx context.Context) ([]*model.UserIdentity, error)
	CreateUser(ctx context.Context, nick string, passwordHash string, isAdmin bool) (int64, error)
	FetchUserByUserID(ctx context.Context, id int64) (*model.UserIdentity, error)
	FetchUserRow(ctx context.Context, nick string) (*model.UserRow, error)
	SaveUser(ctx context.Context, u *model.UserIdentity) error
	DeleteUserByNick(ctx context.Context, nick string) error

	ReplacePassword(ctx context.Context, userID int64, newPasswordHash string, oldPasswordsExpire time.Time) error
	RemoveExpiredPasswords(ctx context.Context, before time.Time) error
}

type AccessCodeStorage interface {
	Closer

	CreateAccessCode(ctx context.Context, ac *model.AccessCode) error
	FetchAccessCode(ctx context.Context, code string) (*model.AccessCode, error)
	SaveAccessCode(ctx context.Context, ac *model.AccessCode) error
	FetchAccessCodesByPoolID(ctx context.Context, poolID int64) ([]*model.AccessCode, error)
}

type FeeScheduleStorage interface {
	Closer

	FetchFeeScheduleByID(ctx context.Context, id int64) (*finance.FeeSchedule, error)
	FetchFeeScheduleSlugs(ctx context.Context) ([]*finance.FeeScheduleSlug, error)
}

// Storage is everything the database provides.
type Storage interface {
	PoolStorage
	GuessStorage
	SiteStorage
	UserStorage
	AccessCodeStorage
}
