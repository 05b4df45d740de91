package dbcache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/state"
	"github.com/bolao-jogos/bolao/varz"
)

var (
	userStorageCacheHits   = varz.NewInt("userStorageCacheHits")
	userStorageCacheMisses = varz.NewInt("userStorageCacheMisses")
)

// UserStorage caches identities by ID.  Every request with a cookie fetches
// the user, so this is the hottest read path in the app.
type UserStorage struct {
	cache *lru.Cache[int64, *model.UserIdentity]
	next  state.UserStorage
}

var _ state.UserStorage = &UserStorage{}

func NewUserStorage(size int, next state.UserStorage) *UserStorage {
	cache, err := lru.New[int64, *model.UserIdentity](size)
	if err != nil {
		panic(err)
	}
	return &UserStorage{
		cache: cache,
		next:  next,
	}
}

func (s *UserStorage) Close() {
	s.next.Close()
}

// TODO: We need to be able to call this for multiple-writer changes.
func (s *UserStorage) InvalidateCache(userID int64) {
	s.cache.Remove(userID)
}

// CacheInvalidate makes this suitable for the dbnotify cache interface.
func (s *UserStorage) CacheInvalidate(_ context.Context, userID int64, _ int64) {
	s.cache.Remove(userID)
}

// Fetch makes this suitable for the dbnotify fetcher interface.
func (s *UserStorage) Fetch(ctx context.Context, id int64) (*model.UserIdentity, error) {
	return s.FetchUserByUserID(ctx, id)
}

func (s *UserStorage) FetchUsers(ctx context.Context) ([]*model.UserIdentity, error) {
	return s.next.FetchUsers(ctx)
}

func (s *UserStorage) CreateUser(ctx context.Context, nick string, passwordHash string, isAdmin bool) (int64, error) {
	return s.next.CreateUser(ctx, nick, passwordHash, isAdmin)
}

func (s *UserStorage) FetchUserByUserID(ctx context.Context, id int64) (*model.UserIdentity, error) {
	if ui, ok := s.cache.Get(id); ok {
		userStorageCacheHits.Add(1)
		return ui.Clone(), nil
	}

	userStorageCacheMisses.Add(1)

	ui, err := s.next.FetchUserByUserID(ctx, id)
	if err == nil {
		s.cache.Add(id, ui.Clone())
	}

	return ui, err
}

func (s *UserStorage) FetchUserRow(ctx context.Context, nick string) (*model.UserRow, error) {
	return s.next.FetchUserRow(ctx, nick)
}

func (s *UserStorage) SaveUser(ctx context.Context, u *model.UserIdentity) error {
	err := s.next.SaveUser(ctx, u)
	if err == nil {
		s.cache.Add(u.UserID, u.Clone())
	}
	return err
}

func (s *UserStorage) DeleteUserByNick(ctx context.Context, nick string) error {
	return s.next.DeleteUserByNick(ctx, nick)
}

func (s *UserStorage) ReplacePassword(ctx context.Context, userID int64, newPasswordHash string, oldPasswordsExpire time.Time) error {
	return s.next.ReplacePassword(ctx, userID, newPasswordHash, oldPasswordsExpire)
}

func (s *UserStorage) RemoveExpiredPasswords(ctx context.Context, before time.Time) error {
	return s.next.RemoveExpiredPasswords(ctx, before)
}
