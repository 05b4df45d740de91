package form

import (
	"context"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bolao-jogos/bolao/defaults"
	"github.com/bolao-jogos/bolao/he"
	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/password"
	"github.com/bolao-jogos/bolao/state"
)

type FormProcessor struct {
	poolStorage state.PoolStorage
	userStorage state.UserStorage
	clock       nower
}

type nower interface {
	Now() time.Time
}

func NewProcessor(ps state.PoolStorage, us state.UserStorage, clock nower) *FormProcessor {
	return &FormProcessor{poolStorage: ps, userStorage: us, clock: clock}
}

func maybeCopyString(form url.Values, dest *string, key string) {
	if v, ok := form[key]; ok && len(v) > 0 {
		*dest = v[0]
	}
}

func decomma(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

func formNumberToInt64(s string) (int64, error) {
	s = decomma(s)
	return strconv.ParseInt(s, 10, 64)
}

func maybeCopyInt64(form url.Values, dest *int64, key string) {
	if v, ok := form[key]; ok && len(v) > 0 {
		val, err := formNumberToInt64(v[0])
		if err == nil {
			*dest = val
		}
	}
}

func parseBetType(s string) (model.BetType, error) {
	switch s {
	case string(model.Individual):
		return model.Individual, nil
	case string(model.Collaborative):
		return model.Collaborative, nil
	default:
		return "", he.HTTPCodedErrorf(400, "invalid bet type")
	}
}

// ApplyFormToPool takes form values and applies them to a pool, in
// place.  Fields absent from the form are left alone.  Structural
// fields (bet type, picks, price) only change while the pool is still
// accepting participants.
func (a *FormProcessor) ApplyFormToPool(ctx context.Context, form url.Values, p *model.Pool) error {
	maybeCopyInt64(form, &p.OptimisticLock, "OptimisticLock")

	maybeCopyString(form, &p.Name, "Name")
	maybeCopyString(form, &p.Description, "Description")

	mutable := p.Status == model.Awaiting

	if bt := form.Get("BetType"); bt != "" {
		betType, err := parseBetType(bt)
		if err != nil {
			return err
		}
		if betType != p.BetType && !mutable {
			return he.HTTPCodedErrorf(400, "bet type is fixed once the pool fills")
		}
		p.BetType = betType
	}

	if rp := form.Get("RequiredPicks"); rp != "" {
		picks, err := formNumberToInt64(rp)
		if err != nil {
			return he.HTTPCodedErrorf(400, "invalid pick count")
		}
		if int(picks) != p.RequiredPicks && !mutable {
			return he.HTTPCodedErrorf(400, "pick count is fixed once the pool fills")
		}
		spec, err := model.GameSpecFor(p.GameType)
		if err != nil {
			return err
		}
		if picks < int64(spec.OfficialDrawSize) || picks > int64(spec.MaxNumber) {
			return he.HTTPCodedErrorf(400, "pick count out of range for %v", p.GameType)
		}
		p.RequiredPicks = int(picks)
	}

	if c := form.Get("Capacity"); c != "" {
		n, err := formNumberToInt64(c)
		if err != nil || n < 2 {
			return he.HTTPCodedErrorf(400, "invalid capacity")
		}
		if int(n) < len(p.ParticipantIDs) {
			return he.HTTPCodedErrorf(400, "capacity below current participant count")
		}
		p.Capacity = int(n)
	}

	if price := form.Get("PricePerEntry"); price != "" {
		centavos, err := formNumberToInt64(price)
		if err != nil || centavos < 0 {
			return he.HTTPCodedErrorf(400, "invalid entry price")
		}
		if centavos != p.PricePerEntry && !mutable {
			return he.HTTPCodedErrorf(400, "entry price is fixed once the pool fills")
		}
		p.PricePerEntry = centavos
	}

	maybeCopyInt64(form, &p.FeeScheduleID, "FeeScheduleID")

	if rc := form.Get("RequiresCode"); rc != "" {
		p.RequiresCode = rc == "true" || rc == "on"
	}

	return nil
}

func (a *FormProcessor) EditPool(ctx context.Context, id int64, form url.Values) error {
	log.Printf("edit path: %v", id)

	p, err := a.poolStorage.FetchPool(ctx, id)
	if err != nil {
		return he.HTTPCodedErrorf(404, "can't get pool from database")
	}

	err = a.ApplyFormToPool(ctx, form, p)
	if err != nil {
		return err
	}

	return a.poolStorage.SavePool(ctx, p)
}

func (a *FormProcessor) CreatePool(ctx context.Context, adminUserID int64, form url.Values) (int64, error) {
	gameType, err := model.ParseGameType(form.Get("GameType"))
	if err != nil {
		return 0, he.HTTPCodedErrorf(400, "invalid game type")
	}

	p, err := defaults.Pool(gameType)
	if err != nil {
		return 0, err
	}
	p.AdminUserID = adminUserID
	p.CreatedAt = a.clock.Now().UnixMilli()

	err = a.ApplyFormToPool(ctx, form, p)
	if err != nil {
		return 0, err
	}

	if p.Name == "" {
		return 0, he.HTTPCodedErrorf(400, "name is required")
	}
	if p.Capacity < 2 {
		return 0, he.HTTPCodedErrorf(400, "capacity is required")
	}

	return a.poolStorage.CreatePool(ctx, p)
}

func (a *FormProcessor) ApplyFormToUserIdentity(form url.Values, u *model.UserIdentity) {
	maybeCopyString(form, &u.Nick, "Nick")
	u.IsAdmin = form.Get("IsAdmin") == "true"
	u.IsOperator = form.Get("IsOperator") == "true"
}

func (a *FormProcessor) EditUser(ctx context.Context, id int64, form url.Values) error {
	user, err := a.userStorage.FetchUserByUserID(ctx, id)
	if err != nil {
		return he.HTTPCodedErrorf(404, "can't get user from database")
	}

	a.ApplyFormToUserIdentity(form, user)

	return a.userStorage.SaveUser(ctx, user)
}

func (a *FormProcessor) CreateUser(ctx context.Context, form url.Values) (int64, error) {
	nick := form.Get("Nick")
	if nick == "" {
		return 0, he.HTTPCodedErrorf(400, "nick is required")
	}

	newPassword := form.Get("NewPassword")
	if newPassword == "" {
		return 0, he.HTTPCodedErrorf(400, "password is required")
	}

	isAdmin := form.Get("IsAdmin") == "true"

	id, err := a.userStorage.CreateUser(ctx, nick, password.Hash(newPassword), isAdmin)
	if err != nil {
		return 0, err
	}

	if form.Get("IsOperator") == "true" {
		user, err := a.userStorage.FetchUserByUserID(ctx, id)
		if err != nil {
			return id, err
		}
		user.IsOperator = true
		if err := a.userStorage.SaveUser(ctx, user); err != nil {
			return id, err
		}
	}

	return id, nil
}

func (a *FormProcessor) SetUserPassword(ctx context.Context, userID int64, form url.Values) error {
	newPassword := form.Get("NewPassword")
	confirmPassword := form.Get("ConfirmPassword")

	if newPassword == "" {
		return he.HTTPCodedErrorf(400, "password is required")
	}

	if newPassword != confirmPassword {
		return he.HTTPCodedErrorf(400, "passwords do not match")
	}

	hashedPassword := password.Hash(newPassword)

	// Expire old passwords immediately and set new password
	return a.userStorage.ReplacePassword(ctx, userID, hashedPassword, a.clock.Now())
}
