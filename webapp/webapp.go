package webapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"

	"github.com/bolao-jogos/bolao/app/handlers"
	"github.com/bolao-jogos/bolao/dep"
	"github.com/bolao-jogos/bolao/form"
	"github.com/bolao-jogos/bolao/he"
	"github.com/bolao-jogos/bolao/middleware"
	"github.com/bolao-jogos/bolao/middleware/c2ctx"
	"github.com/bolao-jogos/bolao/middleware/labrea"
	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/password"
	"github.com/bolao-jogos/bolao/permission"
	"github.com/bolao-jogos/bolao/pool"
	"github.com/bolao-jogos/bolao/protocol"
	"github.com/bolao-jogos/bolao/report"
	"github.com/bolao-jogos/bolao/state"
	"github.com/bolao-jogos/bolao/urlpath"
	"github.com/bolao-jogos/bolao/varz"
)

var (
	clientClosedWhileListening    = varz.NewInt("clientClosedWhileListening")
	timedOutWhileListening        = varz.NewInt("timedOutWhileListening")
	errorListening                = varz.NewInt("errorListening")
	badPoolIDForListen            = varz.NewInt("badPoolIDForListen")
	listenNotifiedClient          = varz.NewInt("listenNotifiedClient")
	errorWhileMarshalingForListen = varz.NewInt("errorWhileMarshalingForListen")
)

func idPathValue(w http.ResponseWriter, r *http.Request) (int64, error) {
	return urlpath.IDPathValue(w, r)
}

type nower interface {
	Now() time.Time
}

// Config holds the configuration for creating a new App.
type Config struct {
	PoolStorage       state.PoolListenerStorage
	GuessStorage      state.GuessStorage
	SiteStorage       state.SiteStorage
	UserStorage       state.UserStorage
	AccessCodeStorage state.AccessCodeStorage
	FeeStorage        state.FeeScheduleStorage
	FormProcessor     *form.FormProcessor
	BakeryFactory     *permission.BakeryFactory
	Clock             nower
	Projector         *pool.Projector
}

// App is the main web application.
type App struct {
	poolStorage       state.PoolListenerStorage
	guessStorage      state.GuessStorage
	siteStorage       state.SiteStorage
	userStorage       state.UserStorage
	accessCodeStorage state.AccessCodeStorage
	feeStorage        state.FeeScheduleStorage
	formProcessor     *form.FormProcessor
	bakeryFactory     *permission.BakeryFactory
	clock             nower
	projector         *pool.Projector

	// internals
	mux     *http.ServeMux
	handler http.Handler
}

func allowedOrigins(sc *model.SiteConfig) []string {
	r := []string{}
	add := func(origin string) {
		r = append(r, origin)
	}
	for _, origin := range sc.AllowedOriginDomains {
		add(fmt.Sprintf("https://%s", origin))
		add(fmt.Sprintf("http://%s", origin))
		for _, port := range sc.BonusHTTPPorts {
			if port == 80 {
				continue
			}
			add(fmt.Sprintf("http://%s:%d", origin, port))
		}
		for _, port := range sc.BonusHTTPSPorts {
			if port == 443 {
				continue
			}
			add(fmt.Sprintf("https://%s:%d", origin, port))
		}
	}
	for _, origin := range r {
		log.Printf("CORS allowing origin %s", origin)
	}
	return r
}

// New creates a new App with the given configuration.
func New(ctx context.Context, config *Config) *App {
	// Prime this so we can check for errors.
	sc, err := config.SiteStorage.FetchSiteConfig(context.Background())
	if err != nil {
		log.Fatalf("can't get SiteConfig: %v", err)
	}

	if _, err = config.BakeryFactory.Bakery(context.Background()); err != nil {
		log.Fatalf("can't create bakery: %v", err)
	}

	app := &App{
		poolStorage:       dep.Required(config.PoolStorage),
		guessStorage:      dep.Required(config.GuessStorage),
		siteStorage:       dep.Required(config.SiteStorage),
		userStorage:       dep.Required(config.UserStorage),
		accessCodeStorage: dep.Required(config.AccessCodeStorage),
		feeStorage:        dep.Required(config.FeeStorage),
		formProcessor:     dep.Required(config.FormProcessor),
		bakeryFactory:     dep.Required(config.BakeryFactory),
		clock:             dep.Required(config.Clock),
		projector:         dep.Required(config.Projector),
		mux:               dep.Required(http.DefaultServeMux),
	}

	// Stack the handlers together.
	c2c := c2ctx.Handler(&c2ctx.Config{
		BakeryFactory: app.bakeryFactory,
		UserStorage:   app.userStorage,
		Next:          app.mux,
	})
	csp := http.NewCrossOriginProtection()
	logger := middleware.NewRequestLogger(csp.Handler(c2c), app.clock)
	// Use real clock here for sub-ms precision.
	tarpit := labrea.New(clockwork.NewRealClock(), logger)
	corsMW := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins(sc),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	})
	app.handler = corsMW.Handler(tarpit)

	app.InstallHandlers()

	return app
}

// Handler returns the configured HTTP handler.
func (app *App) Handler() http.Handler {
	return app.handler
}

// fetchPool returns the pool with transients filled, ready for clients.
func (app *App) fetchPool(ctx context.Context, id int64) (*model.Pool, error) {
	p, err := app.poolStorage.FetchPool(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := app.projector.Fill(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (app *App) handleFunc(pattern string, handler func(context.Context, http.ResponseWriter, *http.Request)) {
	app.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		handler(ctx, w, r)
	})
}

// cachedHandleFunc is handleFunc plus browser cache headers, for responses
// that only change on deploy.
func (app *App) cachedHandleFunc(pattern string, maxAge time.Duration, handler func(context.Context, http.ResponseWriter, *http.Request)) {
	app.mux.Handle(pattern, middleware.NewCacheHeaderAdder(&middleware.CacheHeaderAdderConfig{
		Next: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(r.Context(), w, r)
		}),
		MaxAge: maxAge,
	}))
}

func (app *App) handleFuncTakingID(pattern string, handler func(context.Context, int64, http.ResponseWriter, *http.Request)) {
	app.handleFunc(pattern, func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		id, err := idPathValue(w, r)
		if err != nil {
			// idPathValue already reported to the client.
			return
		}
		handler(ctx, id, w, r)
	})
}

func (app *App) requiringUserHandleFunc(pattern string, handler func(context.Context, *model.UserIdentity, http.ResponseWriter, *http.Request)) {
	app.handleFunc(pattern, func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		u := permission.UserFromContext(ctx)
		if u == nil {
			he.SendErrorToHTTPClient(w, "authorize", he.HTTPCodedErrorf(http.StatusUnauthorized, "login required"))
			return
		}
		handler(ctx, u, w, r)
	})
}

func (app *App) requiringUserTakingIDHandleFunc(pattern string, handler func(context.Context, *model.UserIdentity, int64, http.ResponseWriter, *http.Request)) {
	app.requiringUserHandleFunc(pattern, func(ctx context.Context, u *model.UserIdentity, w http.ResponseWriter, r *http.Request) {
		id, err := idPathValue(w, r)
		if err != nil {
			// idPathValue already reported to the client.
			return
		}
		handler(ctx, u, id, w, r)
	})
}

func (app *App) requiringAdminHandleFunc(pattern string, handler func(context.Context, http.ResponseWriter, *http.Request)) {
	app.handleFunc(pattern, func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		if !permission.IsAdmin(ctx) {
			he.SendErrorToHTTPClient(w, "authorize", he.HTTPCodedErrorf(http.StatusUnauthorized, "permission denied"))
			return
		}
		handler(ctx, w, r)
	})
}

func sendJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		he.SendErrorToHTTPClient(w, "marshal response", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writ, err := w.Write(bytes)
	if err != nil {
		log.Printf("error writing model to client: %v", err)
	} else if writ != len(bytes) {
		log.Println("short write to client")
	}
}

func (app *App) handleAPIPools(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	// TODO: pagination
	o, err := app.poolStorage.FetchOverview(ctx, 0, 100)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch overview", err)
		return
	}
	sendJSON(w, o)
}

func (app *App) handleAPIPool(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	p, err := app.fetchPool(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get pool from database", err)
		return
	}
	sendJSON(w, p)
}

func (app *App) handleCreatePool(ctx context.Context, u *model.UserIdentity, w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		he.SendErrorToHTTPClient(w, "parse form", err)
		return
	}
	id, err := app.formProcessor.CreatePool(ctx, u.UserID, r.Form)
	if err != nil {
		he.SendErrorToHTTPClient(w, "create pool", err)
		return
	}
	sendJSON(w, struct{ PoolID int64 }{id})
}

func (app *App) handleEditPool(ctx context.Context, u *model.UserIdentity, id int64, w http.ResponseWriter, r *http.Request) {
	p, err := app.poolStorage.FetchPool(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get pool from database", err)
		return
	}
	if err := permission.CheckWriteAccessToPool(ctx, p.AdminUserID); err != nil {
		he.SendErrorToHTTPClient(w, "authorize", err)
		return
	}
	if err := r.ParseForm(); err != nil {
		he.SendErrorToHTTPClient(w, "parse form", err)
		return
	}
	if err := app.formProcessor.EditPool(ctx, id, r.Form); err != nil {
		he.SendErrorToHTTPClient(w, "edit pool", err)
		return
	}
	app.handleAPIPool(ctx, id, w, r)
}

// redeemAccessCode validates and burns a code for a join.  Codes are single
// use and bound to one pool.
func (app *App) redeemAccessCode(ctx context.Context, p *model.Pool, userID int64, code string) error {
	if code == "" {
		return he.HTTPCodedErrorf(http.StatusForbidden, "pool %d requires an access code", p.PoolID)
	}
	ac, err := app.accessCodeStorage.FetchAccessCode(ctx, code)
	if err != nil {
		return he.HTTPCodedErrorf(http.StatusForbidden, "invalid access code")
	}
	if ac.PoolID != p.PoolID {
		return he.HTTPCodedErrorf(http.StatusForbidden, "access code is for another pool")
	}
	if ac.Redeemed() {
		return he.HTTPCodedErrorf(http.StatusForbidden, "access code already used")
	}
	now := app.clock.Now().UnixMilli()
	ac.RedeemedAt = &now
	ac.RedeemedBy = userID
	return app.accessCodeStorage.SaveAccessCode(ctx, ac)
}

func (app *App) handleJoinPool(ctx context.Context, u *model.UserIdentity, id int64, w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string
	}
	// An empty body is fine for pools that don't gate entry.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Code = ""
	}

	p, err := app.poolStorage.FetchPool(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get pool from database", err)
		return
	}

	if p.RequiresCode && !p.IsMember(u.UserID) {
		if err := app.redeemAccessCode(ctx, p, u.UserID, req.Code); err != nil {
			he.SendErrorToHTTPClient(w, "redeem access code", err)
			return
		}
	}

	if err := app.projector.Manager().Join(p, u.UserID); err != nil {
		he.SendErrorToHTTPClient(w, "join pool", err)
		return
	}
	if err := app.poolStorage.SavePool(ctx, p); err != nil {
		he.SendErrorToHTTPClient(w, "save pool", err)
		return
	}
	app.handleAPIPool(ctx, id, w, r)
}

// fetchExistingGuess is FetchGuess with "not found" mapped to nil; a first
// submission has nothing to resubmit over.
func (app *App) fetchExistingGuess(ctx context.Context, poolID, participantID int64) (*model.Guess, error) {
	g, err := app.guessStorage.FetchGuess(ctx, poolID, participantID)
	var coded *he.HTTPError
	if errors.As(err, &coded) && coded.Code() == http.StatusNotFound {
		return nil, nil
	}
	return g, err
}

func (app *App) handleSubmitGuess(ctx context.Context, u *model.UserIdentity, id int64, w http.ResponseWriter, r *http.Request) {
	var req struct {
		Numbers []int
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		he.SendErrorToHTTPClient(w, "decode guess", he.HTTPCodedErrorf(400, "decoding json: %w", err))
		return
	}

	p, err := app.poolStorage.FetchPool(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get pool from database", err)
		return
	}

	existing, err := app.fetchExistingGuess(ctx, id, u.UserID)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch existing guess", err)
		return
	}

	incoming := &model.Guess{
		ParticipantID: u.UserID,
		Numbers:       req.Numbers,
	}
	if existing != nil {
		incoming.GuessID = existing.GuessID
		incoming.OptimisticLock = existing.OptimisticLock
	}
	if err := app.projector.Manager().ApplyGuess(p, existing, incoming); err != nil {
		he.SendErrorToHTTPClient(w, "apply guess", err)
		return
	}

	if existing == nil {
		if _, err := app.guessStorage.CreateGuess(ctx, incoming); err != nil {
			he.SendErrorToHTTPClient(w, "save guess", err)
			return
		}
	} else {
		if err := app.guessStorage.SaveGuess(ctx, incoming); err != nil {
			he.SendErrorToHTTPClient(w, "save guess", err)
			return
		}
	}

	// Bump the pool version so parked listeners see the new projections.
	if err := app.poolStorage.SavePool(ctx, p); err != nil {
		he.SendErrorToHTTPClient(w, "save pool", err)
		return
	}

	sendJSON(w, incoming)
}

func (app *App) handleRecordDraw(ctx context.Context, u *model.UserIdentity, id int64, w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sequence int
		Numbers  []int
		Override bool
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		he.SendErrorToHTTPClient(w, "decode draw", he.HTTPCodedErrorf(400, "decoding json: %w", err))
		return
	}

	p, err := app.poolStorage.FetchPool(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get pool from database", err)
		return
	}
	if err := permission.CheckWriteAccessToPool(ctx, p.AdminUserID); err != nil {
		he.SendErrorToHTTPClient(w, "authorize", err)
		return
	}

	if err := app.projector.Manager().RecordDraw(p, req.Sequence, req.Numbers, req.Override); err != nil {
		he.SendErrorToHTTPClient(w, "record draw", err)
		return
	}
	if err := app.poolStorage.SavePool(ctx, p); err != nil {
		he.SendErrorToHTTPClient(w, "save pool", err)
		return
	}
	app.handleAPIPool(ctx, id, w, r)
}

func (app *App) handleAPIRanking(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	p, err := app.fetchPool(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get pool from database", err)
		return
	}
	sendJSON(w, p.Transients.Ranking)
}

func (app *App) handleAPIFinance(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	p, err := app.fetchPool(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get pool from database", err)
		return
	}
	sendJSON(w, p.Transients.Finances)
}

func (app *App) handleRankingCSV(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	p, err := app.fetchPool(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get pool from database", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"bolao-%d.csv\"", p.PoolID))
	if err := report.WriteRankingCSV(w, p); err != nil {
		log.Printf("error writing CSV to client: %v", err)
	}
}

func (app *App) handleSuggestPicks(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	p, err := app.poolStorage.FetchPool(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get pool from database", err)
		return
	}
	spec, err := model.GameSpecFor(p.GameType)
	if err != nil {
		he.SendErrorToHTTPClient(w, "resolve game", err)
		return
	}
	sendJSON(w, struct{ Numbers []int }{pool.SuggestPicks(p.RequiredPicks, spec.MaxNumber)})
}

func (app *App) handleMintAccessCode(ctx context.Context, u *model.UserIdentity, id int64, w http.ResponseWriter, r *http.Request) {
	p, err := app.poolStorage.FetchPool(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get pool from database", err)
		return
	}
	if err := permission.CheckWriteAccessToPool(ctx, p.AdminUserID); err != nil {
		he.SendErrorToHTTPClient(w, "authorize", err)
		return
	}

	ac := &model.AccessCode{
		Code:     uuid.NewString(),
		PoolID:   p.PoolID,
		MintedAt: app.clock.Now().UnixMilli(),
	}
	if err := app.accessCodeStorage.CreateAccessCode(ctx, ac); err != nil {
		he.SendErrorToHTTPClient(w, "mint access code", err)
		return
	}
	sendJSON(w, ac)
}

func (app *App) handleListAccessCodes(ctx context.Context, u *model.UserIdentity, id int64, w http.ResponseWriter, r *http.Request) {
	p, err := app.poolStorage.FetchPool(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "get pool from database", err)
		return
	}
	if err := permission.CheckWriteAccessToPool(ctx, p.AdminUserID); err != nil {
		he.SendErrorToHTTPClient(w, "authorize", err)
		return
	}
	codes, err := app.accessCodeStorage.FetchAccessCodesByPoolID(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch access codes", err)
		return
	}
	sendJSON(w, codes)
}

func (app *App) handleAPIGames(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	types := model.GameTypes()
	specs := make([]*model.GameSpec, 0, len(types))
	for _, gt := range types {
		spec, err := model.GameSpecFor(gt)
		if err != nil {
			he.SendErrorToHTTPClient(w, "resolve game", err)
			return
		}
		specs = append(specs, spec)
	}
	sendJSON(w, specs)
}

// handleCheckAccessCode tells an invite holder whether their code is still
// good, and for which pool, before they commit to joining.
func (app *App) handleCheckAccessCode(ctx context.Context, u *model.UserIdentity, w http.ResponseWriter, r *http.Request) {
	code, err := urlpath.CodePathValue(w, r)
	if err != nil {
		return
	}
	ac, err := app.accessCodeStorage.FetchAccessCode(ctx, code)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch access code",
			he.HTTPCodedErrorf(http.StatusNotFound, "unknown access code"))
		return
	}
	sendJSON(w, struct {
		PoolID   int64
		Redeemed bool
	}{ac.PoolID, ac.Redeemed()})
}

func (app *App) handleAPIFeeSchedules(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	slugs, err := app.feeStorage.FetchFeeScheduleSlugs(ctx)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch fee schedules", err)
		return
	}
	sendJSON(w, slugs)
}

func (app *App) handleWhoAmI(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	u := permission.UserFromContext(ctx)
	if u == nil {
		he.SendErrorToHTTPClient(w, "identify", he.HTTPCodedErrorf(http.StatusUnauthorized, "not logged in"))
		return
	}
	sendJSON(w, u)
}

func (app *App) handleLogin(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string
		Password string
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		he.SendErrorToHTTPClient(w, "decode login", he.HTTPCodedErrorf(400, "decoding json: %w", err))
		return
	}
	if req.Username == "" || req.Password == "" {
		he.SendErrorToHTTPClient(w, "login", he.HTTPCodedErrorf(400, "username and password required"))
		return
	}

	nope := func() {
		// Same response for unknown user and bad password.
		he.SendErrorToHTTPClient(w, "login", he.HTTPCodedErrorf(http.StatusUnauthorized, "invalid user or password"))
	}

	row, err := app.userStorage.FetchUserRow(ctx, req.Username)
	if err != nil {
		nope()
		return
	}
	checker, err := password.NewChecker(row)
	if err != nil {
		nope()
		return
	}
	identity, err := checker.Validate(req.Password)
	if err != nil {
		nope()
		return
	}
	bakery, err := app.bakeryFactory.Bakery(ctx)
	if err != nil {
		he.SendErrorToHTTPClient(w, "prepare cookie", err)
		return
	}
	err = bakery.BakeCookie(w, &model.AuthCookieData{
		EffectiveUserID: identity.UserID,
	})
	if err != nil {
		he.SendErrorToHTTPClient(w, "bake cookie", err)
		return
	}

	sendJSON(w, identity)
}

func (app *App) handleLogout(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	bakery, err := app.bakeryFactory.Bakery(ctx)
	if err != nil {
		he.SendErrorToHTTPClient(w, "prepare cookie", err)
		return
	}
	bakery.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) handleAPIPoolListen(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	type reqBody struct {
		PoolID          int64
		Version         int64
		ProtocolVersion int64
	}
	var req reqBody

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("can't decode body: %v", err)
		he.SendErrorToHTTPClient(w, "/api/pool-listen", he.HTTPCodedErrorf(400, "decoding json: %w", err))
		return
	}
	if req.PoolID <= 0 {
		badPoolIDForListen.Add(1)
		log.Printf("invalid pool ID: %d in req: %+v", req.PoolID, req)
		he.SendErrorToHTTPClient(w, "prep listen request", he.HTTPCodedErrorf(400, "invalid pool ID %d", req.PoolID))
		return
	}
	errCh := make(chan error, 1)
	poolCh := make(chan *model.Pool, 1)
	timeoutCh := time.After(time.Hour)
	version := req.Version
	if req.ProtocolVersion != protocol.Version {
		// trash the version number, we will need an update immediately and the client will
		// have to reload
		version = -1
	}
	go app.poolStorage.ListenPoolVersion(ctx, req.PoolID, version, errCh, poolCh)
	select {
	case err := <-errCh:
		errorListening.Add(1)
		he.SendErrorToHTTPClient(w, "listen for pool version change", err)
		return
	case p := <-poolCh:
		// Pools from the listener arrive with transients filled, so we
		// don't need to do it again here.
		bytes, err := json.Marshal(p)
		if err != nil {
			errorWhileMarshalingForListen.Add(1)
			he.SendErrorToHTTPClient(w, "marshal model", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(bytes)
		listenNotifiedClient.Add(1)
		return
	case <-timeoutCh:
		timedOutWhileListening.Add(1)
		he.SendErrorToHTTPClient(w, "wait for pool update",
			he.HTTPCodedErrorf(http.StatusGatewayTimeout, "timeout"))
		return
	case <-ctx.Done():
		clientClosedWhileListening.Add(1)
		log.Printf("client closed connection while listening for pool update")
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}
}

func (app *App) handleListUsers(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	users, err := app.userStorage.FetchUsers(ctx)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch users", err)
		return
	}
	sendJSON(w, users)
}

func (app *App) handleCreateUser(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		he.SendErrorToHTTPClient(w, "parse form", err)
		return
	}
	id, err := app.formProcessor.CreateUser(ctx, r.Form)
	if err != nil {
		he.SendErrorToHTTPClient(w, "create user", err)
		return
	}
	sendJSON(w, struct{ UserID int64 }{id})
}

func (app *App) handleEditUser(ctx context.Context, u *model.UserIdentity, id int64, w http.ResponseWriter, r *http.Request) {
	if !u.IsAdmin {
		he.SendErrorToHTTPClient(w, "authorize", he.HTTPCodedErrorf(http.StatusForbidden, "permission denied"))
		return
	}
	if err := r.ParseForm(); err != nil {
		he.SendErrorToHTTPClient(w, "parse form", err)
		return
	}
	if err := app.formProcessor.EditUser(ctx, id, r.Form); err != nil {
		he.SendErrorToHTTPClient(w, "edit user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) handleSetPassword(ctx context.Context, u *model.UserIdentity, id int64, w http.ResponseWriter, r *http.Request) {
	if u.UserID != id && !u.IsAdmin {
		he.SendErrorToHTTPClient(w, "authorize", he.HTTPCodedErrorf(http.StatusForbidden, "permission denied"))
		return
	}
	if err := r.ParseForm(); err != nil {
		he.SendErrorToHTTPClient(w, "parse form", err)
		return
	}
	if err := app.formProcessor.SetUserPassword(ctx, id, r.Form); err != nil {
		he.SendErrorToHTTPClient(w, "set password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InstallHandlers registers all HTTP routes.
func (app *App) InstallHandlers() {

	app.handleFunc("/robots.txt", func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		handlers.HandleRobotsTXT(w, r)
	})

	app.handleFunc("/login", app.handleLogin)
	app.handleFunc("/logout", app.handleLogout)
	app.handleFunc("/api/whoami", app.handleWhoAmI)

	app.handleFunc("/api/pools", app.handleAPIPools)
	app.handleFuncTakingID("/api/pool/{id}", app.handleAPIPool)
	app.handleFuncTakingID("/api/pool/{id}/ranking", app.handleAPIRanking)
	app.handleFuncTakingID("/api/pool/{id}/finance", app.handleAPIFinance)
	app.handleFuncTakingID("/api/pool/{id}/ranking.csv", app.handleRankingCSV)
	app.handleFuncTakingID("/api/pool/{id}/suggest", app.handleSuggestPicks)

	app.requiringUserHandleFunc("POST /api/pool", app.handleCreatePool)
	app.requiringUserTakingIDHandleFunc("POST /api/pool/{id}/edit", app.handleEditPool)
	app.requiringUserTakingIDHandleFunc("POST /api/pool/{id}/join", app.handleJoinPool)
	app.requiringUserTakingIDHandleFunc("POST /api/pool/{id}/guess", app.handleSubmitGuess)
	app.requiringUserTakingIDHandleFunc("POST /api/pool/{id}/draw", app.handleRecordDraw)
	app.requiringUserTakingIDHandleFunc("POST /api/pool/{id}/codes", app.handleMintAccessCode)
	app.requiringUserTakingIDHandleFunc("GET /api/pool/{id}/codes", app.handleListAccessCodes)

	app.handleFuncTakingID("DELETE /api/pool/{id}", func(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
		if err := app.poolStorage.DeletePool(ctx, id); err != nil {
			he.SendErrorToHTTPClient(w, "delete pool", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// Fee schedules and the game catalog are built in; they only change on
	// deploy.
	app.cachedHandleFunc("/api/fee-schedules", time.Hour, app.handleAPIFeeSchedules)
	app.cachedHandleFunc("GET /api/games", time.Hour, app.handleAPIGames)

	app.requiringUserHandleFunc("GET /api/code/{code}", app.handleCheckAccessCode)

	app.handleFunc("/api/pool-listen", app.handleAPIPoolListen)

	app.requiringAdminHandleFunc("GET /api/users", app.handleListUsers)
	app.requiringAdminHandleFunc("POST /api/users", app.handleCreateUser)
	app.requiringUserTakingIDHandleFunc("POST /api/user/{id}/edit", app.handleEditUser)
	app.requiringUserTakingIDHandleFunc("POST /api/user/{id}/password", app.handleSetPassword)
}

// Wrapper to just return the input context.
func contextualizer(ctx context.Context) func(net.Listener) context.Context {
	return func(_ net.Listener) context.Context {
		return ctx
	}
}

// Serve starts the HTTP server on the given listen address.
func (app *App) Serve(ctx context.Context, listenAddress string) error {
	wg := sync.WaitGroup{}

	type result struct {
		name string
		err  error
	}

	ch := make(chan *result)

	wg.Add(1)
	go func() {
		server := &http.Server{
			Addr:         listenAddress,
			Handler:      app.handler,
			BaseContext:  contextualizer(ctx),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 1 * time.Hour,
			IdleTimeout:  12 * time.Hour,
		}
		ch <- &result{"http", server.ListenAndServe()}
		wg.Done()
	}()

	go func() {
		wg.Wait()
		close(ch)
	}()

	errs := []error{}
	for res := range ch {
		if res.err != nil {
			log.Printf("server %s exited: %v", res.name, res.err)
			errs = append(errs, res.err)
		}
	}

	return fmt.Errorf("servers exited: %v", errs)
}
