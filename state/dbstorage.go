package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/bolao-jogos/bolao/dbutil"
	"github.com/bolao-jogos/bolao/he"
	"github.com/bolao-jogos/bolao/model"
)

// DBStorage keeps each aggregate as a JSONB model_data column plus an
// optimistic_lock counter.  Saves compare-and-swap on the counter; a
// concurrent writer loses with an error rather than clobbering.
type DBStorage struct {
	db *sql.DB
}

var _ Storage = &DBStorage{}

func NewDBStorage(db *sql.DB) *DBStorage {
	return &DBStorage{db: db}
}

func (s *DBStorage) Close() {
	s.db.Close()
}

func (s *DBStorage) FetchOverview(ctx context.Context, offset, limit int) (*model.Overview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pool_id, optimistic_lock, model_data FROM pools ORDER BY pool_id DESC OFFSET $1 LIMIT $2;`,
		offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overview := &model.Overview{}
	for rows.Next() {
		var id, lock int64
		var bytes []byte

		if err := rows.Scan(&id, &lock, &bytes); err != nil {
			log.Printf("row scan failed: %v", err)
			continue
		}
		pool := model.Pool{}
		if err := json.Unmarshal(bytes, &pool); err != nil {
			log.Printf("JSON unmarshal failed for pool %d: %v", id, err)
			continue
		}
		pool.PoolID = id
		pool.OptimisticLock = lock
		overview.Slugs = append(overview.Slugs, pool.Slug())
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return overview, nil
}

func (s *DBStorage) FetchPool(ctx context.Context, id int64) (*model.Pool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT optimistic_lock, model_data FROM pools WHERE pool_id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var p *model.Pool
	for rows.Next() {
		if p != nil {
			return nil, fmt.Errorf("can't happen: duplicate pool id %d", id)
		}

		var lock int64
		var bytes []byte
		if err := rows.Scan(&lock, &bytes); err != nil {
			return nil, err
		}

		p = &model.Pool{}
		if err := json.Unmarshal(bytes, p); err != nil {
			return nil, err
		}

		// These come from the database row, not the JSON.
		p.PoolID = id
		p.OptimisticLock = lock
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if p == nil {
		return nil, he.New(404, fmt.Errorf("no such pool id %d", id))
	}
	return p, nil
}

func poolBytes(p *model.Pool) ([]byte, error) {
	cpy := *p
	cpy.Transients = nil
	return json.Marshal(&cpy)
}

func (s *DBStorage) CreatePool(ctx context.Context, p *model.Pool) (int64, error) {
	bytes, err := poolBytes(p)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO pools (optimistic_lock, model_data) VALUES (1, $1) RETURNING pool_id;`,
		bytes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("can't insert pool: %w", err)
	}
	p.PoolID = id
	p.OptimisticLock = 1
	return id, nil
}

func (s *DBStorage) SavePool(ctx context.Context, p *model.Pool) error {
	bytes, err := poolBytes(p)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE pools SET optimistic_lock=$1+1, model_data=$2 WHERE pool_id=$3 AND optimistic_lock=$1;`,
		p.OptimisticLock, bytes, p.PoolID)
	if err != nil {
		log.Printf("update failed: %v", err)
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n != 1 {
		return he.HTTPCodedErrorf(409, "optimistic lock failure, %d rows affected", n)
	}
	p.OptimisticLock++
	return nil
}

// DeletePool removes the pool and everything hanging off it.  Orphaned
// guesses would resurface if the pool_id were ever reused.
func (s *DBStorage) DeletePool(ctx context.Context, id int64) error {
	tx, err := dbutil.NewTx(ctx, s.db, nil)
	if err != nil {
		return err
	}
	defer tx.MaybeRollback()

	if _, err := tx.Exec(ctx, `DELETE FROM guesses WHERE pool_id=$1;`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM access_codes WHERE pool_id=$1;`, id); err != nil {
		return err
	}
	result, err := tx.Exec(ctx, `DELETE FROM pools WHERE pool_id=$1;`, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n != 1 {
		return he.HTTPCodedErrorf(404, "no such pool id %d", id)
	}
	return tx.Commit()
}

func (s *DBStorage) FetchGuessesByPoolID(ctx context.Context, poolID int64) ([]*model.Guess, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guess_id, optimistic_lock, model_data FROM guesses WHERE pool_id=$1 ORDER BY guess_id;`,
		poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	guesses := []*model.Guess{}
	for rows.Next() {
		var id, lock int64
		var bytes []byte
		if err := rows.Scan(&id, &lock, &bytes); err != nil {
			return nil, err
		}
		g := &model.Guess{}
		if err := json.Unmarshal(bytes, g); err != nil {
			return nil, err
		}
		g.GuessID = id
		g.OptimisticLock = lock
		guesses = append(guesses, g)
	}
	return guesses, rows.Err()
}

func (s *DBStorage) FetchGuess(ctx context.Context, poolID, participantID int64) (*model.Guess, error) {
	var id, lock int64
	var bytes []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT guess_id, optimistic_lock, model_data FROM guesses WHERE pool_id=$1 AND participant_id=$2;`,
		poolID, participantID).Scan(&id, &lock, &bytes)
	if err == sql.ErrNoRows {
		return nil, he.New(404, fmt.Errorf("no guess for user %d in pool %d", participantID, poolID))
	}
	if err != nil {
		return nil, err
	}
	g := &model.Guess{}
	if err := json.Unmarshal(bytes, g); err != nil {
		return nil, err
	}
	g.GuessID = id
	g.OptimisticLock = lock
	return g, nil
}

func (s *DBStorage) CreateGuess(ctx context.Context, g *model.Guess) (int64, error) {
	bytes, err := json.Marshal(g)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO guesses (pool_id, participant_id, optimistic_lock, model_data)
		 VALUES ($1, $2, 1, $3) RETURNING guess_id;`,
		g.PoolID, g.ParticipantID, bytes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("can't insert guess: %w", err)
	}
	g.GuessID = id
	g.OptimisticLock = 1
	return id, nil
}

func (s *DBStorage) SaveGuess(ctx context.Context, g *model.Guess) error {
	bytes, err := json.Marshal(g)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE guesses SET optimistic_lock=$1+1, model_data=$2 WHERE guess_id=$3 AND optimistic_lock=$1;`,
		g.OptimisticLock, bytes, g.GuessID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n != 1 {
		return he.HTTPCodedErrorf(409, "optimistic lock failure, %d rows affected", n)
	}
	g.OptimisticLock++
	return nil
}

func (s *DBStorage) FetchSiteConfig(ctx context.Context) (*model.SiteConfig, error) {
	var id, lock int64
	var bytes []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT site_config_id, optimistic_lock, model_data FROM site_config ORDER BY site_config_id LIMIT 1;`).
		Scan(&id, &lock, &bytes)
	if err == sql.ErrNoRows {
		return nil, he.New(404, fmt.Errorf("site config not initialized"))
	}
	if err != nil {
		return nil, err
	}
	sc := &model.SiteConfig{}
	if err := json.Unmarshal(bytes, sc); err != nil {
		return nil, err
	}
	sc.SiteConfigID = id
	sc.OptimisticLock = lock
	return sc, nil
}

func (s *DBStorage) SaveSiteConfig(ctx context.Context, sc *model.SiteConfig) error {
	bytes, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE site_config SET optimistic_lock=$1+1, model_data=$2 WHERE site_config_id=$3 AND optimistic_lock=$1;`,
		sc.OptimisticLock, bytes, sc.SiteConfigID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		sc.OptimisticLock++
		return nil
	}

	// First boot: no row yet.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO site_config (optimistic_lock, model_data) VALUES (1, $1);`, bytes)
	if err != nil {
		return fmt.Errorf("can't insert site config: %w", err)
	}
	return nil
}

func (s *DBStorage) FetchUsers(ctx context.Context) ([]*model.UserIdentity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, optimistic_lock, model_data FROM users ORDER BY user_id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*model.UserIdentity{}
	for rows.Next() {
		var id, lock int64
		var bytes []byte
		if err := rows.Scan(&id, &lock, &bytes); err != nil {
			return nil, err
		}
		u := &model.UserIdentity{}
		if err := json.Unmarshal(bytes, u); err != nil {
			return nil, err
		}
		u.UserID = id
		u.OptimisticLock = lock
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *DBStorage) FetchUserByUserID(ctx context.Context, id int64) (*model.UserIdentity, error) {
	var lock int64
	var bytes []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT optimistic_lock, model_data FROM users WHERE user_id=$1;`, id).
		Scan(&lock, &bytes)
	if err == sql.ErrNoRows {
		return nil, he.New(404, fmt.Errorf("no such user id %d", id))
	}
	if err != nil {
		return nil, err
	}
	u := &model.UserIdentity{}
	if err := json.Unmarshal(bytes, u); err != nil {
		return nil, err
	}
	u.UserID = id
	u.OptimisticLock = lock
	return u, nil
}

func (s *DBStorage) CreateUser(ctx context.Context, nick string, passwordHash string, isAdmin bool) (int64, error) {
	u := &model.UserIdentity{
		Nick:       nick,
		IsAdmin:    isAdmin,
		IsOperator: isAdmin,
	}
	bytes, err := json.Marshal(u)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO users (nick, optimistic_lock, model_data) VALUES ($1, 1, $2) RETURNING user_id;`,
		nick, bytes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("can't insert user: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO passwords (user_id, password_hash) VALUES ($1, $2);`,
		id, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("can't insert password: %w", err)
	}
	return id, nil
}

func (s *DBStorage) FetchUserRow(ctx context.Context, nick string) (*model.UserRow, error) {
	var id, lock int64
	var bytes []byte
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT u.user_id, u.optimistic_lock, u.model_data, p.password_hash
		 FROM users u JOIN passwords p ON p.user_id = u.user_id
		 WHERE u.nick=$1 AND (p.expires_at IS NULL OR p.expires_at > now())
		 ORDER BY p.password_id DESC LIMIT 1;`, nick).
		Scan(&id, &lock, &bytes, &hash)
	if err == sql.ErrNoRows {
		return nil, he.New(404, fmt.Errorf("no such user %q", nick))
	}
	if err != nil {
		return nil, err
	}
	row := &model.UserRow{PasswordHash: hash}
	if err := json.Unmarshal(bytes, &row.UserIdentity); err != nil {
		return nil, err
	}
	row.UserID = id
	row.OptimisticLock = lock
	return row, nil
}

func (s *DBStorage) SaveUser(ctx context.Context, u *model.UserIdentity) error {
	bytes, err := json.Marshal(u)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET optimistic_lock=$1+1, nick=$2, model_data=$3 WHERE user_id=$4 AND optimistic_lock=$1;`,
		u.OptimisticLock, u.Nick, bytes, u.UserID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n != 1 {
		return he.HTTPCodedErrorf(409, "optimistic lock failure, %d rows affected", n)
	}
	u.OptimisticLock++
	return nil
}

func (s *DBStorage) DeleteUserByNick(ctx context.Context, nick string) error {
	tx, err := dbutil.NewTx(ctx, s.db, nil)
	if err != nil {
		return err
	}
	defer tx.MaybeRollback()

	if _, err := tx.Exec(ctx,
		`DELETE FROM passwords WHERE user_id IN (SELECT user_id FROM users WHERE nick=$1);`,
		nick); err != nil {
		return err
	}
	result, err := tx.Exec(ctx, `DELETE FROM users WHERE nick=$1;`, nick)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n != 1 {
		return he.HTTPCodedErrorf(404, "no such user %q", nick)
	}
	return tx.Commit()
}

func (s *DBStorage) ReplacePassword(ctx context.Context, userID int64, newPasswordHash string, oldPasswordsExpire time.Time) error {
	tx, err := dbutil.NewTx(ctx, s.db, nil)
	if err != nil {
		return err
	}
	defer tx.MaybeRollback()

	_, err = tx.Exec(ctx,
		`UPDATE passwords SET expires_at=$1 WHERE user_id=$2 AND expires_at IS NULL;`,
		oldPasswordsExpire, userID)
	if err != nil {
		return fmt.Errorf("can't expire old passwords: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO passwords (user_id, password_hash) VALUES ($1, $2);`,
		userID, newPasswordHash)
	if err != nil {
		return fmt.Errorf("can't insert new password: %w", err)
	}
	return tx.Commit()
}

func (s *DBStorage) RemoveExpiredPasswords(ctx context.Context, before time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM passwords WHERE expires_at < $1;`, before)
	return err
}

func (s *DBStorage) CreateAccessCode(ctx context.Context, ac *model.AccessCode) error {
	bytes, err := json.Marshal(ac)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO access_codes (code, pool_id, optimistic_lock, model_data) VALUES ($1, $2, 1, $3);`,
		ac.Code, ac.PoolID, bytes)
	if err != nil {
		return fmt.Errorf("can't insert access code: %w", err)
	}
	ac.OptimisticLock = 1
	return nil
}

func (s *DBStorage) FetchAccessCode(ctx context.Context, code string) (*model.AccessCode, error) {
	var lock int64
	var bytes []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT optimistic_lock, model_data FROM access_codes WHERE code=$1;`, code).
		Scan(&lock, &bytes)
	if err == sql.ErrNoRows {
		return nil, he.New(404, fmt.Errorf("no such access code"))
	}
	if err != nil {
		return nil, err
	}
	ac := &model.AccessCode{}
	if err := json.Unmarshal(bytes, ac); err != nil {
		return nil, err
	}
	ac.Code = code
	ac.OptimisticLock = lock
	return ac, nil
}

func (s *DBStorage) SaveAccessCode(ctx context.Context, ac *model.AccessCode) error {
	bytes, err := json.Marshal(ac)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE access_codes SET optimistic_lock=$1+1, model_data=$2 WHERE code=$3 AND optimistic_lock=$1;`,
		ac.OptimisticLock, bytes, ac.Code)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n != 1 {
		return he.HTTPCodedErrorf(409, "optimistic lock failure, %d rows affected", n)
	}
	ac.OptimisticLock++
	return nil
}

func (s *DBStorage) FetchAccessCodesByPoolID(ctx context.Context, poolID int64) ([]*model.AccessCode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, optimistic_lock, model_data FROM access_codes WHERE pool_id=$1 ORDER BY code;`,
		poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := []*model.AccessCode{}
	for rows.Next() {
		var code string
		var lock int64
		var bytes []byte
		if err := rows.Scan(&code, &lock, &bytes); err != nil {
			return nil, err
		}
		ac := &model.AccessCode{}
		if err := json.Unmarshal(bytes, ac); err != nil {
			return nil, err
		}
		ac.Code = code
		ac.OptimisticLock = lock
		codes = append(codes, ac)
	}
	return codes, rows.Err()
}
