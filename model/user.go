package model

import "time"

// UserIdentity is the public part of a user.  It travels through contexts and
// caches; the password hash stays in UserRow.
type UserIdentity struct {
	UserID         int64
	OptimisticLock int64

	Nick       string
	IsAdmin    bool
	IsOperator bool
}

// UserRow is what the user storage reads and writes.
type UserRow struct {
	UserIdentity
	PasswordHash string // base64 of the bcrypt hash
}

// AuthCookieData is the payload of the auth cookie.
type AuthCookieData struct {
	EffectiveUserID int64
}

// CookieKeyValidity bounds when a cookie key may mint and when cookies minted
// with it are still honored.  HonorUntil should outlast MintUntil so sessions
// survive a key rotation.
type CookieKeyValidity struct {
	MintFrom   time.Time
	MintUntil  time.Time
	HonorUntil time.Time
}

// CookieKeyPair is one securecookie key pair, base64-encoded for JSON.
type CookieKeyPair struct {
	HashKey64  string
	BlockKey64 string
	Validity   CookieKeyValidity
}

// SiteConfig is the site-wide configuration row.  There is exactly one.
type SiteConfig struct {
	SiteConfigID   int64
	OptimisticLock int64

	Name                 string
	Theme                string
	CookieDomain         string
	AllowedOriginDomains []string
	BonusHTTPPorts       []int
	BonusHTTPSPorts      []int
	CookieKeys           []*CookieKeyPair
}
