package permission

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/bolao-jogos/bolao/model"
)

const (
	// Keys mint for 90 days and are honored for 120, so a session from the
	// last day of minting still has a month to live.
	keyMintLifetime  = 90 * 24 * time.Hour
	keyHonorLifetime = 120 * 24 * time.Hour
)

// MintCookieKeyPair generates a fresh securecookie key pair valid from now.
func MintCookieKeyPair(now time.Time) (*model.CookieKeyPair, error) {
	hashKey := securecookie.GenerateRandomKey(64)
	blockKey := securecookie.GenerateRandomKey(32)
	if hashKey == nil || blockKey == nil {
		return nil, fmt.Errorf("can't generate random key material")
	}
	return &model.CookieKeyPair{
		HashKey64:  base64.StdEncoding.EncodeToString(hashKey),
		BlockKey64: base64.StdEncoding.EncodeToString(blockKey),
		Validity: model.CookieKeyValidity{
			MintFrom:   now,
			MintUntil:  now.Add(keyMintLifetime),
			HonorUntil: now.Add(keyHonorLifetime),
		},
	}, nil
}

// RotateCookieKeys appends a fresh key and drops keys nobody honors anymore.
func RotateCookieKeys(conf *model.SiteConfig, now time.Time) error {
	pair, err := MintCookieKeyPair(now)
	if err != nil {
		return err
	}
	kept := []*model.CookieKeyPair{}
	for _, k := range conf.CookieKeys {
		if k.Validity.HonorUntil.After(now) {
			kept = append(kept, k)
		}
	}
	conf.CookieKeys = append(kept, pair)
	return nil
}
