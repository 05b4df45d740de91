package permission

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bolao-jogos/bolao/model"
)

const day = 24 * time.Hour

func TestCookieKeyWindows(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pair, err := MintCookieKeyPair(start)
	if err != nil {
		t.Fatalf("MintCookieKeyPair: %v", err)
	}
	cb := cookieBaker{v: pair.Validity}

	tests := []struct {
		name      string
		at        time.Time
		mintable  bool
		honorable bool
	}{
		{name: "before mint window", at: start.Add(-time.Hour), mintable: false, honorable: false},
		{name: "inside mint window", at: start.Add(30 * day), mintable: true, honorable: true},
		{name: "past mint, inside honor", at: start.Add(91 * day), mintable: false, honorable: true},
		{name: "past honor", at: start.Add(121 * day), mintable: false, honorable: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cb.mintable(tt.at); got != tt.mintable {
				t.Errorf("mintable(%v) = %v, want %v", tt.at, got, tt.mintable)
			}
			if got := cb.honorable(tt.at); got != tt.honorable {
				t.Errorf("honorable(%v) = %v, want %v", tt.at, got, tt.honorable)
			}
		})
	}
}

// A session minted on the last day of a key's mint window must survive until
// the key's honor window closes, not its mint window.
func TestReadCookieHonorsKeyPastMintWindow(t *testing.T) {
	// Mint window closed ten days ago; honor window has twenty days left.
	pair, err := MintCookieKeyPair(time.Now().Add(-100 * day))
	if err != nil {
		t.Fatalf("MintCookieKeyPair: %v", err)
	}
	conf := &model.SiteConfig{
		CookieDomain: "localhost",
		CookieKeys:   []*model.CookieKeyPair{pair},
	}

	b, err := New(clockwork.NewRealClock(), conf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(b.bakers) != 1 {
		t.Fatalf("got %d bakers, want 1", len(b.bakers))
	}

	encoded, err := b.bakers[0].sc.Encode(AuthCookieName, &model.AuthCookieData{EffectiveUserID: 7})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: encoded})

	got, err := b.ReadCookie(r)
	if err != nil {
		t.Fatalf("ReadCookie: %v", err)
	}
	if got.EffectiveUserID != 7 {
		t.Errorf("EffectiveUserID = %d, want 7", got.EffectiveUserID)
	}

	if _, err := b.bestKeyForMinting(time.Now()); err == nil {
		t.Error("key past its mint window should not mint new cookies")
	}
}

func TestRotateCookieKeys(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	expired, err := MintCookieKeyPair(start.Add(-200 * day))
	if err != nil {
		t.Fatalf("MintCookieKeyPair: %v", err)
	}
	obsolete, err := MintCookieKeyPair(start.Add(-100 * day))
	if err != nil {
		t.Fatalf("MintCookieKeyPair: %v", err)
	}
	conf := &model.SiteConfig{CookieKeys: []*model.CookieKeyPair{expired, obsolete}}

	if err := RotateCookieKeys(conf, start); err != nil {
		t.Fatalf("RotateCookieKeys: %v", err)
	}

	// The expired key goes; the still-honored key and the fresh one stay.
	if len(conf.CookieKeys) != 2 {
		t.Fatalf("got %d keys, want 2", len(conf.CookieKeys))
	}
	if conf.CookieKeys[0] != obsolete {
		t.Error("still-honored key was dropped")
	}
	if !conf.CookieKeys[1].Validity.MintFrom.Equal(start) {
		t.Errorf("fresh key MintFrom = %v, want %v", conf.CookieKeys[1].Validity.MintFrom, start)
	}
}
