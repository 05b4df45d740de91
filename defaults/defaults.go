package defaults

import (
	"github.com/bolao-jogos/bolao/builtins"
	"github.com/bolao-jogos/bolao/model"
)

// Draws returns the pending draw slots for a new pool.
func Draws(count int) []*model.Draw {
	draws := make([]*model.Draw, count)
	for i := range draws {
		draws[i] = &model.Draw{Sequence: i + 1}
	}
	return draws
}

// Pool returns a new pool with the house defaults filled in.  The caller
// still owns name, capacity and price.
func Pool(gt model.GameType) (*model.Pool, error) {
	spec, err := model.GameSpecFor(gt)
	if err != nil {
		return nil, err
	}
	return &model.Pool{
		GameType:      gt,
		BetType:       model.Individual,
		RequiredPicks: spec.DefaultPicks,
		FeeScheduleID: builtins.StandardFeeScheduleID,
		Status:        model.Awaiting,
		Draws:         Draws(spec.DrawCount),
	}, nil
}

// SiteConfig is the first-boot site configuration.  It has no cookie keys;
// mint some with the admin tool before anyone can log in.
func SiteConfig() *model.SiteConfig {
	return &model.SiteConfig{
		Name:                 "Bolão",
		Theme:                "default",
		CookieDomain:         "localhost",
		AllowedOriginDomains: []string{"localhost"},
		BonusHTTPPorts:       []int{5173, 8080},
	}
}
