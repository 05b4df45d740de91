package builtins

import (
	"github.com/bolao-jogos/bolao/finance"
)

// StandardFeeScheduleID is the schedule pools get unless the creator picks
// another one.
const StandardFeeScheduleID = 1

// The standard split: R$10 platform fee per entry off the top, then 10%
// admin, 10% reserve, 80% paid out weekly as 75/15/10 across the tiers.
var standardSchedule = &finance.FeeSchedule{
	ID:   StandardFeeScheduleID,
	Name: "Padrão",
	FeeConfig: finance.FeeConfig{
		PlatformFeePerEntry: 1000,
		AdminFeeBP:          1000,
		ReserveFeeBP:        1000,
		PrizePoolBP:         8000,
		TierBP:              [finance.TierCount]int{7500, 1500, 1000},
	},
}

// No reserve, everything prized.  For one-off pools between friends.
var noReserveSchedule = &finance.FeeSchedule{
	ID:   2,
	Name: "Sem reserva",
	FeeConfig: finance.FeeConfig{
		PlatformFeePerEntry: 1000,
		AdminFeeBP:          1000,
		ReserveFeeBP:        0,
		PrizePoolBP:         9000,
		TierBP:              [finance.TierCount]int{7500, 1500, 1000},
	},
}

// Winner-take-most: the whole prize pool concentrates on the first tier.
var topHeavySchedule = &finance.FeeSchedule{
	ID:   3,
	Name: "Faixa única",
	FeeConfig: finance.FeeConfig{
		PlatformFeePerEntry: 1000,
		AdminFeeBP:          1000,
		ReserveFeeBP:        1000,
		PrizePoolBP:         8000,
		TierBP:              [finance.TierCount]int{10000, 0, 0},
	},
}

func FeeSchedules() []*finance.FeeSchedule {
	return []*finance.FeeSchedule{
		standardSchedule.Clone(),
		noReserveSchedule.Clone(),
		topHeavySchedule.Clone(),
	}
}
