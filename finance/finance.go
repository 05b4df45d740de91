// Package finance provides data models and stateless functions for splitting
// a pool's collected money into fees and prize tiers.
//
// All amounts are integer centavos and all percentages are basis points
// (10000 = 100%), so every split is exact and no centavo is invented or lost.
package finance

import (
	"fmt"
)

const (
	// FullShareBP is the whole of anything, in basis points.
	FullShareBP = 10000

	// TierCount is the number of prize tiers a pool pays out.
	TierCount = 3
)

// FeeConfig defines how the collected money is divided.  The three fee
// percentages must sum to exactly FullShareBP, as must the tier percentages.
type FeeConfig struct {
	// PlatformFeePerEntry is a fixed amount in centavos deducted per
	// participant before any percentage split.  Zero disables it.
	PlatformFeePerEntry int64

	AdminFeeBP   int // organizer's cut, in basis points of the net pool
	ReserveFeeBP int // held back for future cycles, in basis points
	PrizePoolBP  int // paid out this cycle, in basis points

	// TierBP divides the prize pool between 1st, 2nd and 3rd place tiers.
	TierBP [TierCount]int
}

// Breakdown is the result of splitting one pool cycle's money.
type Breakdown struct {
	TotalCollected   int64
	PlatformFeeTotal int64
	NetPoolValue     int64
	AdminFee         int64
	ReserveFee       int64
	WeeklyPrizePool  int64
	TierPools        [TierCount]int64
}

func bpInRange(bp int) bool {
	return bp >= 0 && bp <= FullShareBP
}

// Validate checks that the config balances.  It never renormalizes: a config
// that doesn't sum to 100% is a caller bug and we'd rather fail the call than
// pay out money that doesn't exist.
func (c *FeeConfig) Validate() error {
	if c.PlatformFeePerEntry < 0 {
		return fmt.Errorf("platform fee can't be negative: %d", c.PlatformFeePerEntry)
	}
	for _, bp := range []int{c.AdminFeeBP, c.ReserveFeeBP, c.PrizePoolBP} {
		if !bpInRange(bp) {
			return fmt.Errorf("fee share %d out of range [0,%d]", bp, FullShareBP)
		}
	}
	if sum := c.AdminFeeBP + c.ReserveFeeBP + c.PrizePoolBP; sum != FullShareBP {
		return fmt.Errorf("fee shares sum to %d, want %d", sum, FullShareBP)
	}
	tierSum := 0
	for _, bp := range c.TierBP {
		if !bpInRange(bp) {
			return fmt.Errorf("tier share %d out of range [0,%d]", bp, FullShareBP)
		}
		tierSum += bp
	}
	if tierSum != FullShareBP {
		return fmt.Errorf("tier shares sum to %d, want %d", tierSum, FullShareBP)
	}
	return nil
}

// Compute splits the money collected from participantCount entries at
// pricePerEntry centavos each.
//
// Truncation residue from the percentage splits goes to the prize pool (for
// the fee split) and to the last tier (for the tier split), so the breakdown
// always balances to the centavo: AdminFee + ReserveFee + WeeklyPrizePool ==
// NetPoolValue, and the tier pools sum to WeeklyPrizePool.
func Compute(participantCount int, pricePerEntry int64, cfg FeeConfig) (*Breakdown, error) {
	if participantCount < 0 {
		return nil, fmt.Errorf("participant count can't be negative: %d", participantCount)
	}
	if pricePerEntry < 0 {
		return nil, fmt.Errorf("price per entry can't be negative: %d", pricePerEntry)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Breakdown{}
	b.TotalCollected = int64(participantCount) * pricePerEntry
	b.PlatformFeeTotal = int64(participantCount) * cfg.PlatformFeePerEntry
	if b.PlatformFeeTotal > b.TotalCollected {
		return nil, fmt.Errorf("platform fee %d exceeds total collected %d",
			b.PlatformFeeTotal, b.TotalCollected)
	}
	b.NetPoolValue = b.TotalCollected - b.PlatformFeeTotal

	b.AdminFee = b.NetPoolValue * int64(cfg.AdminFeeBP) / FullShareBP
	b.ReserveFee = b.NetPoolValue * int64(cfg.ReserveFeeBP) / FullShareBP
	b.WeeklyPrizePool = b.NetPoolValue - b.AdminFee - b.ReserveFee

	b.TierPools[0] = b.WeeklyPrizePool * int64(cfg.TierBP[0]) / FullShareBP
	b.TierPools[1] = b.WeeklyPrizePool * int64(cfg.TierBP[1]) / FullShareBP
	b.TierPools[2] = b.WeeklyPrizePool - b.TierPools[0] - b.TierPools[1]

	return b, nil
}
