package finance

import (
	"testing"
)

func standardConfig() FeeConfig {
	return FeeConfig{
		PlatformFeePerEntry: 1000,
		AdminFeeBP:          1000,
		ReserveFeeBP:        1000,
		PrizePoolBP:         8000,
		TierBP:              [TierCount]int{7500, 1500, 1000},
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name             string
		participants     int
		pricePerEntry    int64
		cfg              FeeConfig
		wantTotal        int64
		wantPlatform     int64
		wantNet          int64
		wantAdmin        int64
		wantReserve      int64
		wantWeekly       int64
		wantTiers        [TierCount]int64
	}{
		{
			name:          "100 entries at R$50",
			participants:  100,
			pricePerEntry: 5000,
			cfg:           standardConfig(),
			wantTotal:     500000,
			wantPlatform:  100000,
			wantNet:       400000,
			wantAdmin:     40000,
			wantReserve:   40000,
			wantWeekly:    320000,
			wantTiers:     [TierCount]int64{240000, 48000, 32000},
		},
		{
			name:          "truncation goes to prize pool and last tier",
			participants:  3,
			pricePerEntry: 3333,
			cfg:           standardConfig(),
			wantTotal:     9999,
			wantPlatform:  3000,
			wantNet:       6999,
			wantAdmin:     699,
			wantReserve:   699,
			wantWeekly:    5601,
			wantTiers:     [TierCount]int64{4200, 840, 561},
		},
		{
			name:          "no participants",
			participants:  0,
			pricePerEntry: 5000,
			cfg:           standardConfig(),
		},
		{
			name:          "free pool",
			participants:  10,
			pricePerEntry: 0,
			cfg: FeeConfig{
				AdminFeeBP:  1000,
				ReserveFeeBP: 1000,
				PrizePoolBP: 8000,
				TierBP:      [TierCount]int{7500, 1500, 1000},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Compute(tt.participants, tt.pricePerEntry, tt.cfg)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if b.TotalCollected != tt.wantTotal {
				t.Errorf("TotalCollected = %d, want %d", b.TotalCollected, tt.wantTotal)
			}
			if b.PlatformFeeTotal != tt.wantPlatform {
				t.Errorf("PlatformFeeTotal = %d, want %d", b.PlatformFeeTotal, tt.wantPlatform)
			}
			if b.NetPoolValue != tt.wantNet {
				t.Errorf("NetPoolValue = %d, want %d", b.NetPoolValue, tt.wantNet)
			}
			if b.AdminFee != tt.wantAdmin {
				t.Errorf("AdminFee = %d, want %d", b.AdminFee, tt.wantAdmin)
			}
			if b.ReserveFee != tt.wantReserve {
				t.Errorf("ReserveFee = %d, want %d", b.ReserveFee, tt.wantReserve)
			}
			if b.WeeklyPrizePool != tt.wantWeekly {
				t.Errorf("WeeklyPrizePool = %d, want %d", b.WeeklyPrizePool, tt.wantWeekly)
			}
			if b.TierPools != tt.wantTiers {
				t.Errorf("TierPools = %v, want %v", b.TierPools, tt.wantTiers)
			}
		})
	}
}

// Whatever the inputs, no centavo may appear or vanish.
func TestComputeConservation(t *testing.T) {
	cfg := standardConfig()
	for participants := 0; participants <= 50; participants++ {
		for _, price := range []int64{1000, 3333, 4999, 5000, 12345} {
			b, err := Compute(participants, price, cfg)
			if err != nil {
				t.Fatalf("Compute(%d, %d): %v", participants, price, err)
			}
			if b.PlatformFeeTotal+b.NetPoolValue != b.TotalCollected {
				t.Errorf("Compute(%d, %d): platform %d + net %d != total %d",
					participants, price, b.PlatformFeeTotal, b.NetPoolValue, b.TotalCollected)
			}
			if b.AdminFee+b.ReserveFee+b.WeeklyPrizePool != b.NetPoolValue {
				t.Errorf("Compute(%d, %d): fee split doesn't balance", participants, price)
			}
			if b.TierPools[0]+b.TierPools[1]+b.TierPools[2] != b.WeeklyPrizePool {
				t.Errorf("Compute(%d, %d): tier split doesn't balance", participants, price)
			}
		}
	}
}

func TestComputeErrors(t *testing.T) {
	tests := []struct {
		name          string
		participants  int
		pricePerEntry int64
		cfg           FeeConfig
	}{
		{
			name:          "negative participants",
			participants:  -1,
			pricePerEntry: 5000,
			cfg:           standardConfig(),
		},
		{
			name:          "negative price",
			participants:  10,
			pricePerEntry: -1,
			cfg:           standardConfig(),
		},
		{
			name:          "platform fee exceeds price",
			participants:  10,
			pricePerEntry: 500,
			cfg:           standardConfig(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compute(tt.participants, tt.pricePerEntry, tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FeeConfig)
		wantErr bool
	}{
		{name: "standard", mutate: func(c *FeeConfig) {}},
		{
			name:   "negative platform fee",
			mutate: func(c *FeeConfig) { c.PlatformFeePerEntry = -1 },
			wantErr: true,
		},
		{
			name:   "fee shares don't sum",
			mutate: func(c *FeeConfig) { c.AdminFeeBP = 2000 },
			wantErr: true,
		},
		{
			name:   "fee share out of range",
			mutate: func(c *FeeConfig) { c.AdminFeeBP = -1000; c.PrizePoolBP = 10000 },
			wantErr: true,
		},
		{
			name:   "tier shares don't sum",
			mutate: func(c *FeeConfig) { c.TierBP = [TierCount]int{5000, 3000, 1000} },
			wantErr: true,
		},
		{
			name:   "tier share out of range",
			mutate: func(c *FeeConfig) { c.TierBP = [TierCount]int{12000, -1000, -1000} },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := standardConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
