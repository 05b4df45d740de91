package state

import (
	"context"
	"testing"

	"github.com/bolao-jogos/bolao/builtins"
	"github.com/bolao-jogos/bolao/finance"
)

func TestBuiltinSchedulesBalance(t *testing.T) {
	for _, fs := range builtins.FeeSchedules() {
		if err := fs.Validate(); err != nil {
			t.Errorf("schedule %q (id %d): %v", fs.Name, fs.ID, err)
		}
	}
}

func TestFetchFeeScheduleByID(t *testing.T) {
	s := NewBuiltinFeeScheduleStorage()
	ctx := context.Background()

	fs, err := s.FetchFeeScheduleByID(ctx, builtins.StandardFeeScheduleID)
	if err != nil {
		t.Fatalf("FetchFeeScheduleByID: %v", err)
	}
	if fs.PrizePoolBP != 8000 {
		t.Errorf("standard schedule pays %d bp, want 8000", fs.PrizePoolBP)
	}

	// Mutating the returned schedule must not poison the store.
	fs.TierBP = [finance.TierCount]int{0, 0, 0}
	again, err := s.FetchFeeScheduleByID(ctx, builtins.StandardFeeScheduleID)
	if err != nil {
		t.Fatalf("FetchFeeScheduleByID: %v", err)
	}
	if again.TierBP[0] != 7500 {
		t.Errorf("stored schedule was mutated through a fetched copy")
	}

	if _, err := s.FetchFeeScheduleByID(ctx, 999); err == nil {
		t.Errorf("expected error for unknown schedule id")
	}
}

func TestFetchFeeScheduleSlugs(t *testing.T) {
	s := NewBuiltinFeeScheduleStorage()
	slugs, err := s.FetchFeeScheduleSlugs(context.Background())
	if err != nil {
		t.Fatalf("FetchFeeScheduleSlugs: %v", err)
	}
	if len(slugs) != len(builtins.FeeSchedules()) {
		t.Errorf("got %d slugs, want %d", len(slugs), len(builtins.FeeSchedules()))
	}
}
