package scoring

import (
	"slices"
	"testing"
)

var megaSenaRules = Rules{
	RequiredPicks:    10,
	OfficialDrawSize: 6,
	MaxNumber:        60,
}

func TestValidateNumbers(t *testing.T) {
	tests := []struct {
		name    string
		numbers []int
		count   int
		max     int
		wantErr bool
	}{
		{name: "valid", numbers: []int{1, 2, 3}, count: 3, max: 60},
		{name: "wrong count", numbers: []int{1, 2}, count: 3, max: 60, wantErr: true},
		{name: "zero", numbers: []int{0, 2, 3}, count: 3, max: 60, wantErr: true},
		{name: "over max", numbers: []int{1, 2, 61}, count: 3, max: 60, wantErr: true},
		{name: "duplicate", numbers: []int{1, 2, 2}, count: 3, max: 60, wantErr: true},
		{name: "max itself", numbers: []int{58, 59, 60}, count: 3, max: 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNumbers(tt.numbers, tt.count, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNumbers(%v) = %v, wantErr %v", tt.numbers, err, tt.wantErr)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	entries := []*Entry{
		{ParticipantID: 1, Numbers: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{ParticipantID: 2, Numbers: []int{51, 52, 53, 54, 55, 56, 57, 58, 59, 60}},
	}
	draws := [][]int{
		{1, 2, 3, 55, 56, 57},
		{4, 5, 6, 7, 8, 9},
		{}, // pending
	}

	scores, err := Compute(entries, draws, megaSenaRules)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(scores))
	}

	if got, want := scores[0].PerDraw, []int{3, 6, 0}; !slices.Equal(got, want) {
		t.Errorf("participant 1 PerDraw = %v, want %v", got, want)
	}
	if scores[0].Total != 9 {
		t.Errorf("participant 1 Total = %d, want 9", scores[0].Total)
	}
	if got, want := scores[1].PerDraw, []int{3, 0, 0}; !slices.Equal(got, want) {
		t.Errorf("participant 2 PerDraw = %v, want %v", got, want)
	}
	if scores[1].Total != 3 {
		t.Errorf("participant 2 Total = %d, want 3", scores[1].Total)
	}
}

func TestComputeNoEntries(t *testing.T) {
	scores, err := Compute(nil, [][]int{{1, 2, 3, 4, 5, 6}}, megaSenaRules)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("got %d scores, want 0", len(scores))
	}
}

func TestComputeAllDrawsPending(t *testing.T) {
	entries := []*Entry{
		{ParticipantID: 7, Numbers: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
	}
	scores, err := Compute(entries, [][]int{{}, {}, {}}, megaSenaRules)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if scores[0].Total != 0 {
		t.Errorf("Total = %d, want 0", scores[0].Total)
	}
	if len(scores[0].PerDraw) != 3 {
		t.Errorf("PerDraw has %d slots, want 3", len(scores[0].PerDraw))
	}
}

func TestComputeErrors(t *testing.T) {
	goodEntry := &Entry{ParticipantID: 1, Numbers: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}

	t.Run("bad draw", func(t *testing.T) {
		_, err := Compute([]*Entry{goodEntry}, [][]int{{1, 2, 3}}, megaSenaRules)
		if err == nil {
			t.Error("expected error for short draw")
		}
	})

	t.Run("bad entry", func(t *testing.T) {
		bad := &Entry{ParticipantID: 2, Numbers: []int{1, 2, 3}}
		_, err := Compute([]*Entry{bad}, [][]int{{1, 2, 3, 4, 5, 6}}, megaSenaRules)
		if err == nil {
			t.Error("expected error for short pick set")
		}
	})
}
