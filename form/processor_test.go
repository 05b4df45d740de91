package form

import (
	"context"
	"net/url"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/bolao-jogos/bolao/fakes"
	"github.com/bolao-jogos/bolao/model"
)

func newTestProcessor(t *testing.T) (*FormProcessor, *fakes.FakePoolStorage, clockwork.Clock) {
	t.Helper()
	ps := fakes.NewFakePoolStorage()
	clock := clockwork.NewFakeClock()
	return NewProcessor(ps, nil, clock), ps, clock
}

func TestApplyFormToPool(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	ctx := context.Background()

	p := &model.Pool{
		GameType:      model.MegaSena,
		BetType:       model.Individual,
		RequiredPicks: 10,
		Capacity:      10,
		PricePerEntry: 5000,
		Status:        model.Awaiting,
	}

	form := url.Values{}
	form.Set("Name", "Bolão da Firma")
	form.Set("BetType", string(model.Collaborative))
	form.Set("RequiredPicks", "12")
	form.Set("PricePerEntry", "2,500")
	form.Set("RequiresCode", "on")

	if err := proc.ApplyFormToPool(ctx, form, p); err != nil {
		t.Fatalf("ApplyFormToPool: %v", err)
	}
	if p.Name != "Bolão da Firma" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.BetType != model.Collaborative {
		t.Errorf("BetType = %v", p.BetType)
	}
	if p.RequiredPicks != 12 {
		t.Errorf("RequiredPicks = %d", p.RequiredPicks)
	}
	if p.PricePerEntry != 2500 {
		t.Errorf("PricePerEntry = %d", p.PricePerEntry)
	}
	if !p.RequiresCode {
		t.Error("RequiresCode not set")
	}
}

func TestApplyFormToPoolStructuralFieldsFrozen(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bet type", key: "BetType", value: string(model.Collaborative)},
		{name: "pick count", key: "RequiredPicks", value: "12"},
		{name: "entry price", key: "PricePerEntry", value: "9999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &model.Pool{
				GameType:      model.MegaSena,
				BetType:       model.Individual,
				RequiredPicks: 10,
				Capacity:      10,
				PricePerEntry: 5000,
				Status:        model.Full,
			}
			form := url.Values{}
			form.Set(tt.key, tt.value)
			if err := proc.ApplyFormToPool(ctx, form, p); err == nil {
				t.Errorf("changing %s on a full pool should fail", tt.name)
			}
		})
	}

	// Name and description stay editable after the pool fills.
	p := &model.Pool{GameType: model.MegaSena, Status: model.Full}
	form := url.Values{}
	form.Set("Description", "ajustado")
	if err := proc.ApplyFormToPool(ctx, form, p); err != nil {
		t.Errorf("editing description on a full pool: %v", err)
	}
}

func TestApplyFormToPoolBadValues(t *testing.T) {
	proc, _, _ := newTestProcessor(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "capacity below two", key: "Capacity", value: "1"},
		{name: "picks below draw size", key: "RequiredPicks", value: "5"},
		{name: "picks above max number", key: "RequiredPicks", value: "61"},
		{name: "negative price", key: "PricePerEntry", value: "-1"},
		{name: "unknown bet type", key: "BetType", value: "TRIFECTA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &model.Pool{
				GameType:      model.MegaSena,
				RequiredPicks: 10,
				Capacity:      10,
				Status:        model.Awaiting,
			}
			form := url.Values{}
			form.Set(tt.key, tt.value)
			if err := proc.ApplyFormToPool(ctx, form, p); err == nil {
				t.Errorf("%s should fail", tt.name)
			}
		})
	}
}

func TestApplyFormToPoolCapacityBelowParticipants(t *testing.T) {
	proc, _, _ := newTestProcessor(t)

	p := &model.Pool{
		GameType:       model.MegaSena,
		Capacity:       10,
		Status:         model.Awaiting,
		ParticipantIDs: []int64{1, 2, 3, 4},
	}
	form := url.Values{}
	form.Set("Capacity", "3")
	if err := proc.ApplyFormToPool(context.Background(), form, p); err == nil {
		t.Error("capacity below current participant count should fail")
	}
}

func TestCreatePool(t *testing.T) {
	proc, ps, clock := newTestProcessor(t)
	ctx := context.Background()

	form := url.Values{}
	form.Set("GameType", "MEGA_SENA")
	form.Set("Name", "Bolão dos Amigos")
	form.Set("Capacity", "10")

	id, err := proc.CreatePool(ctx, 42, form)
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}

	p, err := ps.FetchPool(ctx, id)
	if err != nil {
		t.Fatalf("FetchPool: %v", err)
	}
	if p.Name != "Bolão dos Amigos" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.AdminUserID != 42 {
		t.Errorf("AdminUserID = %d", p.AdminUserID)
	}
	if p.CreatedAt != clock.Now().UnixMilli() {
		t.Errorf("CreatedAt = %d", p.CreatedAt)
	}
	if p.Status != model.Awaiting {
		t.Errorf("Status = %v", p.Status)
	}
}

func TestCreatePoolRequiresName(t *testing.T) {
	proc, _, _ := newTestProcessor(t)

	form := url.Values{}
	form.Set("GameType", "MEGA_SENA")
	form.Set("Capacity", "10")
	if _, err := proc.CreatePool(context.Background(), 42, form); err == nil {
		t.Error("nameless pool should fail")
	}
}

func TestEditPool(t *testing.T) {
	proc, ps, _ := newTestProcessor(t)
	ctx := context.Background()

	id, err := ps.CreatePool(ctx, &model.Pool{
		Name:     "antes",
		GameType: model.MegaSena,
		Status:   model.Awaiting,
	})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}

	form := url.Values{}
	form.Set("Name", "depois")
	if err := proc.EditPool(ctx, id, form); err != nil {
		t.Fatalf("EditPool: %v", err)
	}

	p, err := ps.FetchPool(ctx, id)
	if err != nil {
		t.Fatalf("FetchPool: %v", err)
	}
	if p.Name != "depois" {
		t.Errorf("Name = %q", p.Name)
	}
}
