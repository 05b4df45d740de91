package state

import (
	"context"

	"github.com/bolao-jogos/bolao/builtins"
	"github.com/bolao-jogos/bolao/finance"
	"github.com/bolao-jogos/bolao/he"
)

var _ FeeScheduleStorage = (*BuiltinFeeScheduleStorage)(nil)

// BuiltinFeeScheduleStorage serves the compiled-in fee schedules.  Fee
// schedules change about never, so there's no table for them yet.
type BuiltinFeeScheduleStorage struct {
	idToSchedule map[int64]*finance.FeeSchedule
}

func NewBuiltinFeeScheduleStorage() *BuiltinFeeScheduleStorage {
	bs := &BuiltinFeeScheduleStorage{
		idToSchedule: map[int64]*finance.FeeSchedule{},
	}
	for _, fs := range builtins.FeeSchedules() {
		bs.idToSchedule[fs.ID] = fs
	}
	return bs
}

func (bs *BuiltinFeeScheduleStorage) Close() {}

// FetchFeeScheduleByID implements FeeScheduleStorage.
func (bs *BuiltinFeeScheduleStorage) FetchFeeScheduleByID(ctx context.Context, id int64) (*finance.FeeSchedule, error) {
	if fs, ok := bs.idToSchedule[id]; ok {
		return fs.Clone(), nil
	}
	return nil, he.HTTPCodedErrorf(404, "fee schedule not found")
}

// FetchFeeScheduleSlugs implements FeeScheduleStorage.
func (bs *BuiltinFeeScheduleStorage) FetchFeeScheduleSlugs(ctx context.Context) ([]*finance.FeeScheduleSlug, error) {
	bi := builtins.FeeSchedules()
	slugs := make([]*finance.FeeScheduleSlug, 0, len(bi))
	for _, fs := range bi {
		slugs = append(slugs, &finance.FeeScheduleSlug{
			ID:   fs.ID,
			Name: fs.Name,
		})
	}
	return slugs, nil
}
