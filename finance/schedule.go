package finance

// FeeSchedule is a named, storable FeeConfig.
type FeeSchedule struct {
	ID   int64
	Name string
	FeeConfig
}

// FeeScheduleSlug is a lightweight representation of a fee schedule for lists.
type FeeScheduleSlug struct {
	Name string
	ID   int64
}

func (s *FeeSchedule) Clone() *FeeSchedule {
	clone := *s
	return &clone
}
