package model

// Clones are deep enough that a cached copy can't be mutated through a
// fetched one.  Transients are shared; they're recomputed on the way out
// anyway.

func (p *Pool) Clone() *Pool {
	clone := *p
	clone.ParticipantIDs = make([]int64, len(p.ParticipantIDs))
	copy(clone.ParticipantIDs, p.ParticipantIDs)
	clone.Draws = make([]*Draw, len(p.Draws))
	for i, d := range p.Draws {
		dc := *d
		if d.Numbers != nil {
			dc.Numbers = make([]int, len(d.Numbers))
			copy(dc.Numbers, d.Numbers)
		}
		if d.RecordedAt != nil {
			at := *d.RecordedAt
			dc.RecordedAt = &at
		}
		clone.Draws[i] = &dc
	}
	return &clone
}

func (g *Guess) Clone() *Guess {
	clone := *g
	clone.Numbers = make([]int, len(g.Numbers))
	copy(clone.Numbers, g.Numbers)
	return &clone
}

func (u *UserIdentity) Clone() *UserIdentity {
	clone := *u
	return &clone
}
