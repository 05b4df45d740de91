// package pool provides pool mutation logic independent of the underlying
// trivial data model.
//
// Modifying a pool in non-trivial ways requires some care.  Membership,
// guesses, draw results and the computed money are interdependent: a new
// participant changes the prize pool, a new draw result can finish the pool.
// This package provides a way of working with those values that storage and
// the web layer can share, without imposing any constraints on the storage
// scheme.  It needs a clock and access to fee schedule storage, nothing else.

package pool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bolao-jogos/bolao/finance"
	"github.com/bolao-jogos/bolao/model"
	"github.com/bolao-jogos/bolao/protocol"
	"github.com/bolao-jogos/bolao/ranking"
	"github.com/bolao-jogos/bolao/scoring"
)

// Clock gets the current time.  clockwork.Clock implements this.
type Clock interface {
	Now() time.Time
}

// FeeScheduleFetcher does what it says on the tin.  Storage implements this
// (as of this writing, it's hardcoded anyway).
type FeeScheduleFetcher interface {
	FetchFeeScheduleByID(ctx context.Context, id int64) (*finance.FeeSchedule, error)
}

type Manager struct {
	clock Clock
	fsf   FeeScheduleFetcher
}

func NewManager(clock Clock, feeScheduleFetcher FeeScheduleFetcher) *Manager {
	return &Manager{
		clock: clock,
		fsf:   feeScheduleFetcher,
	}
}

// Join adds a participant.  Joining a pool you're already in is a no-op, not
// an error, so a retried request can't fail.
func (pm *Manager) Join(p *model.Pool, userID int64) error {
	if p.IsMember(userID) {
		return nil
	}
	if p.Status != model.Awaiting {
		return fmt.Errorf("pool %d is %s, not accepting participants", p.PoolID, p.Status)
	}
	p.ParticipantIDs = append(p.ParticipantIDs, userID)
	if p.Capacity > 0 && len(p.ParticipantIDs) >= p.Capacity {
		p.Status = model.Full
	}
	return nil
}

// ApplyGuess validates and locks an incoming guess.  existing is the
// participant's stored guess, or nil.  A locked guess rejects resubmission;
// there is no edit window once the numbers are in.
func (pm *Manager) ApplyGuess(p *model.Pool, existing *model.Guess, incoming *model.Guess) error {
	if p.Status == model.Finished {
		return errors.New("can't submit a guess: pool is finished")
	}
	if !p.IsMember(incoming.ParticipantID) {
		return fmt.Errorf("user %d is not a participant of pool %d", incoming.ParticipantID, p.PoolID)
	}
	if existing != nil && existing.Locked {
		return errors.New("can't resubmit: guess is locked")
	}
	if err := p.ValidatePickSet(incoming.Numbers); err != nil {
		return fmt.Errorf("bad pick set: %w", err)
	}
	incoming.PoolID = p.PoolID
	incoming.Locked = true
	incoming.SubmittedAt = pm.clock.Now().UnixMilli()
	return nil
}

// RecordDraw fills in one official result.  A completed draw is immutable
// unless override is set (admins fixing a typo).  Status steps forward:
// the first result puts the pool in progress, the last one finishes it.
func (pm *Manager) RecordDraw(p *model.Pool, sequence int, numbers []int, override bool) error {
	d := p.DrawBySequence(sequence)
	if d == nil {
		return fmt.Errorf("pool %d has no draw %d", p.PoolID, sequence)
	}
	if d.Completed() && !override {
		return fmt.Errorf("draw %d already recorded", sequence)
	}
	if err := p.ValidateDrawNumbers(numbers); err != nil {
		return fmt.Errorf("bad draw numbers: %w", err)
	}
	d.Numbers = numbers
	now := pm.clock.Now().UnixMilli()
	d.RecordedAt = &now

	if p.AllDrawsCompleted() {
		p.Status = model.Finished
	} else if p.Status == model.Awaiting || p.Status == model.Full {
		p.Status = model.InProgress
	}
	return nil
}

// CollaborativeTicket aggregates every submitted guess into the single
// ticket a collaborative pool plays: the requiredPicks most-voted numbers,
// ties broken by the lower number.
func CollaborativeTicket(guesses []*model.Guess, requiredPicks int) []int {
	votes := map[int]int{}
	for _, g := range guesses {
		for _, n := range g.Numbers {
			votes[n]++
		}
	}
	numbers := make([]int, 0, len(votes))
	for n := range votes {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool {
		if votes[numbers[i]] != votes[numbers[j]] {
			return votes[numbers[i]] > votes[numbers[j]]
		}
		return numbers[i] < numbers[j]
	})
	if len(numbers) > requiredPicks {
		numbers = numbers[:requiredPicks]
	}
	sort.Ints(numbers)
	return numbers
}

// scoringEntries shapes the guesses for the scoring engine.  Individual
// pools score each guess on its own.  Collaborative pools play one
// aggregated ticket; every participant gets an entry carrying it, so the
// ranking ties them all and splits the first tier evenly.
func scoringEntries(p *model.Pool, guesses []*model.Guess) []*scoring.Entry {
	if p.BetType == model.Collaborative {
		ticket := CollaborativeTicket(guesses, p.RequiredPicks)
		entries := make([]*scoring.Entry, 0, len(p.ParticipantIDs))
		for _, id := range p.ParticipantIDs {
			entries = append(entries, &scoring.Entry{ParticipantID: id, Numbers: ticket})
		}
		return entries
	}
	entries := make([]*scoring.Entry, 0, len(guesses))
	for _, g := range guesses {
		if !g.Locked {
			continue
		}
		entries = append(entries, &scoring.Entry{ParticipantID: g.ParticipantID, Numbers: g.Numbers})
	}
	return entries
}

// FillTransients fills out computed fields.  (These shouldn't be serialized
// to the database as they're redundant, but they are what the client
// actually renders.)
func (pm *Manager) FillTransients(ctx context.Context, p *model.Pool, guesses []*model.Guess, names ranking.Directory) error {
	p.Transients = &model.Transients{
		ProtocolVersion: protocol.Version,
		CompletedDraws:  p.CompletedDraws(),
	}

	fs, err := pm.fsf.FetchFeeScheduleByID(ctx, p.FeeScheduleID)
	if err != nil {
		return fmt.Errorf("can't fetch fee schedule %d: %w", p.FeeScheduleID, err)
	}
	fin, err := finance.Compute(len(p.ParticipantIDs), p.PricePerEntry, fs.FeeConfig)
	if err != nil {
		return fmt.Errorf("can't compute finances for pool %d: %w", p.PoolID, err)
	}
	p.Transients.Finances = fin

	spec, err := model.GameSpecFor(p.GameType)
	if err != nil {
		return err
	}
	rules := scoring.Rules{
		RequiredPicks:    p.RequiredPicks,
		OfficialDrawSize: spec.OfficialDrawSize,
		MaxNumber:        spec.MaxNumber,
	}
	scores, err := scoring.Compute(scoringEntries(p, guesses), p.DrawNumbers(), rules)
	if err != nil {
		return fmt.Errorf("can't score pool %d: %w", p.PoolID, err)
	}
	p.Transients.Scores = scores

	if p.Transients.CompletedDraws == 0 {
		// Nothing has been drawn, so nobody has won anything.  Rank
		// everyone at tier zero rather than paying tiers on all-zero
		// scores.
		p.Transients.Ranking = unrankedEveryone(scores, names)
		return nil
	}
	p.Transients.Ranking = ranking.Generate(scores, names, fin.TierPools)
	return nil
}

func unrankedEveryone(scores []*scoring.Score, names ranking.Directory) *ranking.Ranking {
	var zero [finance.TierCount]int64
	r := ranking.Generate(scores, names, zero)
	for _, e := range r.Entries {
		e.Tier = 0
		e.Prize = 0
	}
	r.UnawardedCents = 0
	return r
}
