// Package model holds the serializable domain types.  Everything here is
// stored as JSONB in the database, except Transients, which are computed on
// the way out.
package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bolao-jogos/bolao/finance"
	"github.com/bolao-jogos/bolao/ranking"
	"github.com/bolao-jogos/bolao/scoring"
)

type GameType string

const (
	MegaSena  GameType = "MEGA_SENA"
	Lotofacil GameType = "LOTOFACIL"
)

type BetType string

const (
	Individual    BetType = "INDIVIDUAL"
	Collaborative BetType = "COLLABORATIVE"
)

type Status string

const (
	// Awaiting pools accept new participants.
	Awaiting Status = "AWAITING"
	// Full pools are at capacity but no draw has happened yet.
	Full Status = "FULL"
	// InProgress pools have at least one recorded draw.
	InProgress Status = "IN_PROGRESS"
	// Finished pools have every draw recorded.  Terminal.
	Finished Status = "FINISHED"
)

// GameSpec describes one official lottery game.
type GameSpec struct {
	GameType         GameType
	DisplayName      string
	MaxNumber        int // numbers run 1..MaxNumber
	OfficialDrawSize int
	DefaultPicks     int
	DrawCount        int
}

// ParseGameType accepts the wire spelling of a game type, case-insensitively.
func ParseGameType(s string) (GameType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(MegaSena), "MEGASENA", "MEGA-SENA":
		return MegaSena, nil
	case string(Lotofacil), "LOTOFÁCIL":
		return Lotofacil, nil
	default:
		return "", fmt.Errorf("unknown game type %q", s)
	}
}

// Draw is one weekly official result.  Numbers is empty until the result is
// recorded; once set it holds exactly the game's official draw size.
type Draw struct {
	Sequence   int
	Numbers    []int
	RecordedAt *int64 // Unix millis; nil while pending
}

func (d *Draw) Completed() bool {
	return len(d.Numbers) > 0
}

// Guess is one participant's ticket in a pool.  Locked guesses reject
// resubmission.
type Guess struct {
	GuessID        int64
	OptimisticLock int64

	PoolID        int64
	ParticipantID int64
	Numbers       []int
	Locked        bool
	SubmittedAt   int64 // Unix millis
}

// Pools are the things we're running.
type Pool struct {
	PoolID         int64
	OptimisticLock int64

	Name          string
	Description   string
	GameType      GameType
	BetType       BetType
	RequiredPicks int
	Capacity      int
	PricePerEntry int64 // centavos
	FeeScheduleID int64
	AdminUserID   int64
	RequiresCode  bool
	CreatedAt     int64 // Unix millis

	Status         Status
	ParticipantIDs []int64
	Draws          []*Draw

	Transients *Transients `json:",omitempty"`
}

// Transients are computed from the pool, its guesses and its fee schedule,
// and are not serialized to the database.
type Transients struct {
	ProtocolVersion int
	CompletedDraws  int
	Finances        *finance.Breakdown
	Scores          []*scoring.Score
	Ranking         *ranking.Ranking
}

func (p *Pool) IsMember(userID int64) bool {
	for _, id := range p.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (p *Pool) CompletedDraws() int {
	n := 0
	for _, d := range p.Draws {
		if d.Completed() {
			n++
		}
	}
	return n
}

func (p *Pool) AllDrawsCompleted() bool {
	return len(p.Draws) > 0 && p.CompletedDraws() == len(p.Draws)
}

func (p *Pool) DrawBySequence(seq int) *Draw {
	for _, d := range p.Draws {
		if d.Sequence == seq {
			return d
		}
	}
	return nil
}

// DrawNumbers returns the recorded results in sequence order, pending draws
// included as empty slices, in the shape the scoring engine takes.
func (p *Pool) DrawNumbers() [][]int {
	draws := make([]*Draw, len(p.Draws))
	copy(draws, p.Draws)
	sort.Slice(draws, func(i, j int) bool { return draws[i].Sequence < draws[j].Sequence })
	numbers := make([][]int, len(draws))
	for i, d := range draws {
		numbers[i] = d.Numbers
	}
	return numbers
}

// ValidatePickSet checks a pick set against this pool's rules.
func (p *Pool) ValidatePickSet(numbers []int) error {
	spec, err := GameSpecFor(p.GameType)
	if err != nil {
		return err
	}
	return scoring.ValidateNumbers(numbers, p.RequiredPicks, spec.MaxNumber)
}

// ValidateDrawNumbers checks an official result against this pool's game.
func (p *Pool) ValidateDrawNumbers(numbers []int) error {
	spec, err := GameSpecFor(p.GameType)
	if err != nil {
		return err
	}
	return scoring.ValidateNumbers(numbers, spec.OfficialDrawSize, spec.MaxNumber)
}

// AccessCode is a single-use invite to a pool.
type AccessCode struct {
	Code           string // UUID
	OptimisticLock int64

	PoolID     int64
	MintedAt   int64  // Unix millis
	RedeemedAt *int64 // Unix millis; nil while unredeemed
	RedeemedBy int64  // user ID, 0 while unredeemed
}

func (c *AccessCode) Redeemed() bool {
	return c.RedeemedAt != nil
}

// PoolSlug describes a single pool for rendering the pool list.
type PoolSlug struct {
	PoolID           int64
	Name             string
	Description      string
	GameType         GameType
	Status           Status
	ParticipantCount int
	Capacity         int
	PricePerEntry    int64
}

// Overview describes the available pools for the pool list.
type Overview struct {
	IsAdmin bool
	Slugs   []PoolSlug
}

func (p *Pool) Slug() PoolSlug {
	return PoolSlug{
		PoolID:           p.PoolID,
		Name:             p.Name,
		Description:      p.Description,
		GameType:         p.GameType,
		Status:           p.Status,
		ParticipantCount: len(p.ParticipantIDs),
		Capacity:         p.Capacity,
		PricePerEntry:    p.PricePerEntry,
	}
}
