// Package vote keeps the viewer's vote mark and the displayed score for one
// votable item and reconciles optimistic toggles against the backend.
//
// Toggle rules for a requested direction d with sign s (+1 up, -1 down):
//
//	current == d        -> None, delta -s
//	current == None     -> d,    delta +s
//	current == opposite -> d,    delta 2s
//
// The transition is applied locally before the remote call returns. When the
// call fails the transition is reverted; when it succeeds the backend's score
// and mark become the new baseline.
package vote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/emilythestrangee/newsboard/internal/apperr"
	"github.com/emilythestrangee/newsboard/internal/logging"
)

var log = logging.NewLogger("vote")

type Mark int

const (
	None Mark = 0
	Up   Mark = 1
	Down Mark = -1
)

func (m Mark) String() string {
	switch m {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

// MarkFromValue converts a stored vote value (-1, 0, 1) to a Mark.
func MarkFromValue(v int) Mark {
	switch {
	case v > 0:
		return Up
	case v < 0:
		return Down
	default:
		return None
	}
}

type Direction int

const (
	DirUp   Direction = 1
	DirDown Direction = -1
)

func (d Direction) Valid() bool {
	return d == DirUp || d == DirDown
}

func (d Direction) Sign() int {
	return int(d)
}

func (d Direction) String() string {
	if d == DirDown {
		return "down"
	}
	return "up"
}

// ParseDirection accepts "up"/"down" as typed on the command line.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up", "+", "1":
		return DirUp, nil
	case "down", "-", "-1":
		return DirDown, nil
	}
	return 0, apperr.Validation(fmt.Sprintf("unknown vote direction %q", s))
}

type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

type Item struct {
	Kind Kind
	ID   int
}

func (i Item) String() string {
	return fmt.Sprintf("%s/%d", i.Kind, i.ID)
}

// Result is the backend's authoritative view after a toggle.
type Result struct {
	Score int
	Mark  Mark
}

// Effect describes the local transition applied by Apply.
type Effect struct {
	From  Mark
	To    Mark
	Delta int
}

// Transition computes the toggle transition without touching any state.
func Transition(current Mark, dir Direction) Effect {
	s := dir.Sign()
	want := Mark(s)
	switch current {
	case want:
		return Effect{From: current, To: None, Delta: -s}
	case None:
		return Effect{From: current, To: want, Delta: s}
	default:
		return Effect{From: current, To: want, Delta: 2 * s}
	}
}

// Remote is the slice of the backend a State needs.
type Remote interface {
	Authenticated() bool
	ToggleVote(ctx context.Context, item Item, dir Direction) (Result, error)
}

// ErrPending is returned while a previous vote on the same item is in flight.
var ErrPending = errors.New("vote already in flight")

type State struct {
	mu      sync.Mutex
	item    Item
	score   int
	mark    Mark
	pending bool
}

// New starts a state from an authoritative snapshot.
func New(item Item, score int, mark Mark) *State {
	return &State{item: item, score: score, mark: mark}
}

func (s *State) Item() Item {
	return s.item
}

func (s *State) Mark() Mark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mark
}

func (s *State) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

func (s *State) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Snapshot returns score, mark and pending under one lock.
func (s *State) Snapshot() (score int, mark Mark, pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score, s.mark, s.pending
}

// Apply toggles the viewer's vote in direction dir and issues exactly one
// remote call. Unauthenticated viewers and calls made while another vote is in
// flight fail without a remote call and without changing state.
func (s *State) Apply(ctx context.Context, dir Direction, remote Remote) (Effect, error) {
	if !dir.Valid() {
		return Effect{}, apperr.Validation(fmt.Sprintf("invalid vote direction %d", dir))
	}
	if remote == nil || !remote.Authenticated() {
		return Effect{}, apperr.Unauthorized("login required to vote")
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return Effect{}, ErrPending
	}
	effect := Transition(s.mark, dir)
	s.mark = effect.To
	s.score += effect.Delta
	s.pending = true
	s.mu.Unlock()

	result, err := remote.ToggleVote(ctx, s.item, dir)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	if err != nil {
		s.mark = effect.From
		s.score -= effect.Delta
		log.Warningf("vote %s %s rolled back: %v", s.item, dir, err)
		return effect, fmt.Errorf("toggle vote on %s: %w", s.item, err)
	}
	if result.Mark != effect.To || result.Score != s.score {
		log.Debugf("vote %s reconciled: local %d/%s, remote %d/%s", s.item, s.score, s.mark, result.Score, result.Mark)
	}
	s.score = result.Score
	s.mark = result.Mark
	return effect, nil
}
