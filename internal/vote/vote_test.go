package vote

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/newsboard/internal/apperr"
)

// fakeRemote mirrors the backend toggle for a single viewer.
type fakeRemote struct {
	authenticated bool
	score         map[Item]int
	marks         map[Item]Mark
	calls         int
	err           error
	block         chan struct{}
	entered       chan struct{}
}

func newFakeRemote(item Item, score int) *fakeRemote {
	return &fakeRemote{
		authenticated: true,
		score:         map[Item]int{item: score},
		marks:         map[Item]Mark{},
	}
}

func (f *fakeRemote) Authenticated() bool { return f.authenticated }

func (f *fakeRemote) ToggleVote(_ context.Context, item Item, dir Direction) (Result, error) {
	f.calls++
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return Result{}, f.err
	}
	effect := Transition(f.marks[item], dir)
	f.marks[item] = effect.To
	f.score[item] += effect.Delta
	return Result{Score: f.score[item], Mark: effect.To}, nil
}

var post = Item{Kind: KindPost, ID: 1}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		current Mark
		dir     Direction
		want    Effect
	}{
		{None, DirUp, Effect{From: None, To: Up, Delta: 1}},
		{None, DirDown, Effect{From: None, To: Down, Delta: -1}},
		{Up, DirUp, Effect{From: Up, To: None, Delta: -1}},
		{Down, DirDown, Effect{From: Down, To: None, Delta: 1}},
		{Up, DirDown, Effect{From: Up, To: Down, Delta: -2}},
		{Down, DirUp, Effect{From: Down, To: Up, Delta: 2}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Transition(c.current, c.dir), "%s then %s", c.current, c.dir)
	}
}

func TestToggleSameDirectionRoundTrips(t *testing.T) {
	remote := newFakeRemote(post, 10)
	s := New(post, 10, None)

	_, err := s.Apply(context.Background(), DirUp, remote)
	require.NoError(t, err)
	assert.Equal(t, 11, s.Score())
	assert.Equal(t, Up, s.Mark())

	_, err = s.Apply(context.Background(), DirUp, remote)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Score())
	assert.Equal(t, None, s.Mark())
	assert.Equal(t, 2, remote.calls)
}

func TestReverseMovesScoreByTwo(t *testing.T) {
	remote := newFakeRemote(post, 11)
	remote.marks[post] = Up
	s := New(post, 11, Up)

	effect, err := s.Apply(context.Background(), DirDown, remote)

	require.NoError(t, err)
	assert.Equal(t, -2, effect.Delta)
	assert.Equal(t, 9, s.Score())
	assert.Equal(t, Down, s.Mark())
}

func TestUnauthenticatedVoteIsRejectedLocally(t *testing.T) {
	remote := newFakeRemote(post, 10)
	remote.authenticated = false
	s := New(post, 10, None)

	_, err := s.Apply(context.Background(), DirUp, remote)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	assert.Zero(t, remote.calls)
	assert.Equal(t, 10, s.Score())
	assert.Equal(t, None, s.Mark())
}

func TestNilRemoteIsUnauthorized(t *testing.T) {
	s := New(post, 3, Down)
	_, err := s.Apply(context.Background(), DirUp, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, 3, s.Score())
}

func TestInvalidDirection(t *testing.T) {
	remote := newFakeRemote(post, 0)
	s := New(post, 0, None)
	_, err := s.Apply(context.Background(), Direction(0), remote)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, remote.calls)
}

func TestRemoteFailureRollsBack(t *testing.T) {
	remote := newFakeRemote(post, 5)
	remote.err = apperr.New(apperr.KindRemote, "server down")
	s := New(post, 5, Down)

	effect, err := s.Apply(context.Background(), DirUp, remote)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrRemote)
	assert.Equal(t, Effect{From: Down, To: Up, Delta: 2}, effect)
	assert.Equal(t, 5, s.Score())
	assert.Equal(t, Down, s.Mark())
	assert.False(t, s.Pending())
}

func TestOptimisticStateVisibleWhileInFlight(t *testing.T) {
	remote := newFakeRemote(post, 10)
	remote.block = make(chan struct{})
	remote.entered = make(chan struct{})
	s := New(post, 10, None)

	done := make(chan error, 1)
	go func() {
		_, err := s.Apply(context.Background(), DirUp, remote)
		done <- err
	}()

	<-remote.entered
	score, mark, pending := s.Snapshot()
	assert.Equal(t, 11, score)
	assert.Equal(t, Up, mark)
	assert.True(t, pending)

	_, err := s.Apply(context.Background(), DirDown, remote)
	assert.ErrorIs(t, err, ErrPending)

	close(remote.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, remote.calls)
	assert.False(t, s.Pending())
}

func TestRemoteResultBecomesBaseline(t *testing.T) {
	// Someone else voted since the snapshot was taken.
	remote := newFakeRemote(post, 20)
	s := New(post, 10, None)

	_, err := s.Apply(context.Background(), DirUp, remote)

	require.NoError(t, err)
	assert.Equal(t, 21, s.Score())
	assert.Equal(t, Up, s.Mark())
}

func TestIndependentItems(t *testing.T) {
	other := Item{Kind: KindPost, ID: 2}
	remote := newFakeRemote(post, 1)
	remote.score[other] = 7
	a := New(post, 1, None)
	b := New(other, 7, None)

	_, err := a.Apply(context.Background(), DirDown, remote)
	require.NoError(t, err)

	assert.Equal(t, 0, a.Score())
	assert.Equal(t, 7, b.Score())
	assert.Equal(t, None, b.Mark())
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("down")
	require.NoError(t, err)
	assert.Equal(t, DirDown, d)

	_, err = ParseDirection("sideways")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestMarkFromValue(t *testing.T) {
	assert.Equal(t, Up, MarkFromValue(1))
	assert.Equal(t, Down, MarkFromValue(-1))
	assert.Equal(t, None, MarkFromValue(0))
}
