package thread

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/newsboard/internal/models"
)

func ptr(i int) *int { return &i }

func comment(id int, parent *int) models.Comment {
	return models.Comment{ID: id, PostID: 1, ParentID: parent, Content: "c"}
}

// shape renders the forest as nested IDs for easy comparison.
type shape struct {
	ID       int
	Children []shape
}

func shapeOf(f *Forest) []shape {
	var convert func(nodes []*Node) []shape
	convert = func(nodes []*Node) []shape {
		if len(nodes) == 0 {
			return nil
		}
		out := make([]shape, len(nodes))
		for i, n := range nodes {
			out[i] = shape{ID: n.Comment.ID, Children: convert(n.Children)}
		}
		return out
	}
	return convert(f.Roots)
}

func ids(comments []models.Comment) []int {
	out := make([]int, len(comments))
	for i, c := range comments {
		out[i] = c.ID
	}
	return out
}

func TestBuildNestsInSuppliedOrder(t *testing.T) {
	input := []models.Comment{
		comment(1, nil),
		comment(2, ptr(1)),
		comment(3, nil),
		comment(4, ptr(2)),
		comment(5, ptr(1)),
		comment(6, ptr(3)),
	}

	f := Build(input)

	want := []shape{
		{ID: 1, Children: []shape{
			{ID: 2, Children: []shape{{ID: 4}}},
			{ID: 5},
		}},
		{ID: 3, Children: []shape{{ID: 6}}},
	}
	if diff := cmp.Diff(want, shapeOf(f)); diff != "" {
		t.Fatalf("forest mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, f.Orphans)
	assert.Empty(t, f.Cycles)
	assert.Equal(t, 6, f.Len())
}

func TestBuildChildBeforeParentInInput(t *testing.T) {
	input := []models.Comment{
		comment(4, ptr(2)),
		comment(2, ptr(1)),
		comment(1, nil),
	}

	f := Build(input)

	want := []shape{{ID: 1, Children: []shape{{ID: 2, Children: []shape{{ID: 4}}}}}}
	if diff := cmp.Diff(want, shapeOf(f)); diff != "" {
		t.Fatalf("forest mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenContainsEveryCommentOnce(t *testing.T) {
	input := []models.Comment{
		comment(10, nil),
		comment(11, ptr(10)),
		comment(12, ptr(11)),
		comment(13, nil),
		comment(14, ptr(10)),
		comment(15, ptr(13)),
		comment(16, ptr(12)),
	}

	flat := Build(input).Flatten()

	assert.Equal(t, []int{10, 11, 12, 16, 14, 13, 15}, ids(flat))
	assert.ElementsMatch(t, ids(input), ids(flat))
}

func TestBuildIsDeterministic(t *testing.T) {
	input := []models.Comment{
		comment(1, nil),
		comment(2, ptr(1)),
		comment(3, ptr(99)),
		comment(4, ptr(2)),
		comment(5, ptr(6)),
		comment(6, ptr(5)),
	}

	first := Build(input)
	for i := 0; i < 20; i++ {
		again := Build(input)
		if diff := cmp.Diff(shapeOf(first), shapeOf(again)); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
		assert.Equal(t, first.Orphans, again.Orphans)
		assert.Equal(t, first.Cycles, again.Cycles)
	}
}

func TestOrphanPromotedToRootAtSuppliedPosition(t *testing.T) {
	input := []models.Comment{
		comment(1, nil),
		comment(2, ptr(42)),
		comment(3, ptr(2)),
		comment(4, nil),
	}

	f := Build(input)

	want := []shape{
		{ID: 1},
		{ID: 2, Children: []shape{{ID: 3}}},
		{ID: 4},
	}
	if diff := cmp.Diff(want, shapeOf(f)); diff != "" {
		t.Fatalf("forest mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{2}, f.Orphans)
	assert.Len(t, f.Flatten(), 4)
}

func TestCycleBrokenAtEarliestMember(t *testing.T) {
	input := []models.Comment{
		comment(1, nil),
		comment(7, ptr(9)), // hangs below the cycle
		comment(8, ptr(9)),
		comment(9, ptr(8)),
	}

	f := Build(input)

	want := []shape{
		{ID: 1},
		{ID: 8, Children: []shape{{ID: 9, Children: []shape{{ID: 7}}}}},
	}
	if diff := cmp.Diff(want, shapeOf(f)); diff != "" {
		t.Fatalf("forest mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{8}, f.Cycles)
	assert.ElementsMatch(t, ids(input), ids(f.Flatten()))
}

func TestSelfParentIsCycle(t *testing.T) {
	f := Build([]models.Comment{comment(5, ptr(5)), comment(6, ptr(5))})

	want := []shape{{ID: 5, Children: []shape{{ID: 6}}}}
	if diff := cmp.Diff(want, shapeOf(f)); diff != "" {
		t.Fatalf("forest mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{5}, f.Cycles)
}

func TestDuplicateIDsKeepFirst(t *testing.T) {
	first := comment(1, nil)
	first.Content = "first"
	second := comment(1, nil)
	second.Content = "second"

	f := Build([]models.Comment{first, second})

	require.Len(t, f.Roots, 1)
	assert.Equal(t, "first", f.Roots[0].Comment.Content)
	assert.Equal(t, []int{1}, f.Duplicates)
}

func TestEmptyInput(t *testing.T) {
	f := Build(nil)
	assert.Empty(t, f.Roots)
	assert.Empty(t, f.Flatten())
	assert.Nil(t, f.Find(1))
}

func TestDeepChainDoesNotRecurse(t *testing.T) {
	const depth = 200000
	input := make([]models.Comment, depth)
	input[0] = comment(1, nil)
	for i := 1; i < depth; i++ {
		input[i] = comment(i+1, ptr(i))
	}

	f := Build(input)

	maxDepth := 0
	f.Walk(func(_ *Node, d int) bool {
		if d > maxDepth {
			maxDepth = d
		}
		return true
	})
	assert.Equal(t, depth-1, maxDepth)
	assert.Len(t, f.Flatten(), depth)
	assert.Equal(t, depth, f.Clone().Len())
}

func TestWalkStopsEarly(t *testing.T) {
	f := Build([]models.Comment{comment(1, nil), comment(2, ptr(1)), comment(3, nil)})

	var seen []int
	f.Walk(func(n *Node, _ int) bool {
		seen = append(seen, n.Comment.ID)
		return len(seen) < 2
	})
	assert.Equal(t, []int{1, 2}, seen)
}

func TestWithContentLeavesOriginalUntouched(t *testing.T) {
	f := Build([]models.Comment{comment(1, nil), comment(2, ptr(1))})
	edited := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	next, ok := f.WithContent(2, "edited", edited)

	require.True(t, ok)
	assert.Equal(t, "c", f.Find(2).Comment.Content)
	assert.Equal(t, "edited", next.Find(2).Comment.Content)
	assert.Equal(t, edited, next.Find(2).Comment.UpdatedAt)
	if diff := cmp.Diff(shapeOf(f), shapeOf(next)); diff != "" {
		t.Fatalf("structure changed (-before +after):\n%s", diff)
	}

	same, ok := f.WithContent(99, "x", edited)
	assert.False(t, ok)
	assert.Same(t, f, same)
}
