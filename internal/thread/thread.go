// Package thread turns the flat, parent-referencing comment list of a post
// into an ordered discussion forest.
//
// Ordering is stable: roots and siblings keep the order in which the comments
// were supplied. Comments whose parent is missing from the input (orphans) are
// promoted to the root level at their supplied position. Comments that sit on
// a parent cycle cannot be reached from any root; the builder breaks each cycle
// at its earliest-supplied member and promotes that member to the root level.
// Both anomalies are reported on the Forest so callers can surface them.
//
// Nothing in this package recurses: attach, reachability and every traversal
// run on explicit stacks, so depth is bounded only by memory.
package thread

import (
	"time"

	"github.com/emilythestrangee/newsboard/internal/models"
)

type Node struct {
	Comment  models.Comment `json:"comment"`
	Children []*Node        `json:"children"`

	parent *Node
	pos    int
	root   bool
}

// Forest is the result of Build. A published Forest is never mutated; use
// WithContent to derive an edited copy.
type Forest struct {
	Roots []*Node `json:"roots"`

	// Orphans lists comments whose parent was not in the input.
	Orphans []int `json:"orphans,omitempty"`
	// Cycles lists comments detached from their parent to break a cycle.
	Cycles []int `json:"cycles,omitempty"`
	// Duplicates lists repeated IDs; only the first occurrence is kept.
	Duplicates []int `json:"duplicates,omitempty"`

	index map[int]*Node
}

// Build constructs the forest in O(n).
func Build(comments []models.Comment) *Forest {
	f := &Forest{index: make(map[int]*Node, len(comments))}
	order := make([]*Node, 0, len(comments))

	for _, c := range comments {
		if _, exists := f.index[c.ID]; exists {
			f.Duplicates = append(f.Duplicates, c.ID)
			continue
		}
		n := &Node{Comment: c, pos: len(order)}
		f.index[c.ID] = n
		order = append(order, n)
	}

	for _, n := range order {
		if n.Comment.ParentID == nil {
			n.root = true
			continue
		}
		parent, ok := f.index[*n.Comment.ParentID]
		if !ok {
			n.root = true
			f.Orphans = append(f.Orphans, n.Comment.ID)
			continue
		}
		n.parent = parent
		parent.Children = append(parent.Children, n)
	}

	visited := make(map[*Node]bool, len(order))
	for _, n := range order {
		if n.root {
			mark(n, visited)
		}
	}
	for _, n := range order {
		if visited[n] {
			continue
		}
		head := breakCycle(n)
		f.Cycles = append(f.Cycles, head.Comment.ID)
		mark(head, visited)
	}

	for _, n := range order {
		if n.root {
			f.Roots = append(f.Roots, n)
		}
	}
	return f
}

// breakCycle finds the parent cycle above n, detaches its earliest-supplied
// member from its parent and returns that member as a new root.
func breakCycle(n *Node) *Node {
	seen := make(map[*Node]bool)
	cur := n
	for !seen[cur] {
		seen[cur] = true
		cur = cur.parent
	}

	head := cur
	for m := cur.parent; m != cur; m = m.parent {
		if m.pos < head.pos {
			head = m
		}
	}

	siblings := head.parent.Children
	for i, child := range siblings {
		if child == head {
			head.parent.Children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	head.parent = nil
	head.root = true
	return head
}

func mark(start *Node, visited map[*Node]bool) {
	stack := []*Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, n.Children...)
	}
}

// Walk visits every node in pre-order with its depth (roots are depth 0).
// Returning false from fn stops the walk.
func (f *Forest) Walk(fn func(n *Node, depth int) bool) {
	if f == nil {
		return
	}
	type frame struct {
		node  *Node
		depth int
	}
	stack := make([]frame, 0, len(f.Roots))
	for i := len(f.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{f.Roots[i], 0})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(top.node, top.depth) {
			return
		}
		for i := len(top.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{top.node.Children[i], top.depth + 1})
		}
	}
}

// Flatten returns the comments in pre-order.
func (f *Forest) Flatten() []models.Comment {
	out := make([]models.Comment, 0, len(f.index))
	f.Walk(func(n *Node, _ int) bool {
		out = append(out, n.Comment)
		return true
	})
	return out
}

// Find returns the node for a comment ID, or nil.
func (f *Forest) Find(id int) *Node {
	if f == nil {
		return nil
	}
	return f.index[id]
}

// Len is the number of distinct comments in the forest.
func (f *Forest) Len() int {
	if f == nil {
		return 0
	}
	return len(f.index)
}

// Clone deep-copies the forest structure. Comments are copied by value.
func (f *Forest) Clone() *Forest {
	out := &Forest{
		Orphans:    append([]int(nil), f.Orphans...),
		Cycles:     append([]int(nil), f.Cycles...),
		Duplicates: append([]int(nil), f.Duplicates...),
		index:      make(map[int]*Node, len(f.index)),
		Roots:      make([]*Node, len(f.Roots)),
	}

	type pair struct{ src, dst *Node }
	stack := make([]pair, 0, len(f.Roots))
	for i, r := range f.Roots {
		out.Roots[i] = copyNode(r, nil)
		stack = append(stack, pair{r, out.Roots[i]})
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.index[p.dst.Comment.ID] = p.dst
		if len(p.src.Children) == 0 {
			continue
		}
		p.dst.Children = make([]*Node, len(p.src.Children))
		for i, c := range p.src.Children {
			p.dst.Children[i] = copyNode(c, p.dst)
			stack = append(stack, pair{c, p.dst.Children[i]})
		}
	}
	return out
}

func copyNode(n, parent *Node) *Node {
	return &Node{Comment: n.Comment, parent: parent, pos: n.pos, root: n.root}
}

// WithContent returns a copy of the forest in which only the content of the
// given comment differs. It reports false when the comment is not present.
func (f *Forest) WithContent(id int, content string, updatedAt time.Time) (*Forest, bool) {
	if f.Find(id) == nil {
		return f, false
	}
	out := f.Clone()
	n := out.index[id]
	n.Comment.Content = content
	if !updatedAt.IsZero() {
		n.Comment.UpdatedAt = updatedAt
	}
	return out, true
}
