package gosrc

import (
	"go/token"

	"github.com/sirkon/rbtree"

	"github.com/sirkon/covgate/internal/defs"
)

// spanIndex maps source spans of definitions to their IDs and answers
// "which definition lexically encloses this position".
type spanIndex struct {
	tree *rbtree.Tree[*defSpan]
}

func newSpanIndex() *spanIndex {
	return &spanIndex{tree: rbtree.New[*defSpan]()}
}

// defSpan stores a [start,end] span of a definition and, if needed,
// a nested RB-tree for spans fully contained in this span.
type defSpan struct {
	start token.Pos
	end   token.Pos

	def      defs.DefID
	children *rbtree.Tree[*defSpan]
}

// Cmp defines ordering for the RB-tree as "disjoint by position".
//   - return -1 if this span is strictly before other
//   - return  1 if this span is strictly after other
//   - return  0 if spans overlap in any way (including containment).
//
// Spans of Go definitions never partially overlap: two overlapping spans are
// always nested, so 0 means one contains the other.
func (n *defSpan) Cmp(other *defSpan) int {
	if n.end < other.start {
		return -1
	}
	if n.start > other.end {
		return 1
	}
	return 0
}

func contains(a, b *defSpan) bool {
	return a.start <= b.start && a.end >= b.end
}

// Innermost returns the most specific definition whose span covers pos.
func (x *spanIndex) Innermost(pos token.Pos) (defs.DefID, bool) {
	probe := &defSpan{start: pos, end: pos}
	res := x.tree.Search(probe)
	if res == nil {
		return defs.NoDefID, false
	}

	return descendSearch(res, pos), true
}

// Add registers a definition with its [start,end] span.
func (x *spanIndex) Add(def defs.DefID, start, end token.Pos) {
	attachInto(x.tree, &defSpan{start: start, end: end, def: def})
}

// attachInto inserts span s into RB-tree t:
//   - If t has no overlapping node, s is inserted as a sibling in t.
//   - If an overlapping node r exists and s contains r, r is overwritten in-place
//     with s and the old r is re-attached as a child of s.
//   - If r contains s, s goes into r.children.
func attachInto(t *rbtree.Tree[*defSpan], s *defSpan) {
	r := t.InsertReturn(s)
	if r == s {
		return
	}

	if contains(s, r) && !contains(r, s) {
		old := *r
		*r = *s

		if r.children == nil {
			r.children = rbtree.New[*defSpan]()
		}
		attachInto(r.children, &old)
		return
	}

	if contains(r, s) {
		if r.children == nil {
			r.children = rbtree.New[*defSpan]()
		}
		attachInto(r.children, s)
		return
	}

	panic("gosrc: partially overlapping definition spans")
}

func descendSearch(n *defSpan, pos token.Pos) defs.DefID {
	if n.children == nil {
		return n.def
	}

	probe := &defSpan{start: pos, end: pos}
	child := n.children.Search(probe)
	if child == nil {
		return n.def
	}

	return descendSearch(child, pos)
}
