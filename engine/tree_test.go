package engine

import "testing"

func candidatesFor(cols ...int) []EvaluatedCell {
	out := make([]EvaluatedCell, len(cols))
	for i, col := range cols {
		out[i] = EvaluatedCell{Cell: Cell{Row: 0, Col: col}, Value: int32(len(cols) - i)}
	}
	return out
}

func TestTreeAddChildFillsSlots(t *testing.T) {
	var tree Tree
	root := tree.NewRoot(candidatesFor(0, 1, 2))
	if tree.Child(root, 1) != NoNode {
		t.Fatalf("expected unexpanded slot")
	}
	child, err := tree.AddChild(root, 1, candidatesFor(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Child(root, 1) != child || tree.Parent(child) != root {
		t.Fatalf("expected child linked at slot 1")
	}
	if tree.Move(child).Cell != (Cell{Row: 0, Col: 1}) {
		t.Fatalf("expected child move to be the slot candidate, got %v", tree.Move(child))
	}
	if tree.Child(root, 0) != NoNode || tree.Child(root, 2) != NoNode {
		t.Fatalf("expected other slots to stay empty")
	}
	if got := tree.ChildByMove(root, Cell{Row: 0, Col: 1}); got != child {
		t.Fatalf("expected lookup by move to find child, got %d", got)
	}
	if got := tree.ChildByMove(root, Cell{Row: 0, Col: 2}); got != NoNode {
		t.Fatalf("expected no child for unexpanded move, got %d", got)
	}
}

func TestTreeAddChildRejectsBadSlots(t *testing.T) {
	var tree Tree
	root := tree.NewRoot(candidatesFor(0, 1))
	if _, err := tree.AddChild(root, 2, nil); !IsInvariant(err) {
		t.Fatalf("expected invariant error for slot beyond candidates, got %v", err)
	}
	if _, err := tree.AddChild(root, -1, nil); !IsInvariant(err) {
		t.Fatalf("expected invariant error for negative slot, got %v", err)
	}
	if _, err := tree.AddChild(NodeID(7), 0, nil); !IsInvariant(err) {
		t.Fatalf("expected invariant error for unknown parent, got %v", err)
	}
	if _, err := tree.AddChild(root, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tree.AddChild(root, 0, nil); !IsInvariant(err) {
		t.Fatalf("expected invariant error for filled slot, got %v", err)
	}
	leaf := tree.Child(root, 0)
	if _, err := tree.AddChild(leaf, 0, nil); !IsInvariant(err) {
		t.Fatalf("expected invariant error for a node without candidates, got %v", err)
	}
}

func TestTreePromoteKeepsOnlySubtree(t *testing.T) {
	var tree Tree
	root := tree.NewRoot(candidatesFor(0, 1))
	left, _ := tree.AddChild(root, 0, candidatesFor(2, 3))
	right, _ := tree.AddChild(root, 1, candidatesFor(4, 5))
	if _, err := tree.AddChild(left, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	grand, _ := tree.AddChild(right, 1, candidatesFor(6))
	if _, err := tree.AddChild(grand, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newRoot := tree.Promote(right)
	if newRoot != 0 {
		t.Fatalf("expected promoted node at index 0, got %d", newRoot)
	}
	if tree.Len() != 3 {
		t.Fatalf("expected 3 nodes after promotion, got %d", tree.Len())
	}
	if tree.Parent(newRoot) != NoNode {
		t.Fatalf("expected promoted root to have no parent")
	}
	if got := tree.Candidates(newRoot); len(got) != 2 || got[1].Cell.Col != 5 {
		t.Fatalf("expected candidates preserved, got %v", got)
	}
	if tree.Child(newRoot, 0) != NoNode {
		t.Fatalf("expected empty slot preserved")
	}
	g := tree.Child(newRoot, 1)
	if g == NoNode || tree.Parent(g) != newRoot || tree.Move(g).Cell.Col != 5 {
		t.Fatalf("expected grandchild relinked under the new root")
	}
	leaf := tree.Child(g, 0)
	if leaf == NoNode || tree.Parent(leaf) != g || tree.Move(leaf).Cell.Col != 6 {
		t.Fatalf("expected leaf relinked, got %d", leaf)
	}
	if _, err := tree.AddChild(newRoot, 0, nil); err != nil {
		t.Fatalf("expected promoted tree to accept new children: %v", err)
	}
}

func TestTreePromoteNoNodeClears(t *testing.T) {
	var tree Tree
	tree.NewRoot(candidatesFor(0))
	if got := tree.Promote(NoNode); got != NoNode || tree.Len() != 0 {
		t.Fatalf("expected empty tree, got root %d len %d", got, tree.Len())
	}
}

func TestTreeResetReleasesDiscardedNodes(t *testing.T) {
	var tree Tree
	root := tree.NewRoot(candidatesFor(0, 1))
	if _, err := tree.AddChild(root, 0, candidatesFor(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	backing := tree.nodes[:2]

	tree.Reset()
	if tree.Len() != 0 {
		t.Fatalf("expected an empty tree, got %d nodes", tree.Len())
	}
	for i, n := range backing {
		if n.candidates != nil || n.children != nil {
			t.Fatalf("expected node %d to be cleared, got %+v", i, n)
		}
	}
}
