package engine

// NodeID addresses a node inside a Tree.
type NodeID int32

const NoNode NodeID = -1

type node struct {
	move       EvaluatedCell
	parent     NodeID
	candidates []EvaluatedCell
	children   []NodeID // one slot per candidate, nil until the first child is added
}

// Tree is an arena of search nodes. Children are created lazily and cache the
// candidate ranking computed for them, so later visits and later turns reuse it.
type Tree struct {
	nodes []node
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

// Reset drops every node. The backing array is kept but zeroed so discarded
// subtrees are not retained.
func (t *Tree) Reset() {
	clear(t.nodes)
	t.nodes = t.nodes[:0]
}

// NewRoot discards every node and starts a new tree.
func (t *Tree) NewRoot(candidates []EvaluatedCell) NodeID {
	t.Reset()
	t.nodes = append(t.nodes, node{parent: NoNode, candidates: candidates})
	return 0
}

func (t *Tree) Candidates(id NodeID) []EvaluatedCell {
	return t.nodes[id].candidates
}

func (t *Tree) Move(id NodeID) EvaluatedCell {
	return t.nodes[id].move
}

func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].parent
}

func (t *Tree) Child(id NodeID, slot int) NodeID {
	children := t.nodes[id].children
	if children == nil {
		return NoNode
	}
	return children[slot]
}

// AddChild creates the node reached by playing candidate slot of parent.
func (t *Tree) AddChild(parent NodeID, slot int, candidates []EvaluatedCell) (NodeID, error) {
	if parent < 0 || int(parent) >= len(t.nodes) {
		return NoNode, invariantf("parent node %d not in tree of %d nodes", parent, len(t.nodes))
	}
	p := &t.nodes[parent]
	if slot < 0 || slot >= len(p.candidates) {
		return NoNode, invariantf("child slot %d out of range for %d candidates", slot, len(p.candidates))
	}
	if p.children == nil {
		p.children = make([]NodeID, len(p.candidates))
		for i := range p.children {
			p.children[i] = NoNode
		}
	}
	if p.children[slot] != NoNode {
		return NoNode, invariantf("child slot %d of node %d already filled", slot, parent)
	}
	children := p.children
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{move: p.candidates[slot], parent: parent, candidates: candidates})
	children[slot] = id
	return id, nil
}

// ChildByMove finds the expanded child of id whose move is c.
func (t *Tree) ChildByMove(id NodeID, c Cell) NodeID {
	for _, child := range t.nodes[id].children {
		if child != NoNode && t.nodes[child].move.Cell == c {
			return child
		}
	}
	return NoNode
}

// Promote makes id the root and compacts the arena to its subtree. Every
// other node is dropped.
func (t *Tree) Promote(id NodeID) NodeID {
	if id == NoNode {
		t.Reset()
		return NoNode
	}
	type pending struct {
		from   NodeID
		parent NodeID
		slot   int
	}
	old := t.nodes
	nodes := make([]node, 0, len(old))
	queue := []pending{{from: id, parent: NoNode}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		n := old[p.from]
		copied := node{move: n.move, parent: p.parent, candidates: n.candidates}
		if n.children != nil {
			copied.children = make([]NodeID, len(n.children))
			for i := range copied.children {
				copied.children[i] = NoNode
			}
		}
		newID := NodeID(len(nodes))
		nodes = append(nodes, copied)
		if p.parent != NoNode {
			nodes[p.parent].children[p.slot] = newID
		}
		for slot, child := range n.children {
			if child != NoNode {
				queue = append(queue, pending{from: child, parent: newID, slot: slot})
			}
		}
	}
	t.nodes = nodes
	return 0
}
