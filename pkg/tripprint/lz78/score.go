package lz78

import "sort"

// walker is the two-state scoring machine: it sits either at the root or at
// some matched node below it.
type walker struct {
	t   *Trie
	cur int32
}

// step consumes one symbol and returns the weight to multiply by. A miss
// sends the walk back to the root, where the same symbol is tried once more;
// if the root does not know it either, the symbol contributes nothing.
func (w *walker) step(sym rune) (float64, bool) {
	if next, ok := w.t.nodes[w.cur].children[sym]; ok {
		w.cur = next
		return w.t.nodes[next].weight, true
	}
	w.cur = rootID
	if next, ok := w.t.nodes[rootID].children[sym]; ok {
		w.cur = next
		return w.t.nodes[next].weight, true
	}
	return 0, false
}

// Probability scores sequence under the trie, starting from ScoreBase and
// multiplying by the weight of every matched edge. It never fails; a
// sequence sharing no symbol with the root alphabet returns ScoreBase.
func (t *Trie) Probability(sequence string) float64 {
	w := walker{t: t, cur: rootID}
	p := ScoreBase
	for _, sym := range sequence {
		if weight, ok := w.step(sym); ok {
			p *= weight
		}
	}
	return p
}

// NodeView is a read-only snapshot of one node, used by tests and reports.
type NodeView struct {
	Path       string
	LeafCount  int64
	Weight     float64
	Traversals int64
	Children   int
}

// Walk visits every node below the root in pre-order with its full path.
// Sibling order is by symbol so the visit sequence is stable.
func (t *Trie) Walk(fn func(NodeView)) {
	type frame struct {
		id   int32
		path []rune
	}
	stack := []frame{{id: rootID}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[f.id]
		if f.id != rootID {
			fn(NodeView{
				Path:       string(f.path),
				LeafCount:  n.leafCount,
				Weight:     n.weight,
				Traversals: n.traversals,
				Children:   len(n.children),
			})
		}
		syms := sortedSymbols(n.children)
		for k := len(syms) - 1; k >= 0; k-- {
			child := make([]rune, len(f.path)+1)
			copy(child, f.path)
			child[len(f.path)] = syms[k]
			stack = append(stack, frame{id: n.children[syms[k]], path: child})
		}
	}
}

// Lookup returns the node reached by following path from the root.
func (t *Trie) Lookup(path string) (NodeView, bool) {
	cur := rootID
	for _, sym := range path {
		next, ok := t.nodes[cur].children[sym]
		if !ok {
			return NodeView{}, false
		}
		cur = next
	}
	n := t.nodes[cur]
	return NodeView{
		Path:       path,
		LeafCount:  n.leafCount,
		Weight:     n.weight,
		Traversals: n.traversals,
		Children:   len(n.children),
	}, true
}

// Summary describes the shape of a trie.
type Summary struct {
	Leaves       int64
	Nodes        int
	RootChildren int
	// Descendants maps each root child symbol to the number of nodes below it.
	Descendants map[string]int
	Alphabet    string
}

// Summarize reports leaf mass, node count and per-branch sizes.
func (t *Trie) Summarize() Summary {
	root := t.nodes[rootID]
	s := Summary{
		Leaves:       root.leafCount,
		Nodes:        len(t.nodes) - 1,
		RootChildren: len(root.children),
		Descendants:  make(map[string]int, len(root.children)),
		Alphabet:     string(t.Options()),
	}
	for sym, id := range root.children {
		s.Descendants[string(sym)] = t.countDescendants(id)
	}
	return s
}

func (t *Trie) countDescendants(id int32) int {
	count := 0
	stack := []int32{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range t.nodes[cur].children {
			count++
			stack = append(stack, c)
		}
	}
	return count
}

func sortedSymbols(children map[rune]int32) []rune {
	out := make([]rune, 0, len(children))
	for r := range children {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
