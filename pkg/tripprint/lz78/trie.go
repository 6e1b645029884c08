// Package lz78 implements the per-entity sequence trie: an LZ78 parse tree
// grown from a symbol corpus, the leaf-count weight model over it and the
// sequence scoring walk.
package lz78

import "sort"

// ScoreBase is the initial accumulator of Probability. Keeping it well above
// 1 lets long sequences stay representable; every calibrated threshold is
// expressed on this scale.
const ScoreBase = 10000.0

// rootID is the arena index of the root node.
const rootID int32 = 0

// node is one distinct prefix reached while parsing.
type node struct {
	parent   int32
	children map[rune]int32

	leafCount  int64
	weight     float64
	traversals int64 // times this node was walked during insertion
}

// Trie is an LZ78 parse tree stored as an arena of nodes indexed by id.
// The zero value is not usable; call New.
type Trie struct {
	nodes   []node
	options map[rune]struct{}
}

// New creates an empty trie containing only the root.
func New() *Trie {
	return &Trie{
		nodes:   []node{{parent: -1, leafCount: 1}},
		options: make(map[rune]struct{}),
	}
}

// Build re-parses the whole corpus against the current trie using greedy
// longest match, inserting one node for each segment that ends on an
// unmatched symbol. It returns the ids of the nodes it created, in creation
// order. Leaf counts are kept current during insertion; weights are
// refreshed only for the nodes whose parent mass changed.
func (t *Trie) Build(corpus string) []int32 {
	symbols := []rune(corpus)
	var created []int32
	dirty := make(map[int32]struct{})

	for i := 0; i < len(symbols); {
		cur := rootID
		j := i
		for j < len(symbols) {
			next, ok := t.nodes[cur].children[symbols[j]]
			if !ok {
				break
			}
			cur = next
			j++
		}

		end := j + 1
		if end > len(symbols) {
			// corpus exhausted inside an existing path
			end = len(symbols)
		}
		if id, ok := t.insert(symbols[i:end], dirty); ok {
			created = append(created, id)
		}
		i = j + 1
	}

	t.reweight(dirty)
	return created
}

// insert walks path from the root, creating the missing tail. It reports the
// id of the created node, if any. Every ancestor whose leaf count changed is
// recorded in dirty.
func (t *Trie) insert(path []rune, dirty map[int32]struct{}) (int32, bool) {
	cur := rootID
	var created int32
	var ok bool
	for _, sym := range path {
		next, exists := t.nodes[cur].children[sym]
		if !exists {
			if cur == rootID {
				t.options[sym] = struct{}{}
			}
			next = t.addChild(cur, sym, dirty)
			created, ok = next, true
		}
		cur = next
		t.nodes[cur].traversals++
	}
	return created, ok
}

// addChild appends a leaf under parent and propagates the leaf-count change.
// A parent that was itself a leaf keeps a count of one, so nothing above it
// moves; otherwise every ancestor gains one leaf.
func (t *Trie) addChild(parent int32, sym rune, dirty map[int32]struct{}) int32 {
	id := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{parent: parent, leafCount: 1})

	p := &t.nodes[parent]
	wasLeaf := len(p.children) == 0
	if p.children == nil {
		p.children = make(map[rune]int32)
	}
	p.children[sym] = id
	dirty[parent] = struct{}{}

	if wasLeaf {
		return id
	}
	for anc := parent; anc >= 0; anc = t.nodes[anc].parent {
		t.nodes[anc].leafCount++
		dirty[anc] = struct{}{}
	}
	return id
}

// reweight recomputes the weight of every child of the given parents.
func (t *Trie) reweight(parents map[int32]struct{}) {
	for p := range parents {
		mass := float64(t.nodes[p].leafCount)
		for _, c := range t.nodes[p].children {
			t.nodes[c].weight = float64(t.nodes[c].leafCount) / mass
		}
	}
}

// CalculateWeights recomputes leaf counts and weights for the whole tree
// from scratch: a post-order leaf-count pass followed by a pre-order weight
// pass. Both passes use an explicit stack.
func (t *Trie) CalculateWeights() {
	order := t.preorder()

	for k := len(order) - 1; k >= 0; k-- {
		n := &t.nodes[order[k]]
		if len(n.children) == 0 {
			n.leafCount = 1
			continue
		}
		var sum int64
		for _, c := range n.children {
			sum += t.nodes[c].leafCount
		}
		n.leafCount = sum
	}

	for _, id := range order {
		if id == rootID {
			continue
		}
		n := &t.nodes[id]
		n.weight = float64(n.leafCount) / float64(t.nodes[n.parent].leafCount)
	}
}

// preorder returns node ids such that every parent precedes its children.
func (t *Trie) preorder() []int32 {
	order := make([]int32, 0, len(t.nodes))
	stack := []int32{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, id)
		for _, c := range t.nodes[id].children {
			stack = append(stack, c)
		}
	}
	return order
}

// Options returns the symbols observed at the root, sorted.
func (t *Trie) Options() []rune {
	out := make([]rune, 0, len(t.options))
	for r := range t.options {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of nodes, root included.
func (t *Trie) Len() int { return len(t.nodes) }

// Leaves returns the leaf mass of the whole tree.
func (t *Trie) Leaves() int64 { return t.nodes[rootID].leafCount }
