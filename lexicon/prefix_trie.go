package lexicon

import (
	"sort"
)

// PrefixTrie stores subword frequencies keyed by rune sequence.
type PrefixTrie interface {
	// AddLexeme adds frequency to the count already stored for lexeme.
	AddLexeme(lexeme string, frequency int)
	AddLexemes(lexemes []string, frequencies []int)
	// GetFrequency returns the stored frequency (-1 when lexeme is not an entry),
	// whether some longer entry starts with lexeme, and whether lexeme is an entry.
	GetFrequency(lexeme string) (frequency int, isPrefix bool, exists bool)
	NumEntries() int
	// Each calls fn for every entry in lexical order.
	Each(fn func(lexeme string, frequency int))
}

type prefixTrie struct {
	root    *pftNode
	entries int
}

type pftNode struct {
	frequency int
	children  map[rune]*pftNode
}

func newNode() *pftNode {
	return &pftNode{
		frequency: -1,
		children:  map[rune]*pftNode{},
	}
}

func NewPrefixTrie() PrefixTrie {
	return &prefixTrie{root: newNode()}
}

func (t *prefixTrie) AddLexeme(lexeme string, frequency int) {
	t.addLexeme(lexeme, frequency)
}

func (t *prefixTrie) AddLexemes(lexemes []string, frequencies []int) {
	for i, lexeme := range lexemes {
		if i >= len(frequencies) {
			break
		}
		t.addLexeme(lexeme, frequencies[i])
	}
}

func (t *prefixTrie) GetFrequency(lexeme string) (frequency int, isPrefix bool, exists bool) {
	curNode := t.root

	for _, r := range lexeme {
		nextNode, ok := curNode.children[r]
		if !ok {
			return -1, false, false
		}
		curNode = nextNode
	}

	return curNode.frequency, len(curNode.children) > 0, curNode.frequency >= 0
}

func (t *prefixTrie) NumEntries() int {
	return t.entries
}

func (t *prefixTrie) Each(fn func(lexeme string, frequency int)) {
	t.each(t.root, nil, fn)
}

func (t *prefixTrie) each(node *pftNode, prefix []rune, fn func(string, int)) {
	if node != t.root && node.frequency >= 0 {
		fn(string(prefix), node.frequency)
	}

	keys := make([]rune, 0, len(node.children))
	for r := range node.children {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, r := range keys {
		t.each(node.children[r], append(prefix, r), fn)
	}
}

func (t *prefixTrie) addLexeme(lexeme string, frequency int) {
	if lexeme == "" {
		return
	}

	curNode := t.root
	for _, r := range lexeme {
		nextNode, ok := curNode.children[r]
		if !ok {
			nextNode = newNode()
			curNode.children[r] = nextNode
		}
		curNode = nextNode
	}

	if curNode.frequency < 0 {
		curNode.frequency = 0
		t.entries++
	}
	if frequency > 0 {
		curNode.frequency += frequency
	}
}
