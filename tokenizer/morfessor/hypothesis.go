package morfessor

import (
	"slices"
	"sort"
)

// hypothesis is a partial segmentation covering the first sum(sizes)
// codepoints of a word.
type hypothesis struct {
	cost  float64
	sizes []int // subword lengths in codepoints
	id    int   // creation order, breaks cost ties
}

func (h *hypothesis) extend(cost float64, size, id int) *hypothesis {
	sizes := make([]int, len(h.sizes), len(h.sizes)+1)
	copy(sizes, h.sizes)
	return &hypothesis{
		cost:  cost,
		sizes: append(sizes, size),
		id:    id,
	}
}

// bucket holds the hypotheses ending at one codepoint offset, ordered by
// ascending cost and then by creation order.
type bucket []*hypothesis

func (b *bucket) insert(h *hypothesis) {
	hyps := *b
	i := sort.Search(len(hyps), func(i int) bool {
		if hyps[i].cost != h.cost {
			return hyps[i].cost > h.cost
		}
		return hyps[i].id > h.id
	})
	*b = slices.Insert(hyps, i, h)
}
