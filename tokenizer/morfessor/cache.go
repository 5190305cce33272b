package morfessor

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/qwwqe/morfsuite/entities/corpus"
	"github.com/qwwqe/morfsuite/tokenizer"
)

// DefaultCacheSize is the number of words a CachedSegmenter remembers by default.
const DefaultCacheSize = 100_000

// CachedSegmenter remembers the segmentations of recently seen words. Like
// Segmenter it is safe for concurrent use.
type CachedSegmenter struct {
	segmenter *Segmenter
	cache     *lru.Cache[string, []corpus.Segmentation]
}

// NewCachedSegmenter wraps seg with an LRU cache of size words. A size of zero
// or less uses DefaultCacheSize.
func NewCachedSegmenter(seg *Segmenter, size int) *CachedSegmenter {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes
	cache, _ := lru.New[string, []corpus.Segmentation](size)
	return &CachedSegmenter{
		segmenter: seg,
		cache:     cache,
	}
}

func (c *CachedSegmenter) Segment(word string) []corpus.Segmentation {
	if result, ok := c.cache.Get(word); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		return cloneSegmentations(result)
	}
	cacheLookups.WithLabelValues("miss").Inc()

	result := c.segmenter.Segment(word)
	c.cache.Add(word, result)
	return cloneSegmentations(result)
}

func (c *CachedSegmenter) Tokenize(text string) ([]*corpus.Word, error) {
	return tokenizeWith(text, c, c.segmenter.lexicon)
}

// Len returns the number of cached words.
func (c *CachedSegmenter) Len() int {
	return c.cache.Len()
}

func cloneSegmentations(in []corpus.Segmentation) []corpus.Segmentation {
	out := make([]corpus.Segmentation, len(in))
	for i, seg := range in {
		out[i] = seg
		out[i].Subwords = append([]string(nil), seg.Subwords...)
	}
	return out
}

var _ tokenizer.Interface = (*CachedSegmenter)(nil)
