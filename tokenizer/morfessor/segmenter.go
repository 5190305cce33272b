package morfessor

import (
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/qwwqe/morfsuite/entities/corpus"
	"github.com/qwwqe/morfsuite/lexicon"
	"github.com/qwwqe/morfsuite/tokenizer"
)

// Segmenter splits words into subwords of a Morfessor lexicon with a beam
// search over codepoint offsets. It holds no mutable state and may be used
// from several goroutines at once.
type Segmenter struct {
	lexicon lexicon.Lexicon
	options tokenizer.Options
	costs   *costModel
	logger  *zap.Logger
}

var _ tokenizer.Interface = (*Segmenter)(nil)

type Option func(*Segmenter)

// WithLogger makes the segmenter log a summary of every search at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Segmenter) {
		s.logger = logger
	}
}

// NewSegmenter returns a segmenter for lex. A nil options uses
// tokenizer.DefaultOptions.
func NewSegmenter(lex lexicon.Lexicon, options *tokenizer.Options, opts ...Option) *Segmenter {
	o := tokenizer.DefaultOptions()
	if options != nil {
		o = *options
	}

	s := &Segmenter{
		lexicon: lex,
		options: o,
		costs:   newCostModel(lex, o.AddCount),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Segmenter) Options() tokenizer.Options {
	return s.options
}

// Segment returns the best segmentations of word in ascending cost order:
// up to NBest of them, or only the best one when NBest is 0. The result is
// never empty.
func (s *Segmenter) Segment(word string) []corpus.Segmentation {
	start := time.Now()
	defer func() {
		segmentDuration.Observe(time.Since(start).Seconds())
	}()
	wordsSegmented.Inc()

	runes := []rune(word)
	n := len(runes)
	if n == 0 {
		return []corpus.Segmentation{{Cost: 0, Text: ""}}
	}

	opts := s.options
	buckets := make([]bucket, n+1)
	nextID := 0
	buckets[0] = bucket{{cost: 0, id: nextID}}
	nextID++

	var bestFinal float64
	for from := 0; from < n; from++ {
		if len(buckets[from]) == 0 {
			continue
		}

		for to := from; to < n && (opts.MaxLen == 0 || to-from+1 <= opts.MaxLen); to++ {
			size := to - from + 1
			freq, isPrefix, _ := s.lexicon.GetLexemeFrequency(string(runes[from : to+1]))
			cost := s.costs.fromFrequency(freq, size, n)

			if cost.Valid {
				expanded := 0
				for _, parent := range buckets[from] {
					current := parent.cost + cost.Value

					// one-best: drop expansions already worse than the best
					// complete segmentation found so far
					if opts.NBest == 0 {
						if len(buckets[n]) > 0 && bestFinal < current {
							continue
						}
						if to+1 == n && (len(buckets[n]) == 0 || current < bestFinal) {
							bestFinal = current
						}
					}

					buckets[to+1].insert(parent.extend(current, size, nextID))
					nextID++

					expanded++
					if opts.Beam > 0 && expanded == opts.Beam {
						break
					}
				}
			}

			// Without smoothing, longer unknown spans are never valid.
			if !isPrefix && !s.costs.smoothing() {
				break
			}
		}
	}
	hypothesesCreated.Add(float64(nextID))

	limit := opts.NBest
	if limit == 0 {
		limit = 1
	}
	results := make([]corpus.Segmentation, 0, min(limit, len(buckets[n])))
	for _, h := range buckets[n] {
		if len(results) == limit {
			break
		}
		results = append(results, s.render(runes, h))
	}

	if ce := s.logger.Check(zap.DebugLevel, "segmented word"); ce != nil {
		fields := []zap.Field{
			zap.String("word", word),
			zap.Int("hypotheses", nextID),
			zap.Int("complete", len(buckets[n])),
		}
		if len(results) > 0 {
			fields = append(fields, zap.String("best", results[0].Text), zap.Float64("cost", results[0].Cost))
		}
		ce.Write(fields...)
	}
	return results
}

func (s *Segmenter) render(runes []rune, h *hypothesis) corpus.Segmentation {
	subwords := make([]string, len(h.sizes))
	from := 0
	for i, size := range h.sizes {
		subwords[i] = string(runes[from : from+size])
		from += size
	}
	return corpus.Segmentation{
		Cost:     h.cost,
		Text:     strings.Join(subwords, s.options.Joiner),
		Subwords: subwords,
	}
}

// Cost returns the cost of subword as part of a word of wordLength codepoints.
func (s *Segmenter) Cost(subword string, wordLength int) Cost {
	return s.costs.of(subword, utf8.RuneCountInString(subword), wordLength)
}

// Tokenize splits text on whitespace and segments every word.
func (s *Segmenter) Tokenize(text string) ([]*corpus.Word, error) {
	return tokenizeWith(text, s, s.lexicon)
}

type wordSegmenter interface {
	Segment(word string) []corpus.Segmentation
}

func tokenizeWith(text string, seg wordSegmenter, lex lexicon.Lexicon) ([]*corpus.Word, error) {
	if !utf8.ValidString(text) {
		return nil, tokenizer.ErrInvalidUTF8
	}

	fields := strings.Fields(text)
	words := make([]*corpus.Word, 0, len(fields))
	for _, field := range fields {
		segmentations := seg.Segment(field)
		words = append(words, &corpus.Word{
			Word:          field,
			Lexical:       isLexical(segmentations, lex),
			Segmentations: segmentations,
		})
	}
	return words, nil
}

func isLexical(segmentations []corpus.Segmentation, lex lexicon.Lexicon) bool {
	if len(segmentations) == 0 {
		return false
	}
	for _, subword := range segmentations[0].Subwords {
		if freq, _, _ := lex.GetLexemeFrequency(subword); freq <= 0 {
			return false
		}
	}
	return true
}
