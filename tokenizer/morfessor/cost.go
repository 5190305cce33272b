package morfessor

import (
	"math"

	"github.com/qwwqe/morfsuite/lexicon"
)

// Cost is the description length of a candidate subword. A candidate that is
// not Valid can not appear in any segmentation.
type Cost struct {
	Value float64
	Valid bool
}

var invalid = Cost{}

// costModel holds the terms of the subword cost that only depend on the
// model statistics and the smoothing constant.
type costModel struct {
	lexicon  lexicon.Lexicon
	addCount float64
	tokens   int
	weight   float64
	logTotal float64
	// unknownBase is the cost of a smoothed unknown subword without its
	// length term.
	unknownBase float64
}

func newCostModel(lex lexicon.Lexicon, addCount float64) *costModel {
	stats := lex.Statistics()
	m := &costModel{
		lexicon:  lex,
		addCount: addCount,
		tokens:   stats.CorpusTokens,
		weight:   stats.CorpusWeight,
	}

	total := float64(stats.CorpusTokens) + float64(stats.CorpusBoundaries) + addCount
	if total > 0 {
		m.logTotal = math.Log(total)
	}

	if addCount > 0 {
		if stats.CorpusTokens == 0 {
			m.unknownBase = addCount * math.Log(addCount)
		} else {
			n := float64(stats.LexiconEntries)
			m.unknownBase = m.logTotal - math.Log(addCount) +
				((n+addCount)*math.Log(n+addCount)-xlogx(n))/m.weight
		}
	}
	return m
}

// xlogx is x·log(x) extended with its limit 0 at x = 0.
func xlogx(x float64) float64 {
	if x == 0 {
		return 0
	}
	return x * math.Log(x)
}

func (m *costModel) smoothing() bool {
	return m.addCount > 0
}

// of returns the cost of subword, a slice of subwordLength codepoints taken
// from a word of wordLength codepoints.
func (m *costModel) of(subword string, subwordLength, wordLength int) Cost {
	freq, _, _ := m.lexicon.GetLexemeFrequency(subword)
	return m.fromFrequency(freq, subwordLength, wordLength)
}

func (m *costModel) fromFrequency(freq, subwordLength, wordLength int) Cost {
	switch {
	case freq > 0:
		return Cost{Value: m.logTotal - math.Log(float64(freq)+m.addCount), Valid: true}
	case m.addCount > 0:
		return Cost{Value: m.unknownBase + float64(subwordLength)/m.weight, Valid: true}
	case subwordLength == 1:
		return Cost{Value: m.badLikelihood(wordLength), Valid: true}
	}
	return invalid
}

// badLikelihood is the cost of a single character missing from the lexicon.
// It exceeds the cost of any known subword so that splitting into characters
// is only ever a fallback.
func (m *costModel) badLikelihood(wordLength int) float64 {
	return float64(wordLength)*m.logTotal + 1
}
