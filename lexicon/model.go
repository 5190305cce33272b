package lexicon

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
)

// DefaultName is the lexicon name used when none is given.
const DefaultName = "default"

// Model is a loaded Morfessor model. It is never modified after construction
// and may be shared between goroutines.
type Model struct {
	name     string
	language language.Tag
	stats    Statistics
	trie     PrefixTrie
}

// ModelOption configures a Model at construction time.
type ModelOption func(*Model)

// WithName sets the name the model is stored under in a repository.
func WithName(name string) ModelOption {
	return func(m *Model) {
		m.name = name
	}
}

// WithLanguage sets the language of the words the model segments.
func WithLanguage(tag language.Tag) ModelOption {
	return func(m *Model) {
		m.language = tag
	}
}

func newModel(opts []ModelOption) *Model {
	m := &Model{
		name:     DefaultName,
		language: language.Und,
		trie:     NewPrefixTrie(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FromStatistics builds a model from statistics and entries that were parsed
// elsewhere, e.g. read back from a repository. Entries with the same subword
// are merged. When stats.LexiconEntries is zero the number of entries is used.
func FromStatistics(stats Statistics, entries []Entry, opts ...ModelOption) (*Model, error) {
	m := newModel(opts)
	for _, e := range entries {
		m.trie.AddLexeme(e.Subword, e.Frequency)
	}
	if stats.LexiconEntries == 0 {
		stats.LexiconEntries = len(entries)
	}
	m.stats = stats
	if err := m.stats.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (s Statistics) validate() error {
	switch {
	case s.CorpusTokens < 0:
		return &MalformedHeaderError{Reason: fmt.Sprintf("negative corpus_coding.tokens %d", s.CorpusTokens)}
	case s.CorpusBoundaries < 0:
		return &MalformedHeaderError{Reason: fmt.Sprintf("negative corpus_coding.boundaries %d", s.CorpusBoundaries)}
	case s.LexiconEntries < 0:
		return &MalformedHeaderError{Reason: fmt.Sprintf("negative lexicon entry count %d", s.LexiconEntries)}
	case math.IsNaN(s.CorpusWeight) || math.IsInf(s.CorpusWeight, 0) || s.CorpusWeight <= 0:
		return &MalformedHeaderError{Reason: fmt.Sprintf("corpus_coding.weight must be positive, got %v", s.CorpusWeight)}
	}
	return nil
}

func (m *Model) GetLexemeFrequency(lexeme string) (frequency int, isPrefix bool, exists bool) {
	return m.trie.GetFrequency(lexeme)
}

// Frequency returns the frequency of subword, 0 when it is not in the lexicon.
func (m *Model) Frequency(subword string) int {
	freq, _, exists := m.trie.GetFrequency(subword)
	if !exists || freq < 0 {
		return 0
	}
	return freq
}

func (m *Model) Statistics() Statistics {
	return m.stats
}

func (m *Model) CorpusTokens() int {
	return m.stats.CorpusTokens
}

func (m *Model) CorpusBoundaries() int {
	return m.stats.CorpusBoundaries
}

func (m *Model) CorpusWeight() float64 {
	return m.stats.CorpusWeight
}

func (m *Model) NumEntries() int {
	return m.stats.LexiconEntries
}

// NumSubwords returns the number of distinct subwords.
func (m *Model) NumSubwords() int {
	return m.trie.NumEntries()
}

func (m *Model) Name() string {
	return m.name
}

func (m *Model) Language() string {
	return m.language.String()
}

// Entries returns every subword with its merged frequency, sorted by subword.
func (m *Model) Entries() []Entry {
	entries := make([]Entry, 0, m.trie.NumEntries())
	m.trie.Each(func(lexeme string, frequency int) {
		entries = append(entries, Entry{Subword: lexeme, Frequency: frequency})
	})
	return entries
}
