package lexicon

// Lexicon is a read-only subword frequency table together with the corpus
// coding statistics the segmentation cost is derived from.
type Lexicon interface {
	GetLexemeFrequency(lexeme string) (frequency int, isPrefix bool, exists bool)
	Statistics() Statistics
	// NumEntries is the number of lexicon lines the model was built from.
	NumEntries() int
	Name() string
	Language() string
}

// Statistics are the corpus-level counts of a Morfessor model.
type Statistics struct {
	CorpusTokens     int     // corpus_coding.tokens
	CorpusBoundaries int     // corpus_coding.boundaries
	CorpusWeight     float64 // corpus_coding.weight
	LexiconEntries   int     // lexicon lines consumed, duplicates included
}

// Entry is a single subword and its (merged) frequency.
type Entry struct {
	Subword   string
	Frequency int
}
