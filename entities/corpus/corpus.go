package corpus

type Corpus struct {
	Name     string
	Language string
	Words    []*Word
}

// Word is a whitespace delimited word and its candidate segmentations,
// lowest cost first.
type Word struct {
	Word          string
	Lexical       bool // every subword of the best segmentation is in the lexicon
	Segmentations []Segmentation
}

// Segmentation is one way to split a word into subwords.
type Segmentation struct {
	Cost     float64
	Text     string // subwords joined with the joiner
	Subwords []string
}

// Best returns the text of the lowest cost segmentation, or the word itself
// when it has none.
func (w *Word) Best() string {
	if len(w.Segmentations) == 0 {
		return w.Word
	}
	return w.Segmentations[0].Text
}
