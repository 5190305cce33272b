package tokenizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/qwwqe/morfsuite/entities/corpus"
)

// DefaultJoiner marks the split points between subwords of a segmented word.
const DefaultJoiner = "￭"

// DefaultMaxLen is the default maximum subword length in codepoints.
const DefaultMaxLen = 30

var ErrInvalidUTF8 = errors.New("tokenizer: invalid UTF-8 sequence")

type Interface interface {
	Tokenize(text string) ([]*corpus.Word, error)
}

// Options are the run parameters of a segmenter. Zero values of Beam, NBest,
// AddCount and MaxLen disable pruning, n-best output, smoothing and the
// subword length limit respectively.
type Options struct {
	Beam     int     `yaml:"beam" json:"beam"`
	NBest    int     `yaml:"nbest" json:"nbest"`
	AddCount float64 `yaml:"addcount" json:"addcount"`
	MaxLen   int     `yaml:"maxlen" json:"maxlen"`
	Joiner   string  `yaml:"joiner" json:"joiner"`
}

func DefaultOptions() Options {
	return Options{
		MaxLen: DefaultMaxLen,
		Joiner: DefaultJoiner,
	}
}

func (o Options) Validate() error {
	switch {
	case o.Beam < 0:
		return fmt.Errorf("tokenizer: beam must not be negative, got %d", o.Beam)
	case o.NBest < 0:
		return fmt.Errorf("tokenizer: nbest must not be negative, got %d", o.NBest)
	case o.MaxLen < 0:
		return fmt.Errorf("tokenizer: maxlen must not be negative, got %d", o.MaxLen)
	case math.IsNaN(o.AddCount) || math.IsInf(o.AddCount, 0) || o.AddCount < 0:
		return fmt.Errorf("tokenizer: addcount must be a non-negative number, got %v", o.AddCount)
	}
	return nil
}
