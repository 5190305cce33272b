package tokenizer

import (
	"math"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if o.Joiner != DefaultJoiner {
		t.Errorf("DefaultOptions().Joiner = %q; want %q", o.Joiner, DefaultJoiner)
	}
	if o.MaxLen != 30 {
		t.Errorf("DefaultOptions().MaxLen = %d; want 30", o.MaxLen)
	}
	if o.Beam != 0 || o.NBest != 0 || o.AddCount != 0 {
		t.Errorf("DefaultOptions() = %+v; want no pruning, one-best, no smoothing", o)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("DefaultOptions().Validate() = %v; want nil", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	invalid := []Options{
		{Beam: -1},
		{NBest: -2},
		{MaxLen: -1},
		{AddCount: -0.5},
		{AddCount: math.NaN()},
		{AddCount: math.Inf(1)},
	}
	for _, o := range invalid {
		if err := o.Validate(); err == nil {
			t.Errorf("Options%+v.Validate() = nil; want error", o)
		}
	}
}
