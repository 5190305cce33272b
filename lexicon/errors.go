package lexicon

import "fmt"

// ModelLoadError reports a model file that could not be opened or read.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load morfessor model %q: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// MalformedHeaderError reports a missing or invalid corpus statistics header,
// including statistics that would make the cost function undefined.
type MalformedHeaderError struct {
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	return "malformed morfessor model header: " + e.Reason
}
