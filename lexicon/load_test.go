package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

const testModel = `1000;100;2.5
10 un
20 happy
15 ness
happi
`

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(testModel))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := m.CorpusTokens(); got != 1000 {
		t.Errorf("Model.CorpusTokens() = %d; want 1000", got)
	}
	if got := m.CorpusBoundaries(); got != 100 {
		t.Errorf("Model.CorpusBoundaries() = %d; want 100", got)
	}
	if got := m.CorpusWeight(); got != 2.5 {
		t.Errorf("Model.CorpusWeight() = %v; want 2.5", got)
	}
	if got := m.NumEntries(); got != 4 {
		t.Errorf("Model.NumEntries() = %d; want 4", got)
	}

	frequencies := map[string]int{
		"un":    10,
		"happy": 20,
		"ness":  15,
		"happi": 1,
		"hap":   0,
		"":      0,
	}
	for subword, want := range frequencies {
		if got := m.Frequency(subword); got != want {
			t.Errorf("Model.Frequency(%q) = %d; want %d", subword, got, want)
		}
	}
}

func TestParseMergesDuplicateEntries(t *testing.T) {
	m, err := Parse(strings.NewReader("10;5;1\n3 ness\n5 ness\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := m.Frequency("ness"); got != 8 {
		t.Errorf("Model.Frequency(\"ness\") = %d; want 8", got)
	}
	if got := m.NumEntries(); got != 2 {
		t.Errorf("Model.NumEntries() = %d; want 2", got)
	}
	if got := m.NumSubwords(); got != 1 {
		t.Errorf("Model.NumSubwords() = %d; want 1", got)
	}
}

func TestParseDirectives(t *testing.T) {
	model := "100;10;2.5\n" +
		"#corpus_coding.weight 3.0\n" +
		"#corpus_coding.tokens 200\n" +
		"#corpus_coding.boundaries 20\n" +
		"#lexicon_coding.boundaries 7\n" +
		"2 ab\n"

	m, err := Parse(strings.NewReader(model))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := m.CorpusWeight(); got != 3.0 {
		t.Errorf("Model.CorpusWeight() = %v; want 3.0", got)
	}
	if got := m.CorpusTokens(); got != 200 {
		t.Errorf("Model.CorpusTokens() = %d; want 200", got)
	}
	if got := m.CorpusBoundaries(); got != 20 {
		t.Errorf("Model.CorpusBoundaries() = %d; want 20", got)
	}
	// directives are not lexicon entries
	if got := m.NumEntries(); got != 1 {
		t.Errorf("Model.NumEntries() = %d; want 1", got)
	}
}

func TestParseCRLF(t *testing.T) {
	m, err := Parse(strings.NewReader("10;5;1.5\r\n4 ab\r\n#corpus_coding.weight 2\r\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := m.Frequency("ab"); got != 4 {
		t.Errorf("Model.Frequency(\"ab\") = %d; want 4", got)
	}
	if got := m.CorpusWeight(); got != 2 {
		t.Errorf("Model.CorpusWeight() = %v; want 2", got)
	}
}

func TestParseMalformedHeader(t *testing.T) {
	tests := []struct {
		name  string
		model string
	}{
		{"empty file", ""},
		{"empty first line", "\n1 ab\n"},
		{"two fields", "10;5\n"},
		{"four fields", "10;5;1;3\n"},
		{"zero weight", "10;5;0\n"},
		{"non numeric weight", "10;5;abc\n"},
		{"weight overridden to zero", "10;5;1\n#corpus_coding.weight 0\n"},
		{"negative tokens", "-10;5;1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(strings.NewReader(tt.model))
			if m != nil {
				t.Errorf("Parse() returned a model for %q", tt.model)
			}
			var headerErr *MalformedHeaderError
			if !errors.As(err, &headerErr) {
				t.Errorf("Parse() error = %v; want *MalformedHeaderError", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.txt")
	if err := os.WriteFile(path, []byte(testModel), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path, WithName("english"), WithLanguage(language.English))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := m.Name(); got != "english" {
		t.Errorf("Model.Name() = %q; want \"english\"", got)
	}
	if got := m.Language(); got != "en" {
		t.Errorf("Model.Language() = %q; want \"en\"", got)
	}
	if got := m.Frequency("happy"); got != 20 {
		t.Errorf("Model.Frequency(\"happy\") = %d; want 20", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")

	_, err := Load(path)
	var loadErr *ModelLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Load() error = %v; want *ModelLoadError", err)
	}
	if loadErr.Path != path {
		t.Errorf("ModelLoadError.Path = %q; want %q", loadErr.Path, path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error does not wrap os.ErrNotExist: %v", err)
	}
}

func TestFromStatistics(t *testing.T) {
	stats := Statistics{CorpusTokens: 10, CorpusBoundaries: 2, CorpusWeight: 1, LexiconEntries: 5}
	m, err := FromStatistics(stats, []Entry{{"ab", 3}, {"cd", 1}, {"ab", 2}})
	if err != nil {
		t.Fatalf("FromStatistics() error = %v", err)
	}
	if got := m.Frequency("ab"); got != 5 {
		t.Errorf("Model.Frequency(\"ab\") = %d; want 5", got)
	}
	if got := m.NumEntries(); got != 5 {
		t.Errorf("Model.NumEntries() = %d; want 5", got)
	}

	entries := m.Entries()
	if len(entries) != 2 || entries[0] != (Entry{"ab", 5}) || entries[1] != (Entry{"cd", 1}) {
		t.Errorf("Model.Entries() = %v; want [{ab 5} {cd 1}]", entries)
	}

	if _, err := FromStatistics(Statistics{CorpusWeight: 0}, nil); err == nil {
		t.Errorf("FromStatistics() with zero weight succeeded; want error")
	}
}

func TestParseLeadingNumbers(t *testing.T) {
	ints := map[string]int{"12": 12, " 7x": 7, "-3": -3, "abc": 0, "": 0, "+4": 4}
	for in, want := range ints {
		if got := parseLeadingInt(in); got != want {
			t.Errorf("parseLeadingInt(%q) = %d; want %d", in, got, want)
		}
	}

	floats := map[string]float64{"2.5": 2.5, "3": 3, "1e2": 100, "1e": 1, ".5": 0.5, "x": 0, "4.0abc": 4}
	for in, want := range floats {
		if got := parseLeadingFloat(in); got != want {
			t.Errorf("parseLeadingFloat(%q) = %v; want %v", in, got, want)
		}
	}
}
