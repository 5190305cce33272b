package lexicon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	countSeparator  = " "
	headerSeparator = ";"
	directiveTag    = "#"
)

// Load reads a Morfessor model file. The first line holds the corpus coding
// statistics as "tokens;boundaries;weight". Lines of the form "#name value"
// override those statistics. Every other line is a lexicon entry
// "frequency subword", or just "subword" with an implicit frequency of 1.
func Load(path string, opts ...ModelOption) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}
	defer file.Close()

	m, err := Parse(file, opts...)
	if err != nil {
		var headerErr *MalformedHeaderError
		if errors.As(err, &headerErr) {
			return nil, err
		}
		return nil, &ModelLoadError{Path: path, Err: err}
	}
	return m, nil
}

// Parse reads a Morfessor model in the format described at Load.
func Parse(r io.Reader, opts ...ModelOption) (*Model, error) {
	m := newModel(opts)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, &MalformedHeaderError{Reason: "missing corpus statistics (first line)"}
	}
	header := strings.TrimSuffix(scanner.Text(), "\r")
	fields := strings.Split(header, headerSeparator)
	if header == "" || len(fields) != 3 {
		return nil, &MalformedHeaderError{
			Reason: fmt.Sprintf("expected 3 %q separated fields in first line, got %q", headerSeparator, header),
		}
	}

	stats := Statistics{
		CorpusTokens:     parseLeadingInt(fields[0]),
		CorpusBoundaries: parseLeadingInt(fields[1]),
		CorpusWeight:     parseLeadingFloat(fields[2]),
	}

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if strings.HasPrefix(line, directiveTag) {
			name, value := splitDirective(line[len(directiveTag):])
			switch name {
			case "corpus_coding.tokens":
				stats.CorpusTokens = parseLeadingInt(value)
			case "corpus_coding.boundaries":
				stats.CorpusBoundaries = parseLeadingInt(value)
			case "corpus_coding.weight":
				stats.CorpusWeight = parseLeadingFloat(value)
			}
			continue
		}

		freq, subword := 1, line
		if pos := strings.Index(line, countSeparator); pos >= 0 {
			freq = parseLeadingInt(line[:pos])
			subword = line[pos+len(countSeparator):]
		}
		m.trie.AddLexeme(subword, freq)
		stats.LexiconEntries++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	if err := stats.validate(); err != nil {
		return nil, err
	}
	m.stats = stats
	return m, nil
}

// splitDirective splits "name value". Without a separator the whole string is
// the name and the value is empty.
func splitDirective(s string) (name, value string) {
	pos := strings.Index(s, countSeparator)
	if pos < 0 {
		return s, ""
	}
	return s[:pos], s[pos+len(countSeparator):]
}

// parseLeadingInt reads the integer at the start of s, ignoring leading
// whitespace and anything after the digits. It returns 0 when s does not start
// with a number.
func parseLeadingInt(s string) int {
	s = strings.TrimLeft(s, " \t")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// parseLeadingFloat is the floating point counterpart of parseLeadingInt.
func parseLeadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	mantissa := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		mantissa++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			mantissa++
		}
	}
	if mantissa == 0 {
		return 0
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		expDigits := exp
		for exp < len(s) && s[exp] >= '0' && s[exp] <= '9' {
			exp++
		}
		if exp > expDigits {
			end = exp
		}
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}
