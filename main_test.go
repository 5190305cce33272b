package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/qwwqe/morfsuite/config"
	"github.com/qwwqe/morfsuite/content"
)

const testModel = "45;5;1\n10 un\n20 happy\n15 ness\n"

func newTestCLI(t *testing.T, stdin string) (*cli, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	modelPath := filepath.Join(dir, "model.txt")
	if err := os.WriteFile(modelPath, []byte(testModel), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := config.Default()
	cfg.Model = modelPath
	cfg.Segmenter.Joiner = "@@"
	cfg.Database.DSN = filepath.Join(dir, "morfsuite.db")

	out := &bytes.Buffer{}
	return &cli{cfg: cfg, log: zap.NewNop(), stdin: strings.NewReader(stdin), stdout: out}, out
}

func TestSegment(t *testing.T) {
	c, out := newTestCLI(t, "unhappyness  happy\n\nun\n")

	if err := c.segment(context.Background()); err != nil {
		t.Fatalf("segment() error = %v", err)
	}
	want := "un@@happy@@ness happy\n\nun\n"
	if got := out.String(); got != want {
		t.Errorf("segment() output = %q; want %q", got, want)
	}
}

func TestSegmentNBest(t *testing.T) {
	c, out := newTestCLI(t, "unhappyness\n")
	c.cfg.Segmenter.NBest = 2

	if err := c.segment(context.Background()); err != nil {
		t.Fatalf("segment() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("segment() wrote %d lines; want 2: %q", len(lines), out.String())
	}
	if !strings.HasSuffix(lines[0], "\tun@@happy@@ness") {
		t.Errorf("segment() first candidate = %q", lines[0])
	}
}

func TestPoplexAndTokenize(t *testing.T) {
	ctx := context.Background()
	c, out := newTestCLI(t, "")

	if err := c.poplex(ctx, c.cfg.Model); err != nil {
		t.Fatalf("poplex() error = %v", err)
	}
	if !strings.Contains(out.String(), "has 3 entries") {
		t.Errorf("poplex() output = %q", out.String())
	}

	repo, err := c.openRepository(ctx)
	if err != nil {
		t.Fatalf("openRepository() error = %v", err)
	}
	if _, err := repo.SaveContent(ctx, testContent("https://example.com/1")); err != nil {
		t.Fatalf("SaveContent() error = %v", err)
	}
	if _, err := repo.SaveContent(ctx, testContent("https://example.com/2")); err != nil {
		t.Fatalf("SaveContent() error = %v", err)
	}
	repo.Close()

	// segment from the stored lexicon
	c.cfg.Model = ""
	out.Reset()
	if err := c.tokenize(ctx, "tag:news"); err != nil {
		t.Fatalf("tokenize() error = %v", err)
	}
	if got := strings.Count(out.String(), "\n"); got != 2 {
		t.Errorf("tokenize() reported %d runs; want 2: %q", got, out.String())
	}

	out.Reset()
	if err := c.tokenize(ctx, "1"); err != nil {
		t.Fatalf("tokenize(1) error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "1\t") {
		t.Errorf("tokenize(1) output = %q", out.String())
	}

	if err := c.tokenize(ctx, "one"); err == nil {
		t.Errorf("tokenize(one) error = nil; want error")
	}
}

func testContent(uri string) *content.FetchedContent {
	return &content.FetchedContent{
		Title: "unhappyness",
		Body:  "happy unhappyness",
		Uri:   uri,
		Tags:  []string{"news"},
	}
}
