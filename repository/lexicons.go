package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/qwwqe/morfsuite/lexicon"
)

var ErrLexiconNotFound = errors.New("repository: lexicon not found")

// SaveLexicon stores m under its name, replacing any lexicon of that name.
func (r *Repository) SaveLexicon(ctx context.Context, m *lexicon.Model) error {
	stats := m.Statistics()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.rebind(
		`INSERT INTO lexicons (name, language, tokens, boundaries, weight, entries) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET language = excluded.language, tokens = excluded.tokens,
		 boundaries = excluded.boundaries, weight = excluded.weight, entries = excluded.entries`),
		m.Name(), m.Language(), stats.CorpusTokens, stats.CorpusBoundaries, stats.CorpusWeight, stats.LexiconEntries,
	)
	if err != nil {
		return fmt.Errorf("save lexicon %s: %w", m.Name(), err)
	}

	if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM lexemes WHERE lexicon = ?"), m.Name()); err != nil {
		return fmt.Errorf("clear lexemes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, r.rebind("INSERT INTO lexemes (lexicon, subword, frequency) VALUES (?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("prepare lexeme insert: %w", err)
	}
	defer stmt.Close()

	entries := m.Entries()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, m.Name(), e.Subword, e.Frequency); err != nil {
			return fmt.Errorf("insert lexeme %q: %w", e.Subword, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("saved lexicon",
		zap.String("lexicon", m.Name()),
		zap.Int("subwords", len(entries)),
		zap.Int("entries", stats.LexiconEntries),
	)
	return nil
}

// LoadLexicon reads back a lexicon stored with SaveLexicon.
func (r *Repository) LoadLexicon(ctx context.Context, name string) (*lexicon.Model, error) {
	var stats lexicon.Statistics
	var lang string

	err := r.db.QueryRowContext(ctx, r.rebind(
		"SELECT language, tokens, boundaries, weight, entries FROM lexicons WHERE name = ?"), name,
	).Scan(&lang, &stats.CorpusTokens, &stats.CorpusBoundaries, &stats.CorpusWeight, &stats.LexiconEntries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLexiconNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get lexicon %s: %w", name, err)
	}

	rows, err := r.db.QueryContext(ctx, r.rebind("SELECT subword, frequency FROM lexemes WHERE lexicon = ?"), name)
	if err != nil {
		return nil, fmt.Errorf("list lexemes: %w", err)
	}
	defer rows.Close()

	var entries []lexicon.Entry
	for rows.Next() {
		var e lexicon.Entry
		if err := rows.Scan(&e.Subword, &e.Frequency); err != nil {
			return nil, fmt.Errorf("scan lexeme: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lexemes: %w", err)
	}

	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Und
	}
	return lexicon.FromStatistics(stats, entries, lexicon.WithName(name), lexicon.WithLanguage(tag))
}

// LexiconExists reports whether a lexicon called name is stored.
func (r *Repository) LexiconExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, r.rebind("SELECT COUNT(*) FROM lexicons WHERE name = ?"), name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check lexicon %s: %w", name, err)
	}
	return n > 0, nil
}
