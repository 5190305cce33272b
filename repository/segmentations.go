package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qwwqe/morfsuite/entities/corpus"
	"github.com/qwwqe/morfsuite/tokenizer"
)

// SegmentedWord is one stored word of a segmentation run.
type SegmentedWord struct {
	Position  int
	Word      string
	Segmented string
	Cost      float64
	Lexical   bool
}

// RegisterSegmentations stores the best segmentation of every word of a
// content item under a new run and returns the run id. A contentID of zero
// records a run that is not tied to stored content.
func (r *Repository) RegisterSegmentations(ctx context.Context, contentID int, lexiconName string, options tokenizer.Options, words []*corpus.Word) (string, error) {
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}

	var contentRef interface{}
	if contentID != 0 {
		contentRef = contentID
	}

	runID := uuid.NewString()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.rebind(
		"INSERT INTO segmentation_runs (id, contentId, lexicon, options, created_at) VALUES (?, ?, ?, ?, ?)"),
		runID, contentRef, lexiconName, string(optionsJSON), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, r.rebind(
		"INSERT INTO segmentations (run, position, word, segmented, cost, lexical) VALUES (?, ?, ?, ?, ?, ?)"))
	if err != nil {
		return "", fmt.Errorf("prepare segmentation insert: %w", err)
	}
	defer stmt.Close()

	for i, w := range words {
		var cost float64
		if len(w.Segmentations) > 0 {
			cost = w.Segmentations[0].Cost
		}
		if _, err := stmt.ExecContext(ctx, runID, i, w.Word, w.Best(), cost, w.Lexical); err != nil {
			return "", fmt.Errorf("insert segmentation %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("registered segmentations",
		zap.String("run", runID),
		zap.Int("content", contentID),
		zap.Int("words", len(words)),
	)
	return runID, nil
}

// GetSegmentations returns the words of a run in their original order.
func (r *Repository) GetSegmentations(ctx context.Context, runID string) ([]SegmentedWord, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		"SELECT position, word, segmented, cost, lexical FROM segmentations WHERE run = ? ORDER BY position"), runID)
	if err != nil {
		return nil, fmt.Errorf("list segmentations of %s: %w", runID, err)
	}
	defer rows.Close()

	var words []SegmentedWord
	for rows.Next() {
		var w SegmentedWord
		if err := rows.Scan(&w.Position, &w.Word, &w.Segmented, &w.Cost, &w.Lexical); err != nil {
			return nil, fmt.Errorf("scan segmentation: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// RunOptions returns the segmenter options a run was made with.
func (r *Repository) RunOptions(ctx context.Context, runID string) (tokenizer.Options, error) {
	var raw string
	var options tokenizer.Options

	err := r.db.QueryRowContext(ctx, r.rebind("SELECT options FROM segmentation_runs WHERE id = ?"), runID).Scan(&raw)
	if err == sql.ErrNoRows {
		return options, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return options, fmt.Errorf("get run %s: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return options, fmt.Errorf("unmarshal options: %w", err)
	}
	return options, nil
}
