package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/qwwqe/morfsuite/content"
)

// SaveContent stores c with its tags and source and returns its id. Content
// already stored under the same URI is left untouched and its id returned.
func (r *Repository) SaveContent(ctx context.Context, c *content.FetchedContent) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int
	err = tx.QueryRowContext(ctx, r.rebind(
		"INSERT INTO original_content (title, date, author, abstract, body, uri, language) VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING RETURNING id"),
		c.Title, c.Date, c.Author, c.Abstract, c.Body, c.Uri, c.Language,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// content saved already
		err = tx.QueryRowContext(ctx, r.rebind("SELECT id FROM original_content WHERE uri = ?"), c.Uri).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("find content %s: %w", c.Uri, err)
		}
		c.Id = id
		return id, nil
	}
	if err != nil {
		return 0, fmt.Errorf("insert content %s: %w", c.Uri, err)
	}

	if c.CanonName != "" {
		if _, err := tx.ExecContext(ctx, r.rebind("INSERT INTO sources (name) VALUES (?) ON CONFLICT DO NOTHING"), c.CanonName); err != nil {
			return 0, fmt.Errorf("insert source: %w", err)
		}
		if _, err := tx.ExecContext(ctx, r.rebind("INSERT INTO content_to_sources (contentId, source) VALUES (?, ?) ON CONFLICT DO NOTHING"), id, c.CanonName); err != nil {
			return 0, fmt.Errorf("link source: %w", err)
		}
	}

	for _, tag := range c.Tags {
		if _, err := tx.ExecContext(ctx, r.rebind("INSERT INTO content_tags (name) VALUES (?) ON CONFLICT DO NOTHING"), tag); err != nil {
			return 0, fmt.Errorf("insert tag %q: %w", tag, err)
		}
		if _, err := tx.ExecContext(ctx, r.rebind("INSERT INTO content_to_tags (contentId, tag) VALUES (?, ?) ON CONFLICT DO NOTHING"), id, tag); err != nil {
			return 0, fmt.Errorf("link tag %q: %w", tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	c.Id = id
	r.logger.Debug("saved content", zap.Int("id", id), zap.String("uri", c.Uri))
	return id, nil
}

func (r *Repository) GetFetchedContent(ctx context.Context, id int) (*content.FetchedContent, error) {
	c := &content.FetchedContent{}
	var date, author, abstract, lang sql.NullString

	err := r.db.QueryRowContext(ctx, r.rebind(
		"SELECT id, title, date, author, abstract, body, uri, language FROM original_content WHERE id = ?"), id,
	).Scan(&c.Id, &c.Title, &date, &author, &abstract, &c.Body, &c.Uri, &lang)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrContentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get content %d: %w", id, err)
	}
	c.Date, c.Author, c.Abstract, c.Language = date.String, author.String, abstract.String, lang.String

	err = r.db.QueryRowContext(ctx, r.rebind("SELECT source FROM content_to_sources WHERE contentId = ?"), id).Scan(&c.CanonName)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get source of %d: %w", id, err)
	}

	rows, err := r.db.QueryContext(ctx, r.rebind("SELECT tag FROM content_to_tags WHERE contentId = ? ORDER BY tag"), id)
	if err != nil {
		return nil, fmt.Errorf("get tags of %d: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		c.Tags = append(c.Tags, tag)
	}
	return c, rows.Err()
}

// GetFetchedContentByTag returns every content item carrying tag, by id.
func (r *Repository) GetFetchedContentByTag(ctx context.Context, tag string) ([]*content.FetchedContent, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind("SELECT contentId FROM content_to_tags WHERE tag = ? ORDER BY contentId"), tag)
	if err != nil {
		return nil, fmt.Errorf("list content tagged %q: %w", tag, err)
	}

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan content id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list content tagged %q: %w", tag, err)
	}

	contents := make([]*content.FetchedContent, 0, len(ids))
	for _, id := range ids {
		c, err := r.GetFetchedContent(ctx, id)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, nil
}
