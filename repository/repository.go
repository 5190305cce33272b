package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrContentNotFound = errors.New("repository: content not found")

type RepositoryOptions struct {
	Driver string
	DSN    string

	MaxOpenConns int

	RestoreRequestHistory bool
	EnableCookies         bool

	Logger *zap.Logger
}

// Repository stores lexicons, fetched content and segmentation runs in a SQL
// database. It also serves as colly's request and cookie storage.
type Repository struct {
	db      *sql.DB
	driver  string
	Options RepositoryOptions
	logger  *zap.Logger
}

// Open connects to the database and creates any missing tables.
func Open(ctx context.Context, options RepositoryOptions) (*Repository, error) {
	switch options.Driver {
	case DriverPostgres, DriverSQLite:
	case "":
		options.Driver = DriverSQLite
	default:
		return nil, fmt.Errorf("repository: unsupported driver %q", options.Driver)
	}

	db, err := sql.Open(options.Driver, options.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", options.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", options.Driver, err)
	}

	if options.Driver == DriverSQLite {
		// a single connection keeps pragmas and transactions on one handle
		db.SetMaxOpenConns(1)
	} else if options.MaxOpenConns > 0 {
		db.SetMaxOpenConns(options.MaxOpenConns)
	}

	r := &Repository{
		db:      db,
		driver:  options.Driver,
		Options: options,
		logger:  options.Logger,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	if err := r.initDatabase(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) initDatabase(ctx context.Context) error {
	serial := "SERIAL PRIMARY KEY"
	if r.driver == DriverSQLite {
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
		if _, err := r.db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			return fmt.Errorf("pragma fk: %w", err)
		}
	}

	statements := []string{
		"CREATE TABLE IF NOT EXISTS lexicons (name VARCHAR PRIMARY KEY, language VARCHAR NOT NULL, tokens BIGINT NOT NULL, boundaries BIGINT NOT NULL, weight DOUBLE PRECISION NOT NULL, entries BIGINT NOT NULL)",
		"CREATE TABLE IF NOT EXISTS lexemes (lexicon VARCHAR NOT NULL REFERENCES lexicons(name) ON DELETE CASCADE, subword VARCHAR NOT NULL, frequency BIGINT NOT NULL, UNIQUE(lexicon, subword))",

		"CREATE TABLE IF NOT EXISTS original_content (id " + serial + ", title VARCHAR NOT NULL, date VARCHAR, author VARCHAR, abstract VARCHAR, body TEXT NOT NULL, uri VARCHAR UNIQUE NOT NULL, language VARCHAR)",
		"CREATE TABLE IF NOT EXISTS sources (name VARCHAR UNIQUE NOT NULL, uri VARCHAR)",
		"CREATE TABLE IF NOT EXISTS content_tags (name VARCHAR UNIQUE NOT NULL)",
		"CREATE TABLE IF NOT EXISTS content_to_sources (contentId INTEGER REFERENCES original_content(id), source VARCHAR REFERENCES sources(name), UNIQUE(contentId, source))",
		"CREATE TABLE IF NOT EXISTS content_to_tags (contentId INTEGER REFERENCES original_content(id), tag VARCHAR REFERENCES content_tags(name), UNIQUE(contentId, tag))",

		"CREATE TABLE IF NOT EXISTS segmentation_runs (id VARCHAR PRIMARY KEY, contentId INTEGER REFERENCES original_content(id), lexicon VARCHAR NOT NULL, options TEXT NOT NULL, created_at VARCHAR NOT NULL)",
		"CREATE TABLE IF NOT EXISTS segmentations (run VARCHAR NOT NULL REFERENCES segmentation_runs(id) ON DELETE CASCADE, position INTEGER NOT NULL, word VARCHAR NOT NULL, segmented VARCHAR NOT NULL, cost DOUBLE PRECISION NOT NULL, lexical BOOLEAN NOT NULL, PRIMARY KEY(run, position))",
	}

	if !r.Options.RestoreRequestHistory {
		statements = append(statements, "DROP TABLE IF EXISTS request_history")
	}
	statements = append(statements,
		"CREATE TABLE IF NOT EXISTS request_history (requestId VARCHAR)",
		"CREATE UNIQUE INDEX IF NOT EXISTS requestId_idx ON request_history(requestId)",
	)

	if !r.Options.RestoreRequestHistory {
		statements = append(statements, "DROP TABLE IF EXISTS cookie_history")
	}
	statements = append(statements,
		"CREATE TABLE IF NOT EXISTS cookie_history (host VARCHAR, cookies VARCHAR)",
		"CREATE UNIQUE INDEX IF NOT EXISTS host_idx ON cookie_history(host)",
	)

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders into the $n form PostgreSQL expects.
func (r *Repository) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
