package repository

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strconv"

	"github.com/gocolly/colly/storage"
	"go.uber.org/zap"
)

var _ storage.Storage = (*Repository)(nil)

// Init is a no-op: the request and cookie tables are created by Open.
func (r *Repository) Init() error {
	return nil
}

func (r *Repository) Visited(requestID uint64) error {
	// database/sql does not take uint64 parameters with the high bit set
	id := strconv.FormatUint(requestID, 10)
	_, err := r.db.ExecContext(context.Background(), r.rebind(
		"INSERT INTO request_history (requestId) VALUES (?) ON CONFLICT DO NOTHING"), id)
	return err
}

func (r *Repository) IsVisited(requestID uint64) (bool, error) {
	id := strconv.FormatUint(requestID, 10)
	var dest string

	err := r.db.QueryRowContext(context.Background(), r.rebind(
		"SELECT requestId FROM request_history WHERE requestId = ?"), id).Scan(&dest)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.logger.Warn("request history lookup failed", zap.Error(err))
		return false, err
	}
	return true, nil
}

func (r *Repository) Cookies(u *url.URL) string {
	if !r.Options.EnableCookies {
		return ""
	}

	var cookies string
	err := r.db.QueryRowContext(context.Background(), r.rebind(
		"SELECT cookies FROM cookie_history WHERE host = ?"), u.Hostname()).Scan(&cookies)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.logger.Warn("cookie lookup failed", zap.String("host", u.Hostname()), zap.Error(err))
		}
		return ""
	}
	return cookies
}

func (r *Repository) SetCookies(u *url.URL, cookies string) {
	if !r.Options.EnableCookies {
		return
	}

	_, err := r.db.ExecContext(context.Background(), r.rebind(
		"INSERT INTO cookie_history (host, cookies) VALUES (?, ?) ON CONFLICT (host) DO UPDATE SET cookies = excluded.cookies"),
		u.Hostname(), cookies)
	if err != nil {
		r.logger.Warn("cookie store failed", zap.String("host", u.Hostname()), zap.Error(err))
	}
}
