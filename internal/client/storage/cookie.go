package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/carelink/internal/dbx"
)

// DefaultCookieMaxAge is the expiry window of mirrored cookies.
const DefaultCookieMaxAge = 7 * 24 * time.Hour

// CookieStore keeps cookies as they travel on the wire: values are stored
// URL-encoded, Read decodes them. Every Write is scoped to path "/" and
// expires maxAge after the write.
type CookieStore struct {
	db     dbx.DBTX
	maxAge time.Duration
	now    func() time.Time
}

func NewCookieStore(db dbx.DBTX, maxAge time.Duration, now func() time.Time) *CookieStore {
	if maxAge <= 0 {
		maxAge = DefaultCookieMaxAge
	}
	if now == nil {
		now = time.Now
	}
	return &CookieStore{db: db, maxAge: maxAge, now: now}
}

func (s *CookieStore) Read(ctx context.Context, name string) (string, bool, error) {
	var (
		raw     string
		expires int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM cookies WHERE name = ?`, name).Scan(&raw, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cookie[%s]: %w", name, err)
	}
	if s.expired(expires) {
		return "", false, s.Remove(ctx, name)
	}

	value, err := url.QueryUnescape(raw)
	if err != nil {
		return "", false, s.Remove(ctx, name)
	}
	return value, true, nil
}

func (s *CookieStore) Write(ctx context.Context, name, value string) error {
	return s.put(ctx, name, url.QueryEscape(value), "/", s.now().Add(s.maxAge).Unix())
}

func (s *CookieStore) Remove(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cookies WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to remove cookie[%s]: %w", name, err)
	}
	return nil
}

// Set stores a cookie received from a server. MaxAge takes precedence over
// Expires; a negative MaxAge or a past Expires deletes the cookie.
func (s *CookieStore) Set(ctx context.Context, c *http.Cookie) error {
	now := s.now()

	var expires int64
	switch {
	case c.MaxAge < 0:
		return s.Remove(ctx, c.Name)
	case c.MaxAge > 0:
		expires = now.Add(time.Duration(c.MaxAge) * time.Second).Unix()
	case !c.Expires.IsZero():
		if !c.Expires.After(now) {
			return s.Remove(ctx, c.Name)
		}
		expires = c.Expires.Unix()
	}

	path := c.Path
	if path == "" {
		path = "/"
	}
	return s.put(ctx, c.Name, c.Value, path, expires)
}

// List returns the live cookies with their wire values.
func (s *CookieStore) List(ctx context.Context) ([]*http.Cookie, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value, path, expires_at FROM cookies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cookies: %w", err)
	}
	defer rows.Close()

	var out []*http.Cookie
	for rows.Next() {
		var (
			c       http.Cookie
			expires int64
		)
		if err := rows.Scan(&c.Name, &c.Value, &c.Path, &expires); err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}
		if s.expired(expires) {
			continue
		}
		if expires != 0 {
			c.Expires = time.Unix(expires, 0)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cookies: %w", err)
	}
	return out, nil
}

func (s *CookieStore) put(ctx context.Context, name, value, path string, expires int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cookies (name, value, path, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, path = excluded.path, expires_at = excluded.expires_at
	`, name, value, path, expires)
	if err != nil {
		return fmt.Errorf("failed to write cookie[%s]: %w", name, err)
	}
	return nil
}

// expires == 0 marks a session cookie.
func (s *CookieStore) expired(expires int64) bool {
	return expires != 0 && s.now().Unix() >= expires
}
