package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/carelink/internal/client/migrations"
	"github.com/dmitrijs2005/carelink/internal/dbx"
	"github.com/dmitrijs2005/carelink/internal/filex"
	"github.com/dmitrijs2005/carelink/internal/logging"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Backing bundles both substrates over one database.
type Backing struct {
	db           *sql.DB
	interactive  bool
	cookieMaxAge time.Duration
	now          func() time.Time
	log          logging.Logger
}

type Option func(*Backing)

func WithCookieMaxAge(d time.Duration) Option {
	return func(b *Backing) { b.cookieMaxAge = d }
}

func WithClock(now func() time.Time) Option {
	return func(b *Backing) { b.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(b *Backing) { b.log = l }
}

// NonInteractive marks the backing as unavailable, as in a server-rendering
// pass where no client storage exists.
func NonInteractive() Option {
	return func(b *Backing) { b.interactive = false }
}

// Open opens (creating if needed) the sqlite database at dsn and migrates it.
func Open(ctx context.Context, dsn string, opts ...Option) (*Backing, error) {
	if err := filex.EnsureParentDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return New(db, opts...), nil
}

// New wraps an already migrated database.
func New(db *sql.DB, opts ...Option) *Backing {
	b := &Backing{
		db:           db,
		interactive:  true,
		cookieMaxAge: DefaultCookieMaxAge,
		now:          time.Now,
		log:          logging.NewNop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (b *Backing) Interactive() bool { return b.interactive }

func (b *Backing) Local() Store { return NewLocalStore(b.db) }

func (b *Backing) Cookies() *CookieStore {
	return NewCookieStore(b.db, b.cookieMaxAge, b.now)
}

// Atomically runs fn with both substrates bound to one transaction.
func (b *Backing) Atomically(ctx context.Context, fn func(local, cookies Store) error) error {
	return dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(NewLocalStore(tx), NewCookieStore(tx, b.cookieMaxAge, b.now))
	})
}

// Jar returns a cookie jar serving the cookie substrate to the host of origin.
func (b *Backing) Jar(origin string) (*Jar, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin %q: %w", origin, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("origin %q has no host", origin)
	}
	return &Jar{cookies: b.Cookies(), host: u.Hostname(), log: b.log}, nil
}

func (b *Backing) Close() error {
	return b.db.Close()
}
