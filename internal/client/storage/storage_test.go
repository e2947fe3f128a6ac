package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func openBacking(t *testing.T, opts ...Option) *Backing {
	t.Helper()
	b, err := Open(context.Background(), filepath.Join(t.TempDir(), "carelink.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestLocalStore_ReadWriteRemove(t *testing.T) {
	b := openBacking(t)
	s := b.Local()
	ctx := context.Background()

	_, ok, err := s.Read(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok, "missing key is absent, not an error")

	require.NoError(t, s.Write(ctx, KeyToken, "abc"))
	require.NoError(t, s.Write(ctx, KeyToken, "def"))

	v, ok, err := s.Read(ctx, KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "def", v)

	require.NoError(t, s.Remove(ctx, KeyToken))
	require.NoError(t, s.Remove(ctx, KeyToken), "remove is idempotent")

	_, ok, err = s.Read(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStore_ErrorsWrapKey(t *testing.T) {
	b := openBacking(t)
	require.NoError(t, b.Close())

	_, _, err := b.Local().Read(context.Background(), KeyUser)
	require.ErrorContains(t, err, "failed to read local_storage[user]")

	err = b.Local().Write(context.Background(), KeyUser, "{}")
	require.ErrorContains(t, err, "failed to write local_storage[user]")
}

func TestReadJSON_SelfHeals(t *testing.T) {
	b := openBacking(t)
	s := b.Local()
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, KeyUser, "{not json"))

	var v map[string]any
	ok, err := ReadJSON(ctx, s, KeyUser, &v)
	require.NoError(t, err)
	assert.False(t, ok)

	_, present, err := s.Read(ctx, KeyUser)
	require.NoError(t, err)
	assert.False(t, present, "corrupt entry must be removed")
}

func TestReadWriteJSON_RoundTrip(t *testing.T) {
	b := openBacking(t)
	s := b.Local()
	ctx := context.Background()

	type rec struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, WriteJSON(ctx, s, KeyUser, rec{ID: 7, Name: "Layla"}))

	var got rec
	ok, err := ReadJSON(ctx, s, KeyUser, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec{ID: 7, Name: "Layla"}, got)
}

func TestCookieStore_EncodesAndExpires(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := openBacking(t, WithClock(c.now), WithCookieMaxAge(time.Hour))
	s := b.Cookies()
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, KeyUser, `{"name":"Omar Ali"}`))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, url.QueryEscape(`{"name":"Omar Ali"}`), list[0].Value)
	assert.Equal(t, "/", list[0].Path)
	assert.Equal(t, c.t.Add(time.Hour).Unix(), list[0].Expires.Unix())

	v, ok, err := s.Read(ctx, KeyUser)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"name":"Omar Ali"}`, v)

	c.t = c.t.Add(time.Hour)
	_, ok, err = s.Read(ctx, KeyUser)
	require.NoError(t, err)
	assert.False(t, ok, "expired cookie reads as absent")

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCookieStore_SetFromServer(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := openBacking(t, WithClock(c.now))
	s := b.Cookies()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, &http.Cookie{Name: "sid", Value: "s1", MaxAge: 60}))
	require.NoError(t, s.Set(ctx, &http.Cookie{Name: "pref", Value: "x", Path: "/api"}))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "pref", list[0].Name)
	assert.Equal(t, "/api", list[0].Path)
	assert.True(t, list[0].Expires.IsZero(), "session cookie has no expiry")

	require.NoError(t, s.Set(ctx, &http.Cookie{Name: "sid", MaxAge: -1}))
	require.NoError(t, s.Set(ctx, &http.Cookie{Name: "pref", Expires: c.t.Add(-time.Minute)}))

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAtomically_WritesBothOrNeither(t *testing.T) {
	b := openBacking(t)
	ctx := context.Background()

	err := b.Atomically(ctx, func(local, cookies Store) error {
		if err := local.Write(ctx, KeyToken, "t1"); err != nil {
			return err
		}
		return cookies.Write(ctx, KeyToken, "t1")
	})
	require.NoError(t, err)

	v, ok, err := b.Local().Read(ctx, KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "t1", v)
	v, ok, err = b.Cookies().Read(ctx, KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "t1", v)

	boom := errors.New("mirror failed")
	err = b.Atomically(ctx, func(local, cookies Store) error {
		if err := local.Write(ctx, KeyToken, "t2"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	v, _, err = b.Local().Read(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "t1", v, "failed dual write must not leave a partial update")
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "twice.db")
	ctx := context.Background()

	b, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, b.Local().Write(ctx, KeyLanguage, "en"))
	require.NoError(t, b.Close())

	b, err = Open(ctx, dsn)
	require.NoError(t, err)
	defer b.Close()

	v, ok, err := b.Local().Read(ctx, KeyLanguage)
	require.NoError(t, err)
	require.True(t, ok, "local store survives a restart")
	assert.Equal(t, "en", v)
}

func TestBacking_InteractiveFlag(t *testing.T) {
	assert.True(t, openBacking(t).Interactive())
	assert.False(t, openBacking(t, NonInteractive()).Interactive())
}

func TestJar_SendsMirrorToOriginOnly(t *testing.T) {
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(KeyUser); err == nil {
			gotUser, _ = url.QueryUnescape(c.Value)
		}
		http.SetCookie(w, &http.Cookie{Name: "server_set", Value: "1", Path: "/", MaxAge: 60})
	}))
	defer srv.Close()

	b := openBacking(t)
	ctx := context.Background()
	require.NoError(t, b.Cookies().Write(ctx, KeyUser, `{"role":"doctor"}`))

	jar, err := b.Jar(srv.URL)
	require.NoError(t, err)

	client := &http.Client{Jar: jar}
	resp, err := client.Get(srv.URL + "/doctor/home")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, `{"role":"doctor"}`, gotUser)

	v, ok, err := b.Cookies().Read(ctx, "server_set")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	other, err := url.Parse("http://elsewhere.example/")
	require.NoError(t, err)
	assert.Nil(t, jar.Cookies(other))
}

func TestJar_RejectsOriginWithoutHost(t *testing.T) {
	b := openBacking(t)
	_, err := b.Jar("/relative")
	require.Error(t, err)
}

func TestPathMatch(t *testing.T) {
	assert.True(t, pathMatch("/", "/anything"))
	assert.True(t, pathMatch("/api", "/api"))
	assert.True(t, pathMatch("/api", "/api/doctors"))
	assert.True(t, pathMatch("/api/", "/api/doctors"))
	assert.False(t, pathMatch("/api", "/apix"))
	assert.False(t, pathMatch("/api", "/"))
}

func TestOpen_CreatesDatabaseDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "state", "carelink.db")

	b, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = os.Stat(dsn)
	require.NoError(t, err)
}
