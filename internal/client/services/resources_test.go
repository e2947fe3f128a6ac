package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dmitrijs2005/carelink/internal/client/gateway"
	"github.com/dmitrijs2005/carelink/internal/client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	uri    string
	body   string
}

func newBackend(t *testing.T, status int, payload string) (*gateway.Gateway, *[]recorded) {
	t.Helper()
	var got []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = append(got, recorded{method: r.Method, uri: r.URL.RequestURI(), body: string(b)})
		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, payload)
	}))
	t.Cleanup(srv.Close)

	g, err := gateway.New(srv.URL+"/api", session.New(nil, nil))
	require.NoError(t, err)
	return g, &got
}

func TestResourceService_CRUD(t *testing.T) {
	g, got := newBackend(t, http.StatusOK, `{"data":[{"id":1}]}`)
	svc := NewResourceService(g)
	ctx := context.Background()

	raw, err := svc.List(ctx, "appointments", url.Values{"status": {"pending"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(raw))

	_, err = svc.Get(ctx, "medical-histories", "4")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "reviews", map[string]int{"rating": 5})
	require.NoError(t, err)
	_, err = svc.Update(ctx, "patients", "a b", map[string]string{"name": "x"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "payments", "3"))

	assert.Equal(t, []recorded{
		{method: "GET", uri: "/api/appointments?status=pending"},
		{method: "GET", uri: "/api/medical-histories/4"},
		{method: "POST", uri: "/api/reviews", body: `{"rating":5}`},
		{method: "PUT", uri: "/api/patients/a%20b", body: `{"name":"x"}`},
		{method: "DELETE", uri: "/api/payments/3"},
	}, *got)
}

func TestResourceService_DeleteNoContent(t *testing.T) {
	g, _ := newBackend(t, http.StatusNoContent, "")
	require.NoError(t, NewResourceService(g).Delete(context.Background(), "notifications", "1"))
}

func TestResourceService_Rejects(t *testing.T) {
	g, got := newBackend(t, http.StatusOK, `[]`)
	svc := NewResourceService(g)
	ctx := context.Background()

	_, err := svc.List(ctx, "secrets", nil)
	require.ErrorIs(t, err, ErrUnknownResource)
	_, err = svc.Get(ctx, "doctors", "")
	require.Error(t, err)
	require.ErrorIs(t, svc.Delete(ctx, "../users", "1"), ErrUnknownResource)

	assert.Empty(t, *got)
}

func TestResourceService_PropagatesAPIError(t *testing.T) {
	g, _ := newBackend(t, http.StatusForbidden, `{"error":"admins only"}`)

	_, err := NewResourceService(g).List(context.Background(), "users", nil)
	require.ErrorIs(t, err, gateway.ErrAPI)
	assert.Equal(t, "admins only", gateway.Message(err))
}
