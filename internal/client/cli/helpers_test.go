package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/carelink/internal/client/config"
	"github.com/dmitrijs2005/carelink/internal/client/locale"
	"github.com/dmitrijs2005/carelink/internal/client/models"
	"github.com/dmitrijs2005/carelink/internal/client/services"
	"github.com/dmitrijs2005/carelink/internal/client/session"
	"github.com/dmitrijs2005/carelink/internal/logging"
	"github.com/stretchr/testify/require"
)

// captureOutput collects everything printed through printlnFn.
func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var (
		mu  sync.Mutex
		out []string
	)
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		out = append(out, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &out
}

func stubInputs(t *testing.T, answers []string, password []byte) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		i++
		return answers[i-1], nil
	}
	getPassword = func(_ io.Writer) ([]byte, error) { return password, nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

// ---- fakes ----

type fakeAuth struct {
	session *session.Manager

	mu      sync.Mutex
	pingErr error
	pings   int

	loginUser  *models.User
	loginToken string
	loginErr   error
	lastEmail  string
	lastPass   string

	regReq   services.RegisterRequest
	regUser  *models.User
	regToken string
	regErr   error
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*models.User, error) {
	f.lastEmail, f.lastPass = email, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if err := f.session.Login(ctx, f.loginUser, f.loginToken); err != nil {
		return nil, err
	}
	return f.loginUser, nil
}

func (f *fakeAuth) Register(ctx context.Context, req services.RegisterRequest) (*models.User, error) {
	f.regReq = req
	if f.regErr != nil {
		return nil, f.regErr
	}
	if f.regToken != "" {
		if err := f.session.Login(ctx, f.regUser, f.regToken); err != nil {
			return nil, err
		}
	}
	return f.regUser, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error { return f.session.Logout(ctx) }

func (f *fakeAuth) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeAuth) setPingErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingErr = err
}

type resourceCall struct {
	op       string
	resource string
	id       string
	filters  url.Values
	body     any
}

type fakeResources struct {
	raw   string
	err   error
	calls []resourceCall
}

func (f *fakeResources) result() (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.raw), nil
}

func (f *fakeResources) List(_ context.Context, resource string, filters url.Values) (json.RawMessage, error) {
	f.calls = append(f.calls, resourceCall{op: "list", resource: resource, filters: filters})
	return f.result()
}

func (f *fakeResources) Get(_ context.Context, resource, id string) (json.RawMessage, error) {
	f.calls = append(f.calls, resourceCall{op: "get", resource: resource, id: id})
	return f.result()
}

func (f *fakeResources) Create(context.Context, string, any) (json.RawMessage, error) {
	return f.result()
}

func (f *fakeResources) Update(_ context.Context, resource, id string, body any) (json.RawMessage, error) {
	f.calls = append(f.calls, resourceCall{op: "update", resource: resource, id: id, body: body})
	return f.result()
}

func (f *fakeResources) Delete(context.Context, string, string) error { return f.err }

// newTestApp builds an App with in-memory session and locale, English active.
func newTestApp(t *testing.T) (*App, *fakeAuth, *fakeResources) {
	t.Helper()

	sess := session.New(nil, nil)
	loc, err := locale.New(locale.DefaultOptions(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, loc.ChangeLanguage(context.Background(), locale.English))

	var cfg config.Config
	cfg.LoadDefaults()

	auth := &fakeAuth{session: sess}
	res := &fakeResources{}
	a := &App{
		config:      &cfg,
		log:         logging.NewNop(),
		session:     sess,
		locale:      loc,
		authService: auth,
		resources:   res,
		mode:        ModeOffline,
		reader:      bufio.NewReader(strings.NewReader("")),
		out:         io.Discard,
	}
	sess.Subscribe(a.onSession)
	a.SetAttributes(locale.English, locale.LTR)
	return a, auth, res
}
