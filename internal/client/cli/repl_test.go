package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/carelink/internal/client/gateway"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  [][]string
	err   error
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) T(key string, params map[string]string) string {
	if cmd, ok := params["cmd"]; ok {
		return key + ":" + cmd
	}
	return key
}
func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return f.err
}
func (f *fakeExec) Register(context.Context) error { return f.record("register", nil) }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) WhoAmI(context.Context) error                 { return f.record("whoami", nil) }
func (f *fakeExec) Profile(_ context.Context, args []string) error { return f.record("profile", args) }
func (f *fakeExec) Lang(_ context.Context, args []string) error { return f.record("lang", args) }
func (f *fakeExec) Toggle(context.Context) error                 { return f.record("toggle", nil) }
func (f *fakeExec) List(_ context.Context, args []string) error { return f.record("list", args) }
func (f *fakeExec) Get(_ context.Context, args []string) error  { return f.record("get", args) }
func (f *fakeExec) Status(context.Context) error                 { return f.record("status", nil) }

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	out := captureOutput(t)

	input := strings.Join([]string{
		"help",
		"login",
		"help",
		"",
		"whoami",
		"profile name=Huda",
		"list appointments status=pending",
		"get doctors 4",
		"lang en",
		"toggle",
		"status",
		"foobar",
		"logout",
		"exit",
		"whoami",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{"login", "whoami", "profile", "list", "get", "lang", "toggle", "status", "logout"}, exec.calls)
	assert.Equal(t, []string{"name=Huda"}, exec.args[2])
	assert.Equal(t, []string{"appointments", "status=pending"}, exec.args[3])
	assert.Equal(t, []string{"doctors", "4"}, exec.args[4])
	assert.Equal(t, []string{"en"}, exec.args[5])

	assert.Contains(t, *out, "cli.help_anonymous")
	assert.Contains(t, *out, "cli.help_authenticated")
	assert.Contains(t, *out, "cli.unknown:foobar")
	assert.Contains(t, *out, "carelink status> ")
	assert.Equal(t, "cli.bye", (*out)[len(*out)-1])
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	captureOutput(t)
	exec := &fakeExec{}

	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("status\ntoggle")))

	assert.Equal(t, []string{"status", "toggle"}, exec.calls)
}

func TestRunREPL_ReportsErrors(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{err: &gateway.RequestError{Kind: gateway.KindAPI, Status: 403, Message: "admins only"}}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("list users\n")))
	assert.Contains(t, *out, "Error: admins only")

	exec.err = errors.New("boom")
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("status\n")))
	assert.Contains(t, *out, "Error: boom")
}
