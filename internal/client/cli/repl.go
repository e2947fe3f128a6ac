package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/carelink/internal/client/gateway"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	T(key string, params map[string]string) string

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Profile(ctx context.Context, args []string) error
	Lang(ctx context.Context, args []string) error
	Toggle(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Get(ctx context.Context, args []string) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the CareLink CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on EOF or when the user
// types "exit" or "quit".
//
//	Always:
//	  - help                 show available commands
//	  - lang [code]          show or change the language
//	  - toggle               switch to the next language
//	  - status               backend reachability and request counters
//	  - exit | quit          leave the program
//
//	Not logged in:
//	  - register, login
//
//	Logged in:
//	  - whoami               show the current user
//	  - profile [k=v...]     update name or avatar
//	  - list <res> [k=v...]  list a backend collection
//	  - get <res> <id>       show one record
//	  - logout
//
// Handler errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("carelink %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		eof := err != nil

		parts := strings.Fields(line)
		if len(parts) == 0 {
			if eof {
				return
			}
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(a.T("cli.help_authenticated", nil))
			} else {
				printlnFn(a.T("cli.help_anonymous", nil))
			}

		case "register":
			report(a.Register(ctx))

		case "login":
			report(a.Login(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "whoami":
			report(a.WhoAmI(ctx))

		case "profile":
			report(a.Profile(ctx, args))

		case "lang":
			report(a.Lang(ctx, args))

		case "toggle":
			report(a.Toggle(ctx))

		case "l", "list":
			report(a.List(ctx, args))

		case "get":
			report(a.Get(ctx, args))

		case "status":
			report(a.Status(ctx))

		case "exit", "quit":
			printlnFn(a.T("cli.bye", nil))
			return

		default:
			printlnFn(a.T("cli.unknown", map[string]string{"cmd": cmd}))
		}

		if eof {
			return
		}
	}
}

// report prints a failed command. API errors show the backend's message.
func report(err error) {
	if err == nil {
		return
	}
	if gateway.Status(err) != 0 {
		printlnFn("Error:", gateway.Message(err))
		return
	}
	printlnFn("Error:", err)
}
