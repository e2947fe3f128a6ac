package cli

import (
	"context"
	"fmt"
	"strings"
)

// getStatus renders the prompt status: "(email mode lang)" with the parts
// that are known.
func (a *App) getStatus() string {
	a.mu.Lock()
	parts := make([]string, 0, 3)
	if a.userName != "" {
		parts = append(parts, a.userName)
	}
	if a.mode != "" {
		parts = append(parts, string(a.mode))
	}
	if a.pref.Language != "" {
		parts = append(parts, string(a.pref.Language))
	}
	a.mu.Unlock()

	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

// Root greets the user and runs the REPL until exit or EOF.
func (a *App) Root(ctx context.Context) {
	printlnFn(a.T("cli.welcome", nil))
	if s := a.session.Snapshot(); s.IsAuthenticated() {
		printlnFn(a.T("auth.whoami", whoamiParams(s.User)))
	}
	runREPL(ctx, a, a.getStatus, a.reader)
}
