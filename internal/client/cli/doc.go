// Package cli provides the interactive CareLink command-line client.
//
// It wires configuration, the local database, the session and locale state
// and the API gateway, then runs a REPL next to a background connectivity
// watcher. Stored sessions and the saved language are restored on start.
//
// Key features:
//   - Register / Login / Logout / whoami
//   - Language switching (lang, toggle) with right-to-left awareness
//   - Read access to backend collections (list, get)
//   - Backend reachability and request counters (status)
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
