// Package cli provides the interactive playerhub command-line client.
//
// It wires configuration, the local session database, the identity
// service transport and the session manager, then runs a REPL. On start
// the stored credential (if any) is verified once; a background watcher
// probes the service's health endpoint and switches between online and
// offline mode.
//
// Commands: register, login, logout, whoami, refresh, status, health, exit.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
