// Package cli is the QuestPath command-line surface. It wires the client
// core (HTTP client, credential store, session manager, data cache, view
// router) into an App and exposes it through cobra subcommands.
//
// The CLI renders what the core returns and holds no decision logic of its
// own: which view the user lands on, what is cached, and when tokens are
// refreshed is all decided below this package.
package cli
