// Package acceptance runs the Gherkin features in features/ against the
// fully wired bridge: a fake GitHub token endpoint, the real exchanger,
// the in-memory handle store, a miniredis-backed record store and the
// HTTP server.
package acceptance
