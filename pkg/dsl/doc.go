// Package dsl provides a fluent builder for constructing visual graph
// documents in code. Templates normally come from the editor's JSON export;
// the builder exists for tests and embedding hosts that want to assemble a
// pipeline without an editor round-trip.
package dsl
