// Package commands runs review request commands against the event log.
//
// Every command family lives in its own sub-package and provides three
// pieces: a Filter selecting the events it cares about, a Fold reducing them
// to a small State, and a pure Decide turning a State and a Command into zero
// or one new event or a business error. Handle ties them to a Log.
package commands
