// Package queries holds the read-side projections over the review request
// event log.
//
// Every projection is a pure function over a history slice and is
// recomputed on each call. Service binds them to an events.Log and reports
// read failures as types.UnableToQueryError.
package queries
