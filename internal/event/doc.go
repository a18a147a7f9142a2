// Package event holds the canonical tour-date model and the pure logic built
// on it: date normalisation, event canonicalisation, listing assembly and
// change-set computation.
//
// An Event is a comparable value identified only by its date, name and
// address, so a Listing is a plain set and two listings are reconciled with
// set differences. Nothing in this package performs I/O except WriteReport,
// which renders a change-set to an io.Writer supplied by the caller.
package event
