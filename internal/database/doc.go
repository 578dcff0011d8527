// Package database stores reference data for validity in SQLite.
//
// The only table is domain_trust, a user-maintained list of trust scores
// per domain that the domain-trust scorer consults before falling back to
// the configuration file and the placeholder constant. Evaluations are
// never written here.
//
// modernc.org/sqlite is a pure Go driver, so the database is a single file
// and builds need no cgo.
package database
