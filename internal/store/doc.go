// Package store holds the persistence primitives shared by storage
// implementations: the DBTX interface satisfied by *sql.DB and *sql.Tx,
// the common storage error sentinels, and the transaction helper used to
// run multi-statement writes atomically.
package store
