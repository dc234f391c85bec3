// Package postgres implements task persistence against PostgreSQL: the
// tasks table store, mapping of driver errors to the shared storage
// sentinels, and the embedded goose migrations that manage the schema.
package postgres
