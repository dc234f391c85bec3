// Package config loads and validates worker configuration from environment
// variables. It gives the server, database, LLM backend, worker pool, retry
// policy, and text heuristics their settings as typed structs so the rest of
// the application never touches raw environment lookups.
package config
