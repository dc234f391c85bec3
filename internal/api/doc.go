// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It accepts text-processing task submissions,
// answers status queries, and exposes liveness and readiness probes for the
// worker process.
package api
