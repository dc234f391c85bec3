// Package main implements the entry point for the text processing worker,
// which accepts summarize, keywords, and normalize tasks over HTTP and
// processes them asynchronously against an LLM backend.
package main

import (
	"log"
)

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	if err := app.run(); err != nil {
		log.Fatalf("Application exited with error: %v", err)
	}
}
