// Package task manages background job queuing, processing, and lifecycle.
// It provides asynchronous execution of the text-processing pipelines
// (summarization, keyword extraction, JSON normalization) so LLM calls
// never block HTTP request handling, and recovers unfinished work after
// application restarts.
package task
