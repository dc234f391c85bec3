// Package llm defines the boundary with the language-model inference
// backend: the unified Response type the rest of the worker consumes, the
// Client interface, and HTTP client implementations for the supported
// backends (llama.cpp and vLLM).
package llm
