// Package models defines the data structures shared across ragdag: search
// results, queries, ingest reports, and graph summaries.
package models

// SearchResult is a ranked hit against the store. Path is the chunk path
// relative to the store root; Content and Domain are hydrated by the
// search engine when the chunk file is readable.
type SearchResult struct {
	Path    string  `json:"path"`
	Score   float64 `json:"score"`
	Content string  `json:"content,omitempty"`
	Domain  string  `json:"domain,omitempty"`
}

// AskResult is the outcome of a retrieval-augmented question. Answer is
// nil when no LLM provider is configured; Context and Sources are always
// populated from the retrieved chunks.
type AskResult struct {
	Answer  *string  `json:"answer"`
	Context string   `json:"context"`
	Sources []string `json:"sources"`
}

// IngestReport summarizes one add run.
type IngestReport struct {
	Files   int `json:"files"`
	Chunks  int `json:"chunks"`
	Skipped int `json:"skipped"`
}
