// Package analyzer defines the contract with the document content analyzer.
// The analyzer's internals (an external LLM pipeline) are opaque to this
// service; its result is consumed to promote a document from uploaded to
// verified.
package analyzer

import "context"

// Finding is one observation the analyzer made about a document.
type Finding struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Result is the analyzer's verdict for one document version.
type Result struct {
	Score    int       `json:"score"`  // 0-100 confidence the doc satisfies its requirement
	Status   string    `json:"status"` // "verified" or "rejected"
	Findings []Finding `json:"findings,omitempty"`
}

// Verified reports whether the verdict upgrades the document.
func (r Result) Verified() bool {
	return r.Status == "verified"
}

// Analyzer inspects a document's content.
type Analyzer interface {
	Analyze(ctx context.Context, fileKey string) (Result, error)
}
