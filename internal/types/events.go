package types

import "time"

// Event types emitted by the project coordinator. Payloads carry summary
// counts, never full analysis results.
const (
	EventAnalysisComplete = "analysis_complete"
	EventAnalysisError    = "analysis_error"
	EventFileUpdated      = "file_updated"
	EventFileDeleted      = "file_deleted"
	EventDocUpdated       = "doc_updated"
	EventDocDeleted       = "doc_deleted"
)

// EventPayload is the free-form data attached to a coordinator event.
type EventPayload map[string]any

// ProjectInfo is the read-only view of a registered project returned by
// list-style queries.
type ProjectInfo struct {
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	IsAnalyzing   bool      `json:"is_analyzing"`
	IsWatching    bool      `json:"is_watching"`
	FilesAnalyzed int       `json:"files_analyzed"`
	DocsFound     int       `json:"docs_found"`
	TotalSymbols  int       `json:"total_symbols"`
	LastAnalysis  time.Time `json:"last_analysis"`
}
