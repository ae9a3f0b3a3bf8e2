// Package llm produces structured meeting summaries from transcripts.
package llm

import "context"

// ActionItem is one task extracted from a transcript. DueDate is an ISO
// date (YYYY-MM-DD) or empty when the transcript names no deadline.
type ActionItem struct {
	Description string `json:"description"`
	AssignedTo  string `json:"assigned_to"`
	DueDate     string `json:"due_date"`
}

// SummaryResult is the structured outcome of summarizing one transcript.
type SummaryResult struct {
	SummaryText  string       `json:"summary"`
	KeyDecisions string       `json:"key_decisions"`
	ActionItems  []ActionItem `json:"action_items"`
}

// Summarizer turns a transcript into a SummaryResult.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (SummaryResult, error)
}
