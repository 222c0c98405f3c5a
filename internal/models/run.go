package models

import "time"

// RunStats counts what happened to posts on the way through the pipeline
type RunStats struct {
	Posts        int `json:"posts"`
	Duplicates   int `json:"duplicates"`
	Noise        int `json:"noise"`
	Unresolved   int `json:"unresolved"`   // kept but no entity found
	Unclassified int `json:"unclassified"` // entity found but no category hit
	Signals      int `json:"signals"`
	Entities     int `json:"entities"` // distinct entities with at least one signal
}

// Report is the result of one pipeline run
type Report struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at" badgerhold:"index"`
	FinishedAt time.Time           `json:"finished_at"`
	Stats      RunStats            `json:"stats"`
	Candidates []Candidate         `json:"candidates"`
	Verified   []VerifiedCandidate `json:"verified"`
	Rejected   []VerifiedCandidate `json:"rejected"`
}

// MentionSnapshot is the per-entity mention count of one run, used to
// compute momentum against the next run
type MentionSnapshot struct {
	RunID    string         `json:"run_id"`
	TakenAt  time.Time      `json:"taken_at"`
	Mentions map[string]int `json:"mentions"` // code -> mention count
}
