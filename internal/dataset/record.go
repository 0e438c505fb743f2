// Package dataset defines the durable tabular dataset of pull request
// records: its row schema, CSV persistence, snapshotting, and the
// merge-and-replace reconciliation between runs.
package dataset

import "time"

// Record is one terminal-state pull request snapshot as stored in the
// dataset. Identity is (Number, Repository).
type Record struct {
	Number             int
	Repository         string
	Title              string
	Author             string
	State              string // "MERGED" or "CLOSED"
	IsDraft            bool
	CreatedAt          time.Time
	MergedAt           *time.Time
	ClosedAt           *time.Time
	DaysOpen           float64
	MonthYear          string // YYYY-MM of CreatedAt, for grouping
	HasCopilotReview   bool
	CopilotReviewCount int
	ReviewerCount      int
	Reviewers          []string
	ReviewDecision     string // "approved", "changes-requested", or ""
	FirstResponseHours *float64
	Additions          int
	Deletions          int
	ChangedFiles       int
	CommitCount        int
	CommentCount       int
	Labels             []string
	BaseBranch         string
	HeadBranch         string
	MergedBy           string
}

// Key is the composite identity of a record within the dataset
type Key struct {
	Number     int
	Repository string
}

// Key returns the record's composite identity
func (r Record) Key() Key {
	return Key{Number: r.Number, Repository: r.Repository}
}
