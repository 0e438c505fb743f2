package github

import "time"

// RawPR is the validated intermediate form of one pull request as returned
// by the API, before any derived fields are computed. Validation happens
// once at the client boundary so consumers never need defensive lookups.
type RawPR struct {
	Number       int
	Repository   string // owner/repo
	Title        string
	Author       string
	State        string // "MERGED" or "CLOSED"
	IsDraft      bool
	CreatedAt    time.Time
	MergedAt     *time.Time
	ClosedAt     *time.Time
	Additions    int
	Deletions    int
	ChangedFiles int
	Commits      int
	Comments     int
	Labels       []string
	BaseBranch   string
	HeadBranch   string
	MergedBy     string
	Reviews      []RawReview
}

// RawReview is one review on a pull request
type RawReview struct {
	Author      string
	State       string // "APPROVED", "CHANGES_REQUESTED", "COMMENTED", "DISMISSED"
	SubmittedAt time.Time
}

// PRRef identifies a pull request found by search, before hydration
type PRRef struct {
	Owner  string
	Repo   string
	Number int
}

// Page is one page of search results plus continuation state
type Page struct {
	Refs     []PRRef
	NextPage int  // cursor for the following page, 0 when exhausted
	HasMore  bool // false on the final page
	Total    int  // total matches reported by the search service
}

// Query describes one search call scope: an org or a single repository,
// restricted to a created-at window.
type Query struct {
	Owner string
	Repo  string // empty means the whole organization
	Start time.Time
	End   time.Time // exclusive
}
