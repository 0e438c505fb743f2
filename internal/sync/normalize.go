package sync

import (
	"math"
	"strings"
	"time"

	"github.com/alan/pr-sync/internal/dataset"
	gh "github.com/alan/pr-sync/internal/github"
)

// DefaultBotSubstring identifies the automated code reviewer among review
// authors. Matched case-insensitively as a substring so suffixed account
// variants like "copilot-pull-request-reviewer[bot]" are caught.
const DefaultBotSubstring = "copilot"

// Normalizer maps raw pull requests into dataset records
type Normalizer struct {
	BotSubstring string
}

// NewNormalizer creates a Normalizer; an empty botSubstring falls back to
// the default.
func NewNormalizer(botSubstring string) *Normalizer {
	if botSubstring == "" {
		botSubstring = DefaultBotSubstring
	}
	return &Normalizer{BotSubstring: strings.ToLower(botSubstring)}
}

// Normalize converts one raw pull request into a dataset record. It is
// pure: same input, same output, no side effects. PRs that are neither
// merged nor closed are excluded (ok=false); the dataset only ever holds
// terminal-state pull requests.
func (n *Normalizer) Normalize(raw gh.RawPR) (record dataset.Record, ok bool) {
	end := raw.MergedAt
	if end == nil {
		end = raw.ClosedAt
	}
	if end == nil {
		return dataset.Record{}, false
	}

	record = dataset.Record{
		Number:       raw.Number,
		Repository:   raw.Repository,
		Title:        raw.Title,
		Author:       raw.Author,
		State:        raw.State,
		IsDraft:      raw.IsDraft,
		CreatedAt:    raw.CreatedAt,
		MergedAt:     raw.MergedAt,
		ClosedAt:     raw.ClosedAt,
		DaysOpen:     round2(end.Sub(raw.CreatedAt).Hours() / 24),
		MonthYear:    raw.CreatedAt.UTC().Format("2006-01"),
		Additions:    raw.Additions,
		Deletions:    raw.Deletions,
		ChangedFiles: raw.ChangedFiles,
		CommitCount:  raw.Commits,
		CommentCount: raw.Comments,
		Labels:       raw.Labels,
		BaseBranch:   raw.BaseBranch,
		HeadBranch:   raw.HeadBranch,
		MergedBy:     raw.MergedBy,
	}

	n.applyReviewFields(&record, raw)

	return record, true
}

// applyReviewFields computes the review-derived columns: bot detection and
// counts, distinct human reviewers in first-seen order, time to first
// response, and the overall review decision.
func (n *Normalizer) applyReviewFields(record *dataset.Record, raw gh.RawPR) {
	var firstResponse *time.Time
	seen := make(map[string]bool)
	lastStateByReviewer := make(map[string]string)
	var reviewerOrder []string

	for _, review := range raw.Reviews {
		if firstResponse == nil || review.SubmittedAt.Before(*firstResponse) {
			t := review.SubmittedAt
			firstResponse = &t
		}

		if n.isBot(review.Author) {
			record.HasCopilotReview = true
			record.CopilotReviewCount++
			continue
		}

		if review.Author != "" && !seen[review.Author] {
			seen[review.Author] = true
			reviewerOrder = append(reviewerOrder, review.Author)
		}
		if review.Author != "" {
			lastStateByReviewer[review.Author] = review.State
		}
	}

	record.Reviewers = reviewerOrder
	record.ReviewerCount = len(reviewerOrder)

	if firstResponse != nil {
		hours := round2(firstResponse.Sub(raw.CreatedAt).Hours())
		record.FirstResponseHours = &hours
	}

	record.ReviewDecision = decideReview(lastStateByReviewer)
}

// decideReview collapses per-reviewer final states into one decision: an
// outstanding change request wins over approvals, approvals win over
// comment-only reviews, anything else is undecided.
func decideReview(lastStateByReviewer map[string]string) string {
	approved := false
	for _, state := range lastStateByReviewer {
		switch state {
		case "CHANGES_REQUESTED":
			return "changes-requested"
		case "APPROVED":
			approved = true
		}
	}
	if approved {
		return "approved"
	}
	return ""
}

func (n *Normalizer) isBot(login string) bool {
	return login != "" && strings.Contains(strings.ToLower(login), n.BotSubstring)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
