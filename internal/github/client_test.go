package github

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchQuery(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{
			name:  "single repository",
			query: Query{Owner: "acme", Repo: "widgets", Start: start, End: end},
			want:  "repo:acme/widgets is:pr is:closed created:2026-01-01T00:00:00Z..2026-01-31T23:59:59Z",
		},
		{
			name:  "whole organization",
			query: Query{Owner: "acme", Start: start, End: end},
			want:  "org:acme is:pr is:closed created:2026-01-01T00:00:00Z..2026-01-31T23:59:59Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildSearchQuery(tt.query))
		})
	}
}

func TestSplitRepositoryURL(t *testing.T) {
	owner, repo, ok := splitRepositoryURL("https://api.github.com/repos/acme/widgets")
	require.True(t, ok)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", repo)

	_, _, ok = splitRepositoryURL("https://api.github.com/orgs/acme")
	assert.False(t, ok)

	_, _, ok = splitRepositoryURL("https://api.github.com/repos/acme")
	assert.False(t, ok)
}

func TestClassifyError(t *testing.T) {
	reset := time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)

	t.Run("rate limit", func(t *testing.T) {
		err := classifyError(&github.RateLimitError{
			Rate: github.Rate{Reset: github.Timestamp{Time: reset}},
		})

		var rl *RateLimitedError
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, reset, rl.ResetAt)
		assert.True(t, IsRateLimited(err))
	})

	t.Run("secondary rate limit", func(t *testing.T) {
		retryAfter := 30 * time.Second
		err := classifyError(&github.AbuseRateLimitError{RetryAfter: &retryAfter})
		assert.True(t, IsRateLimited(err))
	})

	t.Run("transport failure", func(t *testing.T) {
		err := classifyError(&url.Error{Op: "Get", URL: "https://api.github.com", Err: errors.New("connection refused")})

		var transient *TransientNetworkError
		assert.ErrorAs(t, err, &transient)
		assert.False(t, IsRateLimited(err))
	})

	t.Run("api error", func(t *testing.T) {
		err := classifyError(errors.New("422 Validation Failed"))

		var upstream *UpstreamError
		assert.ErrorAs(t, err, &upstream)
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, classifyError(nil))
	})
}

func TestValidatePR(t *testing.T) {
	ref := PRRef{Owner: "acme", Repo: "widgets", Number: 42}
	created := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	merged := time.Date(2026, time.January, 3, 12, 0, 0, 0, time.UTC)
	reviewedAt := time.Date(2026, time.January, 1, 6, 0, 0, 0, time.UTC)

	pr := &github.PullRequest{
		Number:       github.Int(42),
		Title:        github.String("Add widget cache"),
		User:         &github.User{Login: github.String("alice")},
		Draft:        github.Bool(false),
		CreatedAt:    &github.Timestamp{Time: created},
		MergedAt:     &github.Timestamp{Time: merged},
		ClosedAt:     &github.Timestamp{Time: merged},
		Additions:    github.Int(120),
		Deletions:    github.Int(30),
		ChangedFiles: github.Int(5),
		Commits:      github.Int(3),
		Comments:     github.Int(7),
		Labels:       []*github.Label{{Name: github.String("bug")}},
		Base:         &github.PullRequestBranch{Ref: github.String("main")},
		Head:         &github.PullRequestBranch{Ref: github.String("feature/cache")},
		MergedBy:     &github.User{Login: github.String("carol")},
	}
	reviews := []*github.PullRequestReview{
		{
			User:        &github.User{Login: github.String("copilot[bot]")},
			State:       github.String("COMMENTED"),
			SubmittedAt: &github.Timestamp{Time: reviewedAt},
		},
		{
			// Pending review draft, never submitted; must be dropped.
			User:  &github.User{Login: github.String("bob")},
			State: github.String("PENDING"),
		},
	}

	raw, err := validatePR(ref, pr, reviews)

	require.NoError(t, err)
	assert.Equal(t, 42, raw.Number)
	assert.Equal(t, "acme/widgets", raw.Repository)
	assert.Equal(t, "MERGED", raw.State)
	assert.Equal(t, "alice", raw.Author)
	require.NotNil(t, raw.MergedAt)
	assert.Equal(t, merged, *raw.MergedAt)
	assert.Equal(t, []string{"bug"}, raw.Labels)
	assert.Equal(t, "main", raw.BaseBranch)
	assert.Equal(t, "carol", raw.MergedBy)
	require.Len(t, raw.Reviews, 1)
	assert.Equal(t, "copilot[bot]", raw.Reviews[0].Author)
}

func TestValidatePR_ClosedWithoutMerge(t *testing.T) {
	ref := PRRef{Owner: "acme", Repo: "widgets", Number: 7}
	closed := time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC)

	raw, err := validatePR(ref, &github.PullRequest{
		Number:    github.Int(7),
		CreatedAt: &github.Timestamp{Time: closed.Add(-24 * time.Hour)},
		ClosedAt:  &github.Timestamp{Time: closed},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "CLOSED", raw.State)
	assert.Nil(t, raw.MergedAt)
	assert.Empty(t, raw.MergedBy, "absent merged_by stays empty, never a sentinel")
}

func TestValidatePR_RejectsMissingCreatedAt(t *testing.T) {
	ref := PRRef{Owner: "acme", Repo: "widgets", Number: 7}

	_, err := validatePR(ref, &github.PullRequest{Number: github.Int(7)}, nil)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Contains(t, err.Error(), fmt.Sprintf("%s/%s#%d", ref.Owner, ref.Repo, ref.Number))
}
