// Package github wraps the go-github client behind the narrow paged-query
// surface the sync engine drives, translating API failures into the typed
// errors the engine's recovery policy is written against.
package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// SearchResultCap is the hard ceiling the GitHub search API imposes on any
// single query. Results beyond it are silently truncated, which is why
// fetch windows are chunked by month.
const SearchResultCap = 1000

const searchPageSize = 100

// Client wraps the GitHub API client
type Client struct {
	client *github.Client
}

// NewClient creates a new GitHub client with token authentication
func NewClient(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		client: github.NewClient(tc),
	}
}

// buildSearchQuery constructs a GitHub search query for terminal-state PRs
// created inside the chunk window. "is:closed" matches both merged and
// unmerged-closed pull requests.
func buildSearchQuery(q Query) string {
	var parts []string
	if q.Repo != "" {
		parts = append(parts, fmt.Sprintf("repo:%s/%s", q.Owner, q.Repo))
	} else {
		parts = append(parts, fmt.Sprintf("org:%s", q.Owner))
	}
	parts = append(parts, "is:pr")
	parts = append(parts, "is:closed")
	parts = append(parts, fmt.Sprintf("created:%s..%s",
		q.Start.UTC().Format(time.RFC3339),
		q.End.Add(-time.Second).UTC().Format(time.RFC3339)))

	return strings.Join(parts, " ")
}

// SearchPage issues exactly one search call. The page argument is the
// continuation cursor; pass 0 for the first page and Page.NextPage after.
func (c *Client) SearchPage(ctx context.Context, q Query, page int) (Page, error) {
	opts := &github.SearchOptions{
		Sort:  "created",
		Order: "asc",
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: searchPageSize,
		},
	}

	result, resp, err := c.client.Search.Issues(ctx, buildSearchQuery(q), opts)
	if err != nil {
		return Page{}, classifyError(err)
	}

	out := Page{
		Total:    result.GetTotal(),
		NextPage: resp.NextPage,
		HasMore:  resp.NextPage != 0,
	}

	for _, issue := range result.Issues {
		if !issue.IsPullRequest() {
			continue
		}
		owner, repo, ok := splitRepositoryURL(issue.GetRepositoryURL())
		if !ok {
			return Page{}, &UpstreamError{Err: fmt.Errorf("search result #%d has unparseable repository url %q", issue.GetNumber(), issue.GetRepositoryURL())}
		}
		out.Refs = append(out.Refs, PRRef{Owner: owner, Repo: repo, Number: issue.GetNumber()})
	}

	return out, nil
}

// splitRepositoryURL extracts owner and repo from an API repository URL,
// e.g. https://api.github.com/repos/acme/widgets -> acme, widgets
func splitRepositoryURL(repoURL string) (string, string, bool) {
	const marker = "/repos/"
	idx := strings.Index(repoURL, marker)
	if idx < 0 {
		return "", "", false
	}
	parts := strings.Split(repoURL[idx+len(marker):], "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// HydratePR fetches full details and reviews for one pull request and
// validates the payload into a RawPR.
func (c *Client) HydratePR(ctx context.Context, ref PRRef) (RawPR, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return RawPR{}, classifyError(err)
	}

	reviews, err := c.listReviews(ctx, ref)
	if err != nil {
		return RawPR{}, err
	}

	return validatePR(ref, pr, reviews)
}

// listReviews pages through all reviews on a pull request
func (c *Client) listReviews(ctx context.Context, ref PRRef) ([]*github.PullRequestReview, error) {
	opts := &github.ListOptions{PerPage: searchPageSize}

	var all []*github.PullRequestReview
	for {
		reviews, resp, err := c.client.PullRequests.ListReviews(ctx, ref.Owner, ref.Repo, ref.Number, opts)
		if err != nil {
			return nil, classifyError(err)
		}
		all = append(all, reviews...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// validatePR converts the API payload into a RawPR, rejecting records that
// are missing fields the engine cannot work without.
func validatePR(ref PRRef, pr *github.PullRequest, reviews []*github.PullRequestReview) (RawPR, error) {
	if pr.GetNumber() == 0 || pr.CreatedAt == nil || pr.CreatedAt.IsZero() {
		return RawPR{}, &UpstreamError{Err: fmt.Errorf("pull request %s/%s#%d payload is missing number or created_at", ref.Owner, ref.Repo, ref.Number)}
	}

	raw := RawPR{
		Number:       pr.GetNumber(),
		Repository:   fmt.Sprintf("%s/%s", ref.Owner, ref.Repo),
		Title:        pr.GetTitle(),
		Author:       pr.GetUser().GetLogin(),
		IsDraft:      pr.GetDraft(),
		CreatedAt:    pr.GetCreatedAt().Time,
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
		Commits:      pr.GetCommits(),
		Comments:     pr.GetComments(),
		BaseBranch:   pr.GetBase().GetRef(),
		HeadBranch:   pr.GetHead().GetRef(),
		MergedBy:     pr.GetMergedBy().GetLogin(),
	}

	if pr.MergedAt != nil && !pr.MergedAt.IsZero() {
		t := pr.MergedAt.Time
		raw.MergedAt = &t
	}
	if pr.ClosedAt != nil && !pr.ClosedAt.IsZero() {
		t := pr.ClosedAt.Time
		raw.ClosedAt = &t
	}

	if raw.MergedAt != nil {
		raw.State = "MERGED"
	} else {
		raw.State = "CLOSED"
	}

	for _, label := range pr.Labels {
		raw.Labels = append(raw.Labels, label.GetName())
	}

	for _, review := range reviews {
		// Reviews without a submission time are pending drafts; they have
		// not been given yet and carry no signal.
		if review.SubmittedAt == nil || review.SubmittedAt.IsZero() {
			continue
		}
		raw.Reviews = append(raw.Reviews, RawReview{
			Author:      review.GetUser().GetLogin(),
			State:       review.GetState(),
			SubmittedAt: review.GetSubmittedAt().Time,
		})
	}

	return raw, nil
}

// ListOrgRepos lists all repository names in an organization
func (c *Client) ListOrgRepos(ctx context.Context, owner string) ([]string, error) {
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: searchPageSize},
	}

	var names []string
	for {
		repos, resp, err := c.client.Repositories.ListByOrg(ctx, owner, opts)
		if err != nil {
			return nil, classifyError(err)
		}

		for _, repo := range repos {
			names = append(names, repo.GetName())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return names, nil
}
