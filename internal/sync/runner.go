package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alan/pr-sync/internal/dataset"
	gh "github.com/alan/pr-sync/internal/github"
)

// Fetcher is the paged-query surface the runner drives. Satisfied by
// *github.Client; tests substitute fakes.
type Fetcher interface {
	SearchPage(ctx context.Context, q gh.Query, page int) (gh.Page, error)
	HydratePR(ctx context.Context, ref gh.PRRef) (gh.RawPR, error)
}

// Options describes one synchronization run
type Options struct {
	Owner    string
	Repo     string // empty scans the whole organization
	Window   Window
	Merge    bool // reconcile into the existing dataset instead of replacing it
	Snapshot bool // write a dated copy of the prior dataset before mutating
}

// Summary reports what a run did
type Summary struct {
	Chunks       int
	Fetched      int
	Added        int
	Replaced     int
	SnapshotPath string
	Warnings     []string
}

// Runner executes synchronization runs against a dataset store
type Runner struct {
	Fetcher    Fetcher
	Store      *dataset.Store
	Normalizer *Normalizer
	Sleep      SleepFunc
	Now        func() time.Time
}

// NewRunner creates a Runner with production sleep and clock
func NewRunner(fetcher Fetcher, store *dataset.Store, normalizer *Normalizer) *Runner {
	return &Runner{
		Fetcher:    fetcher,
		Store:      store,
		Normalizer: normalizer,
		Sleep:      WaitSleep,
		Now:        time.Now,
	}
}

// Run performs one synchronization: plan chunks, fetch and normalize every
// chunk sequentially, then load, snapshot, merge and atomically commit the
// dataset. Any fetch failure aborts before the store is touched; commit is
// the last step, so a terminated run never leaves a partial merge behind.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	release, err := r.Store.Lock()
	if err != nil {
		return nil, err
	}
	defer release()

	now := r.Now()
	chunks := PlanChunks(opts.Window, now)
	summary := &Summary{Chunks: len(chunks)}

	slog.Info("Planned fetch chunks", "chunks", len(chunks), "owner", opts.Owner, "repo", opts.Repo)

	var batch []dataset.Record
	for _, chunk := range chunks {
		records, warning, err := r.fetchChunk(ctx, opts, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %s..%s: %w",
				chunk.Start.Format("2006-01-02"), chunk.End.Format("2006-01-02"), err)
		}
		if warning != "" {
			summary.Warnings = append(summary.Warnings, warning)
		}
		batch = append(batch, records...)
	}
	summary.Fetched = len(batch)

	existing, err := r.Store.Load()
	if err != nil {
		return nil, err
	}

	if opts.Snapshot {
		path, err := r.Store.Snapshot(existing, now)
		if err != nil {
			return nil, fmt.Errorf("snapshot failed, aborting before any mutation: %w", err)
		}
		summary.SnapshotPath = path
		slog.Info("Wrote dataset snapshot", "path", path)
	}

	var next []dataset.Record
	if opts.Merge {
		next, summary.Added, summary.Replaced = dataset.Merge(existing, batch)
	} else {
		next = batch
		summary.Added = len(batch)
	}

	if err := r.Store.Save(next); err != nil {
		return nil, err
	}

	slog.Info("Synchronization committed",
		"fetched", summary.Fetched,
		"added", summary.Added,
		"replaced", summary.Replaced,
		"rows", len(next),
		"warnings", len(summary.Warnings))

	return summary, nil
}

// fetchChunk pages through one chunk's search results, hydrating and
// normalizing each pull request. It returns a warning when the chunk looks
// truncated at the service's result cap, meaning data for it may be
// incomplete and the window should be re-fetched in smaller pieces.
func (r *Runner) fetchChunk(ctx context.Context, opts Options, chunk Chunk) ([]dataset.Record, string, error) {
	query := gh.Query{
		Owner: opts.Owner,
		Repo:  opts.Repo,
		Start: chunk.Start,
		End:   chunk.End,
	}

	slog.Debug("Fetching chunk", "start", chunk.Start, "end", chunk.End)

	var records []dataset.Record
	total := 0
	matched := 0
	cursor := 0

	for {
		var page gh.Page
		err := withRateLimitRetry(ctx, r.Sleep, func() error {
			var pageErr error
			page, pageErr = r.Fetcher.SearchPage(ctx, query, cursor)
			return pageErr
		})
		if err != nil {
			return nil, "", err
		}

		total = page.Total
		matched += len(page.Refs)

		for _, ref := range page.Refs {
			var raw gh.RawPR
			err := withRateLimitRetry(ctx, r.Sleep, func() error {
				var prErr error
				raw, prErr = r.Fetcher.HydratePR(ctx, ref)
				return prErr
			})
			if err != nil {
				return nil, "", fmt.Errorf("pull request %s/%s#%d: %w", ref.Owner, ref.Repo, ref.Number, err)
			}

			if record, ok := r.Normalizer.Normalize(raw); ok {
				records = append(records, record)
			}
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextPage
	}

	var warning string
	if total > gh.SearchResultCap || matched >= gh.SearchResultCap {
		warning = fmt.Sprintf("chunk %s..%s hit the %d-result search cap (%d reported); data for it may be incomplete",
			chunk.Start.Format("2006-01-02"), chunk.End.Format("2006-01-02"), gh.SearchResultCap, total)
		slog.Warn("Possible result cap truncation", "chunk_start", chunk.Start, "chunk_end", chunk.End, "total", total)
	}

	return records, warning, nil
}
