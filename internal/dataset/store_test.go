package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "pull_requests.csv"))
}

func fullRecord() Record {
	created := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	merged := time.Date(2026, time.January, 3, 12, 0, 0, 0, time.UTC)
	firstResponse := 6.0
	return Record{
		Number:             42,
		Repository:         "acme/widgets",
		Title:              "Add widget cache, with a comma",
		Author:             "alice",
		State:              "MERGED",
		IsDraft:            false,
		CreatedAt:          created,
		MergedAt:           &merged,
		ClosedAt:           &merged,
		DaysOpen:           2.5,
		MonthYear:          "2026-01",
		HasCopilotReview:   true,
		CopilotReviewCount: 1,
		ReviewerCount:      2,
		Reviewers:          []string{"bob", "carol"},
		ReviewDecision:     "approved",
		FirstResponseHours: &firstResponse,
		Additions:          120,
		Deletions:          30,
		ChangedFiles:       5,
		CommitCount:        3,
		CommentCount:       7,
		Labels:             []string{"bug", "backend"},
		BaseBranch:         "main",
		HeadBranch:         "feature/cache",
		MergedBy:           "carol",
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := testStore(t)
	closedOnly := fullRecord()
	closedOnly.Number = 43
	closedOnly.State = "CLOSED"
	closedOnly.MergedAt = nil
	closedOnly.MergedBy = ""
	closedOnly.FirstResponseHours = nil
	closedOnly.Reviewers = nil
	closedOnly.ReviewerCount = 0
	closedOnly.Labels = nil
	closedOnly.ReviewDecision = ""

	records := []Record{fullRecord(), closedOnly}
	require.NoError(t, store.Save(records))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	records, err := testStore(t).Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_LoadRejectsWrongColumns(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"different columns", "id,name,value"},
		{"missing column", strings.Join(columns[:len(columns)-1], ",")},
		{"reordered columns", "repository,pr_number," + strings.Join(columns[2:], ",")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(store.Path), 0750))
			require.NoError(t, os.WriteFile(store.Path, []byte(tt.header+"\n"), 0600))

			_, err := store.Load()
			require.ErrorIs(t, err, ErrSchemaMismatch)
		})
	}
}

func TestStore_HeaderIsStable(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Save(nil))

	data, err := os.ReadFile(store.Path)
	require.NoError(t, err)

	// Downstream dashboards address these columns by name; this line is a
	// compatibility contract.
	assert.Equal(t,
		"pr_number,repository,title,author,state,is_draft,created_at,merged_at,closed_at,"+
			"days_open,month_year,has_copilot_review,copilot_review_count,reviewer_count,"+
			"reviewers,review_decision,first_response_hours,additions,deletions,changed_files,"+
			"commit_count,comment_count,labels,base_branch,head_branch,merged_by",
		strings.TrimSpace(string(data)))
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Save([]Record{fullRecord()}))

	entries, err := os.ReadDir(filepath.Dir(store.Path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(store.Path), entries[0].Name())
}

func TestStore_SaveReplacesExistingContent(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Save([]Record{fullRecord()}))

	replacement := fullRecord()
	replacement.Number = 99
	require.NoError(t, store.Save([]Record{replacement}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 99, loaded[0].Number)
}

func TestStore_SnapshotPath(t *testing.T) {
	store := NewStore("data/pull_requests.csv")
	path := store.SnapshotPath(time.Date(2026, time.August, 25, 15, 4, 5, 0, time.UTC))
	assert.Equal(t, filepath.Join("data", "pull_requests_2026-08-25.csv"), path)
}

func TestStore_SnapshotContentEqualsDataset(t *testing.T) {
	store := testStore(t)
	records := []Record{fullRecord()}
	require.NoError(t, store.Save(records))
	datasetBytes, err := os.ReadFile(store.Path)
	require.NoError(t, err)

	path, err := store.Snapshot(records, time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	snapshotBytes, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, datasetBytes, snapshotBytes)
}

func TestStore_SnapshotFailureReported(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing-dir", "pull_requests.csv"))

	_, err := store.Snapshot([]Record{fullRecord()}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot")
}

func TestStore_LockFailsFastWhenHeld(t *testing.T) {
	store := testStore(t)

	release, err := store.Lock()
	require.NoError(t, err)

	_, err = store.Lock()
	require.ErrorIs(t, err, ErrLocked)

	release()
	release2, err := store.Lock()
	require.NoError(t, err)
	release2()
}

func TestStore_LoadReportsBadRows(t *testing.T) {
	store := testStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path), 0750))
	row := make([]string, len(columns))
	for i := range row {
		row[i] = "0"
	}
	row[6] = "not-a-timestamp"
	content := strings.Join(columns, ",") + "\n" + strings.Join(row, ",") + "\n"
	require.NoError(t, os.WriteFile(store.Path, []byte(content), 0600))

	_, err := store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}
