package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrSchemaMismatch indicates the dataset file on disk does not carry the
// expected column set. Merging against it would silently misalign columns,
// so loading fails instead.
var ErrSchemaMismatch = errors.New("dataset schema mismatch")

// columns is the fixed column order of the dataset file. Downstream
// dashboards address columns by these exact names; the order and set must
// survive every write.
var columns = []string{
	"pr_number",
	"repository",
	"title",
	"author",
	"state",
	"is_draft",
	"created_at",
	"merged_at",
	"closed_at",
	"days_open",
	"month_year",
	"has_copilot_review",
	"copilot_review_count",
	"reviewer_count",
	"reviewers",
	"review_decision",
	"first_response_hours",
	"additions",
	"deletions",
	"changed_files",
	"commit_count",
	"comment_count",
	"labels",
	"base_branch",
	"head_branch",
	"merged_by",
}

// listSeparator joins multi-valued columns (reviewers, labels) into one CSV
// cell. GitHub logins and label names cannot contain it.
const listSeparator = ";"

// Store reads and writes the dataset file at a fixed path
type Store struct {
	Path string
}

// NewStore creates a store for the dataset file at path
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the full dataset into memory. A missing file yields an empty
// dataset; a present file with the wrong column set is fatal.
func (s *Store) Load() ([]Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record, err := unmarshalRow(row)
		if err != nil {
			return nil, fmt.Errorf("failed to parse dataset row %d: %w", i+2, err)
		}
		records = append(records, record)
	}

	return records, nil
}

func checkHeader(header []string) error {
	if len(header) != len(columns) {
		return fmt.Errorf("%w: expected %d columns, found %d", ErrSchemaMismatch, len(columns), len(header))
	}
	for i, name := range columns {
		if header[i] != name {
			return fmt.Errorf("%w: column %d is %q, expected %q", ErrSchemaMismatch, i+1, header[i], name)
		}
	}
	return nil
}

// Save atomically replaces the dataset file with the given records. The
// write goes to a temp file in the same directory and lands via rename, so
// readers never observe a partially written dataset.
func (s *Store) Save(records []Record) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dataset file: %w", err)
	}
	tmpName := tmp.Name()

	if err := writeCSV(tmp, records); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp dataset file: %w", err)
	}

	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace dataset file: %w", err)
	}

	return nil
}

// SnapshotPath returns the dated sibling path for a snapshot of the
// dataset, e.g. data/pull_requests.csv -> data/pull_requests_2026-08-25.csv
func (s *Store) SnapshotPath(date time.Time) string {
	ext := filepath.Ext(s.Path)
	base := strings.TrimSuffix(s.Path, ext)
	return fmt.Sprintf("%s_%s%s", base, date.UTC().Format("2006-01-02"), ext)
}

// Snapshot writes records unmodified to the dated snapshot file and
// returns its path. Callers invoke this before any mutation; a failure
// here must abort the run.
func (s *Store) Snapshot(records []Record, date time.Time) (string, error) {
	path := s.SnapshotPath(date)

	f, err := os.Create(path) //nolint:gosec // Path derives from the configured dataset path
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file: %w", err)
	}

	if err := writeCSV(f, records); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close snapshot file: %w", err)
	}

	return path, nil
}

func writeCSV(f *os.File, records []Record) error {
	writer := csv.NewWriter(f)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write dataset header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(marshalRow(record)); err != nil {
			return fmt.Errorf("failed to write dataset row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush dataset: %w", err)
	}
	return nil
}

func marshalRow(r Record) []string {
	return []string{
		strconv.Itoa(r.Number),
		r.Repository,
		r.Title,
		r.Author,
		r.State,
		strconv.FormatBool(r.IsDraft),
		formatTime(&r.CreatedAt),
		formatTime(r.MergedAt),
		formatTime(r.ClosedAt),
		formatFloat(r.DaysOpen),
		r.MonthYear,
		strconv.FormatBool(r.HasCopilotReview),
		strconv.Itoa(r.CopilotReviewCount),
		strconv.Itoa(r.ReviewerCount),
		strings.Join(r.Reviewers, listSeparator),
		r.ReviewDecision,
		formatOptionalFloat(r.FirstResponseHours),
		strconv.Itoa(r.Additions),
		strconv.Itoa(r.Deletions),
		strconv.Itoa(r.ChangedFiles),
		strconv.Itoa(r.CommitCount),
		strconv.Itoa(r.CommentCount),
		strings.Join(r.Labels, listSeparator),
		r.BaseBranch,
		r.HeadBranch,
		r.MergedBy,
	}
}

func unmarshalRow(row []string) (Record, error) {
	if len(row) != len(columns) {
		return Record{}, fmt.Errorf("expected %d fields, found %d", len(columns), len(row))
	}

	number, err := strconv.Atoi(row[0])
	if err != nil {
		return Record{}, fmt.Errorf("invalid pr_number %q: %w", row[0], err)
	}
	isDraft, err := strconv.ParseBool(row[5])
	if err != nil {
		return Record{}, fmt.Errorf("invalid is_draft %q: %w", row[5], err)
	}
	createdAt, err := parseTime(row[6])
	if err != nil {
		return Record{}, fmt.Errorf("invalid created_at %q: %w", row[6], err)
	}
	if createdAt == nil {
		return Record{}, fmt.Errorf("created_at must not be empty")
	}
	mergedAt, err := parseTime(row[7])
	if err != nil {
		return Record{}, fmt.Errorf("invalid merged_at %q: %w", row[7], err)
	}
	closedAt, err := parseTime(row[8])
	if err != nil {
		return Record{}, fmt.Errorf("invalid closed_at %q: %w", row[8], err)
	}
	daysOpen, err := strconv.ParseFloat(row[9], 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid days_open %q: %w", row[9], err)
	}
	hasCCR, err := strconv.ParseBool(row[11])
	if err != nil {
		return Record{}, fmt.Errorf("invalid has_copilot_review %q: %w", row[11], err)
	}
	ccrCount, err := strconv.Atoi(row[12])
	if err != nil {
		return Record{}, fmt.Errorf("invalid copilot_review_count %q: %w", row[12], err)
	}
	reviewerCount, err := strconv.Atoi(row[13])
	if err != nil {
		return Record{}, fmt.Errorf("invalid reviewer_count %q: %w", row[13], err)
	}
	firstResponse, err := parseOptionalFloat(row[16])
	if err != nil {
		return Record{}, fmt.Errorf("invalid first_response_hours %q: %w", row[16], err)
	}

	counts := make([]int, 5)
	for i, idx := range []int{17, 18, 19, 20, 21} {
		n, err := strconv.Atoi(row[idx])
		if err != nil {
			return Record{}, fmt.Errorf("invalid %s %q: %w", columns[idx], row[idx], err)
		}
		counts[i] = n
	}

	return Record{
		Number:             number,
		Repository:         row[1],
		Title:              row[2],
		Author:             row[3],
		State:              row[4],
		IsDraft:            isDraft,
		CreatedAt:          *createdAt,
		MergedAt:           mergedAt,
		ClosedAt:           closedAt,
		DaysOpen:           daysOpen,
		MonthYear:          row[10],
		HasCopilotReview:   hasCCR,
		CopilotReviewCount: ccrCount,
		ReviewerCount:      reviewerCount,
		Reviewers:          splitList(row[14]),
		ReviewDecision:     row[15],
		FirstResponseHours: firstResponse,
		Additions:          counts[0],
		Deletions:          counts[1],
		ChangedFiles:       counts[2],
		CommitCount:        counts[3],
		CommentCount:       counts[4],
		Labels:             splitList(row[22]),
		BaseBranch:         row[23],
		HeadBranch:         row[24],
		MergedBy:           row[25],
	}, nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func parseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSeparator)
}
