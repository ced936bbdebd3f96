package feed

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/internal/domain/normalize"
	"github.com/okian/rosterlens/pkg/metrics"
)

// CSVRankingFeed reads a ranking table published as CSV, such as the
// DynastyProcess consensus file.
type CSVRankingFeed struct {
	*client
	url    string
	schema string
	scope  model.Scope
}

// NewCSVRankingFeed creates a CSV ranking feed decoded with schema.
func NewCSVRankingFeed(url, schema string, scope model.Scope, opts ...Option) *CSVRankingFeed {
	return &CSVRankingFeed{client: newClient(opts), url: url, schema: schema, scope: scope}
}

// Source names the feed in errors and metrics.
func (f *CSVRankingFeed) Source() string { return f.schema }

// Pull fetches and parses the file. The version is the newest scrape_date in
// the file when present, else a hash of the content.
func (f *CSVRankingFeed) Pull(ctx context.Context) (normalize.RankingBatch, error) {
	start := time.Now()
	body, err := f.get(ctx, f.url)
	if err != nil {
		metrics.RecordFeedError(f.Source())
		return normalize.RankingBatch{}, fetchErr(f.Source(), err)
	}
	rows, err := parseCSV(body)
	if err != nil {
		metrics.RecordFeedError(f.Source())
		return normalize.RankingBatch{}, fetchErr(f.Source(), err)
	}
	version := newest(rows, "scrape_date")
	if version == "" {
		version = contentVersion(body)
	}
	metrics.RecordFeedFetch(f.Source(), float64(time.Since(start).Milliseconds()), len(rows))
	return normalize.RankingBatch{
		Source:  f.Source(),
		Schema:  f.schema,
		Scope:   f.scope,
		Version: version,
		Rows:    rows,
	}, nil
}

// CSVPointsFeed reads weekly actual and expected points, such as the nflverse
// opportunity file.
type CSVPointsFeed struct {
	*client
	url    string
	schema string
}

// NewCSVPointsFeed creates a CSV points feed decoded with schema.
func NewCSVPointsFeed(url, schema string, opts ...Option) *CSVPointsFeed {
	return &CSVPointsFeed{client: newClient(opts), url: url, schema: schema}
}

// Source names the feed in errors and metrics.
func (f *CSVPointsFeed) Source() string { return f.schema }

// Pull fetches and parses the file.
func (f *CSVPointsFeed) Pull(ctx context.Context) (normalize.PointsBatch, error) {
	start := time.Now()
	body, err := f.get(ctx, f.url)
	if err != nil {
		metrics.RecordFeedError(f.Source())
		return normalize.PointsBatch{}, fetchErr(f.Source(), err)
	}
	rows, err := parseCSV(body)
	if err != nil {
		metrics.RecordFeedError(f.Source())
		return normalize.PointsBatch{}, fetchErr(f.Source(), err)
	}
	metrics.RecordFeedFetch(f.Source(), float64(time.Since(start).Milliseconds()), len(rows))
	return normalize.PointsBatch{
		Source:  f.Source(),
		Schema:  f.schema,
		Version: contentVersion(body),
		Rows:    rows,
	}, nil
}

// CSVProjectionFeed reads projected season or weekly stat lines published as
// CSV, one row per player.
type CSVProjectionFeed struct {
	*client
	url    string
	schema string
}

// NewCSVProjectionFeed creates a CSV projection feed decoded with schema.
func NewCSVProjectionFeed(url, schema string, opts ...Option) *CSVProjectionFeed {
	return &CSVProjectionFeed{client: newClient(opts), url: url, schema: schema}
}

// Source names the feed in errors and metrics.
func (f *CSVProjectionFeed) Source() string { return f.schema }

// Pull fetches and parses the file.
func (f *CSVProjectionFeed) Pull(ctx context.Context) (normalize.ProjectionBatch, error) {
	start := time.Now()
	body, err := f.get(ctx, f.url)
	if err != nil {
		metrics.RecordFeedError(f.Source())
		return normalize.ProjectionBatch{}, fetchErr(f.Source(), err)
	}
	rows, err := parseCSV(body)
	if err != nil {
		metrics.RecordFeedError(f.Source())
		return normalize.ProjectionBatch{}, fetchErr(f.Source(), err)
	}
	metrics.RecordFeedFetch(f.Source(), float64(time.Since(start).Milliseconds()), len(rows))
	return normalize.ProjectionBatch{
		Source:  f.Source(),
		Schema:  f.schema,
		Version: contentVersion(body),
		Rows:    rows,
	}, nil
}

// parseCSV reads a header row and returns one Row per record with string
// values keyed by lower-cased column name.
func parseCSV(body []byte) ([]normalize.Row, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty csv", ErrDecode)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: csv header: %v", ErrDecode, err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var rows []normalize.Row
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: %v", ErrDecode, len(rows)+2, err)
		}
		row := make(normalize.Row, len(cols))
		for i, v := range rec {
			if i < len(cols) {
				row[cols[i]] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func newest(rows []normalize.Row, col string) string {
	var best string
	for _, r := range rows {
		if s, ok := r[col].(string); ok && s > best {
			best = s
		}
	}
	return best
}
