package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tooldash/tablesnap/internal/baserow"
	"github.com/tooldash/tablesnap/internal/config"
	"github.com/tooldash/tablesnap/pkg/logger"
	"github.com/tooldash/tablesnap/pkg/models"
	"github.com/tooldash/tablesnap/pkg/utils"
)

// Status is the per-table outcome of one pipeline run.
type Status int

const (
	StatusSuccess Status = iota
	StatusPartial        // snapshot written, soft validation warnings present
	StatusFailed         // no snapshot written (previous one left untouched)
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// TableResult records what happened to one table.
type TableResult struct {
	Table    string
	Status   Status
	Rows     int
	Warnings int
	Path     string
	Err      error
	Duration time.Duration
}

// Pipeline iterates the configured tables, fetching, validating and
// persisting each one. One table's failure never prevents attempts on
// the others; only an auth failure aborts the whole run, since the
// credential is shared.
type Pipeline struct {
	Fetcher  PageFetcher
	Writer   *Writer
	Tables   []config.TableSpec
	MaxPages int
	RowLimit int
	Hard     map[string]bool
	Parallel bool

	mu       sync.Mutex
	siblings map[string]map[string]bool
}

// Run processes every configured table and returns one result per table,
// in configuration order. The returned error is nil iff every table
// succeeded (soft warnings included).
func (p *Pipeline) Run(ctx context.Context) ([]TableResult, error) {
	runID := uuid.NewString()
	p.siblings = map[string]map[string]bool{}
	results := make([]TableResult, len(p.Tables))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Infof("run %s: %d tables, output dir %s", runID, len(p.Tables), p.Writer.Dir)

	if p.Parallel {
		var wg sync.WaitGroup
		for i, spec := range p.Tables {
			wg.Add(1)
			go func(i int, spec config.TableSpec) {
				defer wg.Done()
				results[i] = p.processTable(ctx, spec, runID)
				var authErr *baserow.AuthError
				if errors.As(results[i].Err, &authErr) {
					cancel()
				}
			}(i, spec)
		}
		wg.Wait()
	} else {
		var aborted error
		for i, spec := range p.Tables {
			if aborted != nil {
				results[i] = TableResult{
					Table:  spec.Name,
					Status: StatusFailed,
					Err:    fmt.Errorf("run aborted: %w", aborted),
				}
				continue
			}
			results[i] = p.processTable(ctx, spec, runID)
			var authErr *baserow.AuthError
			if errors.As(results[i].Err, &authErr) {
				aborted = authErr
			}
		}
	}

	return results, runError(results)
}

func (p *Pipeline) processTable(ctx context.Context, spec config.TableSpec, runID string) TableResult {
	start := time.Now()
	res := TableResult{Table: spec.Name}

	logger.Infof("table %s (id %d): fetching", spec.Name, spec.TableID)

	rows, err := DrainTable(ctx, p.Fetcher, spec, p.MaxPages, p.RowLimit)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Duration = time.Since(start)
		logger.Errorf("table %s: fetch failed: %v", spec.Name, err)
		return res
	}

	report, kept := Validate(spec, rows, p.siblingsView(), p.Hard)
	p.registerIdentities(spec, rows)

	snap := &models.Snapshot{
		Table:      spec.Name,
		RunID:      runID,
		FetchedAt:  time.Now().UTC(),
		RowCount:   len(kept),
		Rows:       kept,
		Validation: report,
	}

	path, err := p.Writer.Write(snap, spec.OutputFile)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Duration = time.Since(start)
		logger.Errorf("table %s: %v", spec.Name, err)
		return res
	}

	res.Rows = len(kept)
	res.Warnings = report.Warnings()
	res.Path = path
	res.Duration = time.Since(start)
	if res.Warnings > 0 {
		res.Status = StatusPartial
	} else {
		res.Status = StatusSuccess
	}
	logger.Infof("table %s: %d rows written to %s (%d validation warnings)", spec.Name, res.Rows, path, res.Warnings)
	return res
}

// siblingsView snapshots the identity-set registry so the validator sees
// a consistent map even when tables run in parallel.
func (p *Pipeline) siblingsView() map[string]map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	view := make(map[string]map[string]bool, len(p.siblings))
	for name, set := range p.siblings {
		view[name] = set
	}
	return view
}

// registerIdentities publishes the full fetched identity set of a table
// for the reference checks of tables validated later. Identity sets are
// written once and never mutated afterwards.
func (p *Pipeline) registerIdentities(spec config.TableSpec, rows []models.Row) {
	set := make(map[string]bool, len(rows))
	for _, row := range rows {
		if id := utils.IdentityString(row[spec.PrimaryKey]); id != "" {
			set[id] = true
		}
	}
	p.mu.Lock()
	p.siblings[spec.Name] = set
	p.mu.Unlock()
}

// runError derives the overall run outcome: auth failures dominate, then
// any per-table failure, otherwise success.
func runError(results []TableResult) error {
	var failed int
	for _, r := range results {
		var authErr *baserow.AuthError
		if errors.As(r.Err, &authErr) {
			return authErr
		}
		if r.Status == StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tables failed", failed, len(results))
	}
	return nil
}

// Summary logs one status line per table, warnings listed but not
// phrased as errors.
func Summary(results []TableResult) {
	for _, r := range results {
		switch r.Status {
		case StatusFailed:
			logger.Errorf("table %-12s %s: %v", r.Table, r.Status, r.Err)
		case StatusPartial:
			logger.Infof("table %-12s %s: %d rows, %d validation warnings (%s)", r.Table, r.Status, r.Rows, r.Warnings, r.Duration.Round(time.Millisecond))
		default:
			logger.Infof("table %-12s %s: %d rows (%s)", r.Table, r.Status, r.Rows, r.Duration.Round(time.Millisecond))
		}
	}
}
