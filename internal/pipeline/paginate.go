// Package pipeline contains the fetch-validate-write pipeline: the
// pagination driver, the row validator, the snapshot writer and the
// orchestrator that runs them per configured table.
package pipeline

import (
	"context"
	"fmt"

	"github.com/tooldash/tablesnap/internal/config"
	"github.com/tooldash/tablesnap/pkg/logger"
	"github.com/tooldash/tablesnap/pkg/models"
)

// PageFetcher retrieves one page of a remote table. cursor "" means the
// first page; a non-empty cursor is the prior page's continuation token.
type PageFetcher interface {
	FetchPage(ctx context.Context, tableID int64, cursor string) (*models.Page, error)
}

// ExhaustedError means the pagination loop bound tripped before the
// remote collection was drained: either the hard page cap was exceeded
// or the continuation token cycled back to an earlier cursor.
type ExhaustedError struct {
	Table  string
	Pages  int
	Reason string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("pagination exhausted for table %s after %d pages: %s", e.Table, e.Pages, e.Reason)
}

type fetchState int

const (
	stateStart fetchState = iota
	stateFetching
	stateMorePages
	stateDone
	stateFailed
)

// DrainTable follows the continuation cursor until the remote table is
// exhausted and returns all rows in page order. On any terminal failure
// the accumulator is discarded so a truncated fetch can never be
// mistaken for a complete one. rowLimit > 0 truncates the result and
// stops fetching early.
func DrainTable(ctx context.Context, fetcher PageFetcher, spec config.TableSpec, maxPages, rowLimit int) ([]models.Row, error) {
	var (
		rows     []models.Row
		cursor   string
		pageNum  int
		fetchErr error
	)
	seen := map[string]bool{}
	state := stateStart

	for state != stateDone && state != stateFailed {
		switch state {
		case stateStart:
			cursor = ""
			rows = nil
			state = stateFetching

		case stateFetching:
			if pageNum >= maxPages {
				fetchErr = &ExhaustedError{Table: spec.Name, Pages: pageNum, Reason: "page cap exceeded"}
				state = stateFailed
				break
			}
			page, err := fetcher.FetchPage(ctx, spec.TableID, cursor)
			if err != nil {
				fetchErr = err
				state = stateFailed
				break
			}
			pageNum++
			rows = append(rows, page.Results...)
			logger.Infof("table %s: page %d fetched, %d rows so far", spec.Name, pageNum, len(rows))

			if rowLimit > 0 && len(rows) >= rowLimit {
				rows = rows[:rowLimit]
				state = stateDone
				break
			}
			if page.Next == "" || len(page.Results) == 0 {
				state = stateDone
				break
			}
			cursor = page.Next
			state = stateMorePages

		case stateMorePages:
			// A token pointing back at a cursor we already followed would
			// loop forever; fail it distinctly instead of waiting for the
			// page cap.
			if seen[cursor] {
				fetchErr = &ExhaustedError{Table: spec.Name, Pages: pageNum, Reason: "continuation token cycle"}
				state = stateFailed
				break
			}
			seen[cursor] = true
			state = stateFetching
		}
	}

	if state == stateFailed {
		return nil, fetchErr
	}
	return rows, nil
}
