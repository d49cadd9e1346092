package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tooldash/tablesnap/internal/config"
	"github.com/tooldash/tablesnap/pkg/models"
)

// mapFetcher serves pages keyed by cursor ("" is the first page).
type mapFetcher struct {
	pages map[string]*models.Page
	err   error
	calls int
}

func (f *mapFetcher) FetchPage(ctx context.Context, tableID int64, cursor string) (*models.Page, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	page, ok := f.pages[cursor]
	if !ok {
		return nil, fmt.Errorf("no page for cursor %q", cursor)
	}
	return page, nil
}

func numberedRows(start, n int) []models.Row {
	rows := make([]models.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.Row{"id": json.Number(fmt.Sprint(start + i))})
	}
	return rows
}

// pagedFetcher splits rows across pages with cursors p1, p2, ...
func pagedFetcher(totalRows, perPage int) *mapFetcher {
	f := &mapFetcher{pages: map[string]*models.Page{
		"": {Count: 0, Results: nil},
	}}
	cursor := ""
	for start := 0; start < totalRows; start += perPage {
		n := perPage
		if start+n > totalRows {
			n = totalRows - start
		}
		next := ""
		if start+n < totalRows {
			next = fmt.Sprintf("p%d", start/perPage+2)
		}
		f.pages[cursor] = &models.Page{Count: totalRows, Next: next, Results: numberedRows(start, n)}
		cursor = next
	}
	return f
}

func spec() config.TableSpec {
	return config.TableSpec{Name: "tools", TableID: 813470, PrimaryKey: "id", OutputFile: "tools.json"}
}

func TestDrainTable_AllRowsInPageOrder(t *testing.T) {
	for _, tc := range []struct{ total, perPage int }{
		{0, 10}, {1, 10}, {10, 10}, {11, 10}, {25, 10},
	} {
		f := pagedFetcher(tc.total, tc.perPage)
		rows, err := DrainTable(context.Background(), f, spec(), 100, 0)
		require.NoError(t, err, "total=%d perPage=%d", tc.total, tc.perPage)
		require.Len(t, rows, tc.total)
		for i, row := range rows {
			assert.Equal(t, json.Number(fmt.Sprint(i)), row["id"])
		}
	}
}

func TestDrainTable_CursorCycleDetected(t *testing.T) {
	f := &mapFetcher{pages: map[string]*models.Page{
		"":   {Next: "p2", Results: numberedRows(0, 2)},
		"p2": {Next: "p3", Results: numberedRows(2, 2)},
		"p3": {Next: "p2", Results: numberedRows(4, 2)}, // points back
	}}

	rows, err := DrainTable(context.Background(), f, spec(), 100, 0)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Contains(t, exhausted.Reason, "cycle")
	assert.Nil(t, rows)
	// detected well inside the page bound
	assert.Equal(t, 3, f.calls)
}

func TestDrainTable_PageCapTripped(t *testing.T) {
	// every page points to a fresh cursor, forever
	f := &mapFetcher{pages: map[string]*models.Page{}}
	for i := 0; i < 20; i++ {
		cursor := ""
		if i > 0 {
			cursor = fmt.Sprintf("p%d", i)
		}
		f.pages[cursor] = &models.Page{Next: fmt.Sprintf("p%d", i+1), Results: numberedRows(i, 1)}
	}

	rows, err := DrainTable(context.Background(), f, spec(), 5, 0)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 5, exhausted.Pages)
	assert.Nil(t, rows)
}

func TestDrainTable_FailureDiscardsAccumulator(t *testing.T) {
	f := &mapFetcher{pages: map[string]*models.Page{
		"": {Next: "p2", Results: numberedRows(0, 2)},
		// p2 missing: fetch error mid-drain
	}}

	rows, err := DrainTable(context.Background(), f, spec(), 100, 0)
	require.Error(t, err)
	assert.Nil(t, rows)
}

func TestDrainTable_RowLimitTruncates(t *testing.T) {
	f := pagedFetcher(25, 10)
	rows, err := DrainTable(context.Background(), f, spec(), 100, 15)
	require.NoError(t, err)
	assert.Len(t, rows, 15)
	// stopped after the second page
	assert.Equal(t, 2, f.calls)
}
