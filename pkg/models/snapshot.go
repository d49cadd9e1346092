// Package models defines the data shapes shared across the pipeline:
// rows, pages, validation reports and the persisted snapshot.
package models

import "time"

// Row is one remote record. The schema is not statically known, so the
// row is kept as a generic mapping; numeric values are json.Number when
// decoded by the baserow client so they round-trip losslessly.
type Row map[string]interface{}

// Page is a single response unit from the remote list endpoint.
// Next is the absolute URL of the following page, empty on the last one.
type Page struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Prev    string `json:"previous"`
	Results []Row  `json:"results"`
}

// CheckResult summarizes one validation check over a full table.
// SampleIDs is bounded; it names offenders, it does not enumerate them.
type CheckResult struct {
	Name      string   `json:"name"`
	Failed    int      `json:"failed"`
	Hard      bool     `json:"hard,omitempty"`
	Removed   int      `json:"removed,omitempty"`
	SampleIDs []string `json:"sample_ids,omitempty"`
}

// ValidationReport is the per-table outcome of the row validator.
// Failing rows are flagged, never dropped, unless a check ran hard.
type ValidationReport struct {
	Table     string        `json:"table"`
	TotalRows int           `json:"total_rows"`
	Passed    bool          `json:"passed"`
	Checks    []CheckResult `json:"checks,omitempty"`
}

// Warnings reports the number of rows flagged across all checks.
func (r *ValidationReport) Warnings() int {
	total := 0
	for _, c := range r.Checks {
		total += c.Failed
	}
	return total
}

// Snapshot is the persisted artifact for one table.
// Invariant: RowCount == len(Rows).
type Snapshot struct {
	Table      string            `json:"table"`
	RunID      string            `json:"run_id"`
	FetchedAt  time.Time         `json:"fetched_at"`
	RowCount   int               `json:"row_count"`
	Rows       []Row             `json:"rows"`
	Validation *ValidationReport `json:"validation,omitempty"`
}
