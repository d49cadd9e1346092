package pipeline

import (
	"github.com/tooldash/tablesnap/internal/config"
	"github.com/tooldash/tablesnap/pkg/models"
	"github.com/tooldash/tablesnap/pkg/utils"
)

// Check names, stable keys in the validation report and valid values
// for the --hard flag.
const (
	CheckMissingRequired = "missing_required_field"
	CheckTypeMismatch    = "type_mismatch"
	CheckDuplicateID     = "duplicate_identity"
	CheckBrokenReference = "broken_reference"
)

// sampleLimit caps the offending-identity list per check so the report
// stays bounded on large tables.
const sampleLimit = 20

// KnownCheck reports whether name is a check that can be elevated to a
// hard filter.
func KnownCheck(name string) bool {
	switch name {
	case CheckMissingRequired, CheckTypeMismatch, CheckDuplicateID, CheckBrokenReference:
		return true
	}
	return false
}

type checkState struct {
	result  models.CheckResult
	failing map[int]bool
}

func newCheckState(name string, hard bool) *checkState {
	return &checkState{
		result:  models.CheckResult{Name: name, Hard: hard},
		failing: map[int]bool{},
	}
}

func (c *checkState) flag(rowIdx int, identity string) {
	c.result.Failed++
	c.failing[rowIdx] = true
	if len(c.result.SampleIDs) < sampleLimit {
		c.result.SampleIDs = append(c.result.SampleIDs, identity)
	}
}

// Validate applies the quality checks to a full row sequence and returns
// the report plus the rows to persist. The input slice is never mutated
// or reordered; checks are advisory unless named in hard, in which case
// their offending rows are removed from the returned slice (and counted
// in the report's Removed field).
//
// siblings maps sibling table names to their already-fetched identity
// sets. Reference checks against tables absent from the map are skipped.
func Validate(spec config.TableSpec, rows []models.Row, siblings map[string]map[string]bool, hard map[string]bool) (*models.ValidationReport, []models.Row) {
	states := []*checkState{
		newCheckState(CheckMissingRequired, hard[CheckMissingRequired]),
		newCheckState(CheckTypeMismatch, hard[CheckTypeMismatch]),
		newCheckState(CheckDuplicateID, hard[CheckDuplicateID]),
		newCheckState(CheckBrokenReference, hard[CheckBrokenReference]),
	}
	missing, mismatch, duplicate, broken := states[0], states[1], states[2], states[3]

	required := append([]string{spec.PrimaryKey}, spec.Required...)
	seenIDs := map[string]bool{}

	for i, row := range rows {
		identity := utils.IdentityString(row[spec.PrimaryKey])

		for _, field := range required {
			if v, ok := row[field]; !ok || v == nil {
				missing.flag(i, identity)
				break
			}
		}

		for field, want := range spec.FieldTypes {
			v, ok := row[field]
			if !ok || v == nil {
				continue
			}
			if utils.KindOf(v) != want {
				mismatch.flag(i, identity)
				break
			}
		}

		// First occurrence wins; later ones are flagged, never silently
		// deduplicated.
		if identity != "" {
			if seenIDs[identity] {
				duplicate.flag(i, identity)
			}
			seenIDs[identity] = true
		}

		for _, ref := range spec.References {
			targets, fetched := siblings[ref.Table]
			if !fetched {
				continue
			}
			if hasBrokenLink(row[ref.Field], targets) {
				broken.flag(i, identity)
				break
			}
		}
	}

	report := &models.ValidationReport{
		Table:     spec.Name,
		TotalRows: len(rows),
	}

	remove := map[int]bool{}
	for _, st := range states {
		if st.result.Hard {
			for idx := range st.failing {
				remove[idx] = true
			}
		}
	}

	kept := rows
	if len(remove) > 0 {
		kept = make([]models.Row, 0, len(rows)-len(remove))
		for i, row := range rows {
			if !remove[i] {
				kept = append(kept, row)
			}
		}
	}

	passed := true
	for _, st := range states {
		if st.result.Hard {
			for idx := range st.failing {
				if remove[idx] {
					st.result.Removed++
				}
			}
		}
		if st.result.Failed > 0 {
			passed = false
		}
		report.Checks = append(report.Checks, st.result)
	}
	report.Passed = passed

	return report, kept
}

// hasBrokenLink inspects a link field value. Baserow renders link fields
// as a list of {id, value} objects; single objects and bare scalars are
// accepted too. Any entry whose id is missing from the target set counts
// as broken.
func hasBrokenLink(value interface{}, targets map[string]bool) bool {
	switch v := value.(type) {
	case nil:
		return false
	case []interface{}:
		for _, item := range v {
			if hasBrokenLink(item, targets) {
				return true
			}
		}
		return false
	case map[string]interface{}:
		id, ok := v["id"]
		if !ok {
			return false
		}
		return !targets[utils.IdentityString(id)]
	default:
		return !targets[utils.IdentityString(v)]
	}
}
