package pipeline

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tooldash/tablesnap/internal/config"
	"github.com/tooldash/tablesnap/pkg/models"
)

func toolSpec() config.TableSpec {
	return config.TableSpec{
		Name:       "tools",
		TableID:    813470,
		PrimaryKey: "id",
		Required:   []string{"UUID", "ToolName"},
		FieldTypes: map[string]string{"ToolName": "string", "Tool Tags": "list"},
		References: []config.Reference{{Field: "ToolCompany", Table: "companies"}},
	}
}

func checkByName(t *testing.T, report *models.ValidationReport, name string) models.CheckResult {
	t.Helper()
	for _, c := range report.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %s not in report", name)
	return models.CheckResult{}
}

func TestValidate_CleanRowsPass(t *testing.T) {
	rows := []models.Row{
		{"id": json.Number("1"), "UUID": "u1", "ToolName": "grep"},
		{"id": json.Number("2"), "UUID": "u2", "ToolName": "sed"},
	}

	report, kept := Validate(toolSpec(), rows, nil, nil)
	assert.True(t, report.Passed)
	assert.Equal(t, 2, report.TotalRows)
	assert.Zero(t, report.Warnings())
	assert.Equal(t, rows, kept)
}

func TestValidate_MissingRequiredField(t *testing.T) {
	rows := []models.Row{
		{"id": json.Number("1"), "UUID": "u1", "ToolName": "grep"},
		{"id": json.Number("2"), "ToolName": "sed"},            // no UUID
		{"id": json.Number("3"), "UUID": nil, "ToolName": "x"}, // null counts as missing
	}

	report, kept := Validate(toolSpec(), rows, nil, nil)
	c := checkByName(t, report, CheckMissingRequired)
	assert.Equal(t, 2, c.Failed)
	assert.Equal(t, []string{"2", "3"}, c.SampleIDs)
	assert.False(t, report.Passed)
	// soft mode: flagged rows are still persisted
	assert.Len(t, kept, 3)
}

func TestValidate_TypeMismatch(t *testing.T) {
	rows := []models.Row{
		{"id": json.Number("1"), "UUID": "u1", "ToolName": "grep", "Tool Tags": []interface{}{"cli"}},
		{"id": json.Number("2"), "UUID": "u2", "ToolName": json.Number("7")},
	}

	report, _ := Validate(toolSpec(), rows, nil, nil)
	c := checkByName(t, report, CheckTypeMismatch)
	assert.Equal(t, 1, c.Failed)
	assert.Equal(t, []string{"2"}, c.SampleIDs)
}

func TestValidate_DuplicateIdentityFlaggedNotDropped(t *testing.T) {
	rows := []models.Row{
		{"id": json.Number("1"), "UUID": "u1", "ToolName": "grep"},
		{"id": json.Number("1"), "UUID": "u1b", "ToolName": "grep again"},
		{"id": json.Number("1"), "UUID": "u1c", "ToolName": "grep once more"},
	}

	report, kept := Validate(toolSpec(), rows, nil, nil)
	c := checkByName(t, report, CheckDuplicateID)
	// first occurrence kept, later ones flagged
	assert.Equal(t, 2, c.Failed)
	assert.Len(t, kept, 3)
}

func TestValidate_ReferenceChecks(t *testing.T) {
	rows := []models.Row{
		{"id": json.Number("1"), "UUID": "u1", "ToolName": "grep",
			"ToolCompany": []interface{}{map[string]interface{}{"id": json.Number("10"), "value": "acme"}}},
		{"id": json.Number("2"), "UUID": "u2", "ToolName": "sed",
			"ToolCompany": []interface{}{map[string]interface{}{"id": json.Number("99"), "value": "ghost"}}},
	}

	// sibling not fetched: check skipped entirely
	report, _ := Validate(toolSpec(), rows, nil, nil)
	assert.Zero(t, checkByName(t, report, CheckBrokenReference).Failed)

	siblings := map[string]map[string]bool{"companies": {"10": true}}
	report, _ = Validate(toolSpec(), rows, siblings, nil)
	c := checkByName(t, report, CheckBrokenReference)
	assert.Equal(t, 1, c.Failed)
	assert.Equal(t, []string{"2"}, c.SampleIDs)
}

func TestValidate_HardCheckRemovesRows(t *testing.T) {
	rows := []models.Row{
		{"id": json.Number("1"), "UUID": "u1", "ToolName": "grep"},
		{"id": json.Number("2"), "ToolName": "sed"}, // missing UUID
		{"id": json.Number("3"), "UUID": "u3", "ToolName": "awk"},
	}
	hard := map[string]bool{CheckMissingRequired: true}

	report, kept := Validate(toolSpec(), rows, nil, hard)
	c := checkByName(t, report, CheckMissingRequired)
	assert.True(t, c.Hard)
	assert.Equal(t, 1, c.Failed)
	assert.Equal(t, 1, c.Removed)

	require.Len(t, kept, 2)
	assert.Equal(t, json.Number("1"), kept[0]["id"])
	assert.Equal(t, json.Number("3"), kept[1]["id"])
	// input never mutated
	assert.Len(t, rows, 3)
}

func TestValidate_HardDuplicateKeepsFirstOccurrence(t *testing.T) {
	rows := []models.Row{
		{"id": json.Number("1"), "UUID": "first", "ToolName": "grep"},
		{"id": json.Number("1"), "UUID": "second", "ToolName": "grep"},
	}
	hard := map[string]bool{CheckDuplicateID: true}

	_, kept := Validate(toolSpec(), rows, nil, hard)
	require.Len(t, kept, 1)
	assert.Equal(t, "first", kept[0]["UUID"])
}

func TestValidate_SampleBounded(t *testing.T) {
	var rows []models.Row
	for i := 0; i < 100; i++ {
		rows = append(rows, models.Row{"id": json.Number(fmt.Sprint(i)), "ToolName": "t"}) // all missing UUID
	}

	report, _ := Validate(toolSpec(), rows, nil, nil)
	c := checkByName(t, report, CheckMissingRequired)
	assert.Equal(t, 100, c.Failed)
	assert.Len(t, c.SampleIDs, sampleLimit)
}
