package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tooldash/tablesnap/pkg/logger"
	"github.com/tooldash/tablesnap/pkg/models"
	"github.com/tooldash/tablesnap/pkg/utils"
)

// Transformer denormalizes the raw table snapshots into the web-ready
// files the dashboard consumes: companies with embedded tool details,
// tools with their companies and tags, a flat search index, the tag
// list and summary stats.
type Transformer struct {
	InputDir string
	Writer   *Writer
}

// Run reads the companies and tools snapshots and writes the web files.
// Output files go through the same atomic write path as snapshots.
func (t *Transformer) Run() error {
	companies, err := t.loadRows("companies.json")
	if err != nil {
		return err
	}
	tools, err := t.loadRows("tools.json")
	if err != nil {
		return err
	}

	toolsByID := lookupByRowID(tools)
	companiesByID := lookupByRowID(companies)

	webCompanies := WebCompanies(companies, toolsByID)
	webTools := WebTools(tools, companiesByID)
	index := SearchIndex(webCompanies, webTools)
	tags := AllTags(webTools)
	stats := Stats(webCompanies, webTools, tags)

	outputs := []struct {
		file string
		data interface{}
	}{
		{"companies.json", webCompanies},
		{"tools.json", webTools},
		{"search_index.json", index},
		{"tags.json", tags},
		{"stats.json", stats},
		{"all_data.json", models.Row{
			"companies": webCompanies,
			"tools":     webTools,
			"tags":      tags,
			"stats":     stats,
		}},
	}
	for _, out := range outputs {
		path, err := t.Writer.WriteJSON(out.data, out.file)
		if err != nil {
			return fmt.Errorf("write %s: %w", out.file, err)
		}
		logger.Infof("wrote %s", path)
	}

	logger.Infof("processed %d companies, %d tools, %d tags", len(webCompanies), len(webTools), len(tags))
	return nil
}

func (t *Transformer) loadRows(file string) ([]models.Row, error) {
	snap, err := ReadSnapshot(filepath.Join(t.InputDir, file))
	if err != nil {
		return nil, err
	}
	return snap.Rows, nil
}

// lookupByRowID indexes rows by their remote row id, the key link-field
// entries point at.
func lookupByRowID(rows []models.Row) map[string]models.Row {
	byID := make(map[string]models.Row, len(rows))
	for _, row := range rows {
		if id := utils.IdentityString(row["id"]); id != "" {
			byID[id] = row
		}
	}
	return byID
}

// WebCompanies enriches each company with the full details of the tools
// its link field points at.
func WebCompanies(companies []models.Row, toolsByID map[string]models.Row) []models.Row {
	out := make([]models.Row, 0, len(companies))
	for _, company := range companies {
		var companyTools []models.Row
		for _, ref := range linkEntries(company["Tools"]) {
			tool, ok := toolsByID[ref]
			if !ok {
				continue
			}
			tags, _ := tagInfo(tool)
			companyTools = append(companyTools, models.Row{
				"id":                tool["UUID"],
				"name":              str(tool, "ToolName"),
				"description_short": str(tool, "Tool Description Short"),
				"description_long":  str(tool, "ToolDescription_long"),
				"tags":              tags,
				"rating":            ratingOf(tool),
				"cost":              tool["Annual License Cost"],
				"url":               str(tool, "URL"),
			})
		}
		out = append(out, models.Row{
			"id":         company["UUID"],
			"name":       str(company, "Company Name"),
			"url":        str(company, "URL"),
			"notes":      str(company, "Notes"),
			"tools":      companyTools,
			"tool_count": len(companyTools),
		})
	}
	return out
}

// WebTools enriches each tool with its companies and flattened tags.
func WebTools(tools []models.Row, companiesByID map[string]models.Row) []models.Row {
	out := make([]models.Row, 0, len(tools))
	for _, tool := range tools {
		var toolCompanies []models.Row
		for _, ref := range linkEntries(tool["ToolCompany"]) {
			comp, ok := companiesByID[ref]
			if !ok {
				continue
			}
			toolCompanies = append(toolCompanies, models.Row{
				"id":   comp["UUID"],
				"name": str(comp, "Company Name"),
				"url":  str(comp, "URL"),
			})
		}
		tags, colors := tagInfo(tool)
		out = append(out, models.Row{
			"id":                tool["UUID"],
			"name":              str(tool, "ToolName"),
			"description_short": str(tool, "Tool Description Short"),
			"description_long":  str(tool, "ToolDescription_long"),
			"tags":              tags,
			"tag_colors":        colors,
			"companies":         toolCompanies,
			"rating":            ratingOf(tool),
			"cost":              tool["Annual License Cost"],
			"url":               str(tool, "URL"),
			"last_modified":     str(tool, "Last modified"),
		})
	}
	return out
}

// SearchIndex flattens companies and tools into one searchable list for
// the frontend autocomplete.
func SearchIndex(webCompanies, webTools []models.Row) []models.Row {
	index := make([]models.Row, 0, len(webCompanies)+len(webTools))
	for _, c := range webCompanies {
		index = append(index, models.Row{
			"type":        "company",
			"id":          c["id"],
			"name":        c["name"],
			"url":         c["url"],
			"search_text": strings.ToLower(str(c, "name")),
			"tool_count":  c["tool_count"],
		})
	}
	for _, t := range webTools {
		tags, _ := t["tags"].([]string)
		var companyNames []string
		if comps, ok := t["companies"].([]models.Row); ok {
			for _, c := range comps {
				companyNames = append(companyNames, str(c, "name"))
			}
		}
		text := str(t, "name") + " " + strings.Join(tags, " ") + " " + strings.Join(companyNames, " ")
		index = append(index, models.Row{
			"type":          "tool",
			"id":            t["id"],
			"name":          t["name"],
			"url":           t["url"],
			"tags":          tags,
			"search_text":   strings.ToLower(strings.TrimSpace(text)),
			"company_count": companyCount(t),
		})
	}
	return index
}

// AllTags extracts the unique tag list with colors, sorted by name.
func AllTags(webTools []models.Row) []models.Row {
	colors := map[string]string{}
	for _, t := range webTools {
		tc, _ := t["tag_colors"].(map[string]string)
		for name, color := range tc {
			if _, ok := colors[name]; !ok {
				colors[name] = color
			}
		}
	}
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	tags := make([]models.Row, 0, len(names))
	for _, name := range names {
		tags = append(tags, models.Row{"name": name, "color": colors[name]})
	}
	return tags
}

// Stats computes the dashboard summary counters.
func Stats(webCompanies, webTools, tags []models.Row) models.Row {
	companiesWithTools := 0
	for _, c := range webCompanies {
		if n, ok := c["tool_count"].(int); ok && n > 0 {
			companiesWithTools++
		}
	}
	toolsWithCompanies := 0
	for _, t := range webTools {
		if companyCount(t) > 0 {
			toolsWithCompanies++
		}
	}
	return models.Row{
		"total_companies":      len(webCompanies),
		"total_tools":          len(webTools),
		"companies_with_tools": companiesWithTools,
		"tools_with_companies": toolsWithCompanies,
		"total_tags":           len(tags),
	}
}

// linkEntries extracts the referenced row ids from a Baserow link field
// value (a list of {id, value} objects).
func linkEntries(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			if id := utils.IdentityString(m["id"]); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// tagInfo flattens a tool's "Tool Tags" multi-select field into the tag
// name list and a name->color map.
func tagInfo(tool models.Row) ([]string, map[string]string) {
	var tags []string
	colors := map[string]string{}
	items, _ := tool["Tool Tags"].([]interface{})
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := m["value"].(string)
		if name == "" {
			continue
		}
		tags = append(tags, name)
		if color, ok := m["color"].(string); ok {
			colors[name] = color
		}
	}
	return tags, colors
}

func ratingOf(tool models.Row) interface{} {
	if r, ok := tool["Overall Rating"]; ok && r != nil {
		return r
	}
	return "0"
}

func companyCount(webTool models.Row) int {
	comps, _ := webTool["companies"].([]models.Row)
	return len(comps)
}

func str(row models.Row, key string) string {
	s, _ := row[key].(string)
	return s
}
