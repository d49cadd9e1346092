package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/tooldash/tablesnap/pkg/utils"
	"gopkg.in/yaml.v3"
)

// Reference declares a link field whose entries should resolve to rows
// of a sibling table. Checked softly, since sibling fetch order is not
// guaranteed.
type Reference struct {
	Field string `yaml:"field"`
	Table string `yaml:"table"`
}

// TableSpec identifies one remote table and its quality rules.
type TableSpec struct {
	Name       string            `yaml:"name"`
	TableID    int64             `yaml:"id"`
	PrimaryKey string            `yaml:"primaryKey"`
	OutputFile string            `yaml:"outputFile"`
	Required   []string          `yaml:"required"`
	FieldTypes map[string]string `yaml:"fieldTypes"`
	References []Reference       `yaml:"references"`
}

// Tables is the root of the tables YAML file.
type Tables struct {
	Tables []TableSpec `yaml:"tables"`
}

// LoadTables reads and parses the table list from the given path,
// filling per-table defaults (primaryKey "id", outputFile "<name>.json").
func LoadTables(path string) ([]TableSpec, error) {
	if path == "" {
		return nil, &ConfigError{Msg: "tables file path is required"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("read tables file %q: %v", path, err)}
	}

	var root Tables
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("parse tables file %q: %v", path, err)}
	}

	for i := range root.Tables {
		t := &root.Tables[i]
		if t.PrimaryKey == "" {
			t.PrimaryKey = "id"
		}
		if t.OutputFile == "" {
			t.OutputFile = t.Name + ".json"
		}
	}

	if err := root.validate(); err != nil {
		return nil, &ConfigError{Msg: err.Error()}
	}
	return root.Tables, nil
}

func (c *Tables) validate() error {
	if len(c.Tables) == 0 {
		return errors.New("at least one table is required")
	}
	seen := map[string]bool{}
	for _, t := range c.Tables {
		if t.Name == "" {
			return errors.New("table.name is required")
		}
		if t.TableID <= 0 {
			return fmt.Errorf("table %s must define a positive id", t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate table name %s", t.Name)
		}
		seen[t.Name] = true
		for field, kind := range t.FieldTypes {
			if !utils.KnownKind(kind) {
				return fmt.Errorf("table %s: unknown kind %q for field %q", t.Name, kind, field)
			}
		}
		for _, ref := range t.References {
			if ref.Field == "" || ref.Table == "" {
				return fmt.Errorf("table %s: reference needs both field and table", t.Name)
			}
		}
	}
	return nil
}
