package parquet

import (
	"fmt"
	"strings"

	"github.com/turbolytics/cleaner/internal"
)

type Field struct {
	Name           string `yaml:"name"`
	Type           string `yaml:"type"`
	ConvertedType  string `yaml:"converted_type,omitempty"`
	RepetitionType string `yaml:"repetition_type,omitempty"`
}

type Schema []Field

// FlatRecordSchema is the output schema: every column is a required
// UTF8 string, matching the untyped CSV output.
func FlatRecordSchema() Schema {
	s := make(Schema, len(internal.FlatColumns))
	for i, name := range internal.FlatColumns {
		s[i] = Field{
			Name:           name,
			Type:           "BYTE_ARRAY",
			ConvertedType:  "UTF8",
			RepetitionType: "REQUIRED",
		}
	}
	return s
}

func (s Schema) ToGoParquetSchema() []string {
	schema := make([]string, len(s))
	for i, field := range s {
		parts := []string{
			fmt.Sprintf("name=%s", field.Name),
			fmt.Sprintf("type=%s", field.Type),
		}
		if field.ConvertedType != "" {
			parts = append(parts, fmt.Sprintf("convertedtype=%s", field.ConvertedType))
		}
		if field.RepetitionType != "" {
			parts = append(parts, fmt.Sprintf("repetitiontype=%s", field.RepetitionType))
		}
		schema[i] = strings.Join(parts, ", ")
	}

	return schema
}

func (s Schema) RecordToParquetRow(r internal.FlatRecord) ([]any, error) {
	if len(s) != r.Len() {
		return nil, fmt.Errorf(
			"schema and record fields mismatch: schema has %d fields, record has %d fields",
			len(s),
			r.Len(),
		)
	}

	values := r.Values()
	row := make([]any, len(s))
	for i := range s {
		row[i] = values[i]
	}

	return row, nil
}
