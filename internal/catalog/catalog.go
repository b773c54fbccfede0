package catalog

import (
	"encoding/json"
	"time"
)

/*
The catalog is a record of what has been processed.
The catalog is a primitive for verifying, inventorying and auditing
data operations.
*/

const FileName = "_catalog.json"

// Catalog represents the catalog of records that have been processed
type Catalog struct {
	ID                  string    `json:"id"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	Input               string    `json:"input"`
	Output              string    `json:"output"`
	Format              string    `json:"format"`
	Strict              bool      `json:"strict"`
	NumInputFiles       int       `json:"num_input_files"`
	NumSourceRecords    int64     `json:"num_source_records"`
	NumRecordsProcessed int64     `json:"num_records_processed"`
	NumMalformedRecords int64     `json:"num_malformed_records"`
	MalformedSamples    []string  `json:"malformed_samples,omitempty"`
	NumPartitions       int       `json:"num_partitions"`
	Completed           bool      `json:"completed"`
	Error               string    `json:"error,omitempty"`
}

func (c *Catalog) Marshal() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
