package batch

type Stats struct {
	NumSourceRecords    int64    `json:"num_source_records"`
	NumRecordsWritten   int64    `json:"num_records_written"`
	NumMalformedRecords int64    `json:"num_malformed_records"`
	MalformedSamples    []string `json:"malformed_samples,omitempty"`
	NumPartitions       int      `json:"num_partitions"`
}

func (s Stats) copy() Stats {
	c := s
	if s.MalformedSamples != nil {
		c.MalformedSamples = append([]string(nil), s.MalformedSamples...)
	}
	return c
}
