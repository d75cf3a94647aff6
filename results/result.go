package results

import (
	"encoding/json"
	"fmt"
)

// Result is the payload of a query: the records plus the server's counters.
type Result struct {
	TotalSize int      `json:"totalSize"`
	Done      bool     `json:"done"`
	Records   []Object `json:"records"`
}

// Decode parses a query result.
func Decode(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding query result: %w", err)
	}

	return &r, nil
}

// Len returns the number of records actually returned.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}

	return len(r.Records)
}
