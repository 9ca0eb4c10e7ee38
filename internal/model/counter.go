// Package model defines the core data types for the counter service.
// Struct tags (the `json:"..."` and `db:"..."` annotations) tell serialization
// libraries how to map fields.
package model

import "time"

// HistoryLimit is how many records GetHistory returns at most.
const HistoryLimit = 10

// CounterRecord is one row of counter_history. Rows are only ever appended;
// the record with the highest ID holds the current count.
type CounterRecord struct {
	ID        int64     `db:"id" json:"id"`
	Count     int64     `db:"count" json:"count"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// IncrementResult is what a successful increment reports back to the caller.
type IncrementResult struct {
	Count     int64     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}
