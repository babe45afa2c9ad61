package store

import "time"

// Removal records one removal attempt, successful or not.
type Removal struct {
	ID        string
	ScanID    string // inventory the row came from
	Name      string
	Version   string
	Kind      string
	SizeMB    float64
	Command   string   // argv joined with spaces, "" for file removals
	Paths     []string // files deleted for desktop-only rows
	Success   bool
	Output    string
	RemovedAt time.Time
}
