// Package progress reads the progress counters published by the snapshot
// pipeline.
package progress

import "strconv"

// Snapshot is one reading of the pipeline's progress counters.
type Snapshot struct {
	PercentComplete  float64 `json:"percent_complete"`
	RegistryAccepted int     `json:"registry_accepted"`
	RegistryRejected int     `json:"registry_rejected"`
	RegistryTotal    int     `json:"registry_total"`
	RegistrantsCount int     `json:"registrants"`
	ReclaimableCount int     `json:"reclaimable"`
	SnapshotRowCount int     `json:"snapshot_rows"`
}

// RegistryProcessed returns the number of registry entries accepted or rejected so far.
func (s Snapshot) RegistryProcessed() int {
	return s.RegistryAccepted + s.RegistryRejected
}

// Percent formats PercentComplete as the shortest decimal ("42.5", "100").
func (s Snapshot) Percent() string {
	return strconv.FormatFloat(s.PercentComplete, 'f', -1, 64)
}
