// Package stage derives the snapshot pipeline phase from its progress
// counters.
package stage

import "github.com/thruflo/snapview/internal/progress"

// Stage is a discrete phase of the snapshot pipeline.
type Stage int

const (
	Welcome Stage = iota
	Registry
	Reclaimer
	Distribute
	Complete
)

// All lists the stages in pipeline order.
var All = []Stage{Welcome, Registry, Reclaimer, Distribute, Complete}

// String returns the stage name used for titles, class lists and targets.
func (s Stage) String() string {
	switch s {
	case Welcome:
		return "welcome"
	case Registry:
		return "registry"
	case Reclaimer:
		return "reclaimer"
	case Distribute:
		return "distribute"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Parse returns the stage with the given name.
func Parse(name string) (Stage, bool) {
	for _, s := range All {
		if s.String() == name {
			return s, true
		}
	}
	return Welcome, false
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Derive picks the stage by first match, checking from the end of the
// pipeline backwards. PercentComplete of 100 is complete regardless of the
// other counters.
func Derive(snap progress.Snapshot) Stage {
	switch {
	case snap.PercentComplete == 100:
		return Complete
	case snap.SnapshotRowCount > 0:
		return Distribute
	case snap.ReclaimableCount > 0:
		return Reclaimer
	case snap.RegistrantsCount > 0:
		return Registry
	default:
		return Welcome
	}
}
