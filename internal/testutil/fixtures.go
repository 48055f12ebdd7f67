package testutil

import "github.com/thruflo/snapview/internal/progress"

// SnapshotWelcome returns a snapshot with no counters set.
func SnapshotWelcome() progress.Snapshot {
	return progress.Snapshot{}
}

// SnapshotRegistry returns a snapshot in the registry stage.
func SnapshotRegistry(registrants int) progress.Snapshot {
	return progress.Snapshot{RegistrantsCount: registrants}
}

// SnapshotReclaimer returns a snapshot in the reclaimer stage.
func SnapshotReclaimer(reclaimable int) progress.Snapshot {
	snap := SnapshotRegistry(480)
	snap.ReclaimableCount = reclaimable
	return snap
}

// SnapshotDistribute returns a snapshot in the distribute stage at pct.
// Processed registry entries track pct against a total of 480.
func SnapshotDistribute(pct float64) progress.Snapshot {
	snap := SnapshotReclaimer(31)
	processed := int(480 * pct / 100)
	snap.PercentComplete = pct
	snap.SnapshotRowCount = processed + 1
	snap.RegistryAccepted = processed - processed/10
	snap.RegistryRejected = processed / 10
	snap.RegistryTotal = 480
	return snap
}

// SnapshotComplete returns a finished snapshot.
func SnapshotComplete() progress.Snapshot {
	return SnapshotDistribute(100)
}

// SampleRun returns one snapshot per stage, in pipeline order.
// Returns a new slice each time to prevent test interference.
func SampleRun() []progress.Snapshot {
	return []progress.Snapshot{
		SnapshotWelcome(),
		SnapshotRegistry(12),
		SnapshotReclaimer(31),
		SnapshotDistribute(62.5),
		SnapshotComplete(),
	}
}
