// Package testutil provides shared test utilities for snapview.
//
// # Fixtures
//
// The fixtures.go file provides sample snapshots for testing:
//
//   - SnapshotWelcome(), SnapshotRegistry(n), SnapshotReclaimer(n) - early stages
//   - SnapshotDistribute(pct), SnapshotComplete() - late stages
//   - SampleRun() - one snapshot per stage in pipeline order
//
// # Environment Helpers
//
// The env.go file provides test environment setup:
//
//   - SetupTestDir(t) - creates a temp directory with a .snapview directory
//   - WriteProgress(t, dir, snap) - writes progress.json for a FileSource
//   - MustMarshalJSON(t, v) - marshals to JSON or fails test
//   - MustUnmarshalJSON(t, data, v) - unmarshals JSON or fails test
//
// # Assertions
//
// The assertions.go file provides frame assertions:
//
//   - AssertStage(t, frame, stage) - checks the derived stage
//   - AssertStatusText(t, frame, target, text) - checks one status line
//   - AssertActionNames(t, cmds, names...) - checks offered commands in order
//
// # Usage
//
//	func TestSomething(t *testing.T) {
//	    dir := testutil.SetupTestDir(t)
//	    testutil.WriteProgress(t, dir, testutil.SnapshotRegistry(7))
//	    // ... run test ...
//	    testutil.AssertStage(t, frame, stage.Registry)
//	}
package testutil
