package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/display"
	"github.com/thruflo/snapview/internal/progress"
	"github.com/thruflo/snapview/internal/stage"
)

func TestSampleRunCoversEveryStage(t *testing.T) {
	run := SampleRun()
	require.Len(t, run, len(stage.All))
	for i, snap := range run {
		assert.Equal(t, stage.All[i], stage.Derive(snap), "snapshot %d", i)
	}

	run[0].RegistrantsCount = 99
	assert.Equal(t, 0, SampleRun()[0].RegistrantsCount, "SampleRun should return a fresh slice")
}

func TestSnapshotDistribute(t *testing.T) {
	snap := SnapshotDistribute(62.5)
	assert.Equal(t, 300, snap.RegistryProcessed())
	assert.Equal(t, 480, snap.RegistryTotal)
	assert.Equal(t, "62.5", snap.Percent())
}

func TestSetupTestDirAndWriteProgress(t *testing.T) {
	dir := SetupTestDir(t)

	info, err := os.Stat(filepath.Join(dir, ".snapview"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	path := WriteProgress(t, dir, SnapshotRegistry(7))
	src := progress.NewFileSource(path)
	require.NoError(t, src.Refresh(context.Background()))
	assert.Equal(t, 7, src.Snapshot().RegistrantsCount)
}

func TestMustJSON(t *testing.T) {
	var snap progress.Snapshot
	MustUnmarshalJSON(t, MustMarshalJSON(t, SnapshotReclaimer(4)), &snap)
	assert.Equal(t, 4, snap.ReclaimableCount)
}

func TestAssertions(t *testing.T) {
	frame := display.Compose(SnapshotRegistry(7), display.Options{TitlePrefix: "EOS", Commands: actions.NewCommands(nil)})
	AssertStage(t, frame, stage.Registry)
	AssertStatusText(t, frame, stage.Registry, "Found 7 Registrants")
	AssertActionNames(t, frame.Actions)

	welcome := display.Compose(SnapshotWelcome(), display.Options{TitlePrefix: "EOS", Commands: actions.NewCommands(nil)})
	AssertActionNames(t, welcome.Actions, actions.Init)
}

func TestShortOperationContext(t *testing.T) {
	ctx, cancel := ShortOperationContext(t)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.LessOrEqual(t, time.Until(deadline), ShortTimeout)
}
