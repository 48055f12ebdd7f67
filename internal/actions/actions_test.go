package actions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/snapview/internal/config"
	"github.com/thruflo/snapview/internal/stage"
)

func TestNewCommands_Layout(t *testing.T) {
	t.Parallel()

	cmds := NewCommands(nil)

	welcome := cmds.For(stage.Welcome)
	require.Len(t, welcome, 1)
	assert.Equal(t, Init, welcome[0].Name)
	assert.Equal(t, "Generate Snapshot", welcome[0].Label)

	complete := cmds.For(stage.Complete)
	require.Len(t, complete, 5)

	wantNames := []string{Snapshot, Rejects, Reclaimable, Reclaimed, Logs}
	wantLabels := []string{"Snapshot CSV", "Rejects CSV", "Reclaimable TX CSV", "Successfully Reclaimed CSV", "Full Log"}
	for i, cmd := range complete {
		assert.Equal(t, wantNames[i], cmd.Name)
		assert.Equal(t, wantLabels[i], cmd.Label)
		require.NotNil(t, cmd.Trigger)
	}

	for _, s := range []stage.Stage{stage.Registry, stage.Reclaimer, stage.Distribute} {
		assert.Empty(t, cmds.For(s), s.String())
	}
}

func TestNewCommands_UnconfiguredTrigger(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommands(nil).Lookup(Rejects)
	require.NoError(t, err)

	err = cmd.Trigger.Fire(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, err.Error(), "rejects")
}

func TestNewCommands_BindsTriggers(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	cmds := NewCommands(map[string]Trigger{
		Logs: TriggerFunc(func(ctx context.Context) error {
			fired.Add(1)
			return nil
		}),
	})

	cmd, err := cmds.Lookup(Logs)
	require.NoError(t, err)
	require.NoError(t, cmd.Trigger.Fire(context.Background()))
	assert.Equal(t, int32(1), fired.Load())
}

func TestCommands_ForReturnsCopy(t *testing.T) {
	t.Parallel()

	cmds := NewCommands(nil)
	got := cmds.For(stage.Complete)
	got[0].Name = "mutated"

	assert.Equal(t, Snapshot, cmds.For(stage.Complete)[0].Name)
}

func TestLookupAndFind(t *testing.T) {
	t.Parallel()

	cmds := NewCommands(nil)

	_, err := cmds.Lookup("download_everything")
	assert.ErrorIs(t, err, ErrUnknownAction)

	cmd, err := Find(cmds.For(stage.Complete), Reclaimed)
	require.NoError(t, err)
	assert.Equal(t, "Successfully Reclaimed CSV", cmd.Label)

	_, err = Find(cmds.For(stage.Complete), Init)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Full Log", Label(Logs))
	assert.Equal(t, "custom", Label("custom"))
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	r := NewRunner()
	boom := errors.New("boom")

	err := r.Run(context.Background(), Command{Name: "x", Trigger: TriggerFunc(func(ctx context.Context) error {
		return boom
	})})
	assert.ErrorIs(t, err, boom)
	assert.False(t, r.InFlight("x"))

	err = r.Run(context.Background(), Command{Name: "nil"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRunner_StartSingleFlight(t *testing.T) {
	t.Parallel()

	r := NewRunner()
	release := make(chan struct{})
	cmd := Command{Name: Snapshot, Trigger: TriggerFunc(func(ctx context.Context) error {
		<-release
		return nil
	})}

	id, err := r.Start(context.Background(), cmd)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, r.InFlight(Snapshot))

	_, err = r.Start(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrInFlight)

	// Other names are unaffected.
	otherID, err := r.Start(context.Background(), Command{Name: Logs, Trigger: TriggerFunc(func(ctx context.Context) error { return nil })})
	require.NoError(t, err)
	assert.NotEqual(t, id, otherID)

	close(release)
	r.Wait()
	assert.False(t, r.InFlight(Snapshot))

	got := map[string]string{}
	for i := 0; i < 2; i++ {
		select {
		case res := <-r.Results():
			assert.NoError(t, res.Err)
			got[res.Name] = res.ID
		case <-time.After(time.Second):
			t.Fatal("missing result")
		}
	}
	assert.Equal(t, id, got[Snapshot])
	assert.Equal(t, otherID, got[Logs])
}

func TestExecTrigger(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	t.Parallel()

	ok := &ExecTrigger{Name: Logs, Args: []string{"sh", "-c", "echo exporting"}}
	assert.NoError(t, ok.Fire(context.Background()))

	fail := &ExecTrigger{Name: Logs, Args: []string{"sh", "-c", "echo nope >&2; exit 3"}}
	err := fail.Fire(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action logs failed")
	assert.Contains(t, err.Error(), "nope")

	empty := &ExecTrigger{Name: Logs}
	assert.ErrorIs(t, empty.Fire(context.Background()), ErrNotConfigured)
}

func TestHTTPTrigger(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ok := &HTTPTrigger{Name: Snapshot, URL: srv.URL + "/export/snapshot"}
	assert.NoError(t, ok.Fire(context.Background()))

	fail := &HTTPTrigger{Name: Snapshot, URL: srv.URL + "/fail"}
	err := fail.Fire(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 502")

	assert.Equal(t, int32(2), calls.Load())

	empty := &HTTPTrigger{Name: Snapshot}
	assert.ErrorIs(t, empty.Fire(context.Background()), ErrNotConfigured)
}

func TestTriggersFromConfig(t *testing.T) {
	t.Parallel()

	triggers, err := TriggersFromConfig(map[string]config.Action{
		Init:     {Command: []string{"node", "snapshot.js"}},
		Snapshot: {URL: "http://localhost:9000/export/snapshot", Method: "PUT"},
		Logs:     {Command: []string{"cat", "log.txt"}, URL: "http://ignored"},
	}, "/srv/pipeline")
	require.NoError(t, err)
	require.Len(t, triggers, 3)

	initTrigger, ok := triggers[Init].(*ExecTrigger)
	require.True(t, ok)
	assert.Equal(t, "/srv/pipeline", initTrigger.Dir)

	snapTrigger, ok := triggers[Snapshot].(*HTTPTrigger)
	require.True(t, ok)
	assert.Equal(t, "PUT", snapTrigger.Method)

	_, ok = triggers[Logs].(*ExecTrigger)
	assert.True(t, ok, "command takes precedence over url")

	_, err = TriggersFromConfig(map[string]config.Action{Rejects: {}}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs command or url")

	_, err = TriggersFromConfig(map[string]config.Action{"download_all": {URL: "http://x"}}, "")
	assert.ErrorIs(t, err, ErrUnknownAction)
}
