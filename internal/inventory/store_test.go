package inventory

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/sysvers/internal/config"
	"github.com/sshcollectorpro/sysvers/internal/database"
	"github.com/sshcollectorpro/sysvers/internal/detect"
	"github.com/sshcollectorpro/sysvers/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenSQLite(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "inventory.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return NewStore(db)
}

func TestStoreUpsertAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Upsert(ctx, Descriptor{Name: "rtr-2", Family: model.FamilyJuniper}))
	require.NoError(t, s.Upsert(ctx, Descriptor{Name: "rtr-1", Port: 2222}))
	require.NoError(t, s.Upsert(ctx, Descriptor{Name: "rtr-2", Family: model.FamilyCisco, RecordedVersion: "15.2"}))

	devices, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "rtr-1", devices[0].Name)
	assert.Equal(t, 2222, devices[0].Port)
	assert.Empty(t, devices[0].Family)
	assert.Equal(t, model.FamilyCisco, devices[1].Family)
	assert.Equal(t, "15.2", devices[1].RecordedVersion)

	assert.Error(t, s.Upsert(ctx, Descriptor{Name: " "}))
	assert.ErrorIs(t, s.Upsert(ctx, Descriptor{Name: "x", Family: "vax"}), model.ErrUnknownFamily)

	require.NoError(t, s.Delete(ctx, "rtr-1"))
	assert.Error(t, s.Delete(ctx, "rtr-1"))
}

func TestStoreRecordResults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Upsert(ctx, Descriptor{Name: "sw-1", RecordedVersion: "16.9"}))

	results := map[string]model.Result{
		"sw-1": {Host: "sw-1", Family: model.FamilyCisco, Command: "show version", Class: model.Success, Output: "Cisco IOS XE Software, Version 17.03.04"},
		"sw-2": {Host: "sw-2", Family: model.FamilyAuto, Class: model.AuthenticationFailure, Detail: "ssh: authentication failed"},
		"srv":  {Host: "srv", Family: model.FamilyLinux, Class: model.Success, Output: `PRETTY_NAME="Debian GNU/Linux 12"`},
	}
	recorded := map[string]string{"sw-1": "16.9"}
	require.NoError(t, s.RecordResults(ctx, "run-1", results, recorded))

	devices, err := s.List(ctx)
	require.NoError(t, err)
	byName := map[string]Descriptor{}
	for _, d := range devices {
		byName[d.Name] = d
	}
	require.Len(t, byName, 2, "failed hosts are not added to the inventory")
	assert.Equal(t, model.FamilyCisco, byName["sw-1"].Family)
	assert.Equal(t, "17.03.04", byName["sw-1"].RecordedVersion)
	assert.Equal(t, "Debian GNU/Linux 12", byName["srv"].RecordedVersion)
	assert.Equal(t, model.FamilyLinux, byName["srv"].Family)

	history, err := s.History(ctx, "sw-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "run-1", history[0].RunID)
	assert.True(t, history[0].Drift)

	history, err = s.History(ctx, "sw-2", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, string(model.AuthenticationFailure), history[0].Class)
	assert.False(t, history[0].Drift)
}

func TestStoreRecordResultsStableAcrossUptime(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	showVersion := func(uptime string) model.Result {
		return model.Result{
			Host:    "rtr-1",
			Family:  model.FamilyCisco,
			Command: "show version",
			Class:   model.Success,
			Output: "Cisco IOS Software, C2900 Software (C2900-UNIVERSALK9-M), Version 15.2(4)M, RELEASE SOFTWARE (fc1)\n" +
				"rtr-1 uptime is " + uptime + "\nSystem image file is \"flash:c2900-universalk9-mz.SPA.152-4.M.bin\"",
		}
	}

	// 每轮都以清单中的记录作为漂移基准，和 batch 命令一致
	run := func(id, uptime string) model.CheckRecord {
		devices, err := s.List(ctx)
		require.NoError(t, err)
		results := map[string]model.Result{"rtr-1": showVersion(uptime)}
		require.NoError(t, s.RecordResults(ctx, id, results, Recorded(devices)))
		history, err := s.History(ctx, "rtr-1", 1)
		require.NoError(t, err)
		require.Len(t, history, 1)
		return history[0]
	}

	assert.False(t, run("run-1", "1 day, 2 hours").Drift)
	assert.False(t, run("run-2", "1 day, 3 hours").Drift)

	devices, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "15.2(4)M", devices[0].RecordedVersion)

	upgraded := showVersion("5 minutes")
	upgraded.Output = strings.Replace(upgraded.Output, "15.2(4)M", "15.7(3)M8", 1)
	require.NoError(t, s.RecordResults(ctx, "run-3", map[string]model.Result{"rtr-1": upgraded}, Recorded(devices)))
	history, err := s.History(ctx, "rtr-1", 1)
	require.NoError(t, err)
	assert.True(t, history[0].Drift)
}

func TestTargets(t *testing.T) {
	devices := []Descriptor{
		{Name: "a", Port: 2222, Family: model.FamilyMacOS, RecordedVersion: "14.4"},
		{Name: " b ", RecordedVersion: "17.03.04"},
		{Name: "c"},
	}
	assert.Equal(t, []detect.Target{
		{Host: "a", Port: 2222, Family: model.FamilyMacOS},
		{Host: " b "},
		{Host: "c"},
	}, Targets(devices))
	assert.Equal(t, map[string]string{"a": "14.4", "b": "17.03.04"}, Recorded(devices))
}
