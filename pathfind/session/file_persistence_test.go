package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/gridpath/pathfind/config"
	"github.com/wricardo/gridpath/pathfind/search"
)

func newTestPersistence(t *testing.T) (*FilePersistence, *config.Manager, string) {
	t.Helper()
	tempDir := t.TempDir()

	configManager, err := config.NewManager("../../configs")
	require.NoError(t, err)

	persistence, err := NewFilePersistence(filepath.Join(tempDir, "sessions"), configManager)
	require.NoError(t, err)
	return persistence, configManager, filepath.Join(tempDir, "sessions")
}

func TestFilePersistence(t *testing.T) {
	persistence, configManager, dir := newTestPersistence(t)
	manager := NewManager()

	small, err := configManager.LoadConfig("small")
	require.NoError(t, err)

	session, err := manager.Create("edit", small)
	require.NoError(t, err)
	require.NoError(t, session.Engine.ToggleWall(0, 3))
	require.NoError(t, session.Engine.Start())
	_, err = session.Engine.Step()
	require.NoError(t, err)

	t.Run("save writes grid only", func(t *testing.T) {
		require.NoError(t, persistence.Save(session))
		assert.True(t, persistence.Exists("edit"))

		raw, err := os.ReadFile(filepath.Join(dir, "edit.json"))
		require.NoError(t, err)

		var data PersistedSessionData
		require.NoError(t, json.Unmarshal(raw, &data))
		assert.Equal(t, "small", data.ConfigName)
		require.NotNil(t, data.Grid)
		assert.Equal(t, []string{
			"S..#.",
			".....",
			".###.",
			".....",
			"....G",
		}, data.Grid.Layout)
		assert.NotContains(t, string(raw), "closed")
	})

	t.Run("load rebuilds idle engine with walls", func(t *testing.T) {
		loaded, err := persistence.Load("edit")
		require.NoError(t, err)
		assert.Equal(t, "edit", loaded.ID)
		assert.Equal(t, search.StateIdle, loaded.Engine.State())
		assert.Zero(t, loaded.Engine.Steps())
		assert.True(t, loaded.Engine.Grid().IsWall(search.Position{X: 3, Y: 0}))
		assert.Equal(t, "Small", loaded.Config.Name)
		assert.WithinDuration(t, session.CreatedAt, loaded.CreatedAt, 0)
	})

	t.Run("list and delete", func(t *testing.T) {
		ids, err := persistence.ListAll()
		require.NoError(t, err)
		assert.Equal(t, []string{"edit"}, ids)

		require.NoError(t, persistence.Delete("edit"))
		assert.False(t, persistence.Exists("edit"))
		assert.ErrorIs(t, persistence.Delete("edit"), ErrSessionNotFound)
		_, err = persistence.Load("edit")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("legacy file without grid uses config", func(t *testing.T) {
		legacy := []byte(`{"id": "old", "config_name": "walled"}`)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), legacy, 0644))

		loaded, err := persistence.Load("old")
		require.NoError(t, err)
		assert.Equal(t, 8, loaded.Engine.Grid().Rows())
	})

	t.Run("rejects path-like ids", func(t *testing.T) {
		_, err := persistence.Load("../escape")
		assert.ErrorIs(t, err, ErrInvalidSessionID)
		assert.False(t, persistence.Exists("a/b"))
	})
}

func TestFilePersistence_EndpointWallsSurviveReload(t *testing.T) {
	persistence, configManager, dir := newTestPersistence(t)
	manager := NewManager()

	small, err := configManager.LoadConfig("small")
	require.NoError(t, err)

	session, err := manager.Create("blocked", small)
	require.NoError(t, err)
	require.NoError(t, session.Engine.ToggleWall(0, 0))
	require.NoError(t, session.Engine.ToggleWall(4, 4))
	require.ErrorIs(t, session.Engine.Start(), search.ErrEndpointIsWall)

	require.NoError(t, persistence.Save(session))

	raw, err := os.ReadFile(filepath.Join(dir, "blocked.json"))
	require.NoError(t, err)
	var data PersistedSessionData
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Equal(t, []search.Position{{X: 0, Y: 0}, {X: 4, Y: 4}}, data.EndpointWalls)

	loaded, err := persistence.Load("blocked")
	require.NoError(t, err)
	assert.True(t, loaded.Engine.Grid().IsWall(search.Position{X: 0, Y: 0}))
	assert.True(t, loaded.Engine.Grid().IsWall(search.Position{X: 4, Y: 4}))
	assert.ErrorIs(t, loaded.Engine.Start(), search.ErrEndpointIsWall)
	assert.Equal(t, search.StateIdle, loaded.Engine.State())

	// Clearing the walls after reload makes the grid searchable again
	require.NoError(t, loaded.Engine.ToggleWall(0, 0))
	require.NoError(t, loaded.Engine.ToggleWall(4, 4))
	require.NoError(t, loaded.Engine.Start())

	t.Run("stray endpoint wall is rejected", func(t *testing.T) {
		data.EndpointWalls = []search.Position{{X: 2, Y: 0}}
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "blocked.json"), raw, 0644))

		_, err = persistence.Load("blocked")
		assert.Error(t, err)
	})
}

func TestManagerWithPersistence(t *testing.T) {
	persistence, configManager, _ := newTestPersistence(t)
	manager := NewManagerWithPersistence(persistence)

	session, err := manager.Create("auto1", configManager.GetDefault())
	require.NoError(t, err)
	assert.True(t, persistence.Exists(session.ID), "session should be auto-saved on creation")

	t.Run("get loads from persistence", func(t *testing.T) {
		manager2 := NewManagerWithPersistence(persistence)
		loaded, err := manager2.Get("auto1")
		require.NoError(t, err)
		assert.Equal(t, "auto1", loaded.ID)
		assert.Equal(t, 1, manager2.Count())
	})

	t.Run("load all persisted sessions", func(t *testing.T) {
		_, err := manager.Create("auto2", configManager.GetDefault())
		require.NoError(t, err)

		manager3 := NewManagerWithPersistence(persistence)
		require.NoError(t, manager3.LoadPersistedSessions())
		assert.Equal(t, 2, manager3.Count())
	})

	t.Run("delete from memory keeps file", func(t *testing.T) {
		require.NoError(t, manager.DeleteFromMemory("auto2"))
		assert.True(t, persistence.Exists("auto2"))

		got, err := manager.Get("auto2")
		require.NoError(t, err)
		assert.Equal(t, "auto2", got.ID)
	})

	t.Run("delete removes file", func(t *testing.T) {
		require.NoError(t, manager.Delete("auto1"))
		assert.False(t, persistence.Exists("auto1"))
	})

	t.Run("save all", func(t *testing.T) {
		assert.NoError(t, manager.SaveAllSessions())
	})
}
