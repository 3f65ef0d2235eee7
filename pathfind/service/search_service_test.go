package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/gridpath/pathfind/search"
	"github.com/wricardo/gridpath/pathfind/service"
	"github.com/wricardo/gridpath/pathfind/session"
)


// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, config *search.GridConfig) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := search.NewFromConfig(config)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *search.GridConfig) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.saves++
	return nil
}

func (m *MockSessionManager) Count() int { return len(m.sessions) }

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*search.GridConfig
}

func NewMockConfigManager() *MockConfigManager {
	open := &search.GridConfig{
		Name:  "test",
		Rows:  5,
		Cols:  5,
		Start: &search.Position{X: 0, Y: 0},
		Goal:  &search.Position{X: 4, Y: 4},
	}
	walled := &search.GridConfig{
		Name: "walled",
		Rows: 4,
		Cols: 4,
		Layout: []string{
			"S...",
			"....",
			"...#",
			"..#G",
		},
	}
	def := *open
	def.Name = "default"
	return &MockConfigManager{
		configs: map[string]*search.GridConfig{
			"test":    open,
			"walled":  walled,
			"default": &def,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*search.GridConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, fmt.Errorf("%s: %w", name, service.ErrConfigNotFound)
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			Rows:        config.Rows,
			Cols:        config.Cols,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *search.GridConfig {
	return m.configs["default"]
}

func (m *MockConfigManager) SaveConfig(name string, config *search.GridConfig) error {
	if err := search.ValidateGridConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

func newTestService(t *testing.T) (service.SearchService, *MockSessionManager, *MockConfigManager) {
	t.Helper()
	sessions := NewMockSessionManager()
	configs := NewMockConfigManager()
	return service.NewSearchService(sessions, configs), sessions, configs
}

func TestSearchService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	tests := []struct {
		name       string
		configName string
		wantErr    bool
	}{
		{"create with default config", "", false},
		{"create with specific config", "walled", false},
		{"create with invalid config", "nonexistent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.CreateSession(ctx, tt.configName)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, service.ErrConfigNotFound)
				assert.Contains(t, err.Error(), "available configs")
				return
			}
			require.NoError(t, err)
			require.NotNil(t, info)
			assert.NotEmpty(t, info.ID)
			assert.Equal(t, "idle", info.Snapshot.State)
			assert.Empty(t, info.RunID)
		})
	}
}

func TestSearchService_StepLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	info, err := svc.CreateSession(ctx, "test")
	require.NoError(t, err)

	t.Run("step while idle without auto start", func(t *testing.T) {
		_, err := svc.Step(ctx, info.ID, false)
		assert.ErrorIs(t, err, search.ErrIllegalStateTransition)
	})

	t.Run("auto start assigns a run id", func(t *testing.T) {
		result, err := svc.Step(ctx, info.ID, true)
		require.NoError(t, err)
		assert.True(t, result.Started)
		assert.NotEmpty(t, result.RunID)
		assert.Equal(t, "continue", result.Status)
		require.NotNil(t, result.Expanded)
		assert.Equal(t, search.Position{X: 0, Y: 0}, *result.Expanded)
		assert.Equal(t, 1, result.Snapshot.Steps)
	})

	t.Run("wall edits rejected while running", func(t *testing.T) {
		_, err := svc.ToggleWall(ctx, info.ID, 2, 2)
		assert.ErrorIs(t, err, search.ErrIllegalStateTransition)
	})

	t.Run("start while running", func(t *testing.T) {
		_, err := svc.Start(ctx, info.ID)
		assert.ErrorIs(t, err, search.ErrIllegalStateTransition)
	})

	t.Run("run to completion", func(t *testing.T) {
		result, err := svc.BulkStep(ctx, info.ID, 0, false)
		require.NoError(t, err)
		assert.Equal(t, "found", result.Status)
		assert.False(t, result.Truncated)
		assert.Equal(t, 8, result.StepsExecuted, "7 expansions then the goal extraction")
		assert.Len(t, result.Expanded, 7)
		assert.Equal(t, "Goal reached", result.Message)
		assert.True(t, result.Snapshot.Found)
		assert.Len(t, result.Snapshot.Path, 9)
	})

	t.Run("path", func(t *testing.T) {
		path, err := svc.GetPath(ctx, info.ID)
		require.NoError(t, err)
		assert.True(t, path.Found)
		assert.Equal(t, 8, path.Length)
		assert.Equal(t, 8, path.Expanded)
		assert.Equal(t, search.Position{X: 4, Y: 4}, path.Path[len(path.Path)-1])
	})

	t.Run("terminal step repeats status", func(t *testing.T) {
		result, err := svc.Step(ctx, info.ID, true)
		require.NoError(t, err)
		assert.Equal(t, "found", result.Status)
		assert.False(t, result.Started)
		assert.Nil(t, result.Expanded)

		bulk, err := svc.BulkStep(ctx, info.ID, 10, false)
		require.NoError(t, err)
		assert.Equal(t, "found", bulk.Status)
		assert.Zero(t, bulk.StepsExecuted)
	})

	t.Run("reset clears run", func(t *testing.T) {
		snap, err := svc.Reset(ctx, info.ID)
		require.NoError(t, err)
		assert.Equal(t, "idle", snap.State)
		assert.Zero(t, snap.Steps)

		got, err := svc.GetSession(ctx, info.ID)
		require.NoError(t, err)
		assert.Empty(t, got.RunID)

		_, err = svc.GetPath(ctx, info.ID)
		assert.ErrorIs(t, err, search.ErrIllegalStateTransition)
	})
}

func TestSearchService_NoPath(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	info, err := svc.CreateSession(ctx, "walled")
	require.NoError(t, err)

	result, err := svc.BulkStep(ctx, info.ID, 0, true)
	require.NoError(t, err)
	assert.Equal(t, "exhausted", result.Status)
	assert.Len(t, result.Expanded, 13)

	path, err := svc.GetPath(ctx, info.ID)
	require.NoError(t, err)
	assert.False(t, path.Found)
	assert.Empty(t, path.Path)
	assert.Equal(t, "exhausted", path.State)
}

func TestSearchService_BulkStepLimits(t *testing.T) {
	ctx := context.Background()
	svc, _, configs := newTestService(t)
	configs.configs["large"] = &search.GridConfig{
		Name:  "large",
		Rows:  60,
		Cols:  60,
		Start: &search.Position{X: 0, Y: 0},
		Goal:  &search.Position{X: 59, Y: 59},
		Walls: []search.Position{{X: 58, Y: 59}, {X: 59, Y: 58}},
	}

	info, err := svc.CreateSession(ctx, "large")
	require.NoError(t, err)

	t.Run("negative count", func(t *testing.T) {
		_, err := svc.BulkStep(ctx, info.ID, -1, true)
		assert.ErrorIs(t, err, search.ErrInvalidBounds)
	})

	t.Run("bounded count", func(t *testing.T) {
		result, err := svc.BulkStep(ctx, info.ID, 5, true)
		require.NoError(t, err)
		assert.Equal(t, 5, result.StepsExecuted)
		assert.Equal(t, 5, result.RequestedSteps)
		assert.Equal(t, "continue", result.Status)
		assert.False(t, result.Truncated)
	})

	t.Run("count above limit is truncated", func(t *testing.T) {
		result, err := svc.BulkStep(ctx, info.ID, search.MaxBulkSteps+100, false)
		require.NoError(t, err)
		assert.Equal(t, search.MaxBulkSteps, result.StepsExecuted)
		assert.True(t, result.Truncated)
		assert.Equal(t, search.MaxBulkSteps, result.Limit)
	})

	t.Run("until terminal is capped per call", func(t *testing.T) {
		result, err := svc.BulkStep(ctx, info.ID, 0, false)
		require.NoError(t, err)
		assert.Equal(t, search.MaxBulkSteps, result.StepsExecuted)
		assert.True(t, result.Truncated)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.BulkStep(cctx, info.ID, 3, false)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSearchService_ToggleWall(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _ := newTestService(t)

	info, err := svc.CreateSession(ctx, "test")
	require.NoError(t, err)

	snap, err := svc.ToggleWall(ctx, info.ID, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []search.Position{{X: 3, Y: 1}}, snap.Walls)
	assert.Equal(t, 1, sessions.saves)

	_, err = svc.ToggleWall(ctx, info.ID, 9, 9)
	assert.ErrorIs(t, err, search.ErrInvalidBounds)

	_, err = svc.ToggleWall(ctx, info.ID, 0, 0)
	require.NoError(t, err, "start may be walled while idle")
	_, err = svc.Start(ctx, info.ID)
	assert.ErrorIs(t, err, search.ErrEndpointIsWall)

	_, err = svc.ToggleWall(ctx, "missing", 0, 0)
	assert.Error(t, err)
}

func TestSearchService_GetTrace(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	info, err := svc.CreateSession(ctx, "test")
	require.NoError(t, err)
	_, err = svc.BulkStep(ctx, info.ID, 0, true)
	require.NoError(t, err)

	full, err := svc.GetTrace(ctx, info.ID, service.TraceOptions{Limit: 100})
	require.NoError(t, err)
	require.Equal(t, 8, full.TotalSteps)

	snap, err := svc.GetSnapshot(ctx, info.ID)
	require.NoError(t, err)
	assert.Len(t, snap.Closed, full.TotalSteps)

	tests := []struct {
		name      string
		opts      service.TraceOptions
		wantSteps []int
		wantNext  bool
		wantPrev  bool
	}{
		{"first page ascending", service.TraceOptions{Page: 1, Limit: 3}, []int{1, 2, 3}, true, false},
		{"last page ascending", service.TraceOptions{Page: 3, Limit: 3}, []int{7, 8}, false, true},
		{"first page descending", service.TraceOptions{Page: 1, Limit: 3, Order: "desc"}, []int{8, 7, 6}, true, false},
		{"past the end", service.TraceOptions{Page: 5, Limit: 3}, []int{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetTrace(ctx, info.ID, tt.opts)
			require.NoError(t, err)

			steps := []int{}
			for _, e := range resp.Entries {
				steps = append(steps, e.Step)
				assert.Equal(t, full.Entries[e.Step-1].Position, e.Position)
			}
			if diff := cmp.Diff(tt.wantSteps, steps); diff != "" {
				t.Errorf("trace steps mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantNext, resp.HasNext)
			assert.Equal(t, tt.wantPrev, resp.HasPrevious)
			assert.Equal(t, 3, resp.TotalPages)
		})
	}
}

func TestSearchService_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateSession(ctx, "test")
		require.NoError(t, err)
	}

	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	for _, s := range sessions {
		assert.Equal(t, "test", s.ConfigName)
	}

	require.NoError(t, svc.DeleteSession(ctx, sessions[0].ID))
	assert.Error(t, svc.DeleteSession(ctx, sessions[0].ID))

	sessions, err = svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestSearchService_ExportLayout(t *testing.T) {
	ctx := context.Background()
	svc, _, configs := newTestService(t)

	info, err := svc.CreateSession(ctx, "test")
	require.NoError(t, err)
	_, err = svc.ToggleWall(ctx, info.ID, 2, 2)
	require.NoError(t, err)

	exported, err := svc.ExportLayout(ctx, info.ID, "mine")
	require.NoError(t, err)

	want := []string{
		"S....",
		".....",
		"..#..",
		".....",
		"....G",
	}
	if diff := cmp.Diff(want, exported.Layout); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, configs.configs, "mine")

	created, err := svc.CreateSession(ctx, "mine")
	require.NoError(t, err)
	assert.Equal(t, []search.Position{{X: 2, Y: 2}}, created.Snapshot.Walls)
}

func TestSearchService_ExportLayoutRejectsWalledEndpoint(t *testing.T) {
	ctx := context.Background()
	svc, _, configs := newTestService(t)

	info, err := svc.CreateSession(ctx, "test")
	require.NoError(t, err)
	_, err = svc.ToggleWall(ctx, info.ID, 4, 4)
	require.NoError(t, err)

	_, err = svc.ExportLayout(ctx, info.ID, "blocked")
	assert.ErrorIs(t, err, search.ErrEndpointIsWall)
	assert.NotContains(t, configs.configs, "blocked")
}

// Run with -race: readers of the access time must not overlap its writes.
func TestSearchService_ConcurrentReads(t *testing.T) {
	ctx := context.Background()
	svc := service.NewSearchService(session.NewManager(), NewMockConfigManager())

	info, err := svc.CreateSession(ctx, "test")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				var err error
				switch (g + i) % 4 {
				case 0:
					_, err = svc.GetSession(ctx, info.ID)
				case 1:
					_, err = svc.GetSnapshot(ctx, info.ID)
				case 2:
					_, err = svc.GetTrace(ctx, info.ID, service.TraceOptions{})
				default:
					_, err = svc.ListSessions(ctx)
				}
				if err != nil {
					errs <- err
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent read failed: %v", err)
	}

	got, err := svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.False(t, got.LastAccessedAt.Before(info.LastAccessedAt))
}
