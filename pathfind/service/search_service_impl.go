package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/wricardo/gridpath/pathfind/search"
)

var (
	// ErrConfigNotFound is returned by ConfigManager implementations for
	// unknown configuration names.
	ErrConfigNotFound = errors.New("configuration not found")
	// ErrSessionNotFound is returned by SessionManager implementations for
	// unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")
)

// Option configures the search service
type Option func(*searchServiceImpl)

// WithLogger sets the logger used for warnings and run transitions
func WithLogger(logger *slog.Logger) Option {
	return func(s *searchServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// searchServiceImpl implements the SearchService interface
type searchServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewSearchService creates a new search service instance
func NewSearchService(sessions SessionManager, configs ConfigManager, opts ...Option) SearchService {
	s := &searchServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *searchServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *searchServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		RunID:          sess.RunID,
		Snapshot:       sess.Engine.Snapshot(),
		GridConfig:     sess.Config,
	}
}

// session fetches a session and marks it accessed. Callers hold s.mu for
// writing, since the access time is read by sessionInfo under the same lock.
func (s *searchServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.logger.Debug("update last accessed", "session", sessionID, "error", err)
	}
	return sess, nil
}

func (s *searchServiceImpl) persist(sessionID, op string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.Warn("failed to persist session", "session", sessionID, "op", op, "error", err)
	}
}

// CreateSession creates a new search session
func (s *searchServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *search.GridConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs: %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found, use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sessionsActive.Set(float64(s.sessions.Count()))

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}
	s.logger.Info("session created", "session", sess.ID, "config", configID,
		"rows", config.Rows, "cols", config.Cols)

	return s.sessionInfo(sess, configID), nil
}

// GetSession retrieves session information
func (s *searchServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess, s.getConfigID(sess.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *searchServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	sessionsActive.Set(float64(len(sessions)))

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *searchServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	sessionsActive.Set(float64(s.sessions.Count()))
	s.logger.Info("session deleted", "session", sessionID)
	return nil
}

// ToggleWall flips a wall on an idle session
func (s *searchServiceImpl) ToggleWall(ctx context.Context, sessionID string, row, col int) (*search.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.ToggleWall(row, col); err != nil {
		return nil, err
	}
	s.persist(sessionID, "toggle_wall")
	return sess.Engine.Snapshot(), nil
}

// startLocked begins a run and assigns it a fresh run ID. Callers hold s.mu.
func (s *searchServiceImpl) startLocked(sess *Session) error {
	if err := sess.Engine.Start(); err != nil {
		return err
	}
	sess.RunID = uuid.NewString()
	s.logger.Debug("search started", "session", sess.ID, "run", sess.RunID,
		"start", sess.Engine.StartPosition(), "goal", sess.Engine.GoalPosition())
	return nil
}

// Start moves an idle session's engine to running
func (s *searchServiceImpl) Start(ctx context.Context, sessionID string) (*StartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.startLocked(sess); err != nil {
		return nil, err
	}
	return &StartResult{RunID: sess.RunID, Snapshot: sess.Engine.Snapshot()}, nil
}

// stepLocked performs one expansion and records metrics for it. Callers hold s.mu.
func (s *searchServiceImpl) stepLocked(sess *Session) (search.Status, *search.Position, error) {
	wasRunning := sess.Engine.State() == search.StateRunning
	before := sess.Engine.Steps()

	status, err := sess.Engine.Step()
	if err != nil {
		return status, nil, err
	}
	if !wasRunning {
		// terminal repeat, nothing happened
		return status, nil, nil
	}
	stepsTotal.WithLabelValues(status.String()).Inc()

	var expanded *search.Position
	if sess.Engine.Steps() > before {
		if p, ok := sess.Engine.Current(); ok {
			expanded = &p
		}
	}

	if status != search.StatusContinue {
		s.recordOutcome(sess, status)
	}
	return status, expanded, nil
}

func (s *searchServiceImpl) recordOutcome(sess *Session, status search.Status) {
	searchesTotal.WithLabelValues(status.String()).Inc()
	attrs := []any{"session", sess.ID, "run", sess.RunID, "expanded", sess.Engine.Steps()}
	if status == search.StatusFound {
		if path, err := sess.Engine.ReconstructPath(); err == nil {
			pathLength.Observe(float64(len(path) - 1))
			attrs = append(attrs, "path_length", len(path)-1)
		} else {
			s.logger.Error("path reconstruction failed", "session", sess.ID, "run", sess.RunID, "error", err)
		}
	}
	s.logger.Info("search finished", append(attrs, "outcome", status.String())...)
}

func terminalStatus(state search.State) search.Status {
	switch state {
	case search.StateFound:
		return search.StatusFound
	case search.StateExhausted:
		return search.StatusExhausted
	}
	return search.StatusContinue
}

func stepMessage(status search.Status, expanded *search.Position) string {
	switch status {
	case search.StatusFound:
		return "Goal reached"
	case search.StatusExhausted:
		return "Frontier exhausted, no path exists"
	}
	if expanded != nil {
		return fmt.Sprintf("Expanded %s", *expanded)
	}
	return "Running"
}

// Step performs a single expansion, optionally starting an idle search first
func (s *searchServiceImpl) Step(ctx context.Context, sessionID string, autoStart bool) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	started := false
	if autoStart && sess.Engine.State() == search.StateIdle {
		if err := s.startLocked(sess); err != nil {
			return nil, err
		}
		started = true
	}

	status, expanded, err := s.stepLocked(sess)
	if err != nil {
		return nil, err
	}

	return &StepResult{
		Status:   status.String(),
		RunID:    sess.RunID,
		Started:  started,
		Expanded: expanded,
		Message:  stepMessage(status, expanded),
		Snapshot: sess.Engine.Snapshot(),
	}, nil
}

// BulkStep performs up to count expansions, or until terminal when count is 0.
// Either way at most search.MaxBulkSteps expansions run per call.
func (s *searchServiceImpl) BulkStep(ctx context.Context, sessionID string, count int, autoStart bool) (*BulkStepResult, error) {
	if count < 0 {
		return nil, fmt.Errorf("step count must not be negative, got %d: %w", count, search.ErrInvalidBounds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkStepResult{
		RequestedSteps: count,
		Expanded:       []search.Position{},
	}

	if autoStart && sess.Engine.State() == search.StateIdle {
		if err := s.startLocked(sess); err != nil {
			return nil, err
		}
		result.Started = true
	}

	// Limit steps to prevent abuse
	limit := count
	if count == 0 || count > search.MaxBulkSteps {
		limit = search.MaxBulkSteps
		if count > search.MaxBulkSteps {
			result.Truncated = true
			result.Limit = search.MaxBulkSteps
		}
	}

	status := terminalStatus(sess.Engine.State())
	var last *search.Position
	for i := 0; i < limit && !sess.Engine.State().Terminal(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var expanded *search.Position
		status, expanded, err = s.stepLocked(sess)
		if err != nil {
			return nil, err
		}
		result.StepsExecuted++
		if expanded != nil {
			result.Expanded = append(result.Expanded, *expanded)
			last = expanded
		}
		if status != search.StatusContinue {
			break
		}
	}
	if count == 0 && status == search.StatusContinue && result.StepsExecuted == limit {
		result.Truncated = true
		result.Limit = search.MaxBulkSteps
	}

	result.Status = status.String()
	result.RunID = sess.RunID
	result.Message = stepMessage(status, last)
	result.Snapshot = sess.Engine.Snapshot()
	return result, nil
}

// Reset returns the session's engine to idle, keeping walls
func (s *searchServiceImpl) Reset(ctx context.Context, sessionID string) (*search.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Engine.State() == search.StateRunning {
		searchesTotal.WithLabelValues("abandoned").Inc()
	}
	sess.Engine.Reset()
	sess.RunID = ""
	s.persist(sessionID, "reset")

	return sess.Engine.Snapshot(), nil
}

// GetSnapshot retrieves the current search snapshot
func (s *searchServiceImpl) GetSnapshot(ctx context.Context, sessionID string) (*search.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.Snapshot(), nil
}

// GetPath returns the path of a finished search
func (s *searchServiceImpl) GetPath(ctx context.Context, sessionID string) (*PathResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.State()
	result := &PathResult{
		State:    state.String(),
		Path:     []search.Position{},
		Expanded: sess.Engine.Steps(),
	}
	switch state {
	case search.StateExhausted:
		return result, nil
	case search.StateFound:
	default:
		return nil, fmt.Errorf("path requested while %s: %w", state, search.ErrIllegalStateTransition)
	}

	path, err := sess.Engine.ReconstructPath()
	if err != nil {
		return nil, err
	}
	result.Found = true
	result.Path = path
	result.Length = len(path) - 1
	return result, nil
}

// GetTrace retrieves paginated expansion history
func (s *searchServiceImpl) GetTrace(ctx context.Context, sessionID string, opts TraceOptions) (*TraceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.Expanded()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "asc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	entries := []TraceEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			entries = append(entries, TraceEntry{Step: i + 1, Position: history[i]})
		}
	} else {
		for i := start; i < end; i++ {
			entries = append(entries, TraceEntry{Step: i + 1, Position: history[i]})
		}
	}

	return &TraceResponse{
		Entries:     entries,
		TotalSteps:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available configurations
func (s *searchServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific configuration
func (s *searchServiceImpl) LoadConfig(ctx context.Context, configName string) (*search.GridConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a configuration
func (s *searchServiceImpl) SaveConfig(ctx context.Context, configName string, config *search.GridConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ExportLayout saves the session's current walls and endpoints as a new configuration
func (s *searchServiceImpl) ExportLayout(ctx context.Context, sessionID, configName string) (*search.GridConfig, error) {
	s.mu.Lock()
	sess, err := s.session(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	grid := sess.Engine.Grid()
	if grid.IsWall(sess.Engine.StartPosition()) || grid.IsWall(sess.Engine.GoalPosition()) {
		s.mu.Unlock()
		return nil, fmt.Errorf("export session %s: %w", sess.ID, search.ErrEndpointIsWall)
	}
	config := &search.GridConfig{
		Name:        configName,
		Description: fmt.Sprintf("Exported from session %s", sess.ID),
		Rows:        grid.Rows(),
		Cols:        grid.Cols(),
		Layout:      search.EncodeLayout(sess.Engine),
	}
	s.mu.Unlock()

	if err := s.configs.SaveConfig(configName, config); err != nil {
		return nil, err
	}
	return config, nil
}
