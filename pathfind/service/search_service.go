package service

import (
	"context"
	"time"

	"github.com/wricardo/gridpath/pathfind/search"
)

// SearchService defines all search-related operations
type SearchService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Grid editing
	ToggleWall(ctx context.Context, sessionID string, row, col int) (*search.Snapshot, error)

	// Search Operations
	Start(ctx context.Context, sessionID string) (*StartResult, error)
	Step(ctx context.Context, sessionID string, autoStart bool) (*StepResult, error)
	BulkStep(ctx context.Context, sessionID string, count int, autoStart bool) (*BulkStepResult, error)
	Reset(ctx context.Context, sessionID string) (*search.Snapshot, error)

	// Search State
	GetSnapshot(ctx context.Context, sessionID string) (*search.Snapshot, error)
	GetPath(ctx context.Context, sessionID string) (*PathResult, error)
	GetTrace(ctx context.Context, sessionID string, opts TraceOptions) (*TraceResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*search.GridConfig, error)
	SaveConfig(ctx context.Context, configName string, config *search.GridConfig) error
	ExportLayout(ctx context.Context, sessionID, configName string) (*search.GridConfig, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *search.GridConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *search.GridConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
	Count() int
}

// ConfigManager handles grid configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*search.GridConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *search.GridConfig
	SaveConfig(name string, config *search.GridConfig) error
}

// Session represents one grid and its search. RunID identifies the current
// run and is empty while the engine is idle.
type Session struct {
	ID             string
	Engine         *search.Engine
	Config         *search.GridConfig
	RunID          string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
