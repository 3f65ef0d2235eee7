package service

import (
	"time"

	"github.com/wricardo/gridpath/pathfind/search"
)

// SessionInfo provides information about a search session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	RunID          string             `json:"run_id,omitempty"`
	Snapshot       *search.Snapshot   `json:"snapshot"`
	GridConfig     *search.GridConfig `json:"grid_config"`
}

// StartResult is returned when a run begins
type StartResult struct {
	RunID    string           `json:"run_id"`
	Snapshot *search.Snapshot `json:"snapshot"`
}

// StepResult contains the outcome of a single expansion
type StepResult struct {
	Status   string           `json:"status"` // continue|found|exhausted
	RunID    string           `json:"run_id"`
	Started  bool             `json:"started,omitempty"`
	Expanded *search.Position `json:"expanded,omitempty"`
	Message  string           `json:"message"`
	Snapshot *search.Snapshot `json:"snapshot"`
}

// BulkStepResult contains the outcome of several expansions
type BulkStepResult struct {
	StepsExecuted  int    `json:"steps_executed"`
	RequestedSteps int    `json:"requested_steps"` // 0 means until terminal
	Status         string `json:"status"`
	RunID          string `json:"run_id"`
	Started        bool   `json:"started,omitempty"`
	Truncated      bool   `json:"truncated,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Message        string `json:"message"`

	// Cells expanded during this call, in order
	Expanded []search.Position `json:"expanded"`
	Snapshot *search.Snapshot  `json:"snapshot"`
}

// PathResult describes the reconstructed path of a finished run
type PathResult struct {
	Found    bool              `json:"found"`
	State    string            `json:"state"`
	Path     []search.Position `json:"path"`
	Length   int               `json:"length"` // edges, len(path)-1
	Expanded int               `json:"expanded"`
}

// TraceOptions configures expansion trace retrieval
type TraceOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// TraceEntry records one expansion; Step is 1-based
type TraceEntry struct {
	Step     int             `json:"step"`
	Position search.Position `json:"position"`
}

// TraceResponse contains a page of the expansion trace
type TraceResponse struct {
	Entries     []TraceEntry `json:"entries"`
	TotalSteps  int          `json:"total_steps"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
	TotalPages  int          `json:"total_pages"`
	HasNext     bool         `json:"has_next"`
	HasPrevious bool         `json:"has_previous"`
}

// ConfigInfo provides information about a grid configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
}
