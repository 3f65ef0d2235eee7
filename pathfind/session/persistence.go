package session

import (
	"time"

	"github.com/wricardo/gridpath/pathfind/search"
	"github.com/wricardo/gridpath/pathfind/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the JSON structure of a persisted session. Only the
// grid (dimensions, endpoints and walls) is stored; a loaded session is always
// idle.
type PersistedSessionData struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Grid           *search.GridConfig `json:"grid,omitempty"`

	// Walls toggled onto the start or goal. Layouts cannot hold them, and the
	// search refuses to start until they are removed.
	EndpointWalls []search.Position `json:"endpoint_walls,omitempty"`
}
