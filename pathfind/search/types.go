package search

import "fmt"

const (
	// Validation constants
	MinGridSize     = 2
	MaxGridSize     = 200
	MaxBulkSteps    = 500
	noParent        = -1
	notInFrontier   = -1
	defaultGridSize = 20
)

// Position represents x,y coordinates. X is the column, Y is the row.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Cell is a node of the grid graph. Cells are owned by their Grid; values
// handed out by Grid.Cell and Engine.Cell are copies.
type Cell struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	Wall   bool `json:"wall"`
	G      int  `json:"g"`
	H      int  `json:"h"`
	F      int  `json:"f"`
	Open   bool `json:"open,omitempty"`
	Closed bool `json:"closed,omitempty"`

	parent int
	grid   *Grid
}

// Position returns the cell coordinates.
func (c Cell) Position() Position {
	return Position{X: c.X, Y: c.Y}
}

// Parent returns the back-reference used for path reconstruction.
func (c Cell) Parent() (Position, bool) {
	if c.parent == noParent || c.grid == nil {
		return Position{}, false
	}
	return c.grid.position(c.parent), true
}

// setCosts stores g, derives h from the goal and recomputes f.
func (c *Cell) setCosts(goal Position, g int) {
	c.G = g
	c.H = ManhattanDistance(c.Position(), goal)
	c.F = c.G + c.H
}

// Status is the outcome of a single Step.
type Status int

const (
	StatusContinue Status = iota
	StatusFound
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusContinue:
		return "continue"
	case StatusFound:
		return "found"
	case StatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// State is the engine lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateFound
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFound:
		return "found"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further expansion can happen without a reset.
func (s State) Terminal() bool {
	return s == StateFound || s == StateExhausted
}

// Snapshot is the read-only view of a search handed to presentation layers
type Snapshot struct {
	Rows     int        `json:"rows"`
	Cols     int        `json:"cols"`
	Start    Position   `json:"start"`
	Goal     Position   `json:"goal"`
	State    string     `json:"state"`
	Steps    int        `json:"steps"`
	Walls    []Position `json:"walls"`
	Open     []Position `json:"open"`
	Closed   []Position `json:"closed"`
	Current  *Position  `json:"current,omitempty"`
	Path     []Position `json:"path,omitempty"`
	Done     bool       `json:"done"`
	Found    bool       `json:"found"`
	Frontier int        `json:"frontier"`

	// Computed helper view (not used by the engine)
	Render []string `json:"render,omitempty"`
}
