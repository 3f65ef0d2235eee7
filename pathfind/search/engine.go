package search

import (
	"context"
	"fmt"
)

// Searcher provides the main interface for incremental search operations
type Searcher interface {
	// Lifecycle
	Start() error
	Step() (Status, error)
	Reset()
	State() State

	// Editing (only while idle)
	ToggleWall(row, col int) error

	// Results and observation
	ReconstructPath() ([]Position, error)
	Snapshot() *Snapshot
	Expanded() []Position
}

// Engine drives one A* search over a Grid, one expansion per Step. It is not
// safe for concurrent use; callers serialize access.
type Engine struct {
	grid     *Grid
	start    Position
	goal     Position
	frontier *Frontier
	state    State

	current  int
	expanded []Position
	path     []Position
}

var _ Searcher = (*Engine)(nil)

// New creates an idle search over an empty rows x cols grid
func New(rows, cols int, start, goal Position) (*Engine, error) {
	grid, err := NewGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	if !grid.InBounds(start) {
		return nil, fmt.Errorf("start %s outside %dx%d grid: %w", start, rows, cols, ErrInvalidBounds)
	}
	if !grid.InBounds(goal) {
		return nil, fmt.Errorf("goal %s outside %dx%d grid: %w", goal, rows, cols, ErrInvalidBounds)
	}
	if start == goal {
		return nil, fmt.Errorf("start and goal %s: %w", start, ErrStartEqualsGoal)
	}

	return &Engine{
		grid:     grid,
		start:    start,
		goal:     goal,
		frontier: NewFrontier(rows * cols),
		state:    StateIdle,
		current:  noParent,
	}, nil
}

// Grid returns the owned grid. Presentation layers may read cells and toggle
// walls while the engine is idle; everything else is engine-owned.
func (e *Engine) Grid() *Grid { return e.grid }

// StartPosition returns the start cell position
func (e *Engine) StartPosition() Position { return e.start }

// GoalPosition returns the goal cell position
func (e *Engine) GoalPosition() Position { return e.goal }

// State returns the current lifecycle state
func (e *Engine) State() State { return e.state }

// Steps returns the number of expansions performed in the current run.
func (e *Engine) Steps() int { return len(e.expanded) }

// ToggleWall flips a wall; rejected unless the engine is idle.
func (e *Engine) ToggleWall(row, col int) error {
	return e.grid.ToggleWall(row, col)
}

// Cell returns a copy of the cell at p.
func (e *Engine) Cell(p Position) (Cell, error) {
	return e.grid.Cell(p)
}

// Start moves Idle to Running by seeding the frontier with the start cell.
func (e *Engine) Start() error {
	if e.state != StateIdle {
		return fmt.Errorf("start from %s: %w", e.state, ErrIllegalStateTransition)
	}
	if e.grid.IsWall(e.start) || e.grid.IsWall(e.goal) {
		return fmt.Errorf("start %s goal %s: %w", e.start, e.goal, ErrEndpointIsWall)
	}

	startIdx := e.grid.index(e.start)
	cell := e.grid.at(startIdx)
	cell.setCosts(e.goal, 0)
	if err := e.frontier.Insert(startIdx, cell.F, cell.H); err != nil {
		return err
	}
	cell.Open = true

	e.grid.locked = true
	e.state = StateRunning
	return nil
}

// Step performs at most one node expansion. Calling Step in a terminal state
// repeats the terminal status without doing any work.
func (e *Engine) Step() (Status, error) {
	switch e.state {
	case StateIdle:
		return StatusContinue, fmt.Errorf("step while idle: %w", ErrIllegalStateTransition)
	case StateFound:
		return StatusFound, nil
	case StateExhausted:
		return StatusExhausted, nil
	}

	currentIdx, ok := e.frontier.ExtractMin()
	if !ok {
		e.state = StateExhausted
		e.current = noParent
		return StatusExhausted, nil
	}
	current := e.grid.at(currentIdx)
	current.Open = false
	e.current = currentIdx

	if current.Position() == e.goal {
		e.state = StateFound
		return StatusFound, nil
	}

	current.Closed = true
	e.expanded = append(e.expanded, current.Position())

	for _, np := range e.grid.Neighbors(current.Position()) {
		nIdx := e.grid.index(np)
		neighbor := e.grid.at(nIdx)
		if neighbor.Wall || neighbor.Closed {
			continue
		}

		tentativeG := current.G + 1
		inFrontier := e.frontier.Contains(nIdx)
		if inFrontier && tentativeG >= neighbor.G {
			continue
		}

		neighbor.parent = currentIdx
		neighbor.setCosts(e.goal, tentativeG)
		if inFrontier {
			if err := e.frontier.UpdatePriority(nIdx, neighbor.F, neighbor.H); err != nil {
				return StatusContinue, err
			}
			continue
		}
		if err := e.frontier.Insert(nIdx, neighbor.F, neighbor.H); err != nil {
			return StatusContinue, err
		}
		neighbor.Open = true
	}

	return StatusContinue, nil
}

// Run steps until a terminal status, checking ctx between steps.
func (e *Engine) Run(ctx context.Context) (Status, error) {
	if e.state == StateIdle {
		if err := e.Start(); err != nil {
			return StatusContinue, err
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return StatusContinue, err
		}
		status, err := e.Step()
		if err != nil || status != StatusContinue {
			return status, err
		}
	}
}

// Reset returns the engine to Idle and clears all per-search cell state.
// Walls are kept. Reset is valid from any state and idempotent.
func (e *Engine) Reset() {
	e.frontier.Clear()
	e.grid.reset()
	e.grid.locked = false
	e.state = StateIdle
	e.current = noParent
	e.expanded = nil
	e.path = nil
}

// Current returns the cell extracted by the most recent Step.
func (e *Engine) Current() (Position, bool) {
	if e.current == noParent {
		return Position{}, false
	}
	return e.grid.position(e.current), true
}

// Expanded returns the closed cells in expansion order.
func (e *Engine) Expanded() []Position {
	out := make([]Position, len(e.expanded))
	copy(out, e.expanded)
	return out
}

// Snapshot returns a copy of everything a renderer may show. It does not
// modify the engine.
func (e *Engine) Snapshot() *Snapshot {
	snap := &Snapshot{
		Rows:     e.grid.rows,
		Cols:     e.grid.cols,
		Start:    e.start,
		Goal:     e.goal,
		State:    e.state.String(),
		Steps:    len(e.expanded),
		Walls:    []Position{},
		Open:     []Position{},
		Closed:   []Position{},
		Done:     e.state.Terminal(),
		Found:    e.state == StateFound,
		Frontier: e.frontier.Len(),
	}

	for i := range e.grid.cells {
		c := &e.grid.cells[i]
		switch {
		case c.Wall:
			snap.Walls = append(snap.Walls, c.Position())
		case c.Closed:
			snap.Closed = append(snap.Closed, c.Position())
		case c.Open:
			snap.Open = append(snap.Open, c.Position())
		}
	}

	if e.current != noParent {
		p := e.grid.position(e.current)
		snap.Current = &p
	}
	if e.state == StateFound {
		// read-only: use the cached path or walk without caching
		path := e.path
		if path == nil {
			path, _ = e.walkParents()
		}
		if path != nil {
			snap.Path = make([]Position, len(path))
			copy(snap.Path, path)
		}
	}

	snap.Render = Render(snap)
	return snap
}
