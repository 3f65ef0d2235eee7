package search

import (
	"fmt"
	"strings"
)

// GridConfig describes a grid layout, its endpoints and walls.
//
// Layout rows use '.' for free cells, '#' for walls, 'S' for the start and
// 'G' for the goal. Start, Goal and Walls may be given explicitly instead of
// (or in addition to) the layout.
type GridConfig struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Rows        int        `json:"rows" yaml:"rows"`
	Cols        int        `json:"cols" yaml:"cols"`
	Start       *Position  `json:"start,omitempty" yaml:"start,omitempty"`
	Goal        *Position  `json:"goal,omitempty" yaml:"goal,omitempty"`
	Layout      []string   `json:"layout,omitempty" yaml:"layout,omitempty"`
	Walls       []Position `json:"walls,omitempty" yaml:"walls,omitempty"`
}

// ValidateGridConfig validates a grid configuration for correctness
func ValidateGridConfig(config *GridConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	_, _, _, err := config.Resolve()
	return err
}

// Resolve validates the config and returns its endpoints and walls.
func (c *GridConfig) Resolve() (start, goal Position, walls []Position, err error) {
	if c.Name == "" {
		return start, goal, nil, fmt.Errorf("config validation: name is required")
	}
	if c.Rows < MinGridSize || c.Rows > MaxGridSize {
		return start, goal, nil, fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinGridSize, MaxGridSize, c.Rows)
	}
	if c.Cols < MinGridSize || c.Cols > MaxGridSize {
		return start, goal, nil, fmt.Errorf("config validation: cols must be between %d and %d, got %d", MinGridSize, MaxGridSize, c.Cols)
	}

	var layoutStart, layoutGoal *Position
	if len(c.Layout) > 0 {
		if len(c.Layout) != c.Rows {
			return start, goal, nil, fmt.Errorf("config validation: layout must have %d rows to match rows, got %d", c.Rows, len(c.Layout))
		}
		for y, row := range c.Layout {
			if len(row) != c.Cols {
				return start, goal, nil, fmt.Errorf("config validation: row %d must have %d characters to match cols, got %d", y+1, c.Cols, len(row))
			}
			for x, char := range row {
				p := Position{X: x, Y: y}
				switch char {
				case RuneFree:
				case RuneWall:
					walls = append(walls, p)
				case RuneStart:
					if layoutStart != nil {
						return start, goal, nil, fmt.Errorf("config validation: more than one start (S) in layout")
					}
					layoutStart = &p
				case RuneGoal:
					if layoutGoal != nil {
						return start, goal, nil, fmt.Errorf("config validation: more than one goal (G) in layout")
					}
					layoutGoal = &p
				default:
					return start, goal, nil, fmt.Errorf("config validation: invalid character '%c' at row %d, col %d", char, y+1, x+1)
				}
			}
		}
	}

	resolvedStart, err := pickEndpoint("start", c.Start, layoutStart)
	if err != nil {
		return start, goal, nil, err
	}
	resolvedGoal, err := pickEndpoint("goal", c.Goal, layoutGoal)
	if err != nil {
		return start, goal, nil, err
	}
	start, goal = resolvedStart, resolvedGoal

	inBounds := func(p Position) bool {
		return p.X >= 0 && p.X < c.Cols && p.Y >= 0 && p.Y < c.Rows
	}
	if !inBounds(start) || !inBounds(goal) {
		return start, goal, nil, fmt.Errorf("config validation: start %s or goal %s outside %dx%d grid: %w", start, goal, c.Rows, c.Cols, ErrInvalidBounds)
	}
	if start == goal {
		return start, goal, nil, fmt.Errorf("config validation: %w", ErrStartEqualsGoal)
	}

	for _, w := range c.Walls {
		if !inBounds(w) {
			return start, goal, nil, fmt.Errorf("config validation: wall %s outside grid: %w", w, ErrInvalidBounds)
		}
		walls = append(walls, w)
	}
	for _, w := range walls {
		if w == start || w == goal {
			return start, goal, nil, fmt.Errorf("config validation: wall on endpoint %s: %w", w, ErrEndpointIsWall)
		}
	}

	return start, goal, walls, nil
}

func pickEndpoint(name string, explicit, fromLayout *Position) (Position, error) {
	switch {
	case explicit != nil && fromLayout != nil && *explicit != *fromLayout:
		return Position{}, fmt.Errorf("config validation: %s %s disagrees with layout %s", name, *explicit, *fromLayout)
	case explicit != nil:
		return *explicit, nil
	case fromLayout != nil:
		return *fromLayout, nil
	default:
		return Position{}, fmt.Errorf("config validation: %s is required", name)
	}
}

// NewFromConfig builds an idle engine from a validated configuration
func NewFromConfig(config *GridConfig) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("config validation: config is nil")
	}
	start, goal, walls, err := config.Resolve()
	if err != nil {
		return nil, err
	}

	engine, err := New(config.Rows, config.Cols, start, goal)
	if err != nil {
		return nil, err
	}
	for _, w := range walls {
		if err := engine.grid.SetWall(w.Y, w.X, true); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

// EncodeLayout renders the wall layout and endpoints of an engine as layout
// rows, suitable for GridConfig.Layout.
func EncodeLayout(e *Engine) []string {
	rows := make([]string, e.grid.rows)
	for y := 0; y < e.grid.rows; y++ {
		var b strings.Builder
		for x := 0; x < e.grid.cols; x++ {
			p := Position{X: x, Y: y}
			switch {
			case p == e.start:
				b.WriteRune(RuneStart)
			case p == e.goal:
				b.WriteRune(RuneGoal)
			case e.grid.cells[e.grid.index(p)].Wall:
				b.WriteRune(RuneWall)
			default:
				b.WriteRune(RuneFree)
			}
		}
		rows[y] = b.String()
	}
	return rows
}

// DefaultGridConfig returns the layout used when nothing else is configured:
// an open 20x20 grid from (3,3) to (15,15).
func DefaultGridConfig() *GridConfig {
	return &GridConfig{
		Name:        "default",
		Description: "Open 20x20 grid",
		Rows:        defaultGridSize,
		Cols:        defaultGridSize,
		Start:       &Position{X: 3, Y: 3},
		Goal:        &Position{X: 15, Y: 15},
	}
}
