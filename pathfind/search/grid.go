package search

import "fmt"

// directions lists neighbor offsets in expansion order: east, west, south, north.
// The order is part of the determinism contract.
var directions = []Position{
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 0, Y: -1},
}

// Grid is a fixed rows x cols arena of cells. Parent links are indices into
// the arena, so the back-reference graph is freed together with the grid.
type Grid struct {
	rows   int
	cols   int
	cells  []Cell
	locked bool
}

// NewGrid creates a grid with every cell passable
func NewGrid(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid %dx%d: %w", rows, cols, ErrInvalidBounds)
	}

	g := &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]Cell, rows*cols),
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			g.cells[y*cols+x] = Cell{X: x, Y: y, parent: noParent}
		}
	}
	return g, nil
}

// Rows returns the number of rows
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.cols && p.Y >= 0 && p.Y < g.rows
}

// ToggleWall flips passability of the cell at (row, col).
func (g *Grid) ToggleWall(row, col int) error {
	idx, err := g.editable(row, col)
	if err != nil {
		return err
	}
	g.cells[idx].Wall = !g.cells[idx].Wall
	return nil
}

// SetWall sets passability of the cell at (row, col) explicitly.
func (g *Grid) SetWall(row, col int, wall bool) error {
	idx, err := g.editable(row, col)
	if err != nil {
		return err
	}
	g.cells[idx].Wall = wall
	return nil
}

// IsWall reports whether p is impassable. Out of bounds counts as a wall.
func (g *Grid) IsWall(p Position) bool {
	if !g.InBounds(p) {
		return true
	}
	return g.cells[g.index(p)].Wall
}

// Cell returns a copy of the cell at p.
func (g *Grid) Cell(p Position) (Cell, error) {
	if !g.InBounds(p) {
		return Cell{}, fmt.Errorf("cell %s: %w", p, ErrInvalidBounds)
	}
	c := g.cells[g.index(p)]
	c.grid = g
	return c, nil
}

// Neighbors returns the in-bounds orthogonal neighbors of p in the fixed
// east, west, south, north order. Walls are included; callers filter them.
func (g *Grid) Neighbors(p Position) []Position {
	out := make([]Position, 0, len(directions))
	for _, d := range directions {
		np := Position{X: p.X + d.X, Y: p.Y + d.Y}
		if g.InBounds(np) {
			out = append(out, np)
		}
	}
	return out
}

// Walls returns the wall positions in row-major order.
func (g *Grid) Walls() []Position {
	var walls []Position
	for i := range g.cells {
		if g.cells[i].Wall {
			walls = append(walls, g.cells[i].Position())
		}
	}
	return walls
}

// Reset clears costs, parents and open/closed flags. Walls are kept. A grid
// locked by a running search cannot be reset; use Engine.Reset instead.
func (g *Grid) Reset() error {
	if g.locked {
		return fmt.Errorf("grid reset while a search is in progress: %w", ErrIllegalStateTransition)
	}
	g.reset()
	return nil
}

func (g *Grid) reset() {
	for i := range g.cells {
		c := &g.cells[i]
		c.G, c.H, c.F = 0, 0, 0
		c.parent = noParent
		c.Open = false
		c.Closed = false
	}
}

func (g *Grid) editable(row, col int) (int, error) {
	p := Position{X: col, Y: row}
	if !g.InBounds(p) {
		return 0, fmt.Errorf("wall at row %d col %d: %w", row, col, ErrInvalidBounds)
	}
	if g.locked {
		return 0, fmt.Errorf("wall edit while a search is in progress: %w", ErrIllegalStateTransition)
	}
	return g.index(p), nil
}

func (g *Grid) index(p Position) int {
	return p.Y*g.cols + p.X
}

func (g *Grid) position(idx int) Position {
	return Position{X: idx % g.cols, Y: idx / g.cols}
}

func (g *Grid) at(idx int) *Cell {
	return &g.cells[idx]
}
