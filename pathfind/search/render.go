package search

import "strings"

// Render characters
const (
	RuneFree   = '.'
	RuneWall   = '#'
	RuneStart  = 'S'
	RuneGoal   = 'G'
	RuneOpen   = 'o'
	RuneClosed = 'x'
	RunePath   = '*'
)

// Render draws a snapshot as one string per row. Precedence: start, goal,
// wall, path, closed, open, free.
func Render(snap *Snapshot) []string {
	if snap == nil || snap.Rows <= 0 || snap.Cols <= 0 {
		return nil
	}

	canvas := make([][]byte, snap.Rows)
	for y := range canvas {
		canvas[y] = []byte(strings.Repeat(string(RuneFree), snap.Cols))
	}
	paint := func(ps []Position, ch byte) {
		for _, p := range ps {
			if p.Y >= 0 && p.Y < snap.Rows && p.X >= 0 && p.X < snap.Cols {
				canvas[p.Y][p.X] = ch
			}
		}
	}

	paint(snap.Open, RuneOpen)
	paint(snap.Closed, RuneClosed)
	paint(snap.Path, RunePath)
	paint(snap.Walls, RuneWall)
	paint([]Position{snap.Goal}, RuneGoal)
	paint([]Position{snap.Start}, RuneStart)

	lines := make([]string, snap.Rows)
	for y, row := range canvas {
		lines[y] = string(row)
	}
	return lines
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
