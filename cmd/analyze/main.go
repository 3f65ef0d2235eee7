// Command analyze prints quick, human-readable statistics about the grid
// configurations in a configs directory: dimensions, wall density, the
// Manhattan lower bound, the actual shortest path, and how many cells the
// search had to expand to find it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wricardo/gridpath/pathfind/config"
	"github.com/wricardo/gridpath/pathfind/search"
)

// Analysis holds the statistics for one configuration. PathLength is -1 when
// the goal is unreachable.
type Analysis struct {
	ConfigID    string
	Name        string
	Rows        int
	Cols        int
	Walls       int
	WallDensity float64
	Manhattan   int
	PathLength  int
	Expansions  int
	Render      []string
}

// Detour is the number of extra moves walls force over the Manhattan bound
func (a Analysis) Detour() int {
	if a.PathLength < 0 {
		return 0
	}
	return a.PathLength - a.Manhattan
}

// Efficiency is path cells per expanded cell, 1.0 when the search never strays
func (a Analysis) Efficiency() float64 {
	if a.PathLength < 0 || a.Expansions == 0 {
		return 0
	}
	// The goal itself is never expanded
	return float64(a.PathLength) / float64(a.Expansions)
}

func main() {
	dir := flag.String("dir", "configs", "Directory containing grid configurations")
	render := flag.Bool("render", false, "Print the finished search grid")
	flag.Parse()

	manager, err := config.NewManager(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing configs: %v\n", err)
		os.Exit(1)
	}

	for _, info := range infos {
		fmt.Printf("\n=== Analyzing %s ===\n", info.Filename)

		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			continue
		}

		analysis, err := analyzeConfig(cfg)
		if err != nil {
			fmt.Printf("Error analyzing config: %v\n", err)
			continue
		}
		analysis.ConfigID = info.ConfigID
		printAnalysis(os.Stdout, analysis, *render)
	}
}

// analyzeConfig runs a full search over cfg and gathers statistics
func analyzeConfig(cfg *search.GridConfig) (Analysis, error) {
	engine, err := search.NewFromConfig(cfg)
	if err != nil {
		return Analysis{}, err
	}

	rows, cols := engine.Grid().Rows(), engine.Grid().Cols()
	walls := len(engine.Grid().Walls())
	a := Analysis{
		Name:        cfg.Name,
		Rows:        rows,
		Cols:        cols,
		Walls:       walls,
		WallDensity: float64(walls) / float64(rows*cols),
		Manhattan:   search.ManhattanDistance(engine.StartPosition(), engine.GoalPosition()),
		PathLength:  -1,
	}

	if err := engine.Start(); err != nil {
		return a, err
	}
	status, err := engine.Run(context.Background())
	if err != nil {
		return a, err
	}

	a.Expansions = engine.Steps()
	if status == search.StatusFound {
		path, err := engine.ReconstructPath()
		if err != nil {
			return a, err
		}
		a.PathLength = len(path) - 1
	}
	a.Render = search.Render(engine.Snapshot())
	return a, nil
}

func printAnalysis(w io.Writer, a Analysis, render bool) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.Rows, a.Cols)
	fmt.Fprintf(w, "Walls: %d (%.1f%%)\n", a.Walls, a.WallDensity*100)
	fmt.Fprintf(w, "Manhattan Distance: %d\n", a.Manhattan)
	fmt.Fprintf(w, "Expansions: %d\n", a.Expansions)

	if a.PathLength < 0 {
		fmt.Fprintf(w, "⚠️  Goal unreachable: frontier exhausted after %d expansions\n", a.Expansions)
	} else {
		fmt.Fprintf(w, "✅ Shortest Path: %d moves (detour %d)\n", a.PathLength, a.Detour())
		fmt.Fprintf(w, "Search Efficiency: %.2f\n", a.Efficiency())
	}

	if render {
		for _, line := range a.Render {
			fmt.Fprintln(w, line)
		}
	}
}
