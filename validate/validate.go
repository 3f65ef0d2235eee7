// Command validate checks grid configuration files (.json, .yaml, .yml) in a
// directory, ../configs by default. It checks:
//   - File structure and required fields
//   - Dimensions, row widths and allowed characters (. # S G)
//   - Exactly one start and one goal, on free cells
//   - Reachability: the search engine is run to completion on every grid
//
// Unreachable goals are reported but do not make a file invalid; grids with a
// sealed goal are legitimate test cases.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/gridpath/pathfind/config"
	"github.com/wricardo/gridpath/pathfind/search"
)

// ValidationResult captures the outcome of validating a single file.
// Errors holds the problems found when Valid is false; Info holds the
// report lines for a valid file.
type ValidationResult struct {
	File      string
	Valid     bool
	Reachable bool
	Errors    []string
	Info      []string
}

// validateConfig loads and validates a single configuration file, then runs
// a full search over it to report reachability.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
		Info:   []string{},
	}

	cfg, err := config.ParseFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	engine, err := search.NewFromConfig(cfg)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot build grid: %v", err))
		return result
	}

	walls := len(engine.Grid().Walls())

	reach := validateConnectivity(engine)
	if len(reach.Errors) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, reach.Errors...)
		return result
	}
	result.Reachable = reach.Reachable

	start, goal := engine.StartPosition(), engine.GoalPosition()
	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", cfg.Name),
		fmt.Sprintf("✓ Grid: %dx%d", engine.Grid().Rows(), engine.Grid().Cols()),
		fmt.Sprintf("✓ Start: (%d,%d) Goal: (%d,%d)", start.X, start.Y, goal.X, goal.Y),
		fmt.Sprintf("✓ Walls: %d", walls),
	)
	result.Info = append(result.Info, reach.Info...)
	return result
}

// validateConnectivity runs the search to completion. Errors are only
// reported for engine failures; an exhausted frontier is informational.
func validateConnectivity(engine *search.Engine) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
		Info:   []string{},
	}

	if err := engine.Start(); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot start search: %v", err))
		return result
	}

	status, err := engine.Run(context.Background())
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Search failed: %v", err))
		return result
	}

	switch status {
	case search.StatusFound:
		path, err := engine.ReconstructPath()
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Path reconstruction failed: %v", err))
			return result
		}
		result.Reachable = true
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Connectivity: goal reachable, path length %d", len(path)-1),
			fmt.Sprintf("✓ Expansions: %d", engine.Steps()))
	default:
		result.Info = append(result.Info,
			fmt.Sprintf("⚠ Connectivity: goal unreachable, frontier exhausted after %d expansions", engine.Steps()))
	}

	return result
}

// configFiles lists the configuration files in dir
func configFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

// main validates every configuration in the directory given as the first
// argument, printing a concise report and exiting with non-zero status if any
// are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := configFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Info {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
