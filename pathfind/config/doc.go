// Package config provides grid configuration management for gridpath.
//
// The config package handles:
//   - Loading grid layouts from JSON and YAML files
//   - Configuration validation
//   - Default configuration management
//   - Configuration discovery, listing and saving
//
// Configuration Format:
//
// Layouts are stored in the configs directory as .json, .yaml or .yml files.
// Each configuration defines a name, dimensions, and either a layout using
// '.' free, '#' wall, 'S' start and 'G' goal, or explicit start, goal and
// wall positions.
//
// Available Configurations:
//
//   - classic: open 20x20 grid from (3,3) to (15,15)
//   - maze: winding corridors
//   - walled: goal sealed off, the search exhausts
//   - small: 5x5 grid for quick experiments
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gridConfig, err := manager.LoadConfig("maze")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
package config
