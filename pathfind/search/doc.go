// Package search provides an incremental A* search over a 4-connected grid.
//
// The search package implements:
//   - A fixed-size grid of cells with toggleable walls
//   - A frontier (open set) with stable tie-breaking and decrease-key
//   - A step-at-a-time search engine with an explicit lifecycle
//   - Path reconstruction from parent links
//   - Grid configuration layouts and a plain-text renderer
//
// Core Types:
//
// Engine drives one search and satisfies the Searcher interface. It owns a
// Grid and a Frontier. Snapshot is the read-only view handed to renderers and
// transports. GridConfig describes a layout that NewFromConfig turns into an
// idle Engine.
//
// Usage:
//
//	eng, err := search.New(20, 20, search.Position{X: 3, Y: 3}, search.Position{X: 15, Y: 15})
//	if err != nil {
//		log.Fatal(err)
//	}
//	_ = eng.ToggleWall(5, 5)
//
//	if err := eng.Start(); err != nil {
//		log.Fatal(err)
//	}
//	for {
//		status, err := eng.Step()
//		if err != nil || status != search.StatusContinue {
//			break
//		}
//	}
//	path, err := eng.ReconstructPath()
//
// Lifecycle:
//
// An engine starts Idle. Start moves it to Running; each Step expands at most
// one cell until the goal is extracted (Found) or the frontier empties
// (Exhausted). Reset returns to Idle from any state and keeps walls. Walls may
// only change while Idle.
//
// Expansion is deterministic: neighbors are visited east, west, south, north
// and frontier ties break on lower h, then on earlier insertion.
package search
