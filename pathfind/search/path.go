package search

import "fmt"

// ReconstructPath walks parent links from the goal back to the start and
// returns the path ordered start to goal, both endpoints included. It is only
// valid once the engine reports Found. The result is computed once; every
// call returns a fresh copy.
func (e *Engine) ReconstructPath() ([]Position, error) {
	if e.state != StateFound {
		return nil, fmt.Errorf("reconstruct path in state %s: %w", e.state, ErrIllegalStateTransition)
	}

	if e.path == nil {
		path, err := e.walkParents()
		if err != nil {
			return nil, err
		}
		e.path = path
	}

	out := make([]Position, len(e.path))
	copy(out, e.path)
	return out, nil
}

func (e *Engine) walkParents() ([]Position, error) {
	startIdx := e.grid.index(e.start)
	idx := e.grid.index(e.goal)
	limit := len(e.grid.cells)

	path := []Position{e.goal}
	for idx != startIdx {
		parent := e.grid.at(idx).parent
		if parent == noParent {
			return nil, fmt.Errorf("cell %s has no parent before reaching start %s: %w",
				e.grid.position(idx), e.start, ErrInternalInvariantViolation)
		}
		if len(path) > limit {
			return nil, fmt.Errorf("parent chain longer than %d cells: %w", limit, ErrInternalInvariantViolation)
		}
		idx = parent
		path = append(path, e.grid.position(idx))
	}

	// reverse path
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}
