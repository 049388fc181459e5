package graph

// Path is an ordered root-to-leaf task chain assigned to one isolated
// worker and browser surface.
type Path []*Task

// DerivePaths derives the plan's execution paths. Leaves are tasks no
// other task depends on; each leaf is traced back to a root following
// only the first listed dependency at every hop.
//
// Tasks with multiple dependencies are traced through their first
// dependency only. Planner output is always a linear chain, so this
// never matters in practice; hand-built graphs with fan-in will leave
// the extra dependencies out of any path.
func DerivePaths(p *Plan) []Path {
	dependedOn := make(map[string]bool)
	for _, t := range p.Tasks {
		for _, dep := range t.Dependencies {
			dependedOn[dep] = true
		}
	}

	var paths []Path
	for _, t := range p.Tasks {
		if dependedOn[t.ID] {
			continue // not a leaf
		}
		paths = append(paths, trace(p, t))
	}
	return paths
}

// trace walks from a leaf to its root along first dependencies and
// returns the chain in execution order (root first).
func trace(p *Plan, leaf *Task) Path {
	var reversed []*Task
	current := leaf
	visited := make(map[string]bool)

	for current != nil && !visited[current.ID] {
		visited[current.ID] = true
		reversed = append(reversed, current)
		if len(current.Dependencies) == 0 {
			break
		}
		current = p.Lookup(current.Dependencies[0])
	}

	path := make(Path, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}
