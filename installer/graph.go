package installer

import (
	"fmt"
	"strings"

	"github.com/leeforge/essentials/plugin"
)

// graphProblem is the first structural defect found below a plugin.
type graphProblem struct {
	missingID string   // unresolvable dependency id
	cycle     []string // plugin names, first and last equal
}

// graphWalker runs a depth-first walk over plugin dependencies in
// declaration order, carrying the current path explicitly.
type graphWalker struct {
	set  *plugin.Set
	done map[string]bool // fully explored, no cycle reachable
}

func validateGraph(root *plugin.Descriptor, set *plugin.Set) *graphProblem {
	w := &graphWalker{set: set, done: make(map[string]bool)}
	return w.walk(root, nil)
}

func (w *graphWalker) walk(d *plugin.Descriptor, path []*plugin.Descriptor) *graphProblem {
	for i, visited := range path {
		if visited.ID == d.ID {
			chain := make([]string, 0, len(path)-i+1)
			for _, p := range path[i:] {
				chain = append(chain, p.DisplayName())
			}
			return &graphProblem{cycle: append(chain, d.DisplayName())}
		}
	}
	if w.done[d.ID] {
		return nil
	}

	// full slice expression so siblings never share a backing array
	path = append(path[:len(path):len(path)], d)
	for _, dep := range d.Dependencies {
		next, ok := w.set.Get(dep.PluginID)
		if !ok {
			return &graphProblem{missingID: dep.PluginID}
		}
		if problem := w.walk(next, path); problem != nil {
			return problem
		}
	}
	w.done[d.ID] = true
	return nil
}

func formatChain(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("'%s'", n)
	}
	return strings.Join(quoted, " -> ")
}
