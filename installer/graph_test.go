package installer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leeforge/essentials/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFormatChain(t *testing.T) {
	assert.Equal(t, "'A' -> 'B' -> 'A'", formatChain([]string{"A", "B", "A"}))
	assert.Equal(t, "'A'", formatChain([]string{"A"}))
}

func TestValidateGraph_Diamond(t *testing.T) {
	set := plugin.MustNewSet(
		newPlugin("a", "A", false, dependsOn("b", plugin.StateInstalled), dependsOn("c", plugin.StateInstalled)),
		newPlugin("b", "B", false, dependsOn("d", plugin.StateInstalled)),
		newPlugin("c", "C", false, dependsOn("d", plugin.StateInstalled)),
		newPlugin("d", "D", false),
	)
	root, _ := set.Get("a")
	assert.Nil(t, validateGraph(root, set))
}

func TestValidateGraph_MissingBeforeLaterCycle(t *testing.T) {
	set := plugin.MustNewSet(
		newPlugin("a", "A", false, dependsOnID("gone"), dependsOn("b", plugin.StateInstalled)),
		newPlugin("b", "B", false, dependsOn("a", plugin.StateInstalled)),
	)
	root, _ := set.Get("a")
	problem := validateGraph(root, set)
	require.NotNil(t, problem)
	assert.Equal(t, "gone", problem.missingID)
	assert.Empty(t, problem.cycle)
}

// referenceHasCycle uses three-colour marking to decide whether a cycle is
// reachable from root.
func referenceHasCycle(root string, edges map[string][]string) bool {
	const (
		white = iota
		grey
		black
	)
	colour := make(map[string]int)
	var visit func(string) bool
	visit = func(n string) bool {
		colour[n] = grey
		for _, next := range edges[n] {
			switch colour[next] {
			case grey:
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		colour[n] = black
		return false
	}
	return visit(root)
}

func TestValidateGraph_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 7).Draw(t, "plugins")
		edges := make(map[string][]string, n)
		descriptors := make([]*plugin.Descriptor, n)
		byName := make(map[string]string, n)

		for i := 0; i < n; i++ {
			id := fmt.Sprintf("p%d", i)
			name := fmt.Sprintf("Plugin %d", i)
			byName[name] = id
			targets := rapid.SliceOfN(rapid.IntRange(0, n-1), 0, 3).Draw(t, "deps-"+id)
			var deps []plugin.Dependency
			for _, target := range targets {
				dep := fmt.Sprintf("p%d", target)
				edges[id] = append(edges[id], dep)
				deps = append(deps, dependsOn(dep, plugin.StateInstalled))
			}
			descriptors[i] = newPlugin(id, name, false, deps...)
		}

		set := plugin.MustNewSet(descriptors...)
		root, _ := set.Get("p0")
		problem := validateGraph(root, set)

		if !referenceHasCycle("p0", edges) {
			if problem != nil {
				t.Fatalf("unexpected problem %+v", problem)
			}
			return
		}
		if problem == nil || len(problem.cycle) < 2 {
			t.Fatalf("cycle not reported: %+v", problem)
		}
		chain := problem.cycle
		if chain[0] != chain[len(chain)-1] {
			t.Fatalf("chain does not close: %s", strings.Join(chain, ","))
		}
		for i := 0; i+1 < len(chain); i++ {
			from, to := byName[chain[i]], byName[chain[i+1]]
			found := false
			for _, e := range edges[from] {
				if e == to {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("chain step %s -> %s is not an edge", chain[i], chain[i+1])
			}
		}
	})
}
