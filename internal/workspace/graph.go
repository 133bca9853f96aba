package workspace

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Iron-Ham/shipyard/internal/scheduler"
)

// Graph is an immutable dependency graph over package names. It satisfies
// the scheduler's DependencyGraph interface.
type Graph struct {
	deps map[string][]string
}

var _ scheduler.DependencyGraph = (*Graph)(nil)

// NewGraph builds a Graph from a name -> dependencies map. The map is
// copied; later mutation of the argument does not affect the graph.
func NewGraph(deps map[string][]string) *Graph {
	cp := make(map[string][]string, len(deps))
	for name, d := range deps {
		cp[name] = append([]string(nil), d...)
	}
	return &Graph{deps: cp}
}

// Packages returns all package names sorted alphabetically.
func (g *Graph) Packages() []string {
	names := make([]string, 0, len(g.deps))
	for name := range g.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DependenciesOf returns the declared dependencies of name, including names
// that are not part of the graph.
func (g *Graph) DependenciesOf(name string) []string {
	return g.deps[name]
}

// Validate reports a cycle among in-graph dependencies, if one exists.
// Dependencies on names outside the graph are ignored; they can never form
// a cycle within the workspace.
func (g *Graph) Validate() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(g.deps))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			// Trim the stack to the cycle itself for a readable message.
			start := 0
			for i, n := range stack {
				if n == name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, stack[start:]...), name)
			return fmt.Errorf("dependency cycle: %s", strings.Join(cycle, " -> "))
		}
		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range g.deps[name] {
			if _, ok := g.deps[dep]; !ok {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, name := range g.Packages() {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// Levels returns the longest-chain depth of every package, counting only
// in-graph dependencies. The graph must be acyclic.
func (g *Graph) Levels() map[string]int {
	levels := make(map[string]int, len(g.deps))
	var depth func(name string, onStack map[string]struct{}) int
	depth = func(name string, onStack map[string]struct{}) int {
		if lvl, ok := levels[name]; ok {
			return lvl
		}
		if _, ok := onStack[name]; ok {
			return 0
		}
		onStack[name] = struct{}{}
		lvl := 0
		for _, dep := range g.deps[name] {
			if _, ok := g.deps[dep]; !ok {
				continue
			}
			if d := depth(dep, onStack) + 1; d > lvl {
				lvl = d
			}
		}
		delete(onStack, name)
		levels[name] = lvl
		return lvl
	}
	for name := range g.deps {
		depth(name, make(map[string]struct{}))
	}
	return levels
}

// Groups returns package names grouped by level, level 0 first, each group
// sorted alphabetically. Packages in the same group have no ordering
// constraints between them.
func (g *Graph) Groups() [][]string {
	levels := g.Levels()
	max := 0
	for _, lvl := range levels {
		if lvl > max {
			max = lvl
		}
	}
	groups := make([][]string, max+1)
	for name, lvl := range levels {
		groups[lvl] = append(groups[lvl], name)
	}
	for _, group := range groups {
		sort.Strings(group)
	}
	return groups
}
