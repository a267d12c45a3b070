package schema

import (
	"fmt"
	"sort"
	"strings"
)

// EmbeddingGraph is the graph of classes embedding other classes through
// object or array fields
type EmbeddingGraph struct {
	nodes map[ClassRef]*Class
	edges map[ClassRef][]ClassRef // class -> embedded classes
}

// NewEmbeddingGraph builds the embedding graph of the given classes
func NewEmbeddingGraph(classes map[ClassRef]*Class) *EmbeddingGraph {
	graph := &EmbeddingGraph{
		nodes: classes,
		edges: make(map[ClassRef][]ClassRef),
	}

	for ref, class := range classes {
		graph.edges[ref] = class.EmbeddedRefs()
	}

	return graph
}

// sortedNodes returns node references in lexical order so traversals are stable
func (g *EmbeddingGraph) sortedNodes() []ClassRef {
	refs := make([]ClassRef, 0, len(g.nodes))
	for ref := range g.nodes {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}

// DetectCycles returns the embedding cycles of the graph. A class embedding
// itself is reported as a cycle of length one.
func (g *EmbeddingGraph) DetectCycles() [][]ClassRef {
	var cycles [][]ClassRef
	visited := make(map[ClassRef]bool)
	recursionStack := make(map[ClassRef]bool)

	var dfs func(node ClassRef, path []ClassRef)
	dfs = func(node ClassRef, path []ClassRef) {
		visited[node] = true
		recursionStack[node] = true
		path = append(path, node)

		for _, neighbor := range g.edges[node] {
			if !visited[neighbor] {
				dfs(neighbor, path)
			} else if recursionStack[neighbor] {
				for i, n := range path {
					if n == neighbor {
						cycle := make([]ClassRef, len(path)-i)
						copy(cycle, path[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}

		recursionStack[node] = false
	}

	for _, node := range g.sortedNodes() {
		if !visited[node] {
			dfs(node, nil)
		}
	}

	return cycles
}

// TopologicalSort returns classes with embedded classes before the classes
// that embed them
func (g *EmbeddingGraph) TopologicalSort() ([]ClassRef, error) {
	outDegree := make(map[ClassRef]int)
	reverseEdges := make(map[ClassRef][]ClassRef)
	for _, node := range g.sortedNodes() {
		for _, target := range g.edges[node] {
			if _, known := g.nodes[target]; !known {
				continue
			}
			outDegree[node]++
			reverseEdges[target] = append(reverseEdges[target], node)
		}
	}

	queue := []ClassRef{}
	for _, node := range g.sortedNodes() {
		if outDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]ClassRef, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, dependent := range reverseEdges[node] {
			outDegree[dependent]--
			if outDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		cycles := g.DetectCycles()
		if len(cycles) > 0 {
			return nil, fmt.Errorf("circular embedding detected:\n%s", formatCycles(cycles))
		}
		return nil, fmt.Errorf("circular embedding detected")
	}

	return result, nil
}

// Embeds returns the classes directly embedded by ref
func (g *EmbeddingGraph) Embeds(ref ClassRef) []ClassRef {
	deps, exists := g.edges[ref]
	if !exists {
		return []ClassRef{}
	}
	return deps
}

// EmbeddedBy returns the classes that directly embed ref
func (g *EmbeddingGraph) EmbeddedBy(ref ClassRef) []ClassRef {
	dependents := []ClassRef{}
	for _, node := range g.sortedNodes() {
		for _, dep := range g.edges[node] {
			if dep == ref {
				dependents = append(dependents, node)
				break
			}
		}
	}
	return dependents
}

// ValidateGraph reports unknown embedded classes and embedding cycles
func (g *EmbeddingGraph) ValidateGraph() error {
	for _, node := range g.sortedNodes() {
		class := g.nodes[node]
		for _, fields := range [][]FieldDescriptor{class.Fields, class.SearchFields} {
			for _, f := range fields {
				if !f.Embed.IsClass() {
					continue
				}
				if _, exists := g.nodes[f.Embed.Class]; !exists {
					return &ValidationError{
						Class:   class.Ref,
						Field:   f.Name,
						Message: fmt.Sprintf("embeds unknown class %s", f.Embed.Class),
						Hint:    "register the embedded class before processing",
					}
				}
			}
		}
	}

	cycles := g.DetectCycles()
	if len(cycles) > 0 {
		return fmt.Errorf("circular embedding detected:\n%s", formatCycles(cycles))
	}

	return nil
}

// formatCycles formats cycle information for error messages
func formatCycles(cycles [][]ClassRef) string {
	var b strings.Builder
	for i, cycle := range cycles {
		if i > 0 {
			b.WriteString("\n")
		}
		parts := make([]string, len(cycle))
		for j, ref := range cycle {
			parts[j] = string(ref)
		}
		b.WriteString(fmt.Sprintf("  Cycle %d: %s -> %s",
			i+1,
			strings.Join(parts, " -> "),
			cycle[0]))
	}
	return b.String()
}
