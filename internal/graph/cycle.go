package graph

// findCycle returns a witness cycle as node indexes, first index repeated
// last, or nil when the graph is acyclic. Strongly connected components of
// size one are only cycles when they carry a self-loop.
func (g *QueryGraph) findCycle() []NodeIndex {
	for _, scc := range tarjanSCC(g.out) {
		if len(scc) == 1 {
			if g.hasSelfLoop(scc[0]) {
				return []NodeIndex{scc[0], scc[0]}
			}
			continue
		}
		return g.cyclePath(scc)
	}
	return nil
}

func (g *QueryGraph) hasSelfLoop(ix NodeIndex) bool {
	for _, next := range g.out[ix] {
		if next == ix {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components over the dense adjacency
// lists using Tarjan's algorithm. Each component is a list of node indexes.
func tarjanSCC(out [][]NodeIndex) [][]NodeIndex {
	const unvisited = -1

	n := len(out)
	indices := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range indices {
		indices[i] = unvisited
	}

	var (
		index int
		stack []NodeIndex
		sccs  [][]NodeIndex
	)

	var strongConnect func(v NodeIndex)
	strongConnect = func(v NodeIndex) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range out[v] {
			if indices[w] == unvisited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []NodeIndex
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := 0; v < n; v++ {
		if indices[v] == unvisited {
			strongConnect(NodeIndex(v))
		}
	}
	return sccs
}

// cyclePath walks edges inside one multi-node component from its smallest
// index back around to itself, backtracking out of branches that do not
// close. Adjacency lists are sorted, so the walk and therefore the witness
// path are deterministic. A multi-node component is strongly connected, so
// the walk always closes.
func (g *QueryGraph) cyclePath(scc []NodeIndex) []NodeIndex {
	members := make(map[NodeIndex]bool, len(scc))
	start := scc[0]
	for _, ix := range scc {
		members[ix] = true
		if ix < start {
			start = ix
		}
	}

	path := []NodeIndex{start}
	visited := map[NodeIndex]bool{}
	var walk func(current NodeIndex) bool
	walk = func(current NodeIndex) bool {
		visited[current] = true
		for _, neighbor := range g.out[current] {
			if !members[neighbor] {
				continue
			}
			if neighbor == start {
				path = append(path, start)
				return true
			}
			if visited[neighbor] {
				continue
			}
			path = append(path, neighbor)
			if walk(neighbor) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	walk(start)
	return path
}
