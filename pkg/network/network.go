// Package network builds the metabolite reaction graph from observed masses
// and searches it for candidate pathways.
package network

import (
	"sort"

	"github.com/gemecrap/gemecrap/pkg/mass"
)

// Node is one resolved metabolite hypothesis. ID is the node's mass label as
// emitted to the network file ("118.0635457" or "117.079+H"). Adduct-variant
// hypotheses of the same observed mass that resolve to the same neutral mass
// are merged into a single node carrying the union of adduct labels.
type Node struct {
	ID       string
	Base     string  // observed mass as written in the input file
	Observed float64 // observed mass value
	Neutral  float64 // resolved neutral mass
	Adducts  []string
	Anchor   bool
}

// Edge connects two nodes whose neutral-mass difference matched a reaction
// delta within tolerance. Parallel edges between the same pair carry the
// distinct reactions that fit.
type Edge struct {
	Source   string // node ID, the lighter neutral mass
	Target   string // node ID, the heavier neutral mass
	Reaction string
	Delta    float64 // observed neutral-mass difference
}

// Network is the constructed metabolite graph.
type Network struct {
	Nodes map[string]*Node
	Edges []*Edge

	adj map[string][]*Edge
}

// New creates an empty network.
func New() *Network {
	return &Network{
		Nodes: make(map[string]*Node),
		adj:   make(map[string][]*Edge),
	}
}

// AddNode inserts a node, replacing any node with the same ID.
func (n *Network) AddNode(node *Node) {
	n.Nodes[node.ID] = node
}

// AddEdge appends an edge and indexes it from both endpoints.
func (n *Network) AddEdge(e *Edge) {
	n.Edges = append(n.Edges, e)
	n.adj[e.Source] = append(n.adj[e.Source], e)
	n.adj[e.Target] = append(n.adj[e.Target], e)
}

// Incident returns the edges touching a node.
func (n *Network) Incident(id string) []*Edge {
	return n.adj[id]
}

// Other returns the node at the far end of e from id.
func (e *Edge) Other(id string) string {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}

// NodesByNeutral returns every node whose resolved neutral mass agrees with
// weight under the comparator, sorted by ID for determinism.
func (n *Network) NodesByNeutral(weight float64, cmp mass.Comparator) []*Node {
	var out []*Node
	for _, node := range n.Nodes {
		if cmp.Within(node.Neutral, weight) {
			out = append(out, node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortedNodes returns the nodes sorted by neutral mass then ID, the order
// used when emitting the network file.
func (n *Network) SortedNodes() []*Node {
	out := make([]*Node, 0, len(n.Nodes))
	for _, node := range n.Nodes {
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Neutral != out[j].Neutral {
			return out[i].Neutral < out[j].Neutral
		}
		return out[i].ID < out[j].ID
	})
	return out
}
