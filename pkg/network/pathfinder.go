package network

import (
	"sort"

	"github.com/gemecrap/gemecrap/pkg/mass"
)

// Step is one reaction hop along a pathway. Parallel reaction matches for the
// same node pair stay together on the step; the ambiguity is reported, not
// resolved.
type Step struct {
	Source    string
	Target    string
	Reactions []string
	Delta     float64
}

// Pathway is an ordered reaction chain from a start node to an end node.
type Pathway []Step

// PathFinder streams pathways between two neutral masses in breadth-first
// order, so the shortest chains surface first. It follows the streaming
// iterator contract: Next advances, Path returns the current result. No
// pathway between the weights is an expected outcome, not an error.
//
//	pf := network.NewPathFinder(net, cfg)
//	for pf.Next() {
//		use(pf.Path())
//	}
type PathFinder struct {
	net *Network
	cfg SearchConfig

	queue   []searchState
	pending []Pathway
	current Pathway
	started bool
}

// SearchConfig bounds the pathway search.
type SearchConfig struct {
	StartWeight float64
	EndWeight   float64

	// EndpointCmp matches node neutral masses against Start/EndWeight.
	EndpointCmp mass.Comparator

	// MaxDepth is the maximum number of steps in a pathway.
	MaxDepth int
}

type searchState struct {
	nodeID string
	depth  int
	path   Pathway
	used   map[string]bool // observed-mass bases on the path
}

// NewPathFinder prepares a search over net. An empty result set (no node
// matches the start weight, or no chain reaches the end weight) is an
// expected outcome; Next simply returns false.
func NewPathFinder(net *Network, cfg SearchConfig) *PathFinder {
	return &PathFinder{net: net, cfg: cfg}
}

// Next advances to the next pathway, returning false when the search space is
// exhausted.
func (pf *PathFinder) Next() bool {
	if !pf.started {
		pf.started = true
		pf.seed()
	}

	for len(pf.pending) == 0 && len(pf.queue) > 0 {
		state := pf.queue[0]
		pf.queue = pf.queue[1:]
		pf.visit(state)
	}

	if len(pf.pending) == 0 {
		pf.current = nil
		return false
	}
	pf.current = pf.pending[0]
	pf.pending = pf.pending[1:]
	return true
}

// Path returns the pathway found by the last successful Next.
func (pf *PathFinder) Path() Pathway {
	return pf.current
}

// seed enqueues every node whose neutral mass matches the start weight.
func (pf *PathFinder) seed() {
	for _, node := range pf.net.NodesByNeutral(pf.cfg.StartWeight, pf.cfg.EndpointCmp) {
		pf.queue = append(pf.queue, searchState{
			nodeID: node.ID,
			used:   map[string]bool{node.Base: true},
		})
	}
}

// visit expands one frontier state, grouping parallel edges to the same
// neighbor into a single step. A neighbor matching the end weight closes the
// pathway; anything else re-enters the queue while depth remains.
func (pf *PathFinder) visit(s searchState) {
	if s.depth >= pf.cfg.MaxDepth {
		return
	}

	current := pf.net.Nodes[s.nodeID]
	if current == nil {
		return
	}

	steps := make(map[string]*Step)
	var order []string
	for _, e := range pf.net.Incident(s.nodeID) {
		otherID := e.Other(s.nodeID)
		other := pf.net.Nodes[otherID]
		if other == nil || s.used[other.Base] {
			continue
		}
		st, ok := steps[otherID]
		if !ok {
			st = &Step{Source: current.ID, Target: otherID, Delta: e.Delta}
			steps[otherID] = st
			order = append(order, otherID)
		}
		st.Reactions = append(st.Reactions, e.Reaction)
	}
	sort.Strings(order)

	for _, otherID := range order {
		st := steps[otherID]
		other := pf.net.Nodes[otherID]

		path := make(Pathway, len(s.path), len(s.path)+1)
		copy(path, s.path)
		path = append(path, *st)

		if pf.cfg.EndpointCmp.Within(other.Neutral, pf.cfg.EndWeight) {
			pf.pending = append(pf.pending, path)
			continue
		}
		if s.depth+1 >= pf.cfg.MaxDepth {
			continue
		}

		used := make(map[string]bool, len(s.used)+1)
		for k := range s.used {
			used[k] = true
		}
		used[other.Base] = true
		pf.queue = append(pf.queue, searchState{
			nodeID: otherID,
			depth:  s.depth + 1,
			path:   path,
			used:   used,
		})
	}
}
