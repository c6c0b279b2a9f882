package network

import (
	"runtime"
	"sort"
	"sync"

	"github.com/gemecrap/gemecrap/pkg/mass"
	"github.com/gemecrap/gemecrap/pkg/reaction"
)

// Config holds network construction settings.
type Config struct {
	Adducts *mass.AdductTable

	// DeltaCmp decides whether an observed mass difference matches a
	// reaction delta. MergeCmp decides whether two hypotheses of the same
	// observed mass resolve to the same neutral mass.
	DeltaCmp mass.Comparator
	MergeCmp mass.Comparator

	// ExpandAnchors applies adduct expansion to anchor masses as well.
	// By default anchors are taken as already-neutral values, the way the
	// central mass list is produced upstream.
	ExpandAnchors bool

	// KeepParallelEdges keeps duplicate (pair, reaction) edges that arise
	// when merged adduct variants matched the same reaction row.
	KeepParallelEdges bool

	// Threads is the worker count for the pairwise comparison; 0 means
	// one worker per CPU.
	Threads int
}

// Stats reports what construction did, for operator-facing logs.
type Stats struct {
	Hypotheses    int
	MergedNodes   int
	IsolatedNodes int
	Pairs         int
	Edges         int
}

// hypothesis is one (observed mass, adduct) identity prior to merging.
type hypothesis struct {
	label   mass.Label
	value   float64
	neutral float64
	anchor  bool
}

// Build constructs the metabolite network. Every anchor and candidate mass is
// expanded into neutral-mass hypotheses, every hypothesis pair is compared
// against the reaction index, and nodes left without edges are dropped.
func Build(anchors, candidates []mass.Observed, idx *reaction.Index, cfg Config) (*Network, Stats, error) {
	var stats Stats

	hyps, err := expand(anchors, candidates, cfg)
	if err != nil {
		return nil, stats, err
	}
	stats.Hypotheses = len(hyps)

	nodes, merged := mergeHypotheses(hyps, cfg.MergeCmp)
	stats.MergedNodes = merged

	edges := matchPairs(nodes, idx, cfg)
	stats.Pairs = len(nodes) * (len(nodes) - 1) / 2

	net := New()
	connected := make(map[string]bool)
	for _, e := range edges {
		connected[e.Source] = true
		connected[e.Target] = true
	}
	for _, node := range nodes {
		if connected[node.ID] {
			net.AddNode(node)
		} else {
			stats.IsolatedNodes++
		}
	}
	for _, e := range edges {
		net.AddEdge(e)
	}
	stats.Edges = len(edges)

	return net, stats, nil
}

// expand enumerates the (mass, adduct) hypotheses. Every input mass yields a
// bare hypothesis; candidate masses (and anchors under ExpandAnchors) yield
// one further hypothesis per configured adduct.
func expand(anchors, candidates []mass.Observed, cfg Config) ([]hypothesis, error) {
	var hyps []hypothesis

	add := func(o mass.Observed, anchor, withAdducts bool) error {
		hyps = append(hyps, hypothesis{
			label:   mass.Label{Base: o.Text},
			value:   o.Value,
			neutral: o.Value,
			anchor:  anchor,
		})
		if !withAdducts || cfg.Adducts == nil {
			return nil
		}
		for _, label := range cfg.Adducts.Labels() {
			neutral, err := cfg.Adducts.NeutralMass(o.Value, label)
			if err != nil {
				return err
			}
			hyps = append(hyps, hypothesis{
				label:   mass.Label{Base: o.Text, Adduct: label},
				value:   o.Value,
				neutral: neutral,
				anchor:  anchor,
			})
		}
		return nil
	}

	for _, o := range anchors {
		if err := add(o, true, cfg.ExpandAnchors); err != nil {
			return nil, err
		}
	}
	for _, o := range candidates {
		if err := add(o, false, true); err != nil {
			return nil, err
		}
	}
	return hyps, nil
}

// mergeHypotheses collapses hypotheses of the same observed mass whose
// neutral masses agree under cmp into single nodes carrying the union of
// adduct labels. Returns the node list in expansion order.
func mergeHypotheses(hyps []hypothesis, cmp mass.Comparator) ([]*Node, int) {
	var nodes []*Node
	byBase := make(map[string][]*Node)
	merged := 0

	for _, h := range hyps {
		var hit *Node
		for _, prev := range byBase[h.label.Base] {
			if cmp.Within(prev.Neutral, h.neutral) {
				hit = prev
				break
			}
		}
		if hit != nil {
			if h.label.Adduct != "" {
				hit.Adducts = append(hit.Adducts, h.label.Adduct)
			}
			hit.Anchor = hit.Anchor || h.anchor
			merged++
			continue
		}

		node := &Node{
			ID:       h.label.String(),
			Base:     h.label.Base,
			Observed: h.value,
			Neutral:  h.neutral,
			Anchor:   h.anchor,
		}
		if h.label.Adduct != "" {
			node.Adducts = []string{h.label.Adduct}
		}
		nodes = append(nodes, node)
		byBase[node.Base] = append(byBase[node.Base], node)
	}
	return nodes, merged
}

// matchPairs compares every node pair's neutral-mass difference against the
// reaction index. The pair space is partitioned by first index across
// workers; the index is read-only, so workers share it without locking.
func matchPairs(nodes []*Node, idx *reaction.Index, cfg Config) []*Edge {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if threads > len(nodes) {
		threads = len(nodes)
	}
	if threads < 1 {
		threads = 1
	}

	results := make([][]*Edge, threads)
	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var out []*Edge
			for i := w; i < len(nodes); i += threads {
				out = append(out, matchFrom(nodes, i, idx, cfg)...)
			}
			results[w] = out
		}(w)
	}
	wg.Wait()

	// Canonical order: the emitted edge set must not depend on worker
	// count or input permutation.
	var edges []*Edge
	seen := make(map[string]bool)
	for _, out := range results {
		for _, e := range out {
			if !cfg.KeepParallelEdges {
				key := e.Source + "\x00" + e.Target + "\x00" + e.Reaction
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Reaction < b.Reaction
	})
	return edges
}

// matchFrom emits edges for node i against all heavier-indexed nodes.
func matchFrom(nodes []*Node, i int, idx *reaction.Index, cfg Config) []*Edge {
	var out []*Edge
	a := nodes[i]
	for j := i + 1; j < len(nodes); j++ {
		b := nodes[j]
		if a.Base == b.Base {
			continue // adduct variants of one measurement are not a reaction
		}
		delta := a.Neutral - b.Neutral
		if delta < 0 {
			delta = -delta
		}
		for _, entry := range idx.Lookup(delta, cfg.DeltaCmp) {
			src, dst := a, b
			if src.Neutral > dst.Neutral || (src.Neutral == dst.Neutral && src.ID > dst.ID) {
				src, dst = dst, src
			}
			out = append(out, &Edge{
				Source:   src.ID,
				Target:   dst.ID,
				Reaction: entry.ID,
				Delta:    delta,
			})
		}
	}
	return out
}
