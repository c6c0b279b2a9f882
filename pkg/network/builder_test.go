package network

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemecrap/gemecrap/pkg/mass"
	"github.com/gemecrap/gemecrap/pkg/reaction"
)

func loadIndex(t *testing.T, db string) *reaction.Index {
	t.Helper()
	idx, err := reaction.Load(strings.NewReader(db))
	require.NoError(t, err)
	return idx
}

func protonTable(t *testing.T) *mass.AdductTable {
	t.Helper()
	table := mass.NewAdductTable()
	require.NoError(t, table.Add("+H", 1.007825))
	return table
}

func defaultConfig(t *testing.T) Config {
	return Config{
		Adducts:  protonTable(t),
		DeltaCmp: mass.Absolute(0.01),
		MergeCmp: mass.PPM(20),
	}
}

func TestBuildSingleEdgeScenario(t *testing.T) {
	idx := loadIndex(t, "ENTRY\tdiff_mass\tOrthology\nR00710\t0.984016\tK00001\n")

	anchors := []mass.Observed{{Text: "118.0635457", Value: 118.0635457}}
	candidates := []mass.Observed{{Text: "117.079", Value: 117.079}}

	net, stats, err := Build(anchors, candidates, idx, defaultConfig(t))
	require.NoError(t, err)

	// anchor bare + candidate bare + candidate+H hypotheses
	assert.Equal(t, 3, stats.Hypotheses)

	// only the bare pair differs by ~0.9845; the +H variant does not fit
	require.Len(t, net.Edges, 1)
	e := net.Edges[0]
	assert.Equal(t, "117.079", e.Source)
	assert.Equal(t, "118.0635457", e.Target)
	assert.Equal(t, "R00710", e.Reaction)
	assert.InDelta(t, 0.9845457, e.Delta, 1e-6)

	// the unconnected +H hypothesis must not appear in the network
	assert.Equal(t, 1, stats.IsolatedNodes)
	assert.Len(t, net.Nodes, 2)
	for _, node := range net.Nodes {
		assert.NotEmpty(t, net.Incident(node.ID), "no isolated node may survive")
	}
}

func TestBuildOrderIndependent(t *testing.T) {
	idx := loadIndex(t, "ENTRY\tdiff_mass\tOrthology\nR00001\t1.0\t\nR00002\t14.01565\t\n")

	candidates := []mass.Observed{
		{Text: "100.0", Value: 100.0},
		{Text: "101.0", Value: 101.0},
		{Text: "115.01565", Value: 115.01565},
		{Text: "120.5", Value: 120.5},
	}

	edgeSet := func(cands []mass.Observed) []string {
		net, _, err := Build(nil, cands, idx, defaultConfig(t))
		require.NoError(t, err)
		var keys []string
		for _, e := range net.Edges {
			keys = append(keys, e.Source+"|"+e.Target+"|"+e.Reaction)
		}
		sort.Strings(keys)
		return keys
	}

	forward := edgeSet(candidates)
	require.NotEmpty(t, forward)

	reversed := make([]mass.Observed, len(candidates))
	for i, c := range candidates {
		reversed[len(candidates)-1-i] = c
	}
	assert.Equal(t, forward, edgeSet(reversed))
}

func TestBuildParallelEdgePolicy(t *testing.T) {
	// duplicate ENTRY rows produce identical matches for a fitting pair
	db := "ENTRY\tdiff_mass\tOrthology\nR00001\t1.0\tK00001\nR00001\t1.0\tK00002\nR00009\t1.001\t\n"
	idx := loadIndex(t, db)

	candidates := []mass.Observed{
		{Text: "100.0", Value: 100.0},
		{Text: "101.0", Value: 101.0},
	}

	cfg := defaultConfig(t)
	cfg.Adducts = nil // bare hypotheses only, a single fitting pair
	net, _, err := Build(nil, candidates, idx, cfg)
	require.NoError(t, err)
	// R00001 deduplicated, R00009 kept: ambiguity across distinct
	// reactions is never collapsed
	assert.Len(t, net.Edges, 2)

	cfg.KeepParallelEdges = true
	net, _, err = Build(nil, candidates, idx, cfg)
	require.NoError(t, err)
	assert.Len(t, net.Edges, 3)
}

func TestBuildMergesAdductEquivalentHypotheses(t *testing.T) {
	// two adducts with identical masses resolve one observed mass to the
	// same neutral value, so they collapse into a single node
	table := mass.NewAdductTable()
	require.NoError(t, table.Add("+H", 1.007825))
	require.NoError(t, table.Add("+X", 1.007825))

	idx := loadIndex(t, "ENTRY\tdiff_mass\tOrthology\nR00001\t1.0\t\nR00002\t2.0\t\n")

	cfg := Config{Adducts: table, DeltaCmp: mass.Absolute(0.01), MergeCmp: mass.PPM(20)}
	candidates := []mass.Observed{
		{Text: "100.0", Value: 100.0},
		{Text: "102.0", Value: 102.0},
	}

	net, stats, err := Build(nil, candidates, idx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.MergedNodes)

	// the merged 100.0+H node keeps both adduct labels
	node, ok := net.Nodes["100.0+H"]
	require.True(t, ok, "merged node should keep the first hypothesis label")
	assert.ElementsMatch(t, []string{"+H", "+X"}, node.Adducts)
}

func TestBuildEmptyPool(t *testing.T) {
	idx := loadIndex(t, "ENTRY\tdiff_mass\tOrthology\nR00001\t1.0\t\n")

	net, stats, err := Build(nil, nil, idx, defaultConfig(t))
	require.NoError(t, err)
	assert.Empty(t, net.Nodes)
	assert.Empty(t, net.Edges)
	assert.Zero(t, stats.Hypotheses)
}

func TestBuildExpandAnchors(t *testing.T) {
	idx := loadIndex(t, "ENTRY\tdiff_mass\tOrthology\nR00001\t1.0\t\n")

	cfg := defaultConfig(t)
	cfg.ExpandAnchors = true

	anchors := []mass.Observed{{Text: "118.0635457", Value: 118.0635457}}
	_, stats, err := Build(anchors, nil, idx, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Hypotheses)
}

func TestBuildThreadCountInvariant(t *testing.T) {
	idx := loadIndex(t, "ENTRY\tdiff_mass\tOrthology\nR00001\t1.0\t\nR00002\t2.0\t\n")

	candidates := []mass.Observed{
		{Text: "100.0", Value: 100.0},
		{Text: "101.0", Value: 101.0},
		{Text: "102.0", Value: 102.0},
		{Text: "103.0", Value: 103.0},
		{Text: "104.0", Value: 104.0},
		{Text: "105.0", Value: 105.0},
		{Text: "120.0", Value: 120.0},
	}

	cfg := defaultConfig(t)
	cfg.Threads = 1
	one, _, err := Build(nil, candidates, idx, cfg)
	require.NoError(t, err)

	cfg.Threads = 4
	four, _, err := Build(nil, candidates, idx, cfg)
	require.NoError(t, err)

	require.Equal(t, len(one.Edges), len(four.Edges))
	for i := range one.Edges {
		assert.Equal(t, *one.Edges[i], *four.Edges[i])
	}
}
