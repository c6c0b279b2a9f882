package network

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemecrap/gemecrap/pkg/mass"
)

func collectPaths(pf *PathFinder, limit int) []Pathway {
	var out []Pathway
	for pf.Next() {
		out = append(out, pf.Path())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func lineNetwork(t *testing.T) *Network {
	t.Helper()
	// 100 -R1- 101 -R2- 115 plus a shortcut 100 -R3- 115
	net := New()
	net.AddNode(&Node{ID: "100.0", Base: "100.0", Observed: 100, Neutral: 100})
	net.AddNode(&Node{ID: "101.0", Base: "101.0", Observed: 101, Neutral: 101})
	net.AddNode(&Node{ID: "115.0", Base: "115.0", Observed: 115, Neutral: 115})
	net.AddEdge(&Edge{Source: "100.0", Target: "101.0", Reaction: "R1", Delta: 1})
	net.AddEdge(&Edge{Source: "101.0", Target: "115.0", Reaction: "R2", Delta: 14})
	net.AddEdge(&Edge{Source: "100.0", Target: "115.0", Reaction: "R3", Delta: 15})
	return net
}

func TestPathFinderShortestFirst(t *testing.T) {
	net := lineNetwork(t)

	pf := NewPathFinder(net, SearchConfig{
		StartWeight: 100,
		EndWeight:   115,
		EndpointCmp: mass.PPM(20),
		MaxDepth:    5,
	})

	paths := collectPaths(pf, 0)
	require.Len(t, paths, 2)

	assert.Len(t, paths[0], 1, "direct path surfaces first")
	assert.Equal(t, []string{"R3"}, paths[0][0].Reactions)

	require.Len(t, paths[1], 2)
	assert.Equal(t, []string{"R1"}, paths[1][0].Reactions)
	assert.Equal(t, []string{"R2"}, paths[1][1].Reactions)
}

func TestPathFinderDepthBound(t *testing.T) {
	net := lineNetwork(t)

	pf := NewPathFinder(net, SearchConfig{
		StartWeight: 100,
		EndWeight:   115,
		EndpointCmp: mass.PPM(20),
		MaxDepth:    1,
	})

	paths := collectPaths(pf, 0)
	require.Len(t, paths, 1)
	assert.Len(t, paths[0], 1)
}

func TestPathFinderNoRepeatedNodes(t *testing.T) {
	// triangle plus a tail: cycles must not recur on any path
	net := New()
	neutrals := map[string]float64{"a": 10, "b": 11, "c": 12, "d": 13}
	for id, w := range neutrals {
		net.AddNode(&Node{ID: id, Base: id, Neutral: w})
	}
	net.AddEdge(&Edge{Source: "a", Target: "b", Reaction: "R1"})
	net.AddEdge(&Edge{Source: "b", Target: "c", Reaction: "R2"})
	net.AddEdge(&Edge{Source: "c", Target: "a", Reaction: "R3"})
	net.AddEdge(&Edge{Source: "c", Target: "d", Reaction: "R4"})

	pf := NewPathFinder(net, SearchConfig{
		StartWeight: 10,
		EndWeight:   13,
		EndpointCmp: mass.Absolute(0.1),
		MaxDepth:    10,
	})

	paths := collectPaths(pf, 0)
	require.NotEmpty(t, paths)
	for _, p := range paths {
		seen := map[string]bool{}
		for _, step := range p {
			assert.False(t, seen[step.Target], "node %s repeated", step.Target)
			seen[step.Source] = true
			seen[step.Target] = true
		}
	}
}

func TestPathFinderNoPathIsEmptyResult(t *testing.T) {
	net := lineNetwork(t)

	pf := NewPathFinder(net, SearchConfig{
		StartWeight: 100,
		EndWeight:   999,
		EndpointCmp: mass.PPM(20),
		MaxDepth:    5,
	})
	assert.False(t, pf.Next())
	assert.Nil(t, pf.Path())

	// unknown start weight behaves the same way
	pf = NewPathFinder(net, SearchConfig{
		StartWeight: 55,
		EndWeight:   115,
		EndpointCmp: mass.PPM(20),
		MaxDepth:    5,
	})
	assert.False(t, pf.Next())
}

func TestPathFinderGroupsParallelReactions(t *testing.T) {
	net := New()
	net.AddNode(&Node{ID: "100.0", Base: "100.0", Neutral: 100})
	net.AddNode(&Node{ID: "101.0", Base: "101.0", Neutral: 101})
	net.AddEdge(&Edge{Source: "100.0", Target: "101.0", Reaction: "R1", Delta: 1})
	net.AddEdge(&Edge{Source: "100.0", Target: "101.0", Reaction: "R9", Delta: 1})

	pf := NewPathFinder(net, SearchConfig{
		StartWeight: 100,
		EndWeight:   101,
		EndpointCmp: mass.PPM(20),
		MaxDepth:    3,
	})

	paths := collectPaths(pf, 0)
	require.Len(t, paths, 1, "parallel reactions stay on one step")
	assert.Equal(t, []string{"R1", "R9"}, paths[0][0].Reactions)
}

func TestNetworkFileRoundTrip(t *testing.T) {
	net := lineNetwork(t)

	var buf strings.Builder
	require.NoError(t, WriteNetwork(&buf, net))

	back, err := ReadNetwork(strings.NewReader(buf.String()), nil)
	require.NoError(t, err)

	assert.Len(t, back.Nodes, len(net.Nodes))
	require.Len(t, back.Edges, len(net.Edges))
	for i := range net.Edges {
		assert.Equal(t, net.Edges[i].Source, back.Edges[i].Source)
		assert.Equal(t, net.Edges[i].Target, back.Edges[i].Target)
		assert.Equal(t, net.Edges[i].Reaction, back.Edges[i].Reaction)
	}
}

func TestReadNetworkRecomputesNeutralMass(t *testing.T) {
	in := "source\ttarget\treaction\tdelta\n117.079+H\t118.0635457\tR00710\t0.984546\n"

	net, err := ReadNetwork(strings.NewReader(in), mass.DefaultAdductTable())
	require.NoError(t, err)

	node, ok := net.Nodes["117.079+H"]
	require.True(t, ok)
	assert.InDelta(t, 117.079-mass.MassH, node.Neutral, 1e-9)
	assert.Equal(t, "117.079", node.Base)

	bare, ok := net.Nodes["118.0635457"]
	require.True(t, ok)
	assert.InDelta(t, 118.0635457, bare.Neutral, 1e-9)
}

func TestReadNetworkPathFileLayout(t *testing.T) {
	in := "path\tstep\tsource\ttarget\treaction\tdelta\n" +
		"1\t1\t100.0\t101.0\tR1,R9\t1.000000\n"

	net, err := ReadNetwork(strings.NewReader(in), nil)
	require.NoError(t, err)
	require.Len(t, net.Edges, 2, "comma-joined reactions fan out to parallel edges")
	assert.Equal(t, "R1", net.Edges[0].Reaction)
	assert.Equal(t, "R9", net.Edges[1].Reaction)
}

func TestReadNetworkEmptyFile(t *testing.T) {
	net, err := ReadNetwork(strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.Empty(t, net.Nodes)
	assert.Empty(t, net.Edges)
}
