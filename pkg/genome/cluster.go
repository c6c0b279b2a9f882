package genome

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gemecrap/gemecrap/pkg/network"
	"github.com/gemecrap/gemecrap/pkg/reaction"
)

// Config holds cluster discovery settings.
type Config struct {
	// MaxGap is the number of intervening non-member genes tolerated
	// between two consecutive member genes on the same contig.
	MaxGap int

	// IncludeActivators pulls in genes whose annotation text marks them
	// as pathway activators even when their KO terms match no reaction in
	// the database.
	IncludeActivators bool
}

// Cluster is one maximal run of physically adjacent member genes.
type Cluster struct {
	Contig    string
	Genes     []string // ordered by position on the contig
	Ordinals  []int
	KOs       []string
	Reactions []string
	Expressed []string // overlap with the differentially expressed list
}

// Stats reports what cluster discovery saw, for operator-facing logs.
type Stats struct {
	EdgeReactions  int // distinct reactions on network edges
	MatchedKOs     int
	MemberGenes    int
	ActivatorGenes int

	// Unknown lists annotation/position-table mismatches; each gene was
	// reported and skipped, not fatal to the run.
	Unknown []*UnknownGeneError
}

// member accumulates the genomic evidence attached to one gene.
type member struct {
	kos       map[string]bool
	reactions map[string]bool
}

// placed is a member gene that has a position entry.
type placed struct {
	pos *Position
	m   *member
}

// Finder resolves network edges to genes and groups them by adjacency.
type Finder struct {
	Positions  *PositionTable
	Annotation *Annotation
	Reactions  *reaction.Index
	Config     Config
}

// Find maps every network edge's reaction to KO terms, KO terms to genes,
// and sweeps each contig for maximal gene runs within the gap budget. Genes
// lacking a position entry are reported in Stats.Unknown and skipped.
// An empty network yields zero clusters and no error.
func (f *Finder) Find(net *network.Network, expressed map[string]struct{}) ([]Cluster, Stats) {
	var stats Stats

	members := f.collectMembers(net, &stats)
	stats.MemberGenes = len(members)

	// Group positioned members by contig.
	byContig := make(map[string][]placed)
	for gene, m := range members {
		pos, ok := f.Positions.Get(gene)
		if !ok {
			stats.Unknown = append(stats.Unknown, &UnknownGeneError{Gene: gene})
			continue
		}
		byContig[pos.Contig] = append(byContig[pos.Contig], placed{pos: pos, m: m})
	}
	sort.Slice(stats.Unknown, func(i, j int) bool { return stats.Unknown[i].Gene < stats.Unknown[j].Gene })

	var contigs []string
	for c := range byContig {
		contigs = append(contigs, c)
	}
	sort.Strings(contigs)

	var clusters []Cluster
	for _, contig := range contigs {
		genes := byContig[contig]
		sort.Slice(genes, func(i, j int) bool { return genes[i].pos.Ordinal < genes[j].pos.Ordinal })

		// Linear sweep: a new member within the gap budget extends the
		// open cluster, anything farther closes it. Clusters are maximal
		// by construction.
		var open []placed
		flush := func() {
			if len(open) > 0 {
				clusters = append(clusters, f.buildCluster(contig, open, expressed))
				open = nil
			}
		}
		for _, g := range genes {
			if len(open) > 0 {
				gap := g.pos.Ordinal - open[len(open)-1].pos.Ordinal - 1
				if gap > f.Config.MaxGap {
					flush()
				}
			}
			open = append(open, g)
		}
		flush()
	}

	// Expression-supported clusters rank first; adjacency order otherwise.
	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].Expressed) > len(clusters[j].Expressed)
	})
	return clusters, stats
}

// collectMembers resolves edge reactions to genes, optionally adding
// activator-annotated genes outside the reaction database.
func (f *Finder) collectMembers(net *network.Network, stats *Stats) map[string]*member {
	members := make(map[string]*member)
	get := func(gene string) *member {
		m, ok := members[gene]
		if !ok {
			m = &member{kos: make(map[string]bool), reactions: make(map[string]bool)}
			members[gene] = m
		}
		return m
	}

	seenReactions := make(map[string]bool)
	matchedKOs := make(map[string]bool)
	for _, e := range net.Edges {
		seenReactions[e.Reaction] = true
		for _, ko := range f.Reactions.Orthology(e.Reaction) {
			for _, gene := range f.Annotation.GenesByKO(ko) {
				m := get(gene)
				m.kos[ko] = true
				m.reactions[e.Reaction] = true
				matchedKOs[ko] = true
			}
		}
	}
	stats.EdgeReactions = len(seenReactions)
	stats.MatchedKOs = len(matchedKOs)

	if f.Config.IncludeActivators && len(members) > 0 {
		inDB := f.Reactions.AllKO()
		for _, ko := range f.Annotation.KOs() {
			if _, ok := inDB[ko]; ok {
				continue
			}
			for _, gene := range f.Annotation.GenesByKO(ko) {
				if _, ok := members[gene]; ok {
					continue
				}
				desc := strings.ToLower(f.Annotation.Description(gene))
				if strings.Contains(desc, "activator") || strings.Contains(desc, "activating") {
					get(gene)
					stats.ActivatorGenes++
				}
			}
		}
	}
	return members
}

func (f *Finder) buildCluster(contig string, run []placed, expressed map[string]struct{}) Cluster {
	c := Cluster{Contig: contig}

	kos := make(map[string]bool)
	rxns := make(map[string]bool)
	for _, g := range run {
		c.Genes = append(c.Genes, g.pos.Gene)
		c.Ordinals = append(c.Ordinals, g.pos.Ordinal)
		for ko := range g.m.kos {
			kos[ko] = true
		}
		for r := range g.m.reactions {
			rxns[r] = true
		}
		if _, ok := expressed[g.pos.Gene]; ok {
			c.Expressed = append(c.Expressed, g.pos.Gene)
		}
	}
	c.KOs = sortedKeys(kos)
	c.Reactions = sortedKeys(rxns)
	return c
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// WriteClusters emits the cluster report: one tab-separated record per
// cluster with the contig, ordered member genes, their contig ordinals, and
// the represented KO terms, reactions and expression overlap.
func WriteClusters(w io.Writer, clusters []Cluster) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, "contig\tgenes\tordinals\tkos\treactions\texpressed"); err != nil {
		return err
	}
	for _, c := range clusters {
		ords := make([]string, len(c.Ordinals))
		for i, o := range c.Ordinals {
			ords[i] = strconv.Itoa(o)
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Contig,
			strings.Join(c.Genes, ","),
			strings.Join(ords, ","),
			strings.Join(c.KOs, ","),
			strings.Join(c.Reactions, ","),
			strings.Join(c.Expressed, ","),
		); err != nil {
			return err
		}
	}
	return bw.Flush()
}
