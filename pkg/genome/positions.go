// Package genome maps metabolite-network reactions onto genomic loci and
// groups the implicated genes into physically adjacent clusters.
package genome

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Position locates one gene on its contig. Ordinal is the gene's rank on the
// contig by start coordinate, the unit in which adjacency gaps are counted.
type Position struct {
	Gene    string
	Contig  string
	Start   int
	End     int
	Ordinal int
}

// UnknownGeneError marks a gene referenced by the KEGG annotation that has no
// entry in the position table. The gene is skipped; the run continues.
type UnknownGeneError struct {
	Gene string
}

func (e *UnknownGeneError) Error() string {
	return fmt.Sprintf("gene %s has no position entry", e.Gene)
}

// PositionTable holds gene positions indexed by gene and by contig.
type PositionTable struct {
	byGene   map[string]*Position
	byContig map[string][]*Position
}

// LoadPositions reads a gene position table with whitespace-delimited rows of
// "<gene> <contig> <start> <end>"; extra trailing columns (strand) are
// ignored and a header row is skipped. Ordinals are assigned per contig by
// start coordinate after the whole table is read.
func LoadPositions(r io.Reader) (*PositionTable, error) {
	t := &PositionTable{
		byGene:   make(map[string]*Position),
		byContig: make(map[string][]*Position),
	}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: position row needs gene, contig, start, end", lineNum)
		}

		start, err := strconv.Atoi(fields[2])
		if err != nil {
			if lineNum == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("line %d: invalid start coordinate '%s': %w", lineNum, fields[2], err)
		}
		end, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid end coordinate '%s': %w", lineNum, fields[3], err)
		}

		p := &Position{Gene: fields[0], Contig: fields[1], Start: start, End: end}
		if _, dup := t.byGene[p.Gene]; dup {
			return nil, fmt.Errorf("line %d: duplicate gene id %s", lineNum, p.Gene)
		}
		t.byGene[p.Gene] = p
		t.byContig[p.Contig] = append(t.byContig[p.Contig], p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading position table: %w", err)
	}

	for _, genes := range t.byContig {
		sort.Slice(genes, func(i, j int) bool { return genes[i].Start < genes[j].Start })
		for i, p := range genes {
			p.Ordinal = i
		}
	}
	return t, nil
}

// Get returns the position of a gene.
func (t *PositionTable) Get(gene string) (*Position, bool) {
	p, ok := t.byGene[gene]
	return p, ok
}

// Contigs returns the contig ids in sorted order.
func (t *PositionTable) Contigs() []string {
	out := make([]string, 0, len(t.byContig))
	for c := range t.byContig {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of positioned genes.
func (t *PositionTable) Len() int {
	return len(t.byGene)
}
