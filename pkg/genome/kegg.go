package genome

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Annotation is the per-gene KEGG Orthology assignment. A gene may carry
// several KO terms (one row each) and a KO term may map to several genes.
type Annotation struct {
	kosByGene  map[string][]string
	genesByKO  map[string][]string
	descByGene map[string]string

	// SkippedRows counts annotation rows without the expected columns.
	SkippedRows int
}

// LoadAnnotation reads rows of "<gene>\t<KO>\t<description...>". Rows with
// fewer than three columns are counted and skipped; only terms with the KEGG
// "K" prefix index as orthology terms, but the description is kept for every
// gene seen.
func LoadAnnotation(r io.Reader) (*Annotation, error) {
	a := &Annotation{
		kosByGene:  make(map[string][]string),
		genesByKO:  make(map[string][]string),
		descByGene: make(map[string]string),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			a.SkippedRows++
			continue
		}

		gene := strings.TrimSpace(parts[0])
		ko := strings.TrimSpace(parts[1])
		desc := strings.TrimSpace(parts[len(parts)-1])

		a.descByGene[gene] = desc
		if !strings.HasPrefix(ko, "K") {
			continue
		}
		if !contains(a.kosByGene[gene], ko) {
			a.kosByGene[gene] = append(a.kosByGene[gene], ko)
		}
		if !contains(a.genesByKO[ko], gene) {
			a.genesByKO[ko] = append(a.genesByKO[ko], gene)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading KEGG annotation: %w", err)
	}
	return a, nil
}

// GenesByKO returns the genes carrying a KO term.
func (a *Annotation) GenesByKO(ko string) []string {
	return a.genesByKO[ko]
}

// KOsByGene returns the KO terms of a gene.
func (a *Annotation) KOsByGene(gene string) []string {
	return a.kosByGene[gene]
}

// Description returns the free-text annotation of a gene.
func (a *Annotation) Description(gene string) string {
	return a.descByGene[gene]
}

// KOs returns every indexed KO term, sorted.
func (a *Annotation) KOs() []string {
	out := make([]string, 0, len(a.genesByKO))
	for ko := range a.genesByKO {
		out = append(out, ko)
	}
	sort.Strings(out)
	return out
}

// LoadGeneList reads one gene id per row (the differentially expressed gene
// list).
func LoadGeneList(r io.Reader) (map[string]struct{}, error) {
	genes := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		g := strings.TrimSpace(scanner.Text())
		if g == "" || strings.HasPrefix(g, "#") {
			continue
		}
		genes[g] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading gene list: %w", err)
	}
	return genes, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
