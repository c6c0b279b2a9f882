package genome

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPositionsOrdinals(t *testing.T) {
	// rows out of coordinate order; header and strand column tolerated
	input := `gene_id	contig	start	end	strand
geneB	c1	5000	5900	+
geneA	c1	1000	1900	-
geneC	c2	200	800	+
`
	table, err := LoadPositions(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"c1", "c2"}, table.Contigs())

	a, ok := table.Get("geneA")
	require.True(t, ok)
	assert.Equal(t, 0, a.Ordinal, "ordinals follow start coordinates, not file order")

	b, _ := table.Get("geneB")
	assert.Equal(t, 1, b.Ordinal)

	c, _ := table.Get("geneC")
	assert.Equal(t, 0, c.Ordinal, "ordinals restart per contig")

	_, ok = table.Get("missing")
	assert.False(t, ok)
}

func TestLoadPositionsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"short row", "geneA\tc1\t100\n"},
		{"bad start past header", "geneA\tc1\t100\t900\ngeneB\tc1\txx\t900\n"},
		{"duplicate gene", "geneA\tc1\t100\t900\ngeneA\tc1\t2000\t2900\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPositions(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadAnnotation(t *testing.T) {
	annot, err := LoadAnnotation(strings.NewReader(testAnnotation + "short_row\tK00003\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, annot.SkippedRows)
	assert.ElementsMatch(t, []string{"contig1_10", "contig1_12"}, annot.GenesByKO("K00001"))
	assert.Equal(t, []string{"K00001"}, annot.KOsByGene("contig1_10"))
	assert.Equal(t, "methyltransferase", annot.Description("contig2_1"))
	assert.Empty(t, annot.GenesByKO("K77777"))
}

func TestLoadAnnotationIgnoresNonKOTerms(t *testing.T) {
	annot, err := LoadAnnotation(strings.NewReader("geneX\t-\thypothetical protein\n"))
	require.NoError(t, err)
	assert.Empty(t, annot.KOsByGene("geneX"))
	assert.Equal(t, "hypothetical protein", annot.Description("geneX"))
}

func TestLoadGeneList(t *testing.T) {
	genes, err := LoadGeneList(strings.NewReader("contig1_10\n\n# comment\ncontig1_12\n"))
	require.NoError(t, err)
	assert.Len(t, genes, 2)
	_, ok := genes["contig1_10"]
	assert.True(t, ok)
}
