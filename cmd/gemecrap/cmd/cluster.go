package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gemecrap/gemecrap/logger"
	"github.com/gemecrap/gemecrap/pkg/genome"
	"github.com/gemecrap/gemecrap/pkg/network"
	"github.com/gemecrap/gemecrap/pkg/writer/sqlite"
)

var (
	// Flags for cluster command
	networkFile       string
	clusterReactions  string
	keggFile          string
	positionFile      string
	expressedFile     string
	clusterOut        string
	clusterDBOut      string
	clusterAdductFile string
	maxGap            int
	includeActivators bool
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Find gene clusters supporting a metabolite network",
	Long: `Map each network edge's reaction to KEGG Orthology terms, locate the genes
carrying those terms, and group them into clusters of physically adjacent
genes on the same contig. A cluster tolerates up to --max-gap intervening
non-member genes between consecutive members. Overlap with a differentially
expressed gene list is reported as supporting evidence, never as a filter.

Examples:
  gemecrap cluster --network network.tsv --reactions diff.tsv \
    --kegg annotation.tsv --positions genes.tsv --out clusters.tsv

  gemecrap cluster --network paths.tsv --reactions diff.tsv \
    --kegg annotation.tsv --positions genes.tsv \
    --expressed deg.txt --max-gap 2 --include-activators --out clusters.tsv`,
	RunE: runCluster,
}

func init() {
	clusterCmd.Flags().StringVar(&networkFile, "network", "", "Network or pathway file from construct (required)")
	clusterCmd.Flags().StringVar(&clusterReactions, "reactions", "", "Reaction database TSV (default $GEMECRAP_REACTIONS)")
	clusterCmd.Flags().StringVar(&keggFile, "kegg", "", "KEGG annotation file (required)")
	clusterCmd.Flags().StringVar(&positionFile, "positions", "", "Gene position table (required)")
	clusterCmd.Flags().StringVar(&expressedFile, "expressed", "", "Differentially expressed gene list")
	clusterCmd.Flags().StringVar(&clusterAdductFile, "adducts", "", "Adduct table for network label interpretation (default $GEMECRAP_ADDUCTS, else built-in)")
	clusterCmd.Flags().StringVarP(&clusterOut, "out", "o", "", "Output cluster report (required)")
	clusterCmd.Flags().StringVar(&clusterDBOut, "db", "", "Also write clusters to this SQLite database")
	clusterCmd.Flags().IntVar(&maxGap, "max-gap", 1, "Intervening non-member genes tolerated between consecutive cluster members")
	clusterCmd.Flags().BoolVar(&includeActivators, "include-activators", false, "Also pull in activator-annotated genes outside the reaction database")

	clusterCmd.MarkFlagRequired("network")
	clusterCmd.MarkFlagRequired("kegg")
	clusterCmd.MarkFlagRequired("positions")
	clusterCmd.MarkFlagRequired("out")
}

func runCluster(cmd *cobra.Command, args []string) error {
	clusterReactions = envDefault(clusterReactions, "GEMECRAP_REACTIONS")
	if clusterReactions == "" {
		return fmt.Errorf("no reaction database: set --reactions or GEMECRAP_REACTIONS")
	}

	adductFile = clusterAdductFile
	adducts, err := loadAdducts()
	if err != nil {
		return err
	}

	nf, err := os.Open(networkFile)
	if err != nil {
		return fmt.Errorf("failed to open network file: %w", err)
	}
	net, err := network.ReadNetwork(nf, adducts)
	nf.Close()
	if err != nil {
		return fmt.Errorf("failed to read network file %s: %w", networkFile, err)
	}
	if len(net.Edges) == 0 {
		logger.Warn("network file contains no edges; the cluster report will be empty",
			zap.String("file", networkFile))
	}

	idx, err := loadReactions(clusterReactions)
	if err != nil {
		return err
	}

	pf, err := os.Open(positionFile)
	if err != nil {
		return fmt.Errorf("failed to open position table: %w", err)
	}
	positions, err := genome.LoadPositions(pf)
	pf.Close()
	if err != nil {
		return fmt.Errorf("failed to load position table %s: %w", positionFile, err)
	}

	kf, err := os.Open(keggFile)
	if err != nil {
		return fmt.Errorf("failed to open KEGG annotation: %w", err)
	}
	annot, err := genome.LoadAnnotation(kf)
	kf.Close()
	if err != nil {
		return fmt.Errorf("failed to load KEGG annotation %s: %w", keggFile, err)
	}
	if annot.SkippedRows > 0 {
		logger.Warn("skipped malformed KEGG annotation rows", zap.Int("rows", annot.SkippedRows))
	}

	expressed := map[string]struct{}{}
	if expressedFile != "" {
		ef, err := os.Open(expressedFile)
		if err != nil {
			return fmt.Errorf("failed to open expressed gene list: %w", err)
		}
		expressed, err = genome.LoadGeneList(ef)
		ef.Close()
		if err != nil {
			return fmt.Errorf("failed to load expressed gene list %s: %w", expressedFile, err)
		}
	}

	logger.Info("finding gene clusters",
		zap.Int("edges", len(net.Edges)),
		zap.Int("positionedGenes", positions.Len()),
		zap.Int("expressedGenes", len(expressed)),
		zap.Int("maxGap", maxGap))

	finder := &genome.Finder{
		Positions:  positions,
		Annotation: annot,
		Reactions:  idx,
		Config: genome.Config{
			MaxGap:            maxGap,
			IncludeActivators: includeActivators,
		},
	}
	clusters, stats := finder.Find(net, expressed)

	for _, u := range stats.Unknown {
		logger.Warn("annotation/position mismatch, gene skipped", zap.String("gene", u.Gene))
	}
	if len(clusters) == 0 {
		logger.Warn("no gene cluster found",
			zap.Int("edgeReactions", stats.EdgeReactions),
			zap.Int("matchedKOs", stats.MatchedKOs),
			zap.Int("memberGenes", stats.MemberGenes),
			zap.String("hint", "no KO-to-gene match or no genes co-located within the gap budget"))
	} else {
		logger.Info("clusters found",
			zap.Int("clusters", len(clusters)),
			zap.Int("memberGenes", stats.MemberGenes),
			zap.Int("activatorGenes", stats.ActivatorGenes))
	}

	if err := writeFile(clusterOut, func(f *os.File) error {
		return genome.WriteClusters(f, clusters)
	}); err != nil {
		return fmt.Errorf("failed to write cluster report: %w", err)
	}
	logger.Info("cluster report written", zap.String("file", clusterOut))

	if clusterDBOut != "" {
		w, err := sqlite.NewWriter(clusterDBOut)
		if err != nil {
			return fmt.Errorf("failed to create output database: %w", err)
		}
		for _, c := range clusters {
			if err := w.WriteCluster(c); err != nil {
				w.Close()
				return err
			}
		}
		settings := fmt.Sprintf("maxGap=%d includeActivators=%v", maxGap, includeActivators)
		if err := w.Finalize("gemecrap cluster", Version, settings); err != nil {
			return err
		}
		logger.Info("database written", zap.String("file", clusterDBOut))
	}

	return nil
}
