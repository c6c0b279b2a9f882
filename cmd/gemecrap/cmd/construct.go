package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gemecrap/gemecrap/logger"
	"github.com/gemecrap/gemecrap/pkg/mass"
	"github.com/gemecrap/gemecrap/pkg/network"
	"github.com/gemecrap/gemecrap/pkg/reaction"
	"github.com/gemecrap/gemecrap/pkg/writer/sqlite"
)

var (
	// Flags for construct command
	centralFile       string
	mzFile            string
	reactionFile      string
	adductFile        string
	networkOut        string
	pathsOut          string
	dbOut             string
	deltaTolerance    float64
	endpointPPM       float64
	startWeight       float64
	endWeight         float64
	maxDepth          int
	expandAnchors     bool
	keepParallelEdges bool
	threads           int
)

var constructCmd = &cobra.Command{
	Use:   "construct",
	Short: "Build the metabolite reaction network from mass lists",
	Long: `Build the metabolite reaction network: expand every observed mass into
adduct-corrected neutral-mass hypotheses, match all pairwise mass differences
against the reaction database, and emit the edge list. With --start and --end
the network is also searched breadth-first for reaction chains between the
two neutral masses.

Examples:
  # Network only
  gemecrap construct --central central.txt --mz pool.txt --reactions diff.tsv --out network.tsv

  # Network plus pathway search with a custom adduct table
  gemecrap construct --central central.txt --mz pool.txt --reactions diff.tsv \
    --adducts adducts.txt --start 175.0634 --end 204.0905 --max-depth 5 \
    --out network.tsv --paths paths.tsv`,
	RunE: runConstruct,
}

func init() {
	constructCmd.Flags().StringVar(&centralFile, "central", "", "Central (anchor) mass list (required)")
	constructCmd.Flags().StringVar(&mzFile, "mz", "", "Candidate m/z mass list (required)")
	constructCmd.Flags().StringVar(&reactionFile, "reactions", "", "Reaction database TSV (default $GEMECRAP_REACTIONS)")
	constructCmd.Flags().StringVar(&adductFile, "adducts", "", "Adduct table file (default $GEMECRAP_ADDUCTS, else built-in ESI adducts)")
	constructCmd.Flags().StringVarP(&networkOut, "out", "o", "", "Output network file (required)")
	constructCmd.Flags().StringVar(&pathsOut, "paths", "", "Output pathway file (requires --start/--end)")
	constructCmd.Flags().StringVar(&dbOut, "db", "", "Also write results to this SQLite database")
	constructCmd.Flags().Float64Var(&deltaTolerance, "tolerance", 0.005, "Absolute tolerance (Da) for reaction delta matching")
	constructCmd.Flags().Float64Var(&endpointPPM, "ppm", 20, "ppm tolerance for neutral-mass equality (node merging, start/end matching)")
	constructCmd.Flags().Float64Var(&startWeight, "start", 0, "Start neutral mass for pathway search")
	constructCmd.Flags().Float64Var(&endWeight, "end", 0, "End neutral mass for pathway search")
	constructCmd.Flags().IntVar(&maxDepth, "max-depth", 5, "Maximum pathway length in reaction steps")
	constructCmd.Flags().BoolVar(&expandAnchors, "expand-anchors", false, "Apply adduct expansion to central masses too (default: central masses are already neutral)")
	constructCmd.Flags().BoolVar(&keepParallelEdges, "keep-parallel-edges", false, "Keep duplicate (pair, reaction) edges from merged adduct variants")
	constructCmd.Flags().IntVar(&threads, "threads", 0, "Worker threads for pairwise matching (0 = all CPUs)")

	constructCmd.MarkFlagRequired("central")
	constructCmd.MarkFlagRequired("mz")
	constructCmd.MarkFlagRequired("out")
}

func runConstruct(cmd *cobra.Command, args []string) error {
	reactionFile = envDefault(reactionFile, "GEMECRAP_REACTIONS")
	if reactionFile == "" {
		return fmt.Errorf("no reaction database: set --reactions or GEMECRAP_REACTIONS")
	}

	adducts, err := loadAdducts()
	if err != nil {
		return err
	}

	anchors, err := loadMasses(centralFile, "central")
	if err != nil {
		return err
	}
	candidates, err := loadMasses(mzFile, "mz")
	if err != nil {
		return err
	}

	idx, err := loadReactions(reactionFile)
	if err != nil {
		return err
	}

	cfg := network.Config{
		Adducts:           adducts,
		DeltaCmp:          mass.Absolute(deltaTolerance),
		MergeCmp:          mass.PPM(endpointPPM),
		ExpandAnchors:     expandAnchors,
		KeepParallelEdges: keepParallelEdges,
		Threads:           threads,
	}

	workers := threads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger.Info("constructing network",
		zap.Int("anchors", len(anchors)),
		zap.Int("candidates", len(candidates)),
		zap.Int("reactions", idx.Len()),
		zap.String("tolerance", cfg.DeltaCmp.String()),
		zap.Int("threads", workers))

	net, stats, err := network.Build(anchors, candidates, idx, cfg)
	if err != nil {
		return err
	}

	logger.Info("network constructed",
		zap.Int("hypotheses", stats.Hypotheses),
		zap.Int("mergedHypotheses", stats.MergedNodes),
		zap.Int("nodes", len(net.Nodes)),
		zap.Int("edges", stats.Edges),
		zap.Int("isolatedDropped", stats.IsolatedNodes))
	if stats.Edges == 0 {
		logger.Warn("no mass pair matched any reaction delta: the network is empty",
			zap.String("tolerance", cfg.DeltaCmp.String()),
			zap.Int("reactions", idx.Len()))
	}

	if err := writeFile(networkOut, func(f *os.File) error {
		return network.WriteNetwork(f, net)
	}); err != nil {
		return fmt.Errorf("failed to write network file: %w", err)
	}
	logger.Info("network written", zap.String("file", networkOut))

	var paths []network.Pathway
	if startWeight > 0 && endWeight > 0 {
		pf := network.NewPathFinder(net, network.SearchConfig{
			StartWeight: startWeight,
			EndWeight:   endWeight,
			EndpointCmp: mass.PPM(endpointPPM),
			MaxDepth:    maxDepth,
		})
		for pf.Next() {
			paths = append(paths, pf.Path())
		}
		if len(paths) == 0 {
			logger.Warn("no pathway found between target masses",
				zap.Float64("start", startWeight),
				zap.Float64("end", endWeight),
				zap.Int("maxDepth", maxDepth),
				zap.String("endpointTolerance", mass.PPM(endpointPPM).String()))
		} else {
			logger.Info("pathway search complete", zap.Int("paths", len(paths)))
		}

		if pathsOut != "" {
			if err := writeFile(pathsOut, func(f *os.File) error {
				return network.WritePaths(f, paths)
			}); err != nil {
				return fmt.Errorf("failed to write pathway file: %w", err)
			}
			logger.Info("pathways written", zap.String("file", pathsOut))
		}
	} else if pathsOut != "" {
		return fmt.Errorf("--paths requires both --start and --end")
	}

	if dbOut != "" {
		if err := writeDatabase(net, paths); err != nil {
			return err
		}
		logger.Info("database written", zap.String("file", dbOut))
	}

	return nil
}

func writeDatabase(net *network.Network, paths []network.Pathway) error {
	w, err := sqlite.NewWriter(dbOut)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}

	if err := w.WriteNetwork(net); err != nil {
		w.Close()
		return err
	}
	for i, p := range paths {
		if err := w.WritePath(i+1, p); err != nil {
			w.Close()
			return err
		}
	}

	settings := fmt.Sprintf("tolerance=%g ppm=%g maxDepth=%d", deltaTolerance, endpointPPM, maxDepth)
	return w.Finalize("gemecrap construct", Version, settings)
}

// loadAdducts reads the adduct file or falls back to the built-in table.
func loadAdducts() (*mass.AdductTable, error) {
	adductFile = envDefault(adductFile, "GEMECRAP_ADDUCTS")
	if adductFile == "" {
		logger.Debug("no adduct file given, using built-in adduct table")
		return mass.DefaultAdductTable(), nil
	}

	f, err := os.Open(adductFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open adduct file: %w", err)
	}
	defer f.Close()

	table := mass.NewAdductTable()
	if err := table.LoadFrom(f); err != nil {
		return nil, fmt.Errorf("failed to load adduct file %s: %w", adductFile, err)
	}
	logger.Debug("adducts loaded", zap.String("file", adductFile), zap.Int("count", table.Len()))
	return table, nil
}

func loadMasses(path, kind string) ([]mass.Observed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s mass file: %w", kind, err)
	}
	defer f.Close()

	masses, bad, err := mass.ReadMassList(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s mass file: %w", kind, err)
	}
	for _, b := range bad {
		logger.Warn("skipping unparseable mass row", zap.String("file", path), zap.String("row", b))
	}
	if len(masses) == 0 {
		logger.Warn("mass file contains no usable masses", zap.String("file", path))
	}
	return masses, nil
}

func loadReactions(path string) (*reaction.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reaction database: %w", err)
	}
	defer f.Close()

	idx, err := reaction.Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load reaction database %s: %w", path, err)
	}
	for _, rec := range idx.Skipped {
		logger.Warn("skipping malformed reaction record", zap.String("file", path), zap.String("record", rec.Error()))
	}
	return idx, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
