// Package cmd provides CLI command implementations
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/gemecrap/gemecrap/logger"
)

const Version = "1.2.0"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "gemecrap",
	Short: "GeMeCraP - genome-guided metabolite pathway inference",
	Long: `GeMeCraP infers candidate biosynthetic pathways for microbial metabolites
by cross-referencing mass-spectrometry evidence with genomic evidence.

The construct command matches pairwise mass differences against a reaction
database to build a metabolite network and, optionally, searches it for
reaction chains between two target masses. The cluster command maps the
network's reactions onto a genome's KEGG annotation and reports physically
co-located gene clusters supporting each pathway hypothesis.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env may supply defaults for flags left unset
		godotenv.Load()

		level := zapcore.InfoLevel
		if logLevel == "" {
			logLevel = os.Getenv("GEMECRAP_LOG_LEVEL")
		}
		if logLevel != "" {
			if err := level.Set(logLevel); err != nil {
				return err
			}
		}
		return logger.InitLogger(level)
	},
}

func Execute() error {
	defer func() {
		logger.Sync()
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default info, or GEMECRAP_LOG_LEVEL)")

	rootCmd.AddCommand(constructCmd)
	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(geneposCmd)
}

// envDefault returns the flag value, falling back to an environment variable
// when the flag was left empty.
func envDefault(value, env string) string {
	if value != "" {
		return value
	}
	return os.Getenv(env)
}
