package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gemecrap/gemecrap/logger"
)

var (
	// Flags for genepos command
	gffFile     string
	geneposOut  string
	featureType string
)

var geneposCmd = &cobra.Command{
	Use:   "genepos",
	Short: "Extract a gene position table from a GFF3 annotation",
	Long: `Extract gene coordinates from a GFF3 file into the tab-separated position
table the cluster command consumes: gene, contig, start, end, strand. The
gene identifier is taken from the ID attribute (locus_tag as fallback).`,
	RunE: runGenePos,
}

func init() {
	geneposCmd.Flags().StringVar(&gffFile, "gff", "", "Input GFF3 annotation (required)")
	geneposCmd.Flags().StringVarP(&geneposOut, "out", "o", "", "Output position table (default stdout)")
	geneposCmd.Flags().StringVar(&featureType, "feature", "gene", "GFF3 feature type to extract")

	geneposCmd.MarkFlagRequired("gff")
}

func runGenePos(cmd *cobra.Command, args []string) error {
	f, err := os.Open(gffFile)
	if err != nil {
		return fmt.Errorf("failed to open GFF file: %w", err)
	}
	defer f.Close()

	out := io.Writer(os.Stdout)
	if geneposOut != "" {
		of, err := os.Create(geneposOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer of.Close()
		out = of
	}

	bw := bufio.NewWriter(out)
	fmt.Fprintln(bw, "gene\tcontig\tstart\tend\tstrand")

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	lineNum := 0
	genes := 0
	skipped := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 9 {
			continue
		}
		if fields[2] != featureType {
			continue
		}

		start, err := strconv.Atoi(fields[3])
		if err != nil {
			logger.Warn("skipping feature with bad start coordinate",
				zap.Int("line", lineNum), zap.String("start", fields[3]))
			skipped++
			continue
		}
		end, err := strconv.Atoi(fields[4])
		if err != nil {
			logger.Warn("skipping feature with bad end coordinate",
				zap.Int("line", lineNum), zap.String("end", fields[4]))
			skipped++
			continue
		}

		id := gffAttribute(fields[8], "ID")
		if id == "" {
			id = gffAttribute(fields[8], "locus_tag")
		}
		if id == "" {
			logger.Warn("skipping feature without ID or locus_tag attribute",
				zap.Int("line", lineNum))
			skipped++
			continue
		}

		fmt.Fprintf(bw, "%s\t%s\t%d\t%d\t%s\n", id, fields[0], start, end, fields[6])
		genes++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading GFF file: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	if genes == 0 {
		logger.Warn("no features extracted from GFF file",
			zap.String("file", gffFile), zap.String("feature", featureType))
	}
	logger.Info("position table extracted",
		zap.Int("genes", genes),
		zap.Int("skipped", skipped))
	return nil
}

// gffAttribute pulls a single key from a GFF3 column-9 attribute string.
func gffAttribute(attrs, key string) string {
	for _, kv := range strings.Split(attrs, ";") {
		kv = strings.TrimSpace(kv)
		if v, ok := strings.CutPrefix(kv, key+"="); ok {
			return v
		}
	}
	return ""
}
