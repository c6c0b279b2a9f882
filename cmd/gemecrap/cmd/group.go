package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gemecrap/gemecrap/logger"
	"github.com/gemecrap/gemecrap/pkg/mass"
)

var (
	// Flags for group command
	groupIn  string
	groupOut string
	groupPPM float64
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Group near-identical measured masses before network construction",
	Long: `Group metabolite rows whose masses agree within a ppm threshold into a
single representative mass. Rows are "rt_mass" composites or plain masses,
one per line; the output maps each representative mass to its members and is
suitable as a pre-clustered candidate pool for construct.`,
	RunE: runGroup,
}

func init() {
	groupCmd.Flags().StringVarP(&groupIn, "in", "i", "", "Input metabolite list (required)")
	groupCmd.Flags().StringVarP(&groupOut, "out", "o", "", "Output grouped list (default stdout)")
	groupCmd.Flags().Float64Var(&groupPPM, "ppm", 10, "ppm threshold for grouping")

	groupCmd.MarkFlagRequired("in")
}

type massGroup struct {
	seed    float64
	members []string
}

func runGroup(cmd *cobra.Command, args []string) error {
	f, err := os.Open(groupIn)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	type row struct {
		value    float64
		original string
	}
	var rows []row

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, ok := parseMetaboliteMass(line)
		if !ok {
			logger.Warn("skipping unparseable metabolite row",
				zap.Int("line", lineNum), zap.String("row", line))
			continue
		}
		rows = append(rows, row{value: v, original: line})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].value < rows[j].value })

	cmp := mass.PPM(groupPPM)
	var groups []massGroup
	for _, r := range rows {
		if len(groups) > 0 && cmp.Within(groups[len(groups)-1].seed, r.value) {
			g := &groups[len(groups)-1]
			g.members = append(g.members, r.original)
			continue
		}
		groups = append(groups, massGroup{seed: r.value, members: []string{r.original}})
	}

	out := io.Writer(os.Stdout)
	if groupOut != "" {
		f, err := os.Create(groupOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	bw := bufio.NewWriter(out)
	for _, g := range groups {
		fmt.Fprintf(bw, "%g\t%s\n", g.seed, strings.Join(g.members, ","))
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	logger.Info("metabolites grouped",
		zap.Int("rows", len(rows)),
		zap.Int("groups", len(groups)),
		zap.Float64("ppm", groupPPM))
	return nil
}

// parseMetaboliteMass extracts the mass from a "rt_mass" composite or a
// plain mass row, tolerating trailing unit text after the number.
func parseMetaboliteMass(line string) (float64, bool) {
	text := line
	if i := strings.LastIndex(text, "_"); i >= 0 {
		text = text[i+1:]
	}

	end := 0
	seenDot := false
	for end < len(text) {
		c := text[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}

	v, err := strconv.ParseFloat(text[:end], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
