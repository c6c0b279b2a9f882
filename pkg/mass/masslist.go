package mass

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Observed is one measured mass as read from a mass-list file. Text keeps the
// value exactly as written so node labels round-trip through output files.
type Observed struct {
	Text  string
	Value float64
}

// ReadMassList reads one mass per row. A row may carry a leading retention
// time column ("4.27 118.0635457") or an rt_mass composite
// ("4.27_118.0635457"); the mass is the last parseable field. Unparseable
// rows are returned in the second value for the caller to report.
func ReadMassList(r io.Reader) ([]Observed, []string, error) {
	var masses []Observed
	var bad []string

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		text := fields[len(fields)-1]
		if i := strings.LastIndex(text, "_"); i >= 0 {
			text = text[i+1:]
		}

		v, err := strconv.ParseFloat(text, 64)
		if err != nil || v <= 0 {
			bad = append(bad, fmt.Sprintf("line %d: %q", lineNum, line))
			continue
		}
		masses = append(masses, Observed{Text: text, Value: v})
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading mass list: %w", err)
	}
	return masses, bad, nil
}
