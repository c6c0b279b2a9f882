// Package reaction loads the biochemical reaction database and indexes it by
// stoichiometric mass delta for tolerance-window lookups.
package reaction

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gemecrap/gemecrap/pkg/mass"
)

// Entry is one reaction record: its database identifier, the neutral mass
// change it implies, and the KEGG Orthology terms of the enzymes known to
// carry it out.
type Entry struct {
	ID        string
	Delta     float64
	Orthology []string
}

// MalformedRecordError describes a reaction row that could not be parsed.
// Such rows are skipped, reported through Index.Skipped, and never abort the
// load.
type MalformedRecordError struct {
	Line   int
	Record string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("reaction record at line %d (%s): %s", e.Line, e.Record, e.Reason)
}

// Index is the reaction database sorted by mass delta. It is immutable after
// Load and safe for concurrent lookups.
type Index struct {
	entries []Entry // sorted ascending by Delta
	koByID  map[string][]string
	allKO   map[string]struct{}

	// Skipped holds per-record parse failures encountered during Load.
	Skipped []*MalformedRecordError
}

// Load reads a tab-separated reaction table. The header row must name an
// ENTRY and a diff_mass column; an Orthology column of comma-separated KO
// terms is optional. Duplicate ENTRY rows accumulate KO terms.
func Load(r io.Reader) (*Index, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading reaction file: %w", err)
		}
		return nil, fmt.Errorf("reaction file is empty")
	}

	header := strings.Split(scanner.Text(), "\t")
	entryCol, deltaCol, koCol := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "ENTRY":
			entryCol = i
		case "diff_mass":
			deltaCol = i
		case "Orthology":
			koCol = i
		}
	}
	if entryCol < 0 || deltaCol < 0 {
		return nil, fmt.Errorf("reaction file header lacks required ENTRY/diff_mass columns: %q", scanner.Text())
	}

	idx := &Index{
		koByID: make(map[string][]string),
		allKO:  make(map[string]struct{}),
	}

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) <= entryCol || len(fields) <= deltaCol {
			idx.Skipped = append(idx.Skipped, &MalformedRecordError{
				Line: lineNum, Record: line, Reason: "too few columns",
			})
			continue
		}

		id := strings.TrimSpace(fields[entryCol])
		if id == "" {
			idx.Skipped = append(idx.Skipped, &MalformedRecordError{
				Line: lineNum, Record: line, Reason: "empty ENTRY",
			})
			continue
		}

		var kos []string
		if koCol >= 0 && len(fields) > koCol {
			for _, k := range strings.Split(fields[koCol], ",") {
				k = strings.TrimSpace(k)
				if k != "" {
					kos = append(kos, k)
				}
			}
		}
		idx.addOrthology(id, kos)

		delta, err := strconv.ParseFloat(strings.TrimSpace(fields[deltaCol]), 64)
		if err != nil {
			idx.Skipped = append(idx.Skipped, &MalformedRecordError{
				Line: lineNum, Record: id, Reason: fmt.Sprintf("unparseable diff_mass %q", fields[deltaCol]),
			})
			continue
		}

		idx.entries = append(idx.entries, Entry{ID: id, Delta: delta})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading reaction file: %w", err)
	}

	sort.Slice(idx.entries, func(i, j int) bool {
		return idx.entries[i].Delta < idx.entries[j].Delta
	})
	for i := range idx.entries {
		idx.entries[i].Orthology = idx.koByID[idx.entries[i].ID]
	}

	return idx, nil
}

// addOrthology appends KO terms for an entry, keeping first-seen order and
// dropping duplicates.
func (idx *Index) addOrthology(id string, kos []string) {
	have := idx.koByID[id]
	for _, k := range kos {
		dup := false
		for _, h := range have {
			if h == k {
				dup = true
				break
			}
		}
		if !dup {
			have = append(have, k)
		}
		idx.allKO[k] = struct{}{}
	}
	idx.koByID[id] = have
}

// Len returns the number of indexed reaction rows.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Lookup returns every entry whose delta agrees with the query under the
// comparator. Ambiguous (near-isobaric) reactions all come back; order is
// ascending by delta.
func (idx *Index) Lookup(delta float64, cmp mass.Comparator) []Entry {
	// Binary search to the first entry at or inside the window, then walk
	// forward until the entries leave it. The predicate stays monotone for
	// both absolute and ppm comparators because the window is contiguous.
	lo := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].Delta >= delta || cmp.Within(idx.entries[i].Delta, delta)
	})

	var out []Entry
	for i := lo; i < len(idx.entries); i++ {
		if cmp.Within(idx.entries[i].Delta, delta) {
			out = append(out, idx.entries[i])
		} else if idx.entries[i].Delta > delta {
			break
		}
	}
	return out
}

// Orthology resolves a reaction id to its KO terms. Missing ids return nil;
// a miss is an expected outcome, not an error.
func (idx *Index) Orthology(id string) []string {
	return idx.koByID[id]
}

// AllKO returns the set of every KO term referenced by any reaction entry.
func (idx *Index) AllKO() map[string]struct{} {
	out := make(map[string]struct{}, len(idx.allKO))
	for k := range idx.allKO {
		out[k] = struct{}{}
	}
	return out
}
