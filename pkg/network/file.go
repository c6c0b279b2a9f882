package network

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gemecrap/gemecrap/pkg/mass"
)

// The network file is a tab-separated edge list with a header row:
//
//	source	target	reaction	delta
//
// One row per parallel edge. The pathway file prepends path and step columns
// to the same layout, so both formats read back through ReadNetwork.

// WriteNetwork emits the edge list.
func WriteNetwork(w io.Writer, net *Network) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, "source\ttarget\treaction\tdelta"); err != nil {
		return err
	}
	for _, e := range net.Edges {
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%.6f\n", e.Source, e.Target, e.Reaction, e.Delta); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WritePaths emits pathways as numbered step rows.
func WritePaths(w io.Writer, paths []Pathway) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, "path\tstep\tsource\ttarget\treaction\tdelta"); err != nil {
		return err
	}
	for p, path := range paths {
		for s, step := range path {
			if _, err := fmt.Fprintf(bw, "%d\t%d\t%s\t%s\t%s\t%.6f\n",
				p+1, s+1, step.Source, step.Target, strings.Join(step.Reactions, ","), step.Delta); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ReadNetwork loads an edge list back into a Network. Node neutral masses are
// recomputed from their labels with the adduct table; a nil table falls back
// to the built-in defaults. The column layout is taken from the header, so
// pathway files (with leading path/step columns) load the same way, with
// comma-separated reaction lists fanned back out into parallel edges.
func ReadNetwork(r io.Reader, adducts *mass.AdductTable) (*Network, error) {
	if adducts == nil {
		adducts = mass.DefaultAdductTable()
	}

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading network file: %w", err)
		}
		return New(), nil
	}

	header := strings.Split(scanner.Text(), "\t")
	srcCol, dstCol, rxnCol, deltaCol := -1, -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "source":
			srcCol = i
		case "target":
			dstCol = i
		case "reaction":
			rxnCol = i
		case "delta":
			deltaCol = i
		}
	}
	if srcCol < 0 || dstCol < 0 || rxnCol < 0 {
		return nil, fmt.Errorf("network file header lacks source/target/reaction columns: %q", scanner.Text())
	}

	net := New()
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) <= srcCol || len(fields) <= dstCol || len(fields) <= rxnCol {
			return nil, fmt.Errorf("line %d: network row has too few columns", lineNum)
		}

		src, err := nodeFromLabel(fields[srcCol], adducts)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		dst, err := nodeFromLabel(fields[dstCol], adducts)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if _, ok := net.Nodes[src.ID]; !ok {
			net.AddNode(src)
		}
		if _, ok := net.Nodes[dst.ID]; !ok {
			net.AddNode(dst)
		}

		var delta float64
		if deltaCol >= 0 && len(fields) > deltaCol {
			delta, _ = strconv.ParseFloat(strings.TrimSpace(fields[deltaCol]), 64)
		}

		for _, rxn := range strings.Split(fields[rxnCol], ",") {
			rxn = strings.TrimSpace(rxn)
			if rxn == "" {
				continue
			}
			net.AddEdge(&Edge{
				Source:   src.ID,
				Target:   dst.ID,
				Reaction: rxn,
				Delta:    delta,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading network file: %w", err)
	}
	return net, nil
}

// nodeFromLabel rebuilds a node from its file label, recomputing the neutral
// mass rather than trusting any cached value.
func nodeFromLabel(s string, adducts *mass.AdductTable) (*Node, error) {
	label, err := mass.ParseLabel(s)
	if err != nil {
		return nil, err
	}
	observed, err := label.BaseMass()
	if err != nil {
		return nil, err
	}

	neutral := observed
	var adductList []string
	if label.Adduct != "" {
		neutral, err = adducts.NeutralMass(observed, label.Adduct)
		if err != nil {
			return nil, err
		}
		adductList = []string{label.Adduct}
	}

	return &Node{
		ID:       label.String(),
		Base:     label.Base,
		Observed: observed,
		Neutral:  neutral,
		Adducts:  adductList,
	}, nil
}
