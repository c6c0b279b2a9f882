package mass

import (
	"fmt"
	"strconv"
	"strings"
)

// Mass labels identify network nodes. A bare label is the observed mass as
// written in the input file ("118.0635457"); an adducted label appends the
// signed adduct ("117.079+H"). The base keeps the original text so that
// labels survive a parse/format round trip.

// Label is a parsed node label.
type Label struct {
	Base   string // observed mass as written
	Adduct string // signed adduct label, "" when bare
}

// ParseLabel splits a node label into its observed-mass text and adduct part.
// The sign is searched after the leading digits, so negative adducts parse
// without ambiguity.
func ParseLabel(s string) (Label, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Label{}, fmt.Errorf("empty mass label")
	}

	idx := strings.IndexAny(s, "+-")
	if idx <= 0 {
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return Label{}, fmt.Errorf("invalid mass label %q: %w", s, err)
		}
		return Label{Base: s}, nil
	}

	base, adduct := s[:idx], s[idx:]
	if _, err := strconv.ParseFloat(base, 64); err != nil {
		return Label{}, fmt.Errorf("invalid mass label %q: %w", s, err)
	}
	if len(adduct) < 2 {
		return Label{}, fmt.Errorf("invalid mass label %q: dangling adduct sign", s)
	}
	return Label{Base: base, Adduct: adduct}, nil
}

// String formats the label back to its file representation.
func (l Label) String() string {
	return l.Base + l.Adduct
}

// BaseMass returns the observed mass as a float.
func (l Label) BaseMass() (float64, error) {
	return strconv.ParseFloat(l.Base, 64)
}
