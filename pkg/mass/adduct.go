// Package mass provides adduct-aware mass arithmetic and tolerance
// comparison for converting measured m/z values to neutral masses.
package mass

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Monoisotopic masses of common adduct constituents
const (
	MassH   = 1.0078250321
	MassNa  = 22.9897692809
	MassK   = 38.9637064864
	MassNH4 = 18.0338254078
	MassH2O = 18.0105646863

	// Proton mass for charge calculations
	ProtonMass = 1.00727646688
)

// Polarity is the ionization mode of an adduct.
type Polarity int

const (
	Positive Polarity = iota
	Negative
)

func (p Polarity) String() string {
	if p == Negative {
		return "negative"
	}
	return "positive"
}

// ErrUnknownAdduct is returned when an adduct label is not in the table.
var ErrUnknownAdduct = errors.New("unknown adduct")

// AdductRule describes one ionization adduct: its signed label as written in
// the adduct file ("+H", "-H", "+Na"), the positive mass of the attached or
// lost group, and the polarity parsed from the label's leading sign.
type AdductRule struct {
	Label    string // signed label, e.g. "+H"
	Mass     float64
	Polarity Polarity
}

// AdductTable stores adduct definitions keyed by signed label.
type AdductTable struct {
	rules map[string]AdductRule
	order []string // file order, for deterministic hypothesis expansion
}

// NewAdductTable creates an empty adduct table.
func NewAdductTable() *AdductTable {
	return &AdductTable{
		rules: make(map[string]AdductRule),
	}
}

// Add adds or replaces an adduct rule. The label must carry a leading '+' or
// '-' sign and the mass must be positive.
func (t *AdductTable) Add(label string, m float64) error {
	if len(label) < 2 || (label[0] != '+' && label[0] != '-') {
		return fmt.Errorf("invalid adduct label %q, expected leading '+' or '-'", label)
	}
	if m <= 0 {
		return fmt.Errorf("invalid adduct mass %v for %q, must be positive", m, label)
	}
	pol := Positive
	if label[0] == '-' {
		pol = Negative
	}
	if _, seen := t.rules[label]; !seen {
		t.order = append(t.order, label)
	}
	t.rules[label] = AdductRule{Label: label, Mass: m, Polarity: pol}
	return nil
}

// Get returns the rule for a signed label.
func (t *AdductTable) Get(label string) (AdductRule, bool) {
	r, ok := t.rules[label]
	return r, ok
}

// Labels returns the adduct labels in load order.
func (t *AdductTable) Labels() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of loaded adducts.
func (t *AdductTable) Len() int {
	return len(t.rules)
}

// LoadFrom reads adduct rules from whitespace-delimited rows of
// "<label> <mass>". Blank lines and '#' comments are skipped.
func (t *AdductTable) LoadFrom(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("line %d: invalid adduct row, expected '<label> <mass>'", lineNum)
		}

		m, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid adduct mass '%s': %w", lineNum, fields[1], err)
		}

		if err := t.Add(fields[0], m); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading adduct file: %w", err)
	}

	return nil
}

// NeutralMass converts an observed m/z to the neutral mass under the named
// adduct. Positive-mode adducts are subtracted, negative-mode added.
func (t *AdductTable) NeutralMass(observed float64, label string) (float64, error) {
	rule, ok := t.rules[label]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAdduct, label)
	}
	if rule.Polarity == Positive {
		return observed - rule.Mass, nil
	}
	return observed + rule.Mass, nil
}

// IonizedMass is the inverse of NeutralMass.
func (t *AdductTable) IonizedMass(neutral float64, label string) (float64, error) {
	rule, ok := t.rules[label]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAdduct, label)
	}
	if rule.Polarity == Positive {
		return neutral + rule.Mass, nil
	}
	return neutral - rule.Mass, nil
}

// DefaultAdductTable returns an AdductTable pre-loaded with common
// electrospray adducts.
func DefaultAdductTable() *AdductTable {
	t := NewAdductTable()

	t.Add("+H", MassH)
	t.Add("+Na", MassNa)
	t.Add("+K", MassK)
	t.Add("+NH4", MassNH4)
	t.Add("-H", MassH)
	t.Add("-H2O", MassH2O)

	return t
}
