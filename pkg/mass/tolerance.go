package mass

import (
	"fmt"
	"math"
)

// Comparator decides whether two masses agree within a measurement tolerance.
// A single comparator instance is shared across the reaction index, the
// network builder and the pathway search so that equality means the same
// thing everywhere.
type Comparator interface {
	// Within reports whether a and b agree within tolerance.
	Within(a, b float64) bool
	String() string
}

// AbsoluteTolerance compares masses with a fixed dalton window.
type AbsoluteTolerance struct {
	Eps float64
}

// Absolute returns a comparator with a fixed window of eps daltons.
func Absolute(eps float64) AbsoluteTolerance {
	return AbsoluteTolerance{Eps: eps}
}

func (t AbsoluteTolerance) Within(a, b float64) bool {
	return math.Abs(a-b) <= t.Eps
}

func (t AbsoluteTolerance) String() string {
	return fmt.Sprintf("±%g Da", t.Eps)
}

// PPMTolerance compares masses with a window relative to the smaller mass.
type PPMTolerance struct {
	PPM float64
}

// PPM returns a comparator with a parts-per-million window.
func PPM(ppm float64) PPMTolerance {
	return PPMTolerance{PPM: ppm}
}

func (t PPMTolerance) Within(a, b float64) bool {
	ref := math.Min(math.Abs(a), math.Abs(b))
	if ref == 0 {
		return a == b
	}
	return math.Abs(a-b)/ref*1e6 <= t.PPM
}

func (t PPMTolerance) String() string {
	return fmt.Sprintf("±%g ppm", t.PPM)
}

// PPMDiff returns the relative difference between two masses in ppm.
func PPMDiff(a, b float64) float64 {
	ref := math.Min(math.Abs(a), math.Abs(b))
	if ref == 0 {
		return 0
	}
	return math.Abs(a-b) / ref * 1e6
}
