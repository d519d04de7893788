package sim

import "math"

// Eps is the global tolerance for quantities. Flows, remaining capacities and
// residual demands at or below Eps are treated as zero.
const Eps = 1e-6

// Resource is everything the exchange needs to know about a traded object.
// Composition and other physics live behind this interface and are never
// inspected by the exchange.
type Resource interface {
	ID() int
	Quantity() float64
	Units() string
}

// AlmostZero reports whether |v| <= Eps.
func AlmostZero(v float64) bool {
	return math.Abs(v) <= Eps
}

// AlmostEqual reports whether a and b differ by at most Eps.
func AlmostEqual(a, b float64) bool {
	return math.Abs(a-b) <= Eps
}

// IsNegative reports whether v is below -Eps.
func IsNegative(v float64) bool {
	return v < -Eps
}
