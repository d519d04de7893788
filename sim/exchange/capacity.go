package exchange

import (
	"maps"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/graph"
)

// Converter maps an offered resource to the amount it consumes of one
// capacity constraint.
type Converter[T sim.Resource] interface {
	Convert(offer T, arc graph.Arc, ctx *TranslationContext[T]) float64
	Equal(other Converter[T]) bool
}

// TrivialConverter charges the offer's quantity.
type TrivialConverter[T sim.Resource] struct{}

func (TrivialConverter[T]) Convert(offer T, _ graph.Arc, _ *TranslationContext[T]) float64 {
	return offer.Quantity()
}

func (TrivialConverter[T]) Equal(other Converter[T]) bool {
	_, ok := other.(TrivialConverter[T])
	return ok
}

// DefaultCoeffConverter charges the offer's quantity scaled by the
// coefficient of the request it answers. It backs a request portfolio's
// default mass constraint.
type DefaultCoeffConverter[T sim.Resource] struct {
	coeffs map[*Request[T]]float64
}

// NewDefaultCoeffConverter copies coeffs.
func NewDefaultCoeffConverter[T sim.Resource](coeffs map[*Request[T]]float64) *DefaultCoeffConverter[T] {
	return &DefaultCoeffConverter[T]{coeffs: maps.Clone(coeffs)}
}

func (c *DefaultCoeffConverter[T]) Convert(offer T, arc graph.Arc, ctx *TranslationContext[T]) float64 {
	coeff, ok := c.coeffs[ctx.NodeToRequest[arc.U]]
	if !ok {
		coeff = 1
	}
	return offer.Quantity() * coeff
}

func (c *DefaultCoeffConverter[T]) Equal(other Converter[T]) bool {
	o, ok := other.(*DefaultCoeffConverter[T])
	return ok && maps.Equal(c.coeffs, o.coeffs)
}

// CapacityConstraint limits the total converted quantity flowing through a
// portfolio.
type CapacityConstraint[T sim.Resource] struct {
	capacity  float64
	converter Converter[T]
	id        int
}

// NewCapacityConstraint creates a constraint. A nil converter charges the
// offer quantity.
func NewCapacityConstraint[T sim.Resource](capacity float64, conv Converter[T]) CapacityConstraint[T] {
	if conv == nil {
		conv = TrivialConverter[T]{}
	}
	return CapacityConstraint[T]{capacity: capacity, converter: conv}
}

func (c CapacityConstraint[T]) Capacity() float64       { return c.capacity }
func (c CapacityConstraint[T]) Converter() Converter[T] { return c.converter }

// ID orders constraints within their portfolio.
func (c CapacityConstraint[T]) ID() int { return c.id }

// Convert applies the constraint's converter.
func (c CapacityConstraint[T]) Convert(offer T, arc graph.Arc, ctx *TranslationContext[T]) float64 {
	return c.converter.Convert(offer, arc, ctx)
}

// Equal compares capacity and converter, ignoring the id.
func (c CapacityConstraint[T]) Equal(other CapacityConstraint[T]) bool {
	return c.capacity == other.capacity && c.converter.Equal(other.converter)
}
