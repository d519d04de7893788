// Package resource provides the concrete resource types traded in the
// simulator. Only identity and quantity matter to the exchange; recipes and
// qualities are labels carried along for records.
package resource

import (
	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
)

const (
	// MaterialUnits is the unit of Material quantities.
	MaterialUnits = "kg"
	// ProductUnits is the unit of Product quantities.
	ProductUnits = "NONE"
)

// Material is a quantity of matter with a named recipe.
type Material struct {
	id     int
	qty    float64
	recipe string
}

// NewMaterial creates a material with a fresh id from ids.
func NewMaterial(ids *sim.IDGenerator, qty float64, recipe string) *Material {
	return &Material{id: ids.Next(), qty: qty, recipe: recipe}
}

func (m *Material) ID() int           { return m.id }
func (m *Material) Quantity() float64 { return m.qty }
func (m *Material) Units() string     { return MaterialUnits }
func (m *Material) Recipe() string    { return m.recipe }

// NewMaterialFactory returns a constructor for materials of one recipe.
func NewMaterialFactory(ids *sim.IDGenerator, recipe string) func(qty float64) *Material {
	return func(qty float64) *Material { return NewMaterial(ids, qty, recipe) }
}

// Extract splits qty off m into a new material with its own id.
func (m *Material) Extract(ids *sim.IDGenerator, qty float64) (*Material, error) {
	if qty < 0 || sim.IsNegative(m.qty-qty) {
		return nil, sim.NewStateError("cannot extract %g %s from material %d holding %g", qty, MaterialUnits, m.id, m.qty)
	}
	m.qty = max(0, m.qty-qty)
	return &Material{id: ids.Next(), qty: qty, recipe: m.recipe}, nil
}

// Absorb merges other into m. Recipes must match; other is left empty.
func (m *Material) Absorb(other *Material) error {
	if other.recipe != m.recipe {
		return sim.NewStateError("cannot absorb material with recipe %q into recipe %q", other.recipe, m.recipe)
	}
	m.qty += other.qty
	other.qty = 0
	return nil
}

// Product is a countable, non-material good of some quality.
type Product struct {
	id      int
	qty     float64
	quality string
}

// NewProduct creates a product with a fresh id from ids.
func NewProduct(ids *sim.IDGenerator, qty float64, quality string) *Product {
	return &Product{id: ids.Next(), qty: qty, quality: quality}
}

func (p *Product) ID() int           { return p.id }
func (p *Product) Quantity() float64 { return p.qty }
func (p *Product) Units() string     { return ProductUnits }
func (p *Product) Quality() string   { return p.quality }

// NewProductFactory returns a constructor for products of one quality.
func NewProductFactory(ids *sim.IDGenerator, quality string) func(qty float64) *Product {
	return func(qty float64) *Product { return NewProduct(ids, qty, quality) }
}

// Extract splits qty off p into a new product with its own id.
func (p *Product) Extract(ids *sim.IDGenerator, qty float64) (*Product, error) {
	if qty < 0 || sim.IsNegative(p.qty-qty) {
		return nil, sim.NewStateError("cannot extract %g from product %d holding %g", qty, p.id, p.qty)
	}
	p.qty = max(0, p.qty-qty)
	return &Product{id: ids.Next(), qty: qty, quality: p.quality}, nil
}

// Absorb merges other into p. Qualities must match; other is left empty.
func (p *Product) Absorb(other *Product) error {
	if other.quality != p.quality {
		return sim.NewStateError("cannot absorb product of quality %q into quality %q", other.quality, p.quality)
	}
	p.qty += other.qty
	other.qty = 0
	return nil
}
