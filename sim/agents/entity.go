package agents

import (
	"github.com/sirupsen/logrus"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim/exchange"
)

// Base carries the identity every agent shares.
type Base struct {
	id        int
	prototype string
	parent    exchange.Entity
}

// NewBase creates an agent identity. Pass a nil parent for a root agent.
func NewBase(id int, prototype string, parent exchange.Entity) Base {
	return Base{id: id, prototype: prototype, parent: parent}
}

func (b *Base) ID() int                 { return b.id }
func (b *Base) Prototype() string       { return b.prototype }
func (b *Base) Parent() exchange.Entity { return b.parent }

// Region is the root of an agent tree. It scales the preference of every
// trade in a listed commodity that one of its descendants takes part in, on
// either side of the trade.
type Region struct {
	Base
	commodityPrefs map[string]float64
}

// NewRegion creates a region with per-commodity preference multipliers.
func NewRegion(id int, prototype string, commodityPrefs map[string]float64) *Region {
	prefs := make(map[string]float64, len(commodityPrefs))
	for c, m := range commodityPrefs {
		prefs[c] = m
	}
	return &Region{Base: NewBase(id, prototype, nil), commodityPrefs: prefs}
}

// AdjustPref implements exchange.PairPrefAdjuster.
func (r *Region) AdjustPref(req exchange.RequestInfo, bid exchange.BidInfo, pref float64, sense exchange.TradeSense) float64 {
	m, ok := r.commodityPrefs[req.Commodity]
	if !ok {
		return pref
	}
	logrus.Debugf("region %s: %s pref of bid %d on request %d scaled by %g", r.prototype, sense, bid.ID, req.ID, m)
	return pref * m
}

// Institution groups facilities inside a region. Requests from its own
// facilities prefer bids from its own facilities by inHouseBonus.
type Institution struct {
	Base
	inHouseBonus float64
	members      map[int]bool
}

// NewInstitution creates an institution under region.
func NewInstitution(id int, prototype string, region *Region, inHouseBonus float64) *Institution {
	var parent exchange.Entity
	if region != nil {
		parent = region
	}
	return &Institution{
		Base:         NewBase(id, prototype, parent),
		inHouseBonus: inHouseBonus,
		members:      make(map[int]bool),
	}
}

// AddMember registers a facility id as belonging to the institution.
func (i *Institution) AddMember(id int) { i.members[id] = true }

// Members reports how many facilities belong to the institution.
func (i *Institution) Members() int { return len(i.members) }

// AdjustPref implements exchange.PairPrefAdjuster. Only the requesting
// side applies the bonus so that an in-house trade is not counted twice.
func (i *Institution) AdjustPref(req exchange.RequestInfo, bid exchange.BidInfo, pref float64, sense exchange.TradeSense) float64 {
	if sense != exchange.SenseRequest || !i.members[bid.BidderID] {
		return pref
	}
	return pref + i.inHouseBonus
}
