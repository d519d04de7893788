// Package graph is the resource-neutral representation of one exchange round:
// a bipartite graph of request nodes and supply nodes, organized in groups
// that carry capacity rows, connected by arcs, annotated with solved matches.
//
// All nodes, groups and arcs live in per-graph arenas and are referenced by
// integer handles (NodeID, GroupID, ArcID). The Graph is their sole owner;
// nothing outlives the round it was built for.
package graph

import (
	"math"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
)

// NodeID, GroupID and ArcID are handles into a Graph's arenas. They are only
// meaningful for the graph that issued them.
type (
	NodeID  int
	GroupID int
	ArcID   int
)

// Kind distinguishes the demand side of the graph from the supply side.
type Kind int

const (
	KindRequest Kind = iota
	KindSupply
)

func (k Kind) String() string {
	if k == KindRequest {
		return "request"
	}
	return "supply"
}

// Sense is the relation a capacity row imposes on the flow it aggregates.
type Sense int

const (
	// SenseUnset takes the default of the owning group: GTEQ for request
	// groups (demand to be met), LTEQ for supply groups (capacity to respect).
	SenseUnset Sense = iota
	SenseLTEQ
	SenseGTEQ
	// SenseNone rows are carried for bookkeeping but never constrain flow.
	SenseNone
)

func (s Sense) String() string {
	switch s {
	case SenseLTEQ:
		return "<="
	case SenseGTEQ:
		return ">="
	case SenseNone:
		return "none"
	default:
		return "unset"
	}
}

// Row is one typed capacity of a group.
type Row struct {
	Value float64
	Sense Sense
}

// Unlimited reports whether the row's value is unbounded.
func (r Row) Unlimited() bool {
	return math.IsInf(r.Value, 1) || r.Value == math.MaxFloat64
}

// Node is a translated Request (request side) or Bid (supply side).
type Node struct {
	ID        NodeID
	Group     GroupID // owning group; back-reference only
	AgentID   int
	Commodity string
	Qty       float64 // maximum quantity assignable to the node
	Exclusive bool

	// UnitCaps holds, per arc, the contribution of one unit of flow to each
	// capacity row of the owning group (same order as Group.Rows).
	UnitCaps map[ArcID][]float64
	// Prefs holds the preference of each arc. Only request nodes carry them.
	Prefs map[ArcID]float64

	arcs []ArcID
}

// Arcs returns the node's arcs in insertion order.
func (n *Node) Arcs() []ArcID {
	return n.arcs
}

// AvgPref is the mean preference across the node's arcs, 0 if it has none.
func (n *Node) AvgPref() float64 {
	if len(n.arcs) == 0 || len(n.Prefs) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range n.arcs {
		sum += n.Prefs[a]
	}
	return sum / float64(len(n.arcs))
}

// Group is a translated RequestPortfolio (KindRequest) or BidPortfolio (KindSupply).
type Group struct {
	ID    GroupID
	Kind  Kind
	Qty   float64 // total requested quantity; zero for supply groups
	Nodes []NodeID
	Rows  []Row
	// ExclGroups are node sets over which only one member may receive flow.
	ExclGroups [][]NodeID
}

// Arc is a potential pairing of a request node (U) with a supply node (V).
type Arc struct {
	ID        ArcID
	U         NodeID
	V         NodeID
	Exclusive bool
	ExclVal   float64 // all-or-nothing quantity when Exclusive
}

// Match is a solved arc together with the flow assigned to it.
type Match struct {
	Arc ArcID
	Qty float64
}

// Graph owns every node, group, arc and match of one exchange round.
type Graph struct {
	nodes  []Node
	groups []Group
	arcs   []Arc

	requestGroups []GroupID
	supplyGroups  []GroupID
	matches       []Match
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// AddRequestGroup registers a new request group with the given target quantity.
func (g *Graph) AddRequestGroup(qty float64) GroupID {
	id := g.addGroup(KindRequest, qty)
	g.requestGroups = append(g.requestGroups, id)
	return id
}

// AddSupplyGroup registers a new supply group.
func (g *Graph) AddSupplyGroup() GroupID {
	id := g.addGroup(KindSupply, 0)
	g.supplyGroups = append(g.supplyGroups, id)
	return id
}

func (g *Graph) addGroup(kind Kind, qty float64) GroupID {
	id := GroupID(len(g.groups))
	g.groups = append(g.groups, Group{ID: id, Kind: kind, Qty: qty})
	return id
}

// AddNode adds a node to a registered group. Only AgentID, Commodity, Qty and
// Exclusive are read from n. Exclusive nodes also form a singleton exclusive
// grouping in their group.
func (g *Graph) AddNode(gid GroupID, n Node) (NodeID, error) {
	grp, err := g.group(gid)
	if err != nil {
		return 0, err
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{
		ID:        id,
		Group:     gid,
		AgentID:   n.AgentID,
		Commodity: n.Commodity,
		Qty:       n.Qty,
		Exclusive: n.Exclusive,
		UnitCaps:  make(map[ArcID][]float64),
		Prefs:     make(map[ArcID]float64),
	})
	grp.Nodes = append(grp.Nodes, id)
	if n.Exclusive {
		grp.ExclGroups = append(grp.ExclGroups, []NodeID{id})
	}
	return id, nil
}

// AddCapacity appends a capacity row to a group. An unset sense takes the
// group's default.
func (g *Graph) AddCapacity(gid GroupID, r Row) error {
	grp, err := g.group(gid)
	if err != nil {
		return err
	}
	if r.Sense == SenseUnset {
		r.Sense = SenseLTEQ
		if grp.Kind == KindRequest {
			r.Sense = SenseGTEQ
		}
	}
	grp.Rows = append(grp.Rows, r)
	return nil
}

// AddExclGroup adds a mutually exclusive node grouping. Every member must
// already belong to the group.
func (g *Graph) AddExclGroup(gid GroupID, members []NodeID) error {
	grp, err := g.group(gid)
	if err != nil {
		return err
	}
	for _, m := range members {
		n, err := g.node(m)
		if err != nil {
			return err
		}
		if n.Group != gid {
			return sim.NewStateError("node %d belongs to group %d, not %d", m, n.Group, gid)
		}
	}
	grp.ExclGroups = append(grp.ExclGroups, append([]NodeID(nil), members...))
	return nil
}

// AddArc connects request node u to supply node v. Both must already belong
// to registered groups of the right kind. The arc is exclusive when either
// endpoint is; its exclusive value is the exclusive endpoint's quantity, or,
// when both are exclusive, their common quantity (zero if they differ, which
// makes the arc unusable in exclusive-orders mode).
func (g *Graph) AddArc(u, v NodeID) (ArcID, error) {
	un, err := g.node(u)
	if err != nil {
		return 0, err
	}
	vn, err := g.node(v)
	if err != nil {
		return 0, err
	}
	if g.groups[un.Group].Kind != KindRequest {
		return 0, sim.NewStateError("arc source node %d is not a request node", u)
	}
	if g.groups[vn.Group].Kind != KindSupply {
		return 0, sim.NewStateError("arc target node %d is not a supply node", v)
	}

	a := Arc{ID: ArcID(len(g.arcs)), U: u, V: v}
	a.Exclusive = un.Exclusive || vn.Exclusive
	switch {
	case un.Exclusive && vn.Exclusive:
		if sim.AlmostEqual(un.Qty, vn.Qty) {
			a.ExclVal = un.Qty
		}
	case un.Exclusive:
		a.ExclVal = un.Qty
	case vn.Exclusive:
		a.ExclVal = vn.Qty
	}

	g.arcs = append(g.arcs, a)
	un.arcs = append(un.arcs, a.ID)
	vn.arcs = append(vn.arcs, a.ID)
	return a.ID, nil
}

// SetUnitCaps records the unit capacities of node n on arc a. The vector must
// have one entry per capacity row of n's group.
func (g *Graph) SetUnitCaps(a ArcID, n NodeID, caps []float64) error {
	arc, err := g.arc(a)
	if err != nil {
		return err
	}
	if arc.U != n && arc.V != n {
		return sim.NewStateError("node %d is not an endpoint of arc %d", n, a)
	}
	node := &g.nodes[n]
	if rows := len(g.groups[node.Group].Rows); len(caps) != rows {
		return sim.NewStateError("node %d: %d unit capacities for %d capacity rows", n, len(caps), rows)
	}
	node.UnitCaps[a] = append([]float64(nil), caps...)
	return nil
}

// SetPref records the preference of arc a on its request node.
func (g *Graph) SetPref(a ArcID, pref float64) error {
	arc, err := g.arc(a)
	if err != nil {
		return err
	}
	g.nodes[arc.U].Prefs[a] = pref
	return nil
}

// AddMatch accumulates a solved flow on an arc.
func (g *Graph) AddMatch(a ArcID, qty float64) error {
	if _, err := g.arc(a); err != nil {
		return err
	}
	g.matches = append(g.matches, Match{Arc: a, Qty: qty})
	return nil
}

// ClearMatches discards every recorded match.
func (g *Graph) ClearMatches() {
	g.matches = nil
}

// Matches returns the solved matches in the order they were recorded.
func (g *Graph) Matches() []Match {
	return g.matches
}

// Node returns the node for id. It panics on a foreign handle.
func (g *Graph) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Group returns the group for id. It panics on a foreign handle.
func (g *Graph) Group(id GroupID) *Group {
	return &g.groups[id]
}

// Arc returns the arc for id. It panics on a foreign handle.
func (g *Graph) Arc(id ArcID) Arc {
	return g.arcs[id]
}

// NodeArcs returns the arcs touching node id in insertion order, nil for a
// foreign handle.
func (g *Graph) NodeArcs(id NodeID) []ArcID {
	n, err := g.node(id)
	if err != nil {
		return nil
	}
	return n.arcs
}

// Arcs returns every arc, numbered by ArcID.
func (g *Graph) Arcs() []Arc {
	return g.arcs
}

// NumNodes returns the size of the node arena.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// NumGroups returns the size of the group arena.
func (g *Graph) NumGroups() int {
	return len(g.groups)
}

// RequestGroups returns the request groups in solving order.
func (g *Graph) RequestGroups() []GroupID {
	return g.requestGroups
}

// SupplyGroups returns the supply groups in registration order.
func (g *Graph) SupplyGroups() []GroupID {
	return g.supplyGroups
}

// Empty reports whether the graph has no arcs to solve.
func (g *Graph) Empty() bool {
	return len(g.arcs) == 0
}

// ReorderRequestGroups replaces the solving order of request groups. order
// must be a permutation of RequestGroups().
func (g *Graph) ReorderRequestGroups(order []GroupID) error {
	if !samePermutation(g.requestGroups, order) {
		return sim.NewStateError("request group order is not a permutation of the registered groups")
	}
	g.requestGroups = append(g.requestGroups[:0], order...)
	return nil
}

// ReorderNodes replaces the node order of a group. order must be a
// permutation of the group's nodes.
func (g *Graph) ReorderNodes(gid GroupID, order []NodeID) error {
	grp, err := g.group(gid)
	if err != nil {
		return err
	}
	if !samePermutation(grp.Nodes, order) {
		return sim.NewStateError("node order for group %d is not a permutation of its nodes", gid)
	}
	grp.Nodes = append(grp.Nodes[:0], order...)
	return nil
}

func (g *Graph) group(id GroupID) (*Group, error) {
	if id < 0 || int(id) >= len(g.groups) {
		return nil, sim.NewStateError("group %d is not registered in this graph", id)
	}
	return &g.groups[id], nil
}

func (g *Graph) node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, sim.NewStateError("node %d is not registered in this graph", id)
	}
	return &g.nodes[id], nil
}

func (g *Graph) arc(id ArcID) (*Arc, error) {
	if id < 0 || int(id) >= len(g.arcs) {
		return nil, sim.NewStateError("arc %d is not registered in this graph", id)
	}
	return &g.arcs[id], nil
}

func samePermutation[K comparable](have, want []K) bool {
	if len(have) != len(want) {
		return false
	}
	seen := make(map[K]int, len(have))
	for _, k := range have {
		seen[k]++
	}
	for _, k := range want {
		if seen[k] == 0 {
			return false
		}
		seen[k]--
	}
	return true
}
