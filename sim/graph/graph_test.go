package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
)

func TestGraph_AddArc_RequiresRegisteredNodes(t *testing.T) {
	g := New()
	rg := g.AddRequestGroup(10)
	u, err := g.AddNode(rg, Node{AgentID: 1, Commodity: "uox", Qty: 5})
	require.NoError(t, err)

	// WHEN the supply endpoint was never registered
	_, err = g.AddArc(u, NodeID(42))

	// THEN a state error is surfaced and no arc is created
	require.Error(t, err)
	assert.True(t, sim.IsStateError(err))
	assert.Empty(t, g.Arcs())
}

func TestGraph_AddNode_UnregisteredGroup(t *testing.T) {
	g := New()
	_, err := g.AddNode(GroupID(3), Node{Qty: 1})
	assert.True(t, sim.IsStateError(err))
}

func TestGraph_AddArc_EnforcesDirection(t *testing.T) {
	g := New()
	rg := g.AddRequestGroup(10)
	sg := g.AddSupplyGroup()
	u, _ := g.AddNode(rg, Node{Qty: 5})
	v, _ := g.AddNode(sg, Node{Qty: 5})

	_, err := g.AddArc(v, u)
	assert.True(t, sim.IsStateError(err), "supply -> request arcs are rejected")

	a, err := g.AddArc(u, v)
	require.NoError(t, err)
	assert.Equal(t, ArcID(0), a)
	assert.Equal(t, []ArcID{a}, g.Node(u).Arcs())
	assert.Equal(t, []ArcID{a}, g.Node(v).Arcs())
}

func TestGraph_AddArc_Exclusivity(t *testing.T) {
	tests := []struct {
		name      string
		uExcl     bool
		uQty      float64
		vExcl     bool
		vQty      float64
		exclusive bool
		exclVal   float64
	}{
		{"neither", false, 5, false, 3, false, 0},
		{"request exclusive", true, 5, false, 3, true, 5},
		{"bid exclusive", false, 5, true, 3, true, 3},
		{"both equal", true, 4, true, 4, true, 4},
		{"both differ", true, 4, true, 3, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			u, _ := g.AddNode(g.AddRequestGroup(10), Node{Qty: tt.uQty, Exclusive: tt.uExcl})
			v, _ := g.AddNode(g.AddSupplyGroup(), Node{Qty: tt.vQty, Exclusive: tt.vExcl})
			a, err := g.AddArc(u, v)
			require.NoError(t, err)
			assert.Equal(t, tt.exclusive, g.Arc(a).Exclusive)
			assert.Equal(t, tt.exclVal, g.Arc(a).ExclVal)
		})
	}
}

func TestGraph_ExclusiveNodesFormSingletonGroupings(t *testing.T) {
	g := New()
	rg := g.AddRequestGroup(10)
	n1, _ := g.AddNode(rg, Node{Qty: 5, Exclusive: true})
	_, _ = g.AddNode(rg, Node{Qty: 5})
	n3, _ := g.AddNode(rg, Node{Qty: 5, Exclusive: true})

	assert.Equal(t, [][]NodeID{{n1}, {n3}}, g.Group(rg).ExclGroups)

	require.NoError(t, g.AddExclGroup(rg, []NodeID{n1, n3}))
	assert.Len(t, g.Group(rg).ExclGroups, 3)

	other := g.AddSupplyGroup()
	assert.True(t, sim.IsStateError(g.AddExclGroup(other, []NodeID{n1})), "members must belong to the group")
}

func TestGraph_AddCapacity_DefaultSenseByKind(t *testing.T) {
	g := New()
	rg := g.AddRequestGroup(10)
	sg := g.AddSupplyGroup()
	require.NoError(t, g.AddCapacity(rg, Row{Value: 10}))
	require.NoError(t, g.AddCapacity(sg, Row{Value: 7}))
	require.NoError(t, g.AddCapacity(sg, Row{Value: 1, Sense: SenseNone}))

	assert.Equal(t, SenseGTEQ, g.Group(rg).Rows[0].Sense)
	assert.Equal(t, SenseLTEQ, g.Group(sg).Rows[0].Sense)
	assert.Equal(t, SenseNone, g.Group(sg).Rows[1].Sense)
}

func TestGraph_SetUnitCaps_ValidatesShape(t *testing.T) {
	g := New()
	rg := g.AddRequestGroup(10)
	sg := g.AddSupplyGroup()
	require.NoError(t, g.AddCapacity(rg, Row{Value: 10}))
	u, _ := g.AddNode(rg, Node{Qty: 5})
	v, _ := g.AddNode(sg, Node{Qty: 5})
	w, _ := g.AddNode(sg, Node{Qty: 5})
	a, _ := g.AddArc(u, v)

	assert.NoError(t, g.SetUnitCaps(a, u, []float64{1}))
	assert.True(t, sim.IsStateError(g.SetUnitCaps(a, u, []float64{1, 2})), "one unit capacity per row")
	assert.True(t, sim.IsStateError(g.SetUnitCaps(a, w, nil)), "w is not an endpoint")
	assert.NoError(t, g.SetUnitCaps(a, v, nil))
}

func TestGraph_Matches_AccumulateAndClear(t *testing.T) {
	g := New()
	u, _ := g.AddNode(g.AddRequestGroup(10), Node{Qty: 5})
	v, _ := g.AddNode(g.AddSupplyGroup(), Node{Qty: 5})
	a, _ := g.AddArc(u, v)

	require.NoError(t, g.AddMatch(a, 2))
	require.NoError(t, g.AddMatch(a, 1))
	assert.Equal(t, []Match{{Arc: a, Qty: 2}, {Arc: a, Qty: 1}}, g.Matches())
	assert.True(t, sim.IsStateError(g.AddMatch(ArcID(9), 1)))

	g.ClearMatches()
	assert.Empty(t, g.Matches())
}

func TestGraph_AvgPref(t *testing.T) {
	g := New()
	u, _ := g.AddNode(g.AddRequestGroup(10), Node{Qty: 5})
	sg := g.AddSupplyGroup()
	v1, _ := g.AddNode(sg, Node{Qty: 5})
	v2, _ := g.AddNode(sg, Node{Qty: 5})

	assert.Equal(t, 0.0, g.Node(u).AvgPref(), "no arcs")

	a1, _ := g.AddArc(u, v1)
	a2, _ := g.AddArc(u, v2)
	require.NoError(t, g.SetPref(a1, 1))
	require.NoError(t, g.SetPref(a2, 3))
	assert.Equal(t, 2.0, g.Node(u).AvgPref())
}

func TestGraph_Reorder_RequiresPermutation(t *testing.T) {
	g := New()
	r1 := g.AddRequestGroup(1)
	r2 := g.AddRequestGroup(1)
	n1, _ := g.AddNode(r1, Node{Qty: 1})
	n2, _ := g.AddNode(r1, Node{Qty: 1})

	require.NoError(t, g.ReorderRequestGroups([]GroupID{r2, r1}))
	assert.Equal(t, []GroupID{r2, r1}, g.RequestGroups())
	assert.Error(t, g.ReorderRequestGroups([]GroupID{r2, r2}))

	require.NoError(t, g.ReorderNodes(r1, []NodeID{n2, n1}))
	assert.Equal(t, []NodeID{n2, n1}, g.Group(r1).Nodes)
	assert.Error(t, g.ReorderNodes(r1, []NodeID{n1}))
}

func TestGraph_NodeArcs_IndexesBothEndpoints(t *testing.T) {
	// GIVEN one request node bid on by two supply nodes
	g := New()
	u, err := g.AddNode(g.AddRequestGroup(10), Node{Qty: 10})
	require.NoError(t, err)
	sg := g.AddSupplyGroup()
	v1, err := g.AddNode(sg, Node{Qty: 5})
	require.NoError(t, err)
	v2, err := g.AddNode(sg, Node{Qty: 5})
	require.NoError(t, err)

	// WHEN both arcs are added
	a1, err := g.AddArc(u, v1)
	require.NoError(t, err)
	a2, err := g.AddArc(u, v2)
	require.NoError(t, err)

	// THEN the request node lists both and each supply node its own
	assert.Equal(t, []ArcID{a1, a2}, g.NodeArcs(u))
	assert.Equal(t, []ArcID{a1}, g.NodeArcs(v1))
	assert.Equal(t, []ArcID{a2}, g.NodeArcs(v2))
	assert.Nil(t, g.NodeArcs(NodeID(99)))
}
