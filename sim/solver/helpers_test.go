package solver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim/graph"
)

// testGraph wraps a graph with one-row groups so that small exchange
// scenarios read like their description.
type testGraph struct {
	t *testing.T
	g *graph.Graph
}

func newTestGraph(t *testing.T) *testGraph {
	t.Helper()
	return &testGraph{t: t, g: graph.New()}
}

// request adds a request group demanding qty with a single node of that size.
func (tg *testGraph) request(commod string, qty float64, exclusive bool, agent int) graph.NodeID {
	tg.t.Helper()
	gid := tg.g.AddRequestGroup(qty)
	require.NoError(tg.t, tg.g.AddCapacity(gid, graph.Row{Value: qty}))
	nid, err := tg.g.AddNode(gid, graph.Node{AgentID: agent, Commodity: commod, Qty: qty, Exclusive: exclusive})
	require.NoError(tg.t, err)
	return nid
}

// supply adds a supply group limited to capacity with a single node offering qty.
func (tg *testGraph) supply(commod string, qty, capacity float64, exclusive bool, agent int) graph.NodeID {
	tg.t.Helper()
	gid := tg.g.AddSupplyGroup()
	require.NoError(tg.t, tg.g.AddCapacity(gid, graph.Row{Value: capacity}))
	nid, err := tg.g.AddNode(gid, graph.Node{AgentID: agent, Commodity: commod, Qty: qty, Exclusive: exclusive})
	require.NoError(tg.t, err)
	return nid
}

// connect adds an arc with the given preference and unit capacities.
func (tg *testGraph) connect(u, v graph.NodeID, pref, ru, rv float64) graph.ArcID {
	tg.t.Helper()
	a, err := tg.g.AddArc(u, v)
	require.NoError(tg.t, err)
	require.NoError(tg.t, tg.g.SetPref(a, pref))
	require.NoError(tg.t, tg.g.SetUnitCaps(a, u, []float64{ru}))
	require.NoError(tg.t, tg.g.SetUnitCaps(a, v, []float64{rv}))
	return a
}

// flows sums matched quantity per arc.
func flows(g *graph.Graph) map[graph.ArcID]float64 {
	out := make(map[graph.ArcID]float64)
	for _, m := range g.Matches() {
		out[m.Arc] += m.Qty
	}
	return out
}

func totalFlow(g *graph.Graph) float64 {
	sum := 0.0
	for _, m := range g.Matches() {
		sum += m.Qty
	}
	return sum
}
