// Package sim holds the shared vocabulary of the fuel-cycle simulator's
// Dynamic Resource Exchange (DRE): the Resource contract, id generation,
// exchange configuration and the two error classes the exchange surfaces.
//
// # Reading Guide
//
// The exchange is built bottom-up from these packages:
//   - sim/graph: the resource-neutral bipartite graph (nodes, groups, arcs, matches)
//   - sim/exchange: requests, bids, portfolios, the exchange context, translation
//     to and from the graph, trade execution and the per-round manager
//   - sim/solver: the greedy heuristic, its preconditioner and the LP/MIP solver
//   - sim/kernel: a minimal timestep loop that runs one exchange per resource type
//
// Supporting packages:
//   - sim/resource: concrete resource types (Material, Product)
//   - sim/agents: reference traders (Source, Sink) and the Region/Institution hierarchy
//   - sim/trace: debug records of trades and transactions
//   - sim/metrics: prometheus collectors for exchange rounds
//
// # Determinism
//
// Nothing in the exchange iterates a Go map to make a decision. Traders are
// visited in ascending id order and every sort is stable with an explicit
// tie-break, so two runs over identical inputs yield identical matches.
package sim
