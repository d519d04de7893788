// Package agents provides the reference traders and the agent hierarchy
// used by the simulation kernel.
//
// A scenario is a tree: regions own institutions, institutions own
// facilities. Facilities are the traders. Regions and institutions never
// trade; they only adjust preferences for the trades their descendants take
// part in.
//
//   - Source produces a commodity at a fixed throughput and bids it on every
//     request for that commodity, up to what it holds in stock.
//   - Sink requests a commodity each step, up to a per-step throughput and a
//     lifetime capacity, optionally in exclusive batches.
//   - Region scales preferences per commodity.
//   - Institution adds a bonus to preferences for supply from its own
//     facilities.
package agents
