// Package exchange implements the Dynamic Resource Exchange: traders post
// request portfolios, other traders bid on them, preferences are adjusted up
// the agent hierarchy, the whole is translated into a graph.Graph, solved,
// translated back into trades and executed.
//
// Everything here is generic over the resource type T. One Manager exists
// per resource type; rounds for different types never share state.
//
// Requests, bids and portfolios are referenced by pointer. A pointer is the
// identity of a request or bid for the duration of a round; the integer ids
// assigned by the Context are for records and tie-breaking only.
package exchange
