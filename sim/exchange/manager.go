package exchange

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/metrics"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/solver"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/trace"
)

// RoundResult reports what one call to Manager.Execute did.
type RoundResult[T sim.Resource] struct {
	Time         int
	Requests     int
	Bids         int
	Arcs         int
	Requested    float64
	Matched      float64
	Objective    float64
	TimedOut     bool
	Trades       []Trade[T]
	Transactions []Transaction
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	resourceType string
	ids          *sim.IDGenerator
	txIDs        *sim.IDGenerator
	sink         trace.Sink
	metrics      *metrics.Exchange
	simID        uuid.UUID
}

// WithResourceType names the resource type in records and metrics.
func WithResourceType(name string) Option {
	return func(o *managerOptions) { o.resourceType = name }
}

// WithIDGenerators sets the generators for request/bid ids and for
// transaction ids. Managers of different resource types may share them.
func WithIDGenerators(ids, txIDs *sim.IDGenerator) Option {
	return func(o *managerOptions) { o.ids, o.txIDs = ids, txIDs }
}

// WithSink sends round, trade and transaction records to sink.
func WithSink(sink trace.Sink) Option {
	return func(o *managerOptions) { o.sink = sink }
}

// WithMetrics records rounds and trades on m.
func WithMetrics(m *metrics.Exchange) Option {
	return func(o *managerOptions) { o.metrics = m }
}

// WithSimID stamps records with the given simulation id.
func WithSimID(id uuid.UUID) Option {
	return func(o *managerOptions) { o.simID = id }
}

// Manager runs exchange rounds for one resource type.
type Manager[T sim.Resource] struct {
	traders []Trader[T]
	solver  solver.Solver
	opts    managerOptions
}

// NewManager creates a manager over traders. Traders are consulted in id
// order regardless of the order given.
func NewManager[T sim.Resource](traders []Trader[T], s solver.Solver, opts ...Option) *Manager[T] {
	o := managerOptions{resourceType: "resource"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ids == nil {
		o.ids = sim.NewIDGenerator(1)
	}
	if o.txIDs == nil {
		o.txIDs = sim.NewIDGenerator(1)
	}
	if o.simID == uuid.Nil {
		o.simID = uuid.New()
	}

	sorted := append([]Trader[T](nil), traders...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })
	return &Manager[T]{traders: sorted, solver: s, opts: o}
}

// Execute runs one round: collect requests, collect bids, adjust
// preferences, translate, solve, back-translate and execute the trades.
func (m *Manager[T]) Execute(ctx context.Context, step int) (*RoundResult[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &RoundResult[T]{Time: step}

	ectx := NewContext[T](m.opts.ids)
	for _, t := range m.traders {
		for _, p := range t.GetRequests(step) {
			if err := ectx.AddRequestPortfolio(p); err != nil {
				return nil, fmt.Errorf("requests from trader %d: %w", t.ID(), err)
			}
		}
	}
	for _, p := range ectx.RequestPortfolios() {
		res.Requested += p.Qty()
	}
	res.Requests = ectx.NumRequests()

	if res.Requests > 0 {
		requested := make(map[string]bool)
		for _, c := range ectx.Commodities() {
			requested[c] = true
		}
		for _, t := range m.traders {
			for _, p := range t.GetBids(ectx, step) {
				if p == nil || len(p.Bids()) == 0 {
					continue
				}
				if !requested[p.Commodity()] {
					logrus.Debugf("dropping bids from trader %d for unrequested commodity %s", t.ID(), p.Commodity())
					continue
				}
				if err := ectx.AddBidPortfolio(p); err != nil {
					return nil, fmt.Errorf("bids from trader %d: %w", t.ID(), err)
				}
			}
		}
	}
	res.Bids = ectx.NumBids()

	if res.Requests == 0 || res.Bids == 0 {
		logrus.Debugf("[t=%d] %s exchange: %d requests, %d bids, nothing to solve",
			step, m.opts.resourceType, res.Requests, res.Bids)
		m.recordRound(res, 0)
		return res, nil
	}

	if err := AdjustPreferences(ectx); err != nil {
		return nil, err
	}

	start := time.Now()
	tr := NewTranslator(ectx)
	g, err := tr.Translate()
	if err != nil {
		return nil, err
	}
	res.Arcs = len(g.Arcs())

	sol, err := m.solver.Solve(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("%s solver: %w", m.solver.Name(), err)
	}
	res.Objective = sol.Objective
	res.TimedOut = sol.TimedOut

	trades, err := tr.BackTranslateSolution(sol.Matches)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	res.Trades = trades
	for _, t := range trades {
		res.Matched += t.amount
	}

	exec := NewExecutor(trades, m.opts.txIDs)
	if err := exec.Execute(step); err != nil {
		return nil, err
	}
	res.Transactions = exec.Transactions()

	logrus.Debugf("[t=%d] %s exchange: %d requests, %d bids, %d arcs, %d trades, matched %g of %g",
		step, m.opts.resourceType, res.Requests, res.Bids, res.Arcs, len(trades), res.Matched, res.Requested)
	m.recordRound(res, elapsed)
	m.recordTrades(ectx, res)
	return res, nil
}

func (m *Manager[T]) recordRound(res *RoundResult[T], elapsed time.Duration) {
	m.opts.metrics.ObserveRound(metrics.Round{
		ResourceType: m.opts.resourceType,
		Solver:       m.solver.Name(),
		Arcs:         res.Arcs,
		Requested:    res.Requested,
		Unmatched:    max(0, res.Requested-res.Matched),
		TimedOut:     res.TimedOut,
		Duration:     elapsed,
	})
	if m.opts.sink == nil {
		return
	}
	m.opts.sink.RecordRound(trace.RoundRecord{
		SimID:        m.opts.simID,
		Time:         res.Time,
		ResourceType: m.opts.resourceType,
		Solver:       m.solver.Name(),
		Requests:     res.Requests,
		Bids:         res.Bids,
		Arcs:         res.Arcs,
		Requested:    res.Requested,
		Matched:      res.Matched,
		Objective:    res.Objective,
		TimedOut:     res.TimedOut,
	})
}

func (m *Manager[T]) recordTrades(ectx *Context[T], res *RoundResult[T]) {
	for _, t := range res.Trades {
		m.opts.metrics.ObserveTrade(m.opts.resourceType, t.request.commodity, t.amount)
	}
	if m.opts.sink == nil {
		return
	}
	for _, t := range res.Trades {
		pref, _ := ectx.Pref(t.bid)
		m.opts.sink.RecordTrade(trace.TradeRecord{
			SimID:             m.opts.simID,
			Time:              res.Time,
			Commodity:         t.request.commodity,
			RequestID:         t.request.id,
			BidID:             t.bid.id,
			RequesterID:       t.request.requester.ID(),
			BidderID:          t.bid.bidder.ID(),
			RequestPreference: t.request.preference,
			Preference:        pref,
			RequestQuantity:   t.request.target.Quantity(),
			OfferQuantity:     t.bid.offer.Quantity(),
			Units:             t.request.target.Units(),
			Quantity:          t.amount,
			RequestExclusive:  t.request.exclusive,
			BidExclusive:      t.bid.exclusive,
		})
	}
	for _, tx := range res.Transactions {
		m.opts.sink.RecordTransaction(trace.TransactionRecord{
			SimID:         m.opts.simID,
			TransactionID: tx.ID,
			SenderID:      tx.SenderID,
			ReceiverID:    tx.ReceiverID,
			ResourceID:    tx.ResourceID,
			Commodity:     tx.Commodity,
			Quantity:      tx.Quantity,
			Time:          tx.Time,
		})
	}
}

// SimID returns the id stamped on this manager's records.
func (m *Manager[T]) SimID() uuid.UUID { return m.opts.simID }
