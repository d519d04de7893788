package exchange

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
)

// Transaction is one resource handed from a supplier to a requester.
type Transaction struct {
	ID         int
	SenderID   int
	ReceiverID int
	ResourceID int
	Commodity  string
	Quantity   float64
	Time       int
}

// Executor carries out the trades of one round.
type Executor[T sim.Resource] struct {
	trades []Trade[T]
	txIDs  *sim.IDGenerator

	transactions []Transaction
}

// NewExecutor creates an executor. Transaction ids come from txIDs.
func NewExecutor[T sim.Resource](trades []Trade[T], txIDs *sim.IDGenerator) *Executor[T] {
	if txIDs == nil {
		txIDs = sim.NewIDGenerator(1)
	}
	return &Executor[T]{trades: trades, txIDs: txIDs}
}

// Execute asks each supplier, in id order, for resources covering its trades,
// then hands them to each requester, in id order. A response whose quantity
// differs from its trade amount is a StateError.
func (e *Executor[T]) Execute(time int) error {
	suppliers, bySupplier := groupByTrader(e.trades, func(t Trade[T]) Trader[T] { return t.bid.bidder })

	var responses []TradeResponse[T]
	for _, s := range suppliers {
		trades := bySupplier[s.ID()]
		resps, err := s.PopulateTradeResponses(trades)
		if err != nil {
			return fmt.Errorf("trader %d populating trade responses: %w", s.ID(), err)
		}
		if len(resps) != len(trades) {
			return sim.NewStateError("trader %d answered %d trades with %d responses", s.ID(), len(trades), len(resps))
		}
		for _, r := range resps {
			if r.Trade.bid == nil || r.Trade.bid.bidder.ID() != s.ID() {
				return sim.NewStateError("trader %d responded to a trade it is not party to", s.ID())
			}
			if !sim.AlmostEqual(r.Resource.Quantity(), r.Trade.amount) {
				return sim.NewStateError("trader %d supplied %g for a trade of %g",
					s.ID(), r.Resource.Quantity(), r.Trade.amount)
			}
			if r.Trade.request.requester.ID() == s.ID() {
				logrus.Warnf("trader %d (%s) is trading %g of %s with itself",
					s.ID(), s.Prototype(), r.Trade.amount, r.Trade.request.commodity)
			}
			responses = append(responses, r)
			e.transactions = append(e.transactions, Transaction{
				ID:         e.txIDs.Next(),
				SenderID:   s.ID(),
				ReceiverID: r.Trade.request.requester.ID(),
				ResourceID: r.Resource.ID(),
				Commodity:  r.Trade.request.commodity,
				Quantity:   r.Resource.Quantity(),
				Time:       time,
			})
		}
	}

	requesters, byRequester := groupByTrader(responses, func(r TradeResponse[T]) Trader[T] { return r.Trade.request.requester })
	for _, r := range requesters {
		if err := r.AcceptTrades(byRequester[r.ID()]); err != nil {
			return fmt.Errorf("trader %d accepting trades: %w", r.ID(), err)
		}
	}
	return nil
}

// Transactions returns the deliveries made by Execute, in supplier order.
func (e *Executor[T]) Transactions() []Transaction { return e.transactions }

// groupByTrader buckets items by trader id, keeping item order within each
// bucket, and returns the traders sorted by id.
func groupByTrader[T sim.Resource, I any](items []I, key func(I) Trader[T]) ([]Trader[T], map[int][]I) {
	var traders []Trader[T]
	buckets := make(map[int][]I)
	for _, it := range items {
		tr := key(it)
		if _, ok := buckets[tr.ID()]; !ok {
			traders = append(traders, tr)
		}
		buckets[tr.ID()] = append(buckets[tr.ID()], it)
	}
	sort.SliceStable(traders, func(i, j int) bool { return traders[i].ID() < traders[j].ID() })
	return traders, buckets
}
