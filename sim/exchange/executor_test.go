package exchange_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/exchange"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/internal/testutil"
)

// tradesFor pairs each request in ctx with its first bid at the given amount.
func tradesFor(ctx *exchange.Context[*widget], amount float64) []exchange.Trade[*widget] {
	var out []exchange.Trade[*widget]
	for _, commod := range ctx.Commodities() {
		for _, r := range ctx.RequestsForCommod(commod) {
			for _, b := range ctx.BidsForRequest(r) {
				out = append(out, exchange.NewTrade(r, b, amount))
			}
		}
	}
	return out
}

func TestExecutor_SuppliersThenRequestersInIDOrder(t *testing.T) {
	// GIVEN two requesters and two suppliers, all bidding on both requests
	ids := sim.NewIDGenerator(1000)
	var order []string
	r5 := requester(t, 5, ids, "widgets", 1, false, 2)
	r3 := requester(t, 3, ids, "widgets", 1, false, 2)
	s9 := supplier(t, 9, ids, "widgets", 1, 10)
	s7 := supplier(t, 7, ids, "widgets", 1, 10)
	ctx := collect(t, r5, r3, s9, s7)
	trades := tradesFor(ctx, 1)
	require.Len(t, trades, 4)

	track := func(name string, f *testutil.FakeTrader[*widget]) {
		inner := f.Respond
		f.Respond = func(tr exchange.Trade[*widget]) *widget {
			order = append(order, name)
			return inner(tr)
		}
	}
	track("s7", s7)
	track("s9", s9)

	// WHEN executed
	exec := exchange.NewExecutor(trades, sim.NewIDGenerator(1))
	require.NoError(t, exec.Execute(4))

	// THEN supplier 7 populated first and each requester accepted once
	require.NotEmpty(t, order)
	assert.Equal(t, "s7", order[0])
	assert.Equal(t, []string{"accept"}, r3.Calls)
	assert.Equal(t, []string{"accept"}, r5.Calls)
	assert.InDelta(t, 2, r3.AcceptedQty(), sim.Eps)
	assert.InDelta(t, 2, r5.AcceptedQty(), sim.Eps)

	// AND one transaction per response, senders in id order, numbered sequentially
	txs := exec.Transactions()
	require.Len(t, txs, 4)
	assert.Equal(t, 7, txs[0].SenderID)
	assert.Equal(t, 9, txs[3].SenderID)
	for i, tx := range txs {
		assert.Equal(t, i+1, tx.ID)
		assert.Equal(t, 4, tx.Time)
		assert.Equal(t, "widgets", tx.Commodity)
	}
}

func TestExecutor_QuantityMismatch_IsStateError(t *testing.T) {
	// GIVEN a supplier that always hands over one widget too many
	ids := sim.NewIDGenerator(1000)
	r := requester(t, 1, ids, "widgets", 1, false, 5)
	s := supplier(t, 2, ids, "widgets", 5, 10)
	s.Respond = func(tr exchange.Trade[*widget]) *widget {
		return testutil.NewWidget(ids.Next(), tr.Amount()+1)
	}
	ctx := collect(t, r, s)

	// WHEN executed
	err := exchange.NewExecutor(tradesFor(ctx, 5), nil).Execute(0)

	// THEN it fails before anything is delivered
	assert.True(t, sim.IsStateError(err))
	assert.Empty(t, r.Accepted)
}

func TestExecutor_SelfTrade_WarnsAndExecutes(t *testing.T) {
	// GIVEN a trader that bids on its own request
	ids := sim.NewIDGenerator(1000)
	self := requester(t, 1, ids, "widgets", 1, false, 5)
	self.Bids = func(ctx *exchange.Context[*widget], _ int) []*exchange.BidPortfolio[*widget] {
		p := exchange.NewBidPortfolio[*widget]()
		for _, r := range ctx.RequestsForCommod("widgets") {
			_, err := p.AddBid(r, testutil.NewWidget(ids.Next(), 5), self, false)
			require.NoError(t, err)
		}
		return []*exchange.BidPortfolio[*widget]{p}
	}
	ctx := collect(t, self)

	var buf bytes.Buffer
	origOut, origLevel := logrus.StandardLogger().Out, logrus.GetLevel()
	logrus.SetOutput(&buf)
	logrus.SetLevel(logrus.WarnLevel)
	defer func() {
		logrus.SetOutput(origOut)
		logrus.SetLevel(origLevel)
	}()

	// WHEN executed
	require.NoError(t, exchange.NewExecutor(tradesFor(ctx, 5), nil).Execute(0))

	// THEN the trade happens and a warning is logged
	assert.InDelta(t, 5, self.AcceptedQty(), sim.Eps)
	assert.Contains(t, buf.String(), "with itself")
}
