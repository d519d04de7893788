package trace

// TraceSummary aggregates statistics from an ExchangeTrace.
type TraceSummary struct {
	Rounds            int                `yaml:"rounds"`
	TimedOutRounds    int                `yaml:"timed_out_rounds"`
	TotalTrades       int                `yaml:"total_trades"`
	TotalRequested    float64            `yaml:"total_requested"`
	TotalMatched      float64            `yaml:"total_matched"`
	FillRatio         float64            `yaml:"fill_ratio"`
	SelfTrades        int                `yaml:"self_trades"`
	CommodityVolume   map[string]float64 `yaml:"commodity_volume"` // commodity → delivered quantity
	ReceiverVolume    map[int]float64    `yaml:"receiver_volume"`  // receiver id → delivered quantity
	UniqueCommodities int                `yaml:"unique_commodities"`
}

// Summarize computes aggregate statistics from an ExchangeTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(et *ExchangeTrace) *TraceSummary {
	summary := &TraceSummary{
		CommodityVolume: make(map[string]float64),
		ReceiverVolume:  make(map[int]float64),
	}
	if et == nil {
		return summary
	}

	summary.Rounds = len(et.Rounds)
	for _, r := range et.Rounds {
		if r.TimedOut {
			summary.TimedOutRounds++
		}
		summary.TotalRequested += r.Requested
		summary.TotalMatched += r.Matched
	}
	if summary.TotalRequested > 0 {
		summary.FillRatio = summary.TotalMatched / summary.TotalRequested
	}

	summary.TotalTrades = len(et.Trades)
	for _, t := range et.Trades {
		if t.RequesterID == t.BidderID {
			summary.SelfTrades++
		}
	}

	for _, tx := range et.Transactions {
		summary.CommodityVolume[tx.Commodity] += tx.Quantity
		summary.ReceiverVolume[tx.ReceiverID] += tx.Quantity
	}
	summary.UniqueCommodities = len(summary.CommodityVolume)

	return summary
}
