package trace

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Sink receives exchange records. Implementations must not retain pointers
// into the exchange; records are plain values.
type Sink interface {
	RecordRound(record RoundRecord)
	RecordTrade(record TradeRecord)
	RecordTransaction(record TransactionRecord)
}

// ExchangeTrace collects records in memory, in arrival order.
type ExchangeTrace struct {
	SimID        uuid.UUID           `yaml:"sim_id"`
	Rounds       []RoundRecord       `yaml:"rounds"`
	Trades       []TradeRecord       `yaml:"trades"`
	Transactions []TransactionRecord `yaml:"transactions"`
}

// NewExchangeTrace creates an ExchangeTrace ready for recording.
func NewExchangeTrace(simID uuid.UUID) *ExchangeTrace {
	return &ExchangeTrace{
		SimID:        simID,
		Rounds:       make([]RoundRecord, 0),
		Trades:       make([]TradeRecord, 0),
		Transactions: make([]TransactionRecord, 0),
	}
}

// RecordRound appends a round record.
func (et *ExchangeTrace) RecordRound(record RoundRecord) {
	et.Rounds = append(et.Rounds, record)
}

// RecordTrade appends a trade record.
func (et *ExchangeTrace) RecordTrade(record TradeRecord) {
	et.Trades = append(et.Trades, record)
}

// RecordTransaction appends a transaction record.
func (et *ExchangeTrace) RecordTransaction(record TransactionRecord) {
	et.Transactions = append(et.Transactions, record)
}

// WriteYAML writes the trace followed by its summary.
func (et *ExchangeTrace) WriteYAML(w io.Writer) error {
	doc := struct {
		Trace   *ExchangeTrace `yaml:"trace"`
		Summary *TraceSummary  `yaml:"summary"`
	}{Trace: et, Summary: Summarize(et)}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding exchange trace: %w", err)
	}
	return enc.Close()
}
