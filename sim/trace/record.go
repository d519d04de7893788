// Package trace provides debug recording for resource exchanges.
// This package has no dependencies on sim/exchange or sim/solver; it stores pure data types.
package trace

import "github.com/google/uuid"

// RoundRecord captures one exchange round for one resource type.
type RoundRecord struct {
	SimID        uuid.UUID `yaml:"sim_id"`
	Time         int       `yaml:"time"`
	ResourceType string    `yaml:"resource_type"`
	Solver       string    `yaml:"solver"`
	Requests     int       `yaml:"requests"`
	Bids         int       `yaml:"bids"`
	Arcs         int       `yaml:"arcs"`
	Requested    float64   `yaml:"requested"`
	Matched      float64   `yaml:"matched"`
	Objective    float64   `yaml:"objective"`
	TimedOut     bool      `yaml:"timed_out,omitempty"`
}

// TradeRecord captures a single solved trade. Preference is the value the
// solver saw; RequestPreference is the one the requester asked with.
type TradeRecord struct {
	SimID             uuid.UUID `yaml:"sim_id"`
	Time              int       `yaml:"time"`
	Commodity         string    `yaml:"commodity"`
	RequestID         int       `yaml:"request_id"`
	BidID             int       `yaml:"bid_id"`
	RequesterID       int       `yaml:"requester_id"`
	BidderID          int       `yaml:"bidder_id"`
	RequestPreference float64   `yaml:"request_preference"`
	Preference        float64   `yaml:"preference"`
	RequestQuantity   float64   `yaml:"request_quantity"`
	OfferQuantity     float64   `yaml:"offer_quantity"`
	Units             string    `yaml:"units"`
	Quantity          float64   `yaml:"quantity"`
	RequestExclusive  bool      `yaml:"request_exclusive,omitempty"`
	BidExclusive      bool      `yaml:"bid_exclusive,omitempty"`
}

// TransactionRecord captures a resource delivered from a sender to a receiver.
type TransactionRecord struct {
	SimID         uuid.UUID `yaml:"sim_id"`
	TransactionID int       `yaml:"transaction_id"`
	SenderID      int       `yaml:"sender_id"`
	ReceiverID    int       `yaml:"receiver_id"`
	ResourceID    int       `yaml:"resource_id"`
	Commodity     string    `yaml:"commodity"`
	Quantity      float64   `yaml:"quantity"`
	Time          int       `yaml:"time"`
}
