package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event is a typed record of a committed ledger mutation. Events are emitted
// after the state change that produced them, never before.
type Event interface {
	Name() string
}

// Sink consumes events. Emit is fire-and-forget: the ledger does not look at
// sink failures, so a sink must handle its own errors and must not block.
// Emit runs while the ledger's lock is held; sinks must not call back into
// the ledger.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// MultiSink fans each event out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// LabelChange records a label update, including whether the setter paid for
// premium placement.
type LabelChange struct {
	Setter   common.Address `json:"setter"`
	NewLabel string         `json:"new_label"`
	Premium  bool           `json:"premium"`
	Value    *uint256.Int   `json:"value"`
}

func (LabelChange) Name() string { return "LabelChange" }

// NativeSent records one native distribution out of the ledger's pool.
type NativeSent struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

func (NativeSent) Name() string { return "NativeSent" }

// NativeBatchSent records a completed native batch distribution.
type NativeBatchSent struct {
	From           common.Address `json:"from"`
	TotalAmount    *uint256.Int   `json:"total_amount"`
	RecipientCount int            `json:"recipient_count"`
}

func (NativeBatchSent) Name() string { return "NativeBatchSent" }

// TokenSent records one ERC-20 distribution pulled from the caller.
type TokenSent struct {
	Token  common.Address `json:"token"`
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

func (TokenSent) Name() string { return "TokenSent" }

// TokenBatchSent records a completed ERC-20 batch distribution.
type TokenBatchSent struct {
	Token          common.Address `json:"token"`
	From           common.Address `json:"from"`
	TotalAmount    *uint256.Int   `json:"total_amount"`
	RecipientCount int            `json:"recipient_count"`
}

func (TokenBatchSent) Name() string { return "TokenBatchSent" }

// OwnershipTransferred records an owner change. Renouncing sets NewOwner to
// the zero address.
type OwnershipTransferred struct {
	PreviousOwner common.Address `json:"previous_owner"`
	NewOwner      common.Address `json:"new_owner"`
}

func (OwnershipTransferred) Name() string { return "OwnershipTransferred" }
