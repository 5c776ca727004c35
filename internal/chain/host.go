// Package chain defines the host a deployed ledger runs against and provides
// the two implementations: an in-memory simulated chain used by the CLI and
// server, and a read-only JSON-RPC client for live networks.
package chain

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// ErrCallReverted marks a failure of the call target itself: the callee
	// reverted or there is no contract to call. Transport trouble is never
	// wrapped in it, so read paths with fallback values can tell the two apart.
	ErrCallReverted = errors.New("execution reverted")

	// ErrInsufficientBalance is returned when a native transfer exceeds the
	// sender's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Reader is the read-only view of a chain.
type Reader interface {
	// NativeBalance returns the native currency balance of account.
	NativeBalance(ctx context.Context, account common.Address) (*uint256.Int, error)

	// CodeSize returns the size in bytes of the code at account. Zero means
	// no contract is deployed there.
	CodeSize(ctx context.Context, account common.Address) (int, error)

	// StaticCall executes a read-only call against the contract at to and
	// returns its raw return data.
	StaticCall(ctx context.Context, to common.Address, input []byte) ([]byte, error)
}

// Backend is the full host a ledger instance runs on: the read view plus
// value movement, mutating calls, and the snapshot hooks that make
// multi-step operations atomic.
type Backend interface {
	Reader

	// Self returns the address the ledger is deployed at.
	Self() common.Address

	// Transfer moves native currency out of the ledger's own balance.
	Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error

	// ContractCall executes a state-changing call with the ledger as caller.
	ContractCall(ctx context.Context, to common.Address, input []byte) ([]byte, error)

	// AcceptValue credits value attached to a payable operation, moving
	// amount from the external caller to the ledger.
	AcceptValue(ctx context.Context, from common.Address, amount *uint256.Int) error

	// Snapshot captures the current chain state and returns a handle.
	// RevertToSnapshot restores the captured state; DiscardSnapshot releases
	// the handle once the operation has committed.
	Snapshot() int
	RevertToSnapshot(id int)
	DiscardSnapshot(id int)
}
