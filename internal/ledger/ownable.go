package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUnauthorizedAccount is returned when a caller invokes an owner-only
	// operation without being the owner.
	ErrUnauthorizedAccount = errors.New("caller is not the owner")

	// ErrInvalidOwner rejects the zero address as an ownership target.
	ErrInvalidOwner = errors.New("new owner is the zero address")
)

// Ownership is the narrow access-control surface the ledger depends on.
// Callers are identified explicitly; nothing here inspects ambient state.
type Ownership interface {
	Owner() common.Address
	RequireOwner(caller common.Address) error
	TransferOwnership(caller, newOwner common.Address) error
	RenounceOwnership(caller common.Address) error
}

// Ownable is the standard single-owner Ownership implementation. It is not
// safe for concurrent use on its own; the owning ledger serializes access.
type Ownable struct {
	owner common.Address
	sink  Sink
}

// NewOwnable creates an Ownable held by initialOwner and emits the initial
// ownership event. The zero address is rejected.
func NewOwnable(initialOwner common.Address, sink Sink) (*Ownable, error) {
	if initialOwner == (common.Address{}) {
		return nil, ErrInvalidOwner
	}
	o := &Ownable{owner: initialOwner, sink: sink}
	o.emit(OwnershipTransferred{NewOwner: initialOwner})
	return o, nil
}

// RestoreOwnable rebuilds an Ownable from a saved owner without emitting.
// A zero owner is allowed here: it is the persisted image of a renounced
// ledger.
func RestoreOwnable(owner common.Address, sink Sink) *Ownable {
	return &Ownable{owner: owner, sink: sink}
}

func (o *Ownable) Owner() common.Address { return o.owner }

// RequireOwner returns ErrUnauthorizedAccount unless caller is the owner.
func (o *Ownable) RequireOwner(caller common.Address) error {
	if caller != o.owner {
		return fmt.Errorf("%w: %s", ErrUnauthorizedAccount, caller.Hex())
	}
	return nil
}

// TransferOwnership hands the ledger to newOwner. Only the current owner may
// call it, and the zero address is rejected; renouncing is explicit.
func (o *Ownable) TransferOwnership(caller, newOwner common.Address) error {
	if err := o.RequireOwner(caller); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return ErrInvalidOwner
	}
	prev := o.owner
	o.owner = newOwner
	o.emit(OwnershipTransferred{PreviousOwner: prev, NewOwner: newOwner})
	return nil
}

// RenounceOwnership sets the owner to the zero address, permanently disabling
// owner-only operations.
func (o *Ownable) RenounceOwnership(caller common.Address) error {
	if err := o.RequireOwner(caller); err != nil {
		return err
	}
	prev := o.owner
	o.owner = common.Address{}
	o.emit(OwnershipTransferred{PreviousOwner: prev})
	return nil
}

func (o *Ownable) emit(e Event) {
	if o.sink != nil {
		o.sink.Emit(e)
	}
}
