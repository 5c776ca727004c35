// Package ledger implements the distribution ledger: a labeled value pool
// with per-caller accounting that pays out native currency from its own
// balance and moves ERC-20 tokens on behalf of approved callers.
//
// Every operation takes an explicit Msg naming the caller and any attached
// value; nothing is read from ambient state. Operations are all-or-nothing:
// a failure anywhere, including mid-batch, leaves both ledger counters and
// host balances exactly as they were.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Mohsinsiddi/w3ledger/internal/abi"
	"github.com/Mohsinsiddi/w3ledger/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DefaultLabel is the label a freshly deployed ledger carries.
const DefaultLabel = "Building Unstoppable Apps!!!"

var (
	// ErrLengthMismatch is returned by batch operations when the recipient
	// and amount slices differ in length. The check runs before any effect.
	ErrLengthMismatch = errors.New("recipients and amounts length mismatch")

	// ErrNonpayable is returned when value is attached to an operation that
	// does not accept it.
	ErrNonpayable = errors.New("operation is not payable")

	// ErrAmountOverflow is returned when an aggregate counter would exceed
	// 256 bits.
	ErrAmountOverflow = errors.New("counter overflow")

	// ErrTransferFailed is returned when a token accepts a transferFrom call
	// but reports failure through its return value.
	ErrTransferFailed = errors.New("token transfer failed")
)

// Msg is the per-call context: who invoked the operation and how much native
// value rode along with the call.
type Msg struct {
	Sender common.Address
	Value  *uint256.Int
}

func (m Msg) value() *uint256.Int {
	if m.Value == nil {
		return uint256.NewInt(0)
	}
	return m.Value
}

// State is the complete persistent state of one ledger instance. Owner
// mirrors the access-control module; it is filled on export and consumed on
// restore.
type State struct {
	Label             string                          `json:"label"`
	Premium           bool                            `json:"premium"`
	TotalLabelChanges *uint256.Int                    `json:"total_label_changes"`
	LabelChangesBy    map[common.Address]*uint256.Int `json:"label_changes_by"`
	TotalNativeSent   *uint256.Int                    `json:"total_native_sent"`
	NativeSentBy      map[common.Address]*uint256.Int `json:"native_sent_by"`
	TotalTokenSent    *uint256.Int                    `json:"total_token_sent"`
	TokenSentBy       map[common.Address]*uint256.Int `json:"token_sent_by"`
	Owner             common.Address                  `json:"owner"`
}

func newState() State {
	return State{
		Label:             DefaultLabel,
		TotalLabelChanges: uint256.NewInt(0),
		LabelChangesBy:    make(map[common.Address]*uint256.Int),
		TotalNativeSent:   uint256.NewInt(0),
		NativeSentBy:      make(map[common.Address]*uint256.Int),
		TotalTokenSent:    uint256.NewInt(0),
		TokenSentBy:       make(map[common.Address]*uint256.Int),
	}
}

// normalize fills in whatever a hand-written or older state image left nil.
func (s *State) normalize() {
	if s.TotalLabelChanges == nil {
		s.TotalLabelChanges = uint256.NewInt(0)
	}
	if s.LabelChangesBy == nil {
		s.LabelChangesBy = make(map[common.Address]*uint256.Int)
	}
	if s.TotalNativeSent == nil {
		s.TotalNativeSent = uint256.NewInt(0)
	}
	if s.NativeSentBy == nil {
		s.NativeSentBy = make(map[common.Address]*uint256.Int)
	}
	if s.TotalTokenSent == nil {
		s.TotalTokenSent = uint256.NewInt(0)
	}
	if s.TokenSentBy == nil {
		s.TokenSentBy = make(map[common.Address]*uint256.Int)
	}
}

// clone deep-copies the state. Nil counters come out as fresh zeros, so a
// hand-written or older state image clones without tripping on missing
// fields before normalize runs.
func (s *State) clone() State {
	cp := *s
	cp.TotalLabelChanges = cloneCounter(s.TotalLabelChanges)
	cp.TotalNativeSent = cloneCounter(s.TotalNativeSent)
	cp.TotalTokenSent = cloneCounter(s.TotalTokenSent)
	cp.LabelChangesBy = cloneCounterMap(s.LabelChangesBy)
	cp.NativeSentBy = cloneCounterMap(s.NativeSentBy)
	cp.TokenSentBy = cloneCounterMap(s.TokenSentBy)
	return cp
}

func cloneCounter(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(v)
}

func cloneCounterMap(m map[common.Address]*uint256.Int) map[common.Address]*uint256.Int {
	cp := make(map[common.Address]*uint256.Int, len(m))
	for k, v := range m {
		cp[k] = cloneCounter(v)
	}
	return cp
}

// Ledger is one deployed distribution ledger. A mutex serializes top-level
// operations, mirroring single-threaded contract execution.
type Ledger struct {
	mu   sync.Mutex
	host chain.Backend
	own  Ownership
	sink Sink
	st   State
}

// Option configures optional ledger collaborators.
type Option func(*Ledger)

// WithSink routes committed events into s.
func WithSink(s Sink) Option {
	return func(l *Ledger) { l.sink = s }
}

// WithOwnership swaps in a custom access-control implementation.
func WithOwnership(o Ownership) Option {
	return func(l *Ledger) { l.own = o }
}

// New deploys a fresh ledger on host, owned by initialOwner.
func New(host chain.Backend, initialOwner common.Address, opts ...Option) (*Ledger, error) {
	l := &Ledger{host: host, st: newState()}
	for _, opt := range opts {
		opt(l)
	}
	if l.own == nil {
		own, err := NewOwnable(initialOwner, l.sink)
		if err != nil {
			return nil, err
		}
		l.own = own
	}
	return l, nil
}

// Restore rebuilds a ledger from a saved state snapshot. No events fire.
func Restore(host chain.Backend, st *State, opts ...Option) *Ledger {
	l := &Ledger{host: host}
	l.st = st.clone()
	l.st.normalize()
	for _, opt := range opts {
		opt(l)
	}
	if l.own == nil {
		l.own = RestoreOwnable(st.Owner, l.sink)
	}
	return l
}

// ---------------------------------------------------------------------------
// operations
// ---------------------------------------------------------------------------

// SetLabel replaces the ledger's label and records the change against the
// caller. Attached value is kept by the ledger and flips the premium flag;
// a free call clears it.
func (l *Ledger) SetLabel(ctx context.Context, msg Msg, newLabel string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	one := uint256.NewInt(1)
	newTotal, err := checkedAdd(l.st.TotalLabelChanges, one)
	if err != nil {
		return err
	}
	newBy, err := checkedAdd(l.st.LabelChangesBy[msg.Sender], one)
	if err != nil {
		return err
	}

	if err := l.host.AcceptValue(ctx, msg.Sender, msg.Value); err != nil {
		return fmt.Errorf("accepting value: %w", err)
	}

	l.st.Label = newLabel
	l.st.Premium = !msg.value().IsZero()
	l.st.TotalLabelChanges = newTotal
	l.st.LabelChangesBy[msg.Sender] = newBy

	l.emit(LabelChange{
		Setter:   msg.Sender,
		NewLabel: newLabel,
		Premium:  l.st.Premium,
		Value:    msg.value().Clone(),
	})
	return nil
}

// Withdraw moves the ledger's entire native balance to the owner. A zero
// balance is a successful no-op; a failed payout aborts the call.
func (l *Ledger) Withdraw(ctx context.Context, msg Msg) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := nonpayable(msg); err != nil {
		return err
	}
	if err := l.own.RequireOwner(msg.Sender); err != nil {
		return err
	}

	bal, err := l.host.NativeBalance(ctx, l.host.Self())
	if err != nil {
		return fmt.Errorf("reading ledger balance: %w", err)
	}
	if bal.IsZero() {
		return nil
	}
	if err := l.host.Transfer(ctx, l.own.Owner(), bal); err != nil {
		return fmt.Errorf("withdrawing %s: %w", bal.Dec(), err)
	}
	return nil
}

// SendNative pays amount out of the ledger's pool to a single recipient and
// records it against the caller. Attached value tops up the pool first.
func (l *Ledger) SendNative(ctx context.Context, msg Msg, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount = valueOrZero(amount)
	newTotal, err := checkedAdd(l.st.TotalNativeSent, amount)
	if err != nil {
		return err
	}
	newBy, err := checkedAdd(l.st.NativeSentBy[msg.Sender], amount)
	if err != nil {
		return err
	}

	snap := l.host.Snapshot()
	committed := false
	defer func() {
		if committed {
			l.host.DiscardSnapshot(snap)
		} else {
			l.host.RevertToSnapshot(snap)
		}
	}()

	if err := l.host.AcceptValue(ctx, msg.Sender, msg.Value); err != nil {
		return fmt.Errorf("accepting value: %w", err)
	}
	if err := l.host.Transfer(ctx, to, amount); err != nil {
		return fmt.Errorf("sending %s to %s: %w", amount.Dec(), to.Hex(), err)
	}

	l.st.TotalNativeSent = newTotal
	l.st.NativeSentBy[msg.Sender] = newBy
	committed = true

	l.emit(NativeSent{From: msg.Sender, To: to, Amount: amount.Clone()})
	return nil
}

// SendNativeBatch pays each recipients[i] the matching amounts[i] out of the
// ledger's pool. The slices must be the same length; any failure rolls the
// whole batch back, counters included.
func (l *Ledger) SendNativeBatch(ctx context.Context, msg Msg, recipients []common.Address, amounts []*uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(recipients) != len(amounts) {
		return fmt.Errorf("%w: %d recipients, %d amounts", ErrLengthMismatch, len(recipients), len(amounts))
	}

	total, err := sumAmounts(amounts)
	if err != nil {
		return err
	}
	newTotal, err := checkedAdd(l.st.TotalNativeSent, total)
	if err != nil {
		return err
	}
	newBy, err := checkedAdd(l.st.NativeSentBy[msg.Sender], total)
	if err != nil {
		return err
	}

	snap := l.host.Snapshot()
	committed := false
	defer func() {
		if committed {
			l.host.DiscardSnapshot(snap)
		} else {
			l.host.RevertToSnapshot(snap)
		}
	}()

	if err := l.host.AcceptValue(ctx, msg.Sender, msg.Value); err != nil {
		return fmt.Errorf("accepting value: %w", err)
	}
	for i, to := range recipients {
		if err := l.host.Transfer(ctx, to, valueOrZero(amounts[i])); err != nil {
			return fmt.Errorf("transfer %d/%d to %s: %w", i+1, len(recipients), to.Hex(), err)
		}
	}

	l.st.TotalNativeSent = newTotal
	l.st.NativeSentBy[msg.Sender] = newBy
	committed = true

	l.emit(NativeBatchSent{
		From:           msg.Sender,
		TotalAmount:    total,
		RecipientCount: len(recipients),
	})
	return nil
}

// SendToken pulls amount of token from the caller to a single recipient via
// transferFrom; the caller must have approved the ledger beforehand. A revert
// or a false return from the token aborts the call.
func (l *Ledger) SendToken(ctx context.Context, msg Msg, token, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := nonpayable(msg); err != nil {
		return err
	}

	amount = valueOrZero(amount)
	newTotal, err := checkedAdd(l.st.TotalTokenSent, amount)
	if err != nil {
		return err
	}
	newBy, err := checkedAdd(l.st.TokenSentBy[msg.Sender], amount)
	if err != nil {
		return err
	}

	if err := l.transferToken(ctx, token, msg.Sender, to, amount); err != nil {
		return err
	}

	l.st.TotalTokenSent = newTotal
	l.st.TokenSentBy[msg.Sender] = newBy

	l.emit(TokenSent{Token: token, From: msg.Sender, To: to, Amount: amount.Clone()})
	return nil
}

// SendTokenBatch pulls token amounts from the caller to each recipient. The
// slices must be the same length; any failed transfer rolls back the
// transfers already made.
func (l *Ledger) SendTokenBatch(ctx context.Context, msg Msg, token common.Address, recipients []common.Address, amounts []*uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := nonpayable(msg); err != nil {
		return err
	}
	if len(recipients) != len(amounts) {
		return fmt.Errorf("%w: %d recipients, %d amounts", ErrLengthMismatch, len(recipients), len(amounts))
	}

	total, err := sumAmounts(amounts)
	if err != nil {
		return err
	}
	newTotal, err := checkedAdd(l.st.TotalTokenSent, total)
	if err != nil {
		return err
	}
	newBy, err := checkedAdd(l.st.TokenSentBy[msg.Sender], total)
	if err != nil {
		return err
	}

	snap := l.host.Snapshot()
	committed := false
	defer func() {
		if committed {
			l.host.DiscardSnapshot(snap)
		} else {
			l.host.RevertToSnapshot(snap)
		}
	}()

	for i, to := range recipients {
		if err := l.transferToken(ctx, token, msg.Sender, to, valueOrZero(amounts[i])); err != nil {
			return fmt.Errorf("transfer %d/%d: %w", i+1, len(recipients), err)
		}
	}

	l.st.TotalTokenSent = newTotal
	l.st.TokenSentBy[msg.Sender] = newBy
	committed = true

	l.emit(TokenBatchSent{
		Token:          token,
		From:           msg.Sender,
		TotalAmount:    total,
		RecipientCount: len(recipients),
	})
	return nil
}

// Receive accepts plain value transfers into the ledger's pool.
func (l *Ledger) Receive(ctx context.Context, msg Msg) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.host.AcceptValue(ctx, msg.Sender, msg.Value); err != nil {
		return fmt.Errorf("accepting value: %w", err)
	}
	return nil
}

// TransferOwnership hands the ledger to newOwner.
func (l *Ledger) TransferOwnership(msg Msg, newOwner common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := nonpayable(msg); err != nil {
		return err
	}
	return l.own.TransferOwnership(msg.Sender, newOwner)
}

// RenounceOwnership permanently gives up owner-only operations.
func (l *Ledger) RenounceOwnership(msg Msg) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := nonpayable(msg); err != nil {
		return err
	}
	return l.own.RenounceOwnership(msg.Sender)
}

// ---------------------------------------------------------------------------
// views
// ---------------------------------------------------------------------------

func (l *Ledger) Owner() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.own.Owner()
}

func (l *Ledger) Label() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.Label
}

func (l *Ledger) Premium() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.Premium
}

func (l *Ledger) TotalLabelChanges() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.TotalLabelChanges.Clone()
}

// LabelChangesBy returns how many times account has set the label.
func (l *Ledger) LabelChangesBy(account common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return counterOrZero(l.st.LabelChangesBy[account])
}

func (l *Ledger) TotalNativeSent() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.TotalNativeSent.Clone()
}

// NativeSentBy returns the total native amount account has distributed.
func (l *Ledger) NativeSentBy(account common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return counterOrZero(l.st.NativeSentBy[account])
}

func (l *Ledger) TotalTokenSent() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.TotalTokenSent.Clone()
}

// TokenSentBy returns the total token amount account has distributed.
func (l *Ledger) TokenSentBy(account common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return counterOrZero(l.st.TokenSentBy[account])
}

// Balance returns the ledger's own native balance.
func (l *Ledger) Balance(ctx context.Context) (*uint256.Int, error) {
	return l.host.NativeBalance(ctx, l.host.Self())
}

// Self returns the address the ledger is deployed at.
func (l *Ledger) Self() common.Address {
	return l.host.Self()
}

// State exports a deep copy of the full ledger state, owner included.
func (l *Ledger) State() *State {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.st.clone()
	st.Owner = l.own.Owner()
	return &st
}

// ---------------------------------------------------------------------------
// internals
// ---------------------------------------------------------------------------

// transferToken issues one transferFrom and interprets the result. The sim
// and live chains both roll a reverted call back on their own, so there is
// nothing to undo here on failure.
func (l *Ledger) transferToken(ctx context.Context, token, from, to common.Address, amount *uint256.Int) error {
	ret, err := l.host.ContractCall(ctx, token, abi.PackTransferFrom(from, to, amount))
	if err != nil {
		return fmt.Errorf("token %s: %w", token.Hex(), err)
	}
	if !abi.TransferReturnOK(ret) {
		return fmt.Errorf("%w: token %s returned false", ErrTransferFailed, token.Hex())
	}
	return nil
}

func (l *Ledger) emit(e Event) {
	if l.sink != nil {
		l.sink.Emit(e)
	}
}

func nonpayable(msg Msg) error {
	if !msg.value().IsZero() {
		return ErrNonpayable
	}
	return nil
}

func valueOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return v
}

func counterOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return v.Clone()
}

func checkedAdd(base, delta *uint256.Int) (*uint256.Int, error) {
	if base == nil {
		base = uint256.NewInt(0)
	}
	sum, overflow := new(uint256.Int).AddOverflow(base, delta)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return sum, nil
}

func sumAmounts(amounts []*uint256.Int) (*uint256.Int, error) {
	total := uint256.NewInt(0)
	for _, a := range amounts {
		var overflow bool
		total, overflow = new(uint256.Int).AddOverflow(total, valueOrZero(a))
		if overflow {
			return nil, ErrAmountOverflow
		}
	}
	return total, nil
}
