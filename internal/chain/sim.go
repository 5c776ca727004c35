package chain

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Contract is an in-sim contract: raw calldata in, raw return data out.
// A non-nil error is a revert. Clone must deep-copy any mutable state so
// snapshots stay independent.
type Contract interface {
	Run(caller common.Address, input []byte) ([]byte, error)
	Clone() Contract
}

// ContractFunc adapts a plain function to Contract. Handlers used this way
// must be stateless; Clone returns the function itself.
type ContractFunc func(caller common.Address, input []byte) ([]byte, error)

func (f ContractFunc) Run(caller common.Address, input []byte) ([]byte, error) {
	return f(caller, input)
}

func (f ContractFunc) Clone() Contract { return f }

// Sim contracts carry no real bytecode; report a fixed nonzero size so
// code-presence probes behave the way they do on a live chain.
const simCodeSize = 1

// SimHost is an in-memory chain. It tracks native balances and deployed
// contracts, serializes all access behind one mutex, and supports cheap
// whole-state snapshots. The ledger's own funds live at Self like any other
// account's.
type SimHost struct {
	mu    sync.Mutex
	self  common.Address
	world world
	snaps []world
}

type world struct {
	balances    map[common.Address]*uint256.Int
	contracts   map[common.Address]Contract
	deployNonce uint64
}

// NewSimHost creates an empty sim with the ledger deployed at self.
func NewSimHost(self common.Address) *SimHost {
	return &SimHost{
		self: self,
		world: world{
			balances:  make(map[common.Address]*uint256.Int),
			contracts: make(map[common.Address]Contract),
		},
	}
}

// Self returns the ledger's own address.
func (h *SimHost) Self() common.Address { return h.self }

// SetBalance seeds an account's native balance.
func (h *SimHost) SetBalance(account common.Address, amount *uint256.Int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.world.balances[account] = new(uint256.Int).Set(amount)
}

// Deploy registers a contract at addr. Deploying over an existing contract
// replaces it.
func (h *SimHost) Deploy(addr common.Address, c Contract) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.world.contracts[addr] = c
}

// NextAddress derives a fresh deterministic deployment address from the sim's
// own address and an internal nonce.
func (h *SimHost) NextAddress() common.Address {
	h.mu.Lock()
	defer h.mu.Unlock()

	var seed [28]byte
	copy(seed[:20], h.self.Bytes())
	binary.BigEndian.PutUint64(seed[20:], h.world.deployNonce)
	h.world.deployNonce++

	hash := sha3.NewLegacyKeccak256()
	hash.Write(seed[:])
	return common.BytesToAddress(hash.Sum(nil)[12:])
}

// Token returns the ERC-20 deployed at addr, if there is one.
func (h *SimHost) Token(addr common.Address) (*ERC20Token, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.world.contracts[addr].(*ERC20Token)
	return t, ok
}

// TokenAddresses returns the addresses of all deployed ERC-20s, sorted.
func (h *SimHost) TokenAddresses() []common.Address {
	h.mu.Lock()
	defer h.mu.Unlock()

	var addrs []common.Address
	for addr, c := range h.world.contracts {
		if _, ok := c.(*ERC20Token); ok {
			addrs = append(addrs, addr)
		}
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Hex() < addrs[j].Hex()
	})
	return addrs
}

// Accounts returns every account with a native balance entry, sorted.
func (h *SimHost) Accounts() []common.Address {
	h.mu.Lock()
	defer h.mu.Unlock()

	addrs := make([]common.Address, 0, len(h.world.balances))
	for addr := range h.world.balances {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Hex() < addrs[j].Hex()
	})
	return addrs
}

// --- Reader ---

func (h *SimHost) NativeBalance(_ context.Context, account common.Address) (*uint256.Int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if bal, ok := h.world.balances[account]; ok {
		return new(uint256.Int).Set(bal), nil
	}
	return uint256.NewInt(0), nil
}

func (h *SimHost) CodeSize(_ context.Context, account common.Address) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.world.contracts[account]; ok {
		return simCodeSize, nil
	}
	if account == h.self {
		return simCodeSize, nil
	}
	return 0, nil
}

// StaticCall runs the target read-only: any state the handler touches is
// restored before returning.
func (h *SimHost) StaticCall(_ context.Context, to common.Address, input []byte) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.world.contracts[to]
	if !ok {
		return nil, fmt.Errorf("%w: no contract at %s", ErrCallReverted, to.Hex())
	}

	saved := h.world.clone()
	ret, err := c.Run(common.Address{}, input)
	h.world = saved
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCallReverted, err)
	}
	return ret, nil
}

// --- Backend ---

func (h *SimHost) Transfer(_ context.Context, to common.Address, amount *uint256.Int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.move(h.self, to, amount)
}

// ContractCall runs the target with the ledger as caller. A revert restores
// whatever the handler changed before it failed.
func (h *SimHost) ContractCall(_ context.Context, to common.Address, input []byte) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.world.contracts[to]
	if !ok {
		return nil, fmt.Errorf("%w: no contract at %s", ErrCallReverted, to.Hex())
	}

	saved := h.world.clone()
	ret, err := c.Run(h.self, input)
	if err != nil {
		h.world = saved
		return nil, fmt.Errorf("%w: %v", ErrCallReverted, err)
	}
	return ret, nil
}

func (h *SimHost) AcceptValue(_ context.Context, from common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.move(from, h.self, amount)
}

// Snapshot captures the full sim state. Snapshots nest: reverting or
// discarding a handle also drops every handle taken after it.
func (h *SimHost) Snapshot() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snaps = append(h.snaps, h.world.clone())
	return len(h.snaps) - 1
}

func (h *SimHost) RevertToSnapshot(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id < 0 || id >= len(h.snaps) {
		return
	}
	h.world = h.snaps[id]
	h.snaps = h.snaps[:id]
}

func (h *SimHost) DiscardSnapshot(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id < 0 || id >= len(h.snaps) {
		return
	}
	h.snaps = h.snaps[:id]
}

// --- world ---

func (w *world) move(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	bal, ok := w.balances[from]
	if !ok || bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s",
			ErrInsufficientBalance, from.Hex(), balString(bal), amount.Dec())
	}
	bal.Sub(bal, amount)

	dst, ok := w.balances[to]
	if !ok {
		dst = uint256.NewInt(0)
		w.balances[to] = dst
	}
	dst.Add(dst, amount)
	return nil
}

func balString(b *uint256.Int) string {
	if b == nil {
		return "0"
	}
	return b.Dec()
}

func (w world) clone() world {
	cp := world{
		balances:    make(map[common.Address]*uint256.Int, len(w.balances)),
		contracts:   make(map[common.Address]Contract, len(w.contracts)),
		deployNonce: w.deployNonce,
	}
	for addr, bal := range w.balances {
		cp.balances[addr] = new(uint256.Int).Set(bal)
	}
	for addr, c := range w.contracts {
		cp.contracts[addr] = c.Clone()
	}
	return cp
}

// --- persistence ---

// simState is the JSON image of a sim. Only ERC-20 contracts survive a round
// trip; handler funcs registered for tests do not.
type simState struct {
	Self        common.Address                  `json:"self"`
	DeployNonce uint64                          `json:"deploy_nonce"`
	Balances    map[common.Address]*uint256.Int `json:"balances"`
	Tokens      map[common.Address]*ERC20Token  `json:"tokens"`
}

func (h *SimHost) MarshalJSON() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := simState{
		Self:        h.self,
		DeployNonce: h.world.deployNonce,
		Balances:    h.world.balances,
		Tokens:      make(map[common.Address]*ERC20Token),
	}
	for addr, c := range h.world.contracts {
		if t, ok := c.(*ERC20Token); ok {
			st.Tokens[addr] = t
		}
	}
	return json.Marshal(st)
}

func (h *SimHost) UnmarshalJSON(data []byte) error {
	var st simState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.self = st.Self
	h.world = world{
		balances:    st.Balances,
		contracts:   make(map[common.Address]Contract, len(st.Tokens)),
		deployNonce: st.DeployNonce,
	}
	if h.world.balances == nil {
		h.world.balances = make(map[common.Address]*uint256.Int)
	}
	for addr, t := range st.Tokens {
		t.init()
		h.world.contracts[addr] = t
	}
	h.snaps = nil
	return nil
}
