package chain

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3ledger/internal/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ERC20Token is a minimal in-sim ERC-20: balances, allowances and the three
// metadata views. It parses the same calldata shapes the abi package builds,
// so it is the counter-party the ledger and portfolio reader are tested
// against.
type ERC20Token struct {
	Name       string                                             `json:"name"`
	Symbol     string                                             `json:"symbol"`
	Decimals   uint8                                              `json:"decimals"`
	Balances   map[common.Address]*uint256.Int                    `json:"balances"`
	Allowances map[common.Address]map[common.Address]*uint256.Int `json:"allowances"`
}

// NewERC20Token creates an empty token with the given metadata.
func NewERC20Token(name, symbol string, decimals uint8) *ERC20Token {
	t := &ERC20Token{Name: name, Symbol: symbol, Decimals: decimals}
	t.init()
	return t
}

func (t *ERC20Token) init() {
	if t.Balances == nil {
		t.Balances = make(map[common.Address]*uint256.Int)
	}
	if t.Allowances == nil {
		t.Allowances = make(map[common.Address]map[common.Address]*uint256.Int)
	}
}

// Mint credits amount to account out of thin air.
func (t *ERC20Token) Mint(account common.Address, amount *uint256.Int) {
	bal, ok := t.Balances[account]
	if !ok {
		bal = uint256.NewInt(0)
		t.Balances[account] = bal
	}
	bal.Add(bal, amount)
}

// BalanceOf returns a copy of account's token balance.
func (t *ERC20Token) BalanceOf(account common.Address) *uint256.Int {
	if bal, ok := t.Balances[account]; ok {
		return new(uint256.Int).Set(bal)
	}
	return uint256.NewInt(0)
}

// Approve sets spender's allowance over owner's tokens.
func (t *ERC20Token) Approve(owner, spender common.Address, amount *uint256.Int) {
	byOwner, ok := t.Allowances[owner]
	if !ok {
		byOwner = make(map[common.Address]*uint256.Int)
		t.Allowances[owner] = byOwner
	}
	byOwner[spender] = new(uint256.Int).Set(amount)
}

// Allowance returns a copy of spender's remaining allowance over owner's
// tokens.
func (t *ERC20Token) Allowance(owner, spender common.Address) *uint256.Int {
	if a, ok := t.Allowances[owner][spender]; ok {
		return new(uint256.Int).Set(a)
	}
	return uint256.NewInt(0)
}

// Run dispatches raw calldata to the matching token function.
func (t *ERC20Token) Run(caller common.Address, input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, errors.New("calldata too short")
	}
	var sel [4]byte
	copy(sel[:], input[0:4])

	switch sel {
	case abi.SelName:
		return abi.PackString(t.Name), nil

	case abi.SelSymbol:
		return abi.PackString(t.Symbol), nil

	case abi.SelDecimals:
		return abi.PackUint8(t.Decimals), nil

	case abi.SelBalanceOf:
		if len(input) != abi.BalanceOfCalldataLen {
			return nil, fmt.Errorf("balanceOf: want %d bytes of calldata, got %d",
				abi.BalanceOfCalldataLen, len(input))
		}
		account := common.BytesToAddress(input[16:36])
		return abi.PackAmount(t.BalanceOf(account)), nil

	case abi.SelTransferFrom:
		return t.transferFrom(caller, input)

	default:
		return nil, fmt.Errorf("unknown selector 0x%x", sel)
	}
}

// transferFrom spends caller's allowance over the origin account and moves
// the tokens. All checks run before any mutation.
func (t *ERC20Token) transferFrom(spender common.Address, input []byte) ([]byte, error) {
	if len(input) != abi.TransferFromCalldataLen {
		return nil, fmt.Errorf("transferFrom: want %d bytes of calldata, got %d",
			abi.TransferFromCalldataLen, len(input))
	}

	from := common.BytesToAddress(input[16:36])
	to := common.BytesToAddress(input[48:68])
	amount := uint256.NewInt(0).SetBytes(input[68:100])

	allowance := t.Allowances[from][spender]
	if allowance == nil || allowance.Lt(amount) {
		return nil, fmt.Errorf("insufficient allowance: have %s, need %s",
			balString(allowance), amount.Dec())
	}
	balance := t.Balances[from]
	if balance == nil || balance.Lt(amount) {
		return nil, fmt.Errorf("insufficient token balance: have %s, need %s",
			balString(balance), amount.Dec())
	}

	// Infinite approvals are not drawn down.
	if !isMaxUint256(allowance) {
		allowance.Sub(allowance, amount)
	}

	balance.Sub(balance, amount)
	dst, ok := t.Balances[to]
	if !ok {
		dst = uint256.NewInt(0)
		t.Balances[to] = dst
	}
	dst.Add(dst, amount)

	return abi.PackBool(true), nil
}

func (t *ERC20Token) Clone() Contract {
	cp := NewERC20Token(t.Name, t.Symbol, t.Decimals)
	for addr, bal := range t.Balances {
		cp.Balances[addr] = new(uint256.Int).Set(bal)
	}
	for owner, byOwner := range t.Allowances {
		m := make(map[common.Address]*uint256.Int, len(byOwner))
		for spender, a := range byOwner {
			m[spender] = new(uint256.Int).Set(a)
		}
		cp.Allowances[owner] = m
	}
	return cp
}

func isMaxUint256(v *uint256.Int) bool {
	return v != nil && v.Eq(new(uint256.Int).SetAllOne())
}
