package chain

import (
	"testing"

	"github.com/Mohsinsiddi/w3ledger/internal/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokOwner   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	tokSpender = common.HexToAddress("0x2000000000000000000000000000000000000002")
	tokDest    = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

// ---------------------------------------------------------------------------
// metadata views
// ---------------------------------------------------------------------------

func TestERC20Name(t *testing.T) {
	token := NewERC20Token("Wrapped Ether", "WETH", 18)

	ret, err := token.Run(tokSpender, abi.PackCall(abi.SelName))
	require.NoError(t, err)

	name, err := abi.UnpackString(ret)
	require.NoError(t, err)
	assert.Equal(t, "Wrapped Ether", name)
}

func TestERC20Symbol(t *testing.T) {
	token := NewERC20Token("Wrapped Ether", "WETH", 18)

	ret, err := token.Run(tokSpender, abi.PackCall(abi.SelSymbol))
	require.NoError(t, err)

	sym, err := abi.UnpackString(ret)
	require.NoError(t, err)
	assert.Equal(t, "WETH", sym)
}

func TestERC20Decimals(t *testing.T) {
	token := NewERC20Token("USD Coin", "USDC", 6)

	ret, err := token.Run(tokSpender, abi.PackCall(abi.SelDecimals))
	require.NoError(t, err)

	dec, err := abi.UnpackUint8(ret)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), dec)
}

// ---------------------------------------------------------------------------
// balanceOf
// ---------------------------------------------------------------------------

func TestERC20BalanceOfViaCalldata(t *testing.T) {
	token := NewERC20Token("Test", "TST", 18)
	token.Mint(tokOwner, uint256.NewInt(12345))

	ret, err := token.Run(tokSpender, abi.PackBalanceOf(tokOwner))
	require.NoError(t, err)

	bal, err := abi.UnpackAmount(ret)
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), bal.Uint64())
}

func TestERC20BalanceOfUnknownAccount(t *testing.T) {
	token := NewERC20Token("Test", "TST", 18)

	ret, err := token.Run(tokSpender, abi.PackBalanceOf(tokDest))
	require.NoError(t, err)

	bal, err := abi.UnpackAmount(ret)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestERC20BalanceOfBadCalldataLength(t *testing.T) {
	token := NewERC20Token("Test", "TST", 18)

	_, err := token.Run(tokSpender, abi.PackBalanceOf(tokOwner)[:20])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "balanceOf")
}

// ---------------------------------------------------------------------------
// transferFrom
// ---------------------------------------------------------------------------

func TestERC20TransferFromMovesTokens(t *testing.T) {
	token := NewERC20Token("Test", "TST", 18)
	token.Mint(tokOwner, uint256.NewInt(100))
	token.Approve(tokOwner, tokSpender, uint256.NewInt(100))

	ret, err := token.Run(tokSpender, abi.PackTransferFrom(tokOwner, tokDest, uint256.NewInt(60)))
	require.NoError(t, err)
	assert.True(t, abi.TransferReturnOK(ret))

	assert.Equal(t, uint64(40), token.BalanceOf(tokOwner).Uint64())
	assert.Equal(t, uint64(60), token.BalanceOf(tokDest).Uint64())
	assert.Equal(t, uint64(40), token.Allowance(tokOwner, tokSpender).Uint64())
}

func TestERC20TransferFromInfiniteAllowanceNotDrawnDown(t *testing.T) {
	token := NewERC20Token("Test", "TST", 18)
	token.Mint(tokOwner, uint256.NewInt(100))
	max := new(uint256.Int).SetAllOne()
	token.Approve(tokOwner, tokSpender, max)

	_, err := token.Run(tokSpender, abi.PackTransferFrom(tokOwner, tokDest, uint256.NewInt(60)))
	require.NoError(t, err)

	assert.True(t, token.Allowance(tokOwner, tokSpender).Eq(max))
}

func TestERC20TransferFromNoAllowance(t *testing.T) {
	token := NewERC20Token("Test", "TST", 18)
	token.Mint(tokOwner, uint256.NewInt(100))

	_, err := token.Run(tokSpender, abi.PackTransferFrom(tokOwner, tokDest, uint256.NewInt(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient allowance")

	// No state changed.
	assert.Equal(t, uint64(100), token.BalanceOf(tokOwner).Uint64())
	assert.True(t, token.BalanceOf(tokDest).IsZero())
}

func TestERC20TransferFromInsufficientBalance(t *testing.T) {
	token := NewERC20Token("Test", "TST", 18)
	token.Mint(tokOwner, uint256.NewInt(10))
	token.Approve(tokOwner, tokSpender, uint256.NewInt(100))

	_, err := token.Run(tokSpender, abi.PackTransferFrom(tokOwner, tokDest, uint256.NewInt(50)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient token balance")

	// Allowance untouched on failure.
	assert.Equal(t, uint64(100), token.Allowance(tokOwner, tokSpender).Uint64())
}

func TestERC20TransferFromSelfTransfer(t *testing.T) {
	token := NewERC20Token("Test", "TST", 18)
	token.Mint(tokOwner, uint256.NewInt(100))
	token.Approve(tokOwner, tokSpender, uint256.NewInt(100))

	_, err := token.Run(tokSpender, abi.PackTransferFrom(tokOwner, tokOwner, uint256.NewInt(30)))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), token.BalanceOf(tokOwner).Uint64())
}

func TestERC20TransferFromBadCalldataLength(t *testing.T) {
	token := NewERC20Token("Test", "TST", 18)

	input := abi.PackTransferFrom(tokOwner, tokDest, uint256.NewInt(1))
	_, err := token.Run(tokSpender, input[:99])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transferFrom")
}

// ---------------------------------------------------------------------------
// dispatch
// ---------------------------------------------------------------------------

func TestERC20UnknownSelector(t *testing.T) {
	token := NewERC20Token("Test", "TST", 18)

	_, err := token.Run(tokSpender, []byte{0xde, 0xad, 0xbe, 0xef})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown selector")
}

func TestERC20CalldataTooShort(t *testing.T) {
	token := NewERC20Token("Test", "TST", 18)

	_, err := token.Run(tokSpender, []byte{0x23})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calldata too short")
}

// ---------------------------------------------------------------------------
// Clone
// ---------------------------------------------------------------------------

func TestERC20CloneIsIndependent(t *testing.T) {
	token := NewERC20Token("Test", "TST", 18)
	token.Mint(tokOwner, uint256.NewInt(100))
	token.Approve(tokOwner, tokSpender, uint256.NewInt(50))

	cp := token.Clone().(*ERC20Token)
	cp.Mint(tokOwner, uint256.NewInt(900))
	cp.Approve(tokOwner, tokSpender, uint256.NewInt(1))

	assert.Equal(t, uint64(100), token.BalanceOf(tokOwner).Uint64())
	assert.Equal(t, uint64(50), token.Allowance(tokOwner, tokSpender).Uint64())
	assert.Equal(t, uint64(1000), cp.BalanceOf(tokOwner).Uint64())
}
