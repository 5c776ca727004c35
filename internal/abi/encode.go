package abi

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Calldata sizes for the calls this package encodes.
const (
	TransferFromCalldataLen = 100 // selector + from word + to word + amount word
	BalanceOfCalldataLen    = 36  // selector + account word
)

// PackTransferFrom encodes transferFrom(from, to, amount).
//
// The layout is fixed at 100 bytes:
//
//	[0:4]    selector 0x23b872dd
//	[4:36]   from, left-padded to 32 bytes (address at [16:36])
//	[36:68]  to, left-padded to 32 bytes (address at [48:68])
//	[68:100] amount, 32-byte big-endian
func PackTransferFrom(from, to common.Address, amount *uint256.Int) []byte {
	callData := make([]byte, TransferFromCalldataLen)
	copy(callData[0:4], SelTransferFrom[:])
	copy(callData[16:36], from.Bytes())
	copy(callData[48:68], to.Bytes())
	amount.WriteToSlice(callData[68:100])
	return callData
}

// PackBalanceOf encodes balanceOf(account): selector plus one address word.
func PackBalanceOf(account common.Address) []byte {
	callData := make([]byte, BalanceOfCalldataLen)
	copy(callData[0:4], SelBalanceOf[:])
	copy(callData[16:36], account.Bytes())
	return callData
}

// PackCall encodes a zero-argument call such as decimals(), symbol() or
// name(): the bare 4-byte selector.
func PackCall(sel [4]byte) []byte {
	callData := make([]byte, 4)
	copy(callData, sel[:])
	return callData
}

// --- return data ---

// PackAmount encodes one uint256 return word.
func PackAmount(v *uint256.Int) []byte {
	ret := make([]byte, 32)
	v.WriteToSlice(ret)
	return ret
}

// PackUint8 encodes one uint8 return word.
func PackUint8(v uint8) []byte {
	ret := make([]byte, 32)
	ret[31] = v
	return ret
}

// PackBool encodes one bool return word.
func PackBool(ok bool) []byte {
	ret := make([]byte, 32)
	if ok {
		ret[31] = 1
	}
	return ret
}

// PackString encodes one string return value using the dynamic
// offset + length layout, padded to a whole number of words.
func PackString(s string) []byte {
	dataWords := (len(s) + 31) / 32
	ret := make([]byte, 64+dataWords*32)
	ret[31] = 32
	uint256.NewInt(uint64(len(s))).WriteToSlice(ret[32:64])
	copy(ret[64:], s)
	return ret
}
