// Package abi builds and parses the fixed-shape calldata the ledger and
// portfolio reader exchange with ERC-20 contracts. It covers exactly the five
// functions those components call; it is not a general ABI codec.
package abi

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Function selectors: the first four bytes of the Keccak-256 hash of the
// canonical signature.
//
//	transferFrom(address,address,uint256) -> 0x23b872dd
//	balanceOf(address)                    -> 0x70a08231
//	decimals()                            -> 0x313ce567
//	symbol()                              -> 0x95d89b41
//	name()                                -> 0x06fdde03
var (
	SelTransferFrom = [4]byte{0x23, 0xb8, 0x72, 0xdd}
	SelBalanceOf    = [4]byte{0x70, 0xa0, 0x82, 0x31}
	SelDecimals     = [4]byte{0x31, 0x3c, 0xe5, 0x67}
	SelSymbol       = [4]byte{0x95, 0xd8, 0x9b, 0x41}
	SelName         = [4]byte{0x06, 0xfd, 0xde, 0x03}
)

// Selector computes the 4-byte function selector for a canonical signature
// such as "transferFrom(address,address,uint256)". The signature must already
// be normalized: no parameter names, no spaces.
func Selector(sig string) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	var sel [4]byte
	copy(sel[:], h.Sum(nil)[:4])
	return sel
}

// SelectorHex returns the selector for sig as a 0x-prefixed hex string.
func SelectorHex(sig string) string {
	sel := Selector(sig)
	return "0x" + hex.EncodeToString(sel[:])
}
