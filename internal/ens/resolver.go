// Package ens resolves ENS names against a live chain so portfolio queries
// accept "vitalik.eth" anywhere they accept a raw address. Resolution needs a
// deployed ENS registry, so it only works over an RPC-backed reader.
package ens

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3ledger/internal/abi"
	"github.com/Mohsinsiddi/w3ledger/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// RegistryAddr is the ENS registry, identical on Ethereum mainnet and
// Sepolia.
var RegistryAddr = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

// Selectors for the registry and resolver functions.
//
//	resolver(bytes32) -> 0x0178b8bf
//	addr(bytes32)     -> 0x3b3b57de
//	name(bytes32)     -> 0x691f3431
var (
	selResolver = [4]byte{0x01, 0x78, 0xb8, 0xbf}
	selAddr     = [4]byte{0x3b, 0x3b, 0x57, 0xde}
	selName     = [4]byte{0x69, 0x1f, 0x34, 0x31}
)

// ErrNoRecord is returned when a name has no resolver or no address record.
var ErrNoRecord = errors.New("no ENS record")

// IsName reports whether s looks like an ENS name rather than a hex address.
func IsName(s string) bool {
	return strings.Contains(s, ".") && !common.IsHexAddress(s)
}

// Resolve resolves an ENS name to an address: the registry names the
// resolver for the node, then addr(bytes32) on the resolver gives the record.
func Resolve(ctx context.Context, host chain.Reader, name string) (common.Address, error) {
	node := Namehash(name)

	resolver, err := queryAddress(ctx, host, RegistryAddr, selResolver, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("querying ENS registry: %w", err)
	}
	if resolver == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: no resolver set for %q", ErrNoRecord, name)
	}

	resolved, err := queryAddress(ctx, host, resolver, selAddr, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("querying ENS resolver: %w", err)
	}
	if resolved == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: no address record for %q", ErrNoRecord, name)
	}
	return resolved, nil
}

// ReverseLookup resolves an address to its primary ENS name via the
// addr.reverse registry.
func ReverseLookup(ctx context.Context, host chain.Reader, address common.Address) (string, error) {
	reverseName := strings.ToLower(strings.TrimPrefix(address.Hex(), "0x")) + ".addr.reverse"
	node := Namehash(reverseName)

	resolver, err := queryAddress(ctx, host, RegistryAddr, selResolver, node)
	if err != nil {
		return "", fmt.Errorf("querying reverse registry: %w", err)
	}
	if resolver == (common.Address{}) {
		return "", fmt.Errorf("%w: no reverse record for %s", ErrNoRecord, address.Hex())
	}

	ret, err := host.StaticCall(ctx, resolver, packNodeCall(selName, node))
	if err != nil {
		return "", fmt.Errorf("querying reverse resolver: %w", err)
	}
	name, err := abi.UnpackString(ret)
	if err != nil || name == "" {
		return "", fmt.Errorf("%w: no reverse name for %s", ErrNoRecord, address.Hex())
	}
	return name, nil
}

// Namehash implements the EIP-137 namehash algorithm: labels are hashed
// right to left into a rolling 32-byte node.
func Namehash(name string) [32]byte {
	var node [32]byte
	if name == "" {
		return node
	}

	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := keccak256([]byte(labels[i]))
		node = keccak256(append(node[:], labelHash[:]...))
	}
	return node
}

// --- internals ---

func queryAddress(ctx context.Context, host chain.Reader, to common.Address, sel [4]byte, node [32]byte) (common.Address, error) {
	ret, err := host.StaticCall(ctx, to, packNodeCall(sel, node))
	if err != nil {
		return common.Address{}, err
	}
	if len(ret) < 32 {
		return common.Address{}, fmt.Errorf("short return data: %d bytes", len(ret))
	}
	return common.BytesToAddress(ret[12:32]), nil
}

// packNodeCall encodes a single-bytes32-argument call: selector plus the
// 32-byte node.
func packNodeCall(sel [4]byte, node [32]byte) []byte {
	callData := make([]byte, 36)
	copy(callData[0:4], sel[:])
	copy(callData[4:36], node[:])
	return callData
}

func keccak256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
