package ens_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/Mohsinsiddi/w3ledger/internal/chain"
	"github.com/Mohsinsiddi/w3ledger/internal/ens"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	resolverAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	recordAddr   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// addressWord left-pads a to one 32-byte return word.
func addressWord(a common.Address) []byte {
	word := make([]byte, 32)
	copy(word[12:], a.Bytes())
	return word
}

// deployRegistry installs an ENS registry in the sim that answers
// resolver(node) with resolverAddr for exactly the given node.
func deployRegistry(host *chain.SimHost, node [32]byte) {
	host.Deploy(ens.RegistryAddr, chain.ContractFunc(func(_ common.Address, input []byte) ([]byte, error) {
		if len(input) != 36 || !bytes.Equal(input[0:4], []byte{0x01, 0x78, 0xb8, 0xbf}) {
			return nil, errors.New("unexpected calldata")
		}
		if !bytes.Equal(input[4:36], node[:]) {
			return addressWord(common.Address{}), nil
		}
		return addressWord(resolverAddr), nil
	}))
}

func TestNamehash(t *testing.T) {
	empty := ens.Namehash("")
	assert.Equal(t, [32]byte{}, empty)

	// Known EIP-137 vector.
	eth := ens.Namehash("eth")
	assert.Equal(t,
		"93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae",
		hex.EncodeToString(eth[:]))
}

func TestIsName(t *testing.T) {
	assert.True(t, ens.IsName("vitalik.eth"))
	assert.False(t, ens.IsName("0x2222222222222222222222222222222222222222"))
	assert.False(t, ens.IsName("alice"))
}

func TestResolve(t *testing.T) {
	host := chain.NewSimHost(common.HexToAddress("0xAAA0000000000000000000000000000000000AAA"))
	node := ens.Namehash("alice.eth")
	deployRegistry(host, node)

	host.Deploy(resolverAddr, chain.ContractFunc(func(_ common.Address, input []byte) ([]byte, error) {
		if len(input) != 36 || !bytes.Equal(input[0:4], []byte{0x3b, 0x3b, 0x57, 0xde}) {
			return nil, errors.New("unexpected calldata")
		}
		return addressWord(recordAddr), nil
	}))

	resolved, err := ens.Resolve(context.Background(), host, "alice.eth")
	require.NoError(t, err)
	assert.Equal(t, recordAddr, resolved)
}

func TestResolveNoResolver(t *testing.T) {
	host := chain.NewSimHost(common.HexToAddress("0xAAA0000000000000000000000000000000000AAA"))
	deployRegistry(host, ens.Namehash("alice.eth"))

	_, err := ens.Resolve(context.Background(), host, "nobody.eth")
	assert.ErrorIs(t, err, ens.ErrNoRecord)
}

func TestResolveNoRegistry(t *testing.T) {
	host := chain.NewSimHost(common.HexToAddress("0xAAA0000000000000000000000000000000000AAA"))

	_, err := ens.Resolve(context.Background(), host, "alice.eth")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ens.ErrNoRecord)
}
