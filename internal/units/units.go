// Package units converts between raw on-chain amounts and human decimal
// strings.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// EthDecimals is the native currency's decimal scale.
const EthDecimals = 18

var weiPerEth = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(EthDecimals), nil))

// FormatEth renders a wei amount as an ETH decimal string.
func FormatEth(wei *uint256.Int) string {
	if wei == nil {
		wei = new(uint256.Int)
	}
	f := new(big.Float).SetInt(wei.ToBig())
	f.Quo(f, weiPerEth)
	return f.Text('f', EthDecimals)
}

// FormatUnits renders a raw token amount at the given decimal scale.
func FormatUnits(raw *uint256.Int, decimals uint8) string {
	if raw == nil {
		raw = new(uint256.Int)
	}
	if decimals == 0 {
		return raw.Dec()
	}
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f := new(big.Float).SetInt(raw.ToBig())
	f.Quo(f, new(big.Float).SetInt(div))
	return f.Text('f', int(decimals))
}

// ParseEth converts an ETH decimal string to wei.
func ParseEth(s string) (*uint256.Int, error) {
	return ParseUnits(s, EthDecimals)
}

// ParseUnits converts a decimal string to a raw amount at the given decimal
// scale. Fractional digits beyond the scale are truncated.
func ParseUnits(s string, decimals uint8) (*uint256.Int, error) {
	f, ok := new(big.Float).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	raw, _ := new(big.Float).Mul(f, scale).Int(nil)
	if raw.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	v, overflow := uint256.FromBig(raw)
	if overflow {
		return nil, fmt.Errorf("amount out of range: %s", s)
	}
	return v, nil
}

// ParseAmount converts a raw integer string, decimal or 0x-prefixed hex, to
// an amount.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	v, overflow := uint256.FromBig(n)
	if overflow {
		return nil, fmt.Errorf("amount out of range: %s", s)
	}
	return v, nil
}
