package cmd

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3ledger/internal/units"
	"github.com/holiman/uint256"
)

// parseEthAmount parses a native amount: an ETH decimal by default, raw wei
// with a "wei:" prefix.
func parseEthAmount(s string) (*uint256.Int, error) {
	if rest, ok := strings.CutPrefix(s, "wei:"); ok {
		return units.ParseAmount(rest)
	}
	v, err := units.ParseEth(s)
	if err != nil {
		return nil, fmt.Errorf("invalid native amount %q (use an ETH decimal, or wei:<raw>)", s)
	}
	return v, nil
}

// parseTokenAmount parses a token amount at the given decimal scale, raw
// units with a "raw:" prefix.
func parseTokenAmount(s string, decimals uint8) (*uint256.Int, error) {
	if rest, ok := strings.CutPrefix(s, "raw:"); ok {
		return units.ParseAmount(rest)
	}
	v, err := units.ParseUnits(s, decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid token amount %q (use a decimal, or raw:<units>)", s)
	}
	return v, nil
}

// parseTokenAmountList parses a comma-separated list of token amounts.
func parseTokenAmountList(raw string, decimals uint8) ([]*uint256.Int, error) {
	parts := splitList(raw)
	out := make([]*uint256.Int, 0, len(parts))
	for _, p := range parts {
		v, err := parseTokenAmount(p, decimals)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ethString renders a wei amount as "<eth> ETH (<wei> wei)".
func ethString(wei *uint256.Int) string {
	return fmt.Sprintf("%s ETH (%s wei)", units.FormatEth(wei), wei.Dec())
}
