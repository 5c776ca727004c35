package abi

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// ErrBadReturnData is returned when contract return data does not match the
// expected ABI shape. Callers that maintain fallback values treat it the same
// way they treat a reverted call.
var ErrBadReturnData = errors.New("malformed return data")

// UnpackAmount decodes a single uint256 return value (balanceOf and friends).
func UnpackAmount(ret []byte) (*uint256.Int, error) {
	if len(ret) < 32 {
		return nil, fmt.Errorf("%w: want 32 bytes, got %d", ErrBadReturnData, len(ret))
	}
	return uint256.NewInt(0).SetBytes(ret[0:32]), nil
}

// UnpackUint8 decodes a single uint8 return value (decimals). The word must
// actually fit in a uint8; larger values are malformed.
func UnpackUint8(ret []byte) (uint8, error) {
	if len(ret) < 32 {
		return 0, fmt.Errorf("%w: want 32 bytes, got %d", ErrBadReturnData, len(ret))
	}
	if !isZeroSlice(ret[0:31]) {
		return 0, fmt.Errorf("%w: value exceeds uint8", ErrBadReturnData)
	}
	return ret[31], nil
}

// UnpackString decodes a single string return value (symbol, name). Strings
// use the dynamic offset + length encoding: the head word points at a length
// word followed by the raw bytes.
func UnpackString(ret []byte) (string, error) {
	if len(ret) < 64 {
		return "", fmt.Errorf("%w: want at least 64 bytes, got %d", ErrBadReturnData, len(ret))
	}

	// Bounds are checked by subtraction: adding untrusted offset/length words
	// to the buffer size can wrap around in uint64.
	retLen := uint64(len(ret))

	offset, overflow := uint256.NewInt(0).SetBytes(ret[0:32]).Uint64WithOverflow()
	if overflow || offset > retLen-32 {
		return "", fmt.Errorf("%w: string offset out of range", ErrBadReturnData)
	}

	length, overflow := uint256.NewInt(0).SetBytes(ret[offset : offset+32]).Uint64WithOverflow()
	start := offset + 32
	if overflow || length > retLen-start {
		return "", fmt.Errorf("%w: string data out of range", ErrBadReturnData)
	}

	return string(ret[start : start+length]), nil
}

// TransferReturnOK reports whether transferFrom return data signals success.
// Pre-standard tokens return no data at all; standard tokens return one bool
// word. Anything else, including a false word, is a failed transfer.
func TransferReturnOK(ret []byte) bool {
	return len(ret) == 0 || (len(ret) >= 32 && !isZeroSlice(ret[0:32]))
}

func isZeroSlice(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
