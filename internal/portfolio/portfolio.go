// Package portfolio builds consolidated balance and metadata views over a
// set of token contracts. A token that reverts, holds no code, or answers
// with garbage degrades to documented fallback values instead of failing the
// whole batch; transport failures of the host itself still propagate.
package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3ledger/internal/abi"
	"github.com/Mohsinsiddi/w3ledger/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
)

// Fallback values substituted for a token query that cannot be answered.
const (
	FallbackDecimals uint8 = 18
	FallbackSymbol         = "UNKNOWN"
	FallbackName           = "Unknown Token"
)

// TokenInfo is the consolidated per-token view. Fields whose underlying
// query failed carry the fallback values.
type TokenInfo struct {
	Token    common.Address `json:"token"`
	Balance  *uint256.Int   `json:"balance"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
}

// Portfolio is the full view for one account: its native balance plus one
// TokenInfo per queried token, in query order.
type Portfolio struct {
	Account       common.Address `json:"account"`
	NativeBalance *uint256.Int   `json:"native_balance"`
	Tokens        []TokenInfo    `json:"tokens"`
}

// metadata is the immutable token triple kept in the cache.
type metadata struct {
	decimals uint8
	symbol   string
	name     string
}

// Aggregator answers balance and metadata queries over a chain.Reader. It is
// stateless apart from the optional metadata cache and safe for concurrent
// use.
type Aggregator struct {
	host       chain.Reader
	cache      *lru.Cache[common.Address, metadata]
	onFallback func(token common.Address, field string)
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMetadataCache keeps up to size token metadata triples in an LRU cache.
// Only fully successful lookups are cached, so a token that starts answering
// later is picked up on the next query.
func WithMetadataCache(size int) Option {
	return func(a *Aggregator) {
		if c, err := lru.New[common.Address, metadata](size); err == nil {
			a.cache = c
		}
	}
}

// WithFallbackHook calls fn every time a query degrades to a fallback value,
// with the token and the field ("balance", "decimals", "symbol", "name")
// that fell back. fn must be safe for concurrent use.
func WithFallbackHook(fn func(token common.Address, field string)) Option {
	return func(a *Aggregator) { a.onFallback = fn }
}

// New builds an Aggregator over host.
func New(host chain.Reader, opts ...Option) *Aggregator {
	a := &Aggregator{host: host}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// EthBalance returns account's native balance.
func (a *Aggregator) EthBalance(ctx context.Context, account common.Address) (*uint256.Int, error) {
	return a.host.NativeBalance(ctx, account)
}

// TokenBalance returns account's balance on token, or zero if the token
// cannot answer.
func (a *Aggregator) TokenBalance(ctx context.Context, token, account common.Address) (*uint256.Int, error) {
	ret, err := a.host.StaticCall(ctx, token, abi.PackBalanceOf(account))
	if err != nil {
		if errors.Is(err, chain.ErrCallReverted) {
			a.noteFallback(token, "balance")
			return new(uint256.Int), nil
		}
		return nil, err
	}
	bal, err := abi.UnpackAmount(ret)
	if err != nil {
		a.noteFallback(token, "balance")
		return new(uint256.Int), nil
	}
	return bal, nil
}

// TokenDecimals returns token's decimals, or 18 if the token cannot answer.
func (a *Aggregator) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	if a.cache != nil {
		if md, ok := a.cache.Get(token); ok {
			return md.decimals, nil
		}
	}
	dec, _, err := a.fetchDecimals(ctx, token)
	return dec, err
}

// TokenSymbol returns token's symbol, or "UNKNOWN" if the token cannot
// answer.
func (a *Aggregator) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	if a.cache != nil {
		if md, ok := a.cache.Get(token); ok {
			return md.symbol, nil
		}
	}
	sym, _, err := a.fetchSymbol(ctx, token)
	return sym, err
}

// TokenName returns token's name, or "Unknown Token" if the token cannot
// answer.
func (a *Aggregator) TokenName(ctx context.Context, token common.Address) (string, error) {
	if a.cache != nil {
		if md, ok := a.cache.Get(token); ok {
			return md.name, nil
		}
	}
	name, _, err := a.fetchName(ctx, token)
	return name, err
}

// BatchBalances returns one balance per input token, in input order, each
// independently subject to the zero fallback.
func (a *Aggregator) BatchBalances(ctx context.Context, tokens []common.Address, account common.Address) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(tokens))
	for i, token := range tokens {
		bal, err := a.TokenBalance(ctx, token, account)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", token.Hex(), err)
		}
		out[i] = bal
	}
	return out, nil
}

// BatchTokenInfo returns one TokenInfo per input token, in input order, each
// field independently defaulted.
func (a *Aggregator) BatchTokenInfo(ctx context.Context, tokens []common.Address, account common.Address) ([]TokenInfo, error) {
	out := make([]TokenInfo, len(tokens))
	for i, token := range tokens {
		info, err := a.tokenInfo(ctx, token, account)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", token.Hex(), err)
		}
		out[i] = info
	}
	return out, nil
}

// Portfolio returns the consolidated view for account over tokens.
func (a *Aggregator) Portfolio(ctx context.Context, account common.Address, tokens []common.Address) (*Portfolio, error) {
	native, err := a.EthBalance(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("native balance of %s: %w", account.Hex(), err)
	}
	infos, err := a.BatchTokenInfo(ctx, tokens, account)
	if err != nil {
		return nil, err
	}
	return &Portfolio{Account: account, NativeBalance: native, Tokens: infos}, nil
}

// BatchIsContract reports, per input address in input order, whether code is
// deployed there.
func (a *Aggregator) BatchIsContract(ctx context.Context, accounts []common.Address) ([]bool, error) {
	out := make([]bool, len(accounts))
	for i, account := range accounts {
		size, err := a.host.CodeSize(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("code size of %s: %w", account.Hex(), err)
		}
		out[i] = size > 0
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// internals
// ---------------------------------------------------------------------------

func (a *Aggregator) tokenInfo(ctx context.Context, token, account common.Address) (TokenInfo, error) {
	bal, err := a.TokenBalance(ctx, token, account)
	if err != nil {
		return TokenInfo{}, err
	}
	md, err := a.metadataOf(ctx, token)
	if err != nil {
		return TokenInfo{}, err
	}
	return TokenInfo{
		Token:    token,
		Balance:  bal,
		Decimals: md.decimals,
		Symbol:   md.symbol,
		Name:     md.name,
	}, nil
}

// metadataOf fetches the decimals/symbol/name triple, consulting the cache
// first. The triple is cached only when every field resolved for real.
func (a *Aggregator) metadataOf(ctx context.Context, token common.Address) (metadata, error) {
	if a.cache != nil {
		if md, ok := a.cache.Get(token); ok {
			return md, nil
		}
	}

	dec, decFell, err := a.fetchDecimals(ctx, token)
	if err != nil {
		return metadata{}, err
	}
	sym, symFell, err := a.fetchSymbol(ctx, token)
	if err != nil {
		return metadata{}, err
	}
	name, nameFell, err := a.fetchName(ctx, token)
	if err != nil {
		return metadata{}, err
	}

	md := metadata{decimals: dec, symbol: sym, name: name}
	if a.cache != nil && !decFell && !symFell && !nameFell {
		a.cache.Add(token, md)
	}
	return md, nil
}

// The fetchers return (value, fellBack, transportErr). A revert or a
// malformed answer yields the fallback with fellBack set; only transport
// trouble produces an error.

func (a *Aggregator) fetchDecimals(ctx context.Context, token common.Address) (uint8, bool, error) {
	ret, err := a.host.StaticCall(ctx, token, abi.PackCall(abi.SelDecimals))
	if err != nil {
		if errors.Is(err, chain.ErrCallReverted) {
			a.noteFallback(token, "decimals")
			return FallbackDecimals, true, nil
		}
		return 0, false, err
	}
	dec, err := abi.UnpackUint8(ret)
	if err != nil {
		a.noteFallback(token, "decimals")
		return FallbackDecimals, true, nil
	}
	return dec, false, nil
}

func (a *Aggregator) fetchSymbol(ctx context.Context, token common.Address) (string, bool, error) {
	ret, err := a.host.StaticCall(ctx, token, abi.PackCall(abi.SelSymbol))
	if err != nil {
		if errors.Is(err, chain.ErrCallReverted) {
			a.noteFallback(token, "symbol")
			return FallbackSymbol, true, nil
		}
		return "", false, err
	}
	sym, err := abi.UnpackString(ret)
	if err != nil {
		a.noteFallback(token, "symbol")
		return FallbackSymbol, true, nil
	}
	return sym, false, nil
}

func (a *Aggregator) fetchName(ctx context.Context, token common.Address) (string, bool, error) {
	ret, err := a.host.StaticCall(ctx, token, abi.PackCall(abi.SelName))
	if err != nil {
		if errors.Is(err, chain.ErrCallReverted) {
			a.noteFallback(token, "name")
			return FallbackName, true, nil
		}
		return "", false, err
	}
	name, err := abi.UnpackString(ret)
	if err != nil {
		a.noteFallback(token, "name")
		return FallbackName, true, nil
	}
	return name, false, nil
}

func (a *Aggregator) noteFallback(token common.Address, field string) {
	if a.onFallback != nil {
		a.onFallback(token, field)
	}
}
