package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3ledger/internal/accounts"
	"github.com/Mohsinsiddi/w3ledger/internal/chain"
	"github.com/Mohsinsiddi/w3ledger/internal/config"
	"github.com/Mohsinsiddi/w3ledger/internal/ens"
	"github.com/Mohsinsiddi/w3ledger/internal/journal"
	"github.com/Mohsinsiddi/w3ledger/internal/ledger"
	"github.com/Mohsinsiddi/w3ledger/internal/rpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ledgerAddr is where the ledger is "deployed" on the sim chain.
var ledgerAddr = common.HexToAddress("0x0000000000000000000000000000000000001Ed6")

// errNotInitialized is returned when no ledger has been deployed yet.
var errNotInitialized = errors.New("no ledger deployed — run `w3ledger init --owner <address>` first")

// session bundles the persistent sim-hosted ledger: the journal database,
// the sim chain restored from it, and the ledger restored on top. save()
// snapshots both back so the next invocation picks up where this one left
// off.
type session struct {
	jnl  *journal.Journal
	host *chain.SimHost
	ldg  *ledger.Ledger
}

// openSession restores the persistent ledger. Fails with errNotInitialized
// when `w3ledger init` has not been run.
func openSession() (*session, error) {
	jnl, host, err := openChain()
	if err != nil {
		return nil, err
	}

	var st ledger.State
	if err := jnl.LoadState(journal.StateLedger, &st); err != nil {
		jnl.Close() //nolint:errcheck
		if errors.Is(err, journal.ErrNoSnapshot) {
			return nil, errNotInitialized
		}
		return nil, fmt.Errorf("restoring ledger state: %w", err)
	}

	ldg := ledger.Restore(host, &st, ledger.WithSink(jnl.Sink()))
	return &session{jnl: jnl, host: host, ldg: ldg}, nil
}

// openChain restores just the journal and sim chain, without requiring a
// deployed ledger. Used by init and the sim management commands.
func openChain() (*journal.Journal, *chain.SimHost, error) {
	jnl, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return nil, nil, err
	}

	host := chain.NewSimHost(ledgerAddr)
	if err := jnl.LoadState(journal.StateChain, host); err != nil && !errors.Is(err, journal.ErrNoSnapshot) {
		jnl.Close() //nolint:errcheck
		return nil, nil, fmt.Errorf("restoring chain state: %w", err)
	}
	return jnl, host, nil
}

// save snapshots the ledger and chain back into the journal.
func (s *session) save() error {
	if err := s.jnl.SaveState(journal.StateLedger, s.ldg.State()); err != nil {
		return fmt.Errorf("saving ledger state: %w", err)
	}
	if err := s.jnl.SaveState(journal.StateChain, s.host); err != nil {
		return fmt.Errorf("saving chain state: %w", err)
	}
	return nil
}

func (s *session) close() {
	s.jnl.Close() //nolint:errcheck
}

// saveChain persists only the sim chain, for commands that never touch the
// ledger (fund, token deploy).
func saveChain(jnl *journal.Journal, host *chain.SimHost) error {
	if err := jnl.SaveState(journal.StateChain, host); err != nil {
		return fmt.Errorf("saving chain state: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// address and amount resolution
// ---------------------------------------------------------------------------

// addressBook opens the persistent address book.
func addressBook() *accounts.Manager {
	return accounts.NewManager(accounts.WithStore(accounts.NewJSONStore(cfg.AccountsPath())))
}

// resolveAccount turns an address book name or raw hex address into an
// address. Empty input falls back to the default account.
func resolveAccount(v string) (common.Address, error) {
	if v == "" && cfg.DefaultAccount != "" {
		v = cfg.DefaultAccount
	}
	return addressBook().Resolve(v)
}

// resolveQueryAccount is resolveAccount plus ENS: names containing a dot are
// resolved against the reader, which must be RPC-backed for ENS to exist.
func resolveQueryAccount(ctx context.Context, host chain.Reader, v string) (common.Address, error) {
	if ens.IsName(v) {
		return ens.Resolve(ctx, host, v)
	}
	return resolveAccount(v)
}

// liveReader resolves the --rpc flag into a chain reader. Empty selects the
// local sim; "best" benchmarks every configured endpoint; anything else is
// an endpoint name or a raw URL.
func liveReader(ctx context.Context, sim chain.Reader, rpcFlag string) (chain.Reader, string, error) {
	if rpcFlag == "" && cfg.DefaultRPC == "" {
		return sim, "sim", nil
	}
	if rpcFlag == "" {
		rpcFlag = cfg.DefaultRPC
	}

	switch {
	case rpcFlag == "best":
		urls := make([]string, 0, len(cfg.RPCEndpoints))
		for _, name := range cfg.EndpointNames() {
			urls = append(urls, cfg.RPCEndpoints[name])
		}
		probeCtx, cancel := context.WithTimeout(ctx, config.RPCProbeTimeout)
		defer cancel()
		url, err := rpc.SelectBest(probeCtx, urls, cfg.RPCAlgorithm)
		if err != nil {
			return nil, "", fmt.Errorf("selecting endpoint: %w", err)
		}
		return chain.NewRPCHost(url), url, nil

	case strings.Contains(rpcFlag, "://"):
		return chain.NewRPCHost(rpcFlag), rpcFlag, nil

	default:
		url, ok := cfg.Endpoint(rpcFlag)
		if !ok {
			return nil, "", fmt.Errorf("unknown RPC endpoint %q — run `w3ledger rpc list`", rpcFlag)
		}
		return chain.NewRPCHost(url), url, nil
	}
}

// parseAddrList splits a comma-separated list of names/addresses and
// resolves each entry.
func parseAddrList(raw string) ([]common.Address, error) {
	parts := splitList(raw)
	out := make([]common.Address, 0, len(parts))
	for _, p := range parts {
		addr, err := resolveAccount(p)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// parseEthList parses a comma-separated list of ETH decimal amounts into
// wei.
func parseEthList(raw string) ([]*uint256.Int, error) {
	parts := splitList(raw)
	out := make([]*uint256.Int, 0, len(parts))
	for _, p := range parts {
		v, err := parseEthAmount(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func splitList(raw string) []string {
	var parts []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
