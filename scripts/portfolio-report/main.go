// portfolio-report: scans a set of accounts against a set of tokens over one
// JSON-RPC endpoint in parallel and prints a summary table. Tokens that fail
// metadata calls degrade to fallback values, so a bad token never sinks the
// report.
//
// Run from the module root:
//
//	go run ./scripts/portfolio-report -rpc https://eth.llamarpc.com \
//	    -accounts 0x...,0x... -tokens 0x...,0x...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/w3ledger/internal/chain"
	"github.com/Mohsinsiddi/w3ledger/internal/portfolio"
	"github.com/Mohsinsiddi/w3ledger/internal/units"
)

const rpcTimeout = 12 * time.Second

type row struct {
	account string // short form
	token   string
	symbol  string
	balance string
	note    string
}

func main() {
	var (
		rpcURL   = flag.String("rpc", "", "JSON-RPC endpoint URL")
		accounts = flag.String("accounts", "", "comma-separated account addresses")
		tokens   = flag.String("tokens", "", "comma-separated token addresses")
	)
	flag.Parse()

	if *rpcURL == "" || *accounts == "" {
		fmt.Fprintln(os.Stderr, "usage: portfolio-report -rpc <url> -accounts <a,b> [-tokens <x,y>]")
		os.Exit(1)
	}

	accountAddrs, err := parseAddrs(*accounts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "accounts:", err)
		os.Exit(1)
	}
	tokenAddrs, err := parseAddrs(*tokens)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tokens:", err)
		os.Exit(1)
	}

	host := chain.NewRPCHost(*rpcURL)

	pingCtx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	latency, block, err := host.Ping(pingCtx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "endpoint unreachable:", err)
		os.Exit(1)
	}
	fmt.Printf("endpoint %s  block %d  latency %s\n\n", *rpcURL, block, latency.Round(time.Millisecond))

	agg := portfolio.New(host, portfolio.WithMetadataCache(64))

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		rows []row
	)

	for _, account := range accountAddrs {
		wg.Add(1)
		go func(account common.Address) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
			defer cancel()

			view, err := agg.Portfolio(ctx, account, tokenAddrs)
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				rows = append(rows, row{account: shortAddr(account), token: "—", note: shortErr(err)})
				return
			}

			rows = append(rows, row{
				account: shortAddr(account),
				token:   "native",
				symbol:  "ETH",
				balance: trimZeros(units.FormatEth(view.NativeBalance)),
			})
			for _, info := range view.Tokens {
				rows = append(rows, row{
					account: shortAddr(account),
					token:   shortAddr(info.Token),
					symbol:  info.Symbol,
					balance: trimZeros(units.FormatUnits(info.Balance, info.Decimals)),
				})
			}
		}(account)
	}

	wg.Wait()
	printTable(rows)
}

func printTable(rows []row) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.account != b.account {
			return a.account < b.account
		}
		return a.token < b.token
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ACCOUNT\tTOKEN\tSYMBOL\tBALANCE\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 8)+"\t"+
		strings.Repeat("-", 24)+"\t"+
		strings.Repeat("-", 12))

	lastAccount := ""
	for _, r := range rows {
		if r.account != lastAccount {
			if lastAccount != "" {
				fmt.Fprintln(w, "\t\t\t\t") // blank separator between accounts
			}
			lastAccount = r.account
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.account, r.token, r.symbol, r.balance, r.note)
	}
	w.Flush()
}

func parseAddrs(raw string) ([]common.Address, error) {
	var out []common.Address
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !common.IsHexAddress(p) {
			return nil, fmt.Errorf("invalid address: %s", p)
		}
		out = append(out, common.HexToAddress(p))
	}
	return out, nil
}

func shortAddr(addr common.Address) string {
	s := addr.Hex()
	return s[:6] + "…" + s[len(s)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
