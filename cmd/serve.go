package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3ledger/internal/api"
	"github.com/Mohsinsiddi/w3ledger/internal/config"
	"github.com/Mohsinsiddi/w3ledger/internal/logging"
	"github.com/Mohsinsiddi/w3ledger/internal/ui"
)

var (
	serveAddr    string
	serveLogFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API over the persistent ledger",
	Long: `Run the JSON API daemon over the persistent sim ledger. The
journal stays open for the daemon's lifetime; mutations are persisted as
they commit. Ctrl-C drains in-flight requests before exiting.

Endpoints include /api/v1/ledger, /api/v1/portfolio/:account,
/api/v1/ledger/events and /metrics (Prometheus).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		logPath := serveLogFile
		if logPath == "" {
			logPath = filepath.Join(cfg.Dir(), "serve.log")
		}
		log := logging.New(logPath, verbose)
		defer log.Sync() //nolint:errcheck

		addr := serveAddr
		if addr == "" {
			addr = cfg.ServeAddr
		}

		srv := api.New(api.Deps{
			Ledger:  sess.ldg,
			Host:    sess.host,
			Journal: sess.jnl,
			Persist: sess.save,
			Logger:  log,
		})

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		fmt.Println(ui.Success("Serving on " + addr))
		fmt.Println(ui.Meta("  journal: " + cfg.JournalPath()))
		log.Info("serve started", zap.String("addr", addr))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("server: %w", err)
		case sig := <-sigCh:
			log.Info("shutting down", zap.String("signal", sig.String()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.ServeShutdownGrace)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := sess.save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Stopped"))
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: config serve_addr)")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "rotating log file (default: <config dir>/serve.log)")
}
