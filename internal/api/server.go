// Package api implements the w3ledger serve surface: a gin JSON API over
// the persistent sim-hosted ledger and the portfolio aggregator, with
// prometheus metrics and zap request logging.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3ledger/internal/chain"
	"github.com/Mohsinsiddi/w3ledger/internal/journal"
	"github.com/Mohsinsiddi/w3ledger/internal/ledger"
	"github.com/Mohsinsiddi/w3ledger/internal/portfolio"
)

// metadataCacheSize bounds the aggregator's token metadata LRU.
const metadataCacheSize = 256

// Deps are the collaborators a Server exposes. Journal and Persist are
// optional: without a journal the events endpoint reports unavailable;
// without Persist committed mutations live only in memory.
type Deps struct {
	Ledger  *ledger.Ledger
	Host    *chain.SimHost
	Journal *journal.Journal
	Persist func() error
	Logger  *zap.Logger
}

// Server is the HTTP face of one ledger instance.
type Server struct {
	router  *gin.Engine
	http    *http.Server
	log     *zap.Logger
	metrics *metrics

	ledger  *ledger.Ledger
	host    *chain.SimHost
	agg     *portfolio.Aggregator
	journal *journal.Journal
	persist func() error
}

// New wires the routes. The aggregator is built here so its fallback hook
// feeds the server's own metrics.
func New(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	m := newMetrics()
	s := &Server{
		router:  router,
		log:     log,
		metrics: m,
		ledger:  deps.Ledger,
		host:    deps.Host,
		journal: deps.Journal,
		persist: deps.Persist,
		agg: portfolio.New(deps.Host,
			portfolio.WithMetadataCache(metadataCacheSize),
			portfolio.WithFallbackHook(m.fallbackHook()),
		),
	}

	router.Use(gin.Recovery(), s.requestLog(), m.middleware())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}),
	))

	v1 := s.router.Group("/api/v1")

	v1.GET("/portfolio/:account", s.getPortfolio)
	v1.GET("/balances", s.getBalances)
	v1.GET("/tokeninfo", s.getTokenInfo)
	v1.GET("/iscontract", s.getIsContract)

	v1.GET("/ledger", s.getLedger)
	v1.GET("/ledger/events", s.getEvents)

	v1.POST("/ledger/label", s.postLabel)
	v1.POST("/ledger/send", s.postSend)
	v1.POST("/ledger/send-batch", s.postSendBatch)
	v1.POST("/ledger/token-send", s.postTokenSend)
	v1.POST("/ledger/token-send-batch", s.postTokenSendBatch)
	v1.POST("/ledger/withdraw", s.postWithdraw)
	v1.POST("/ledger/ownership/transfer", s.postTransferOwnership)
	v1.POST("/ledger/ownership/renounce", s.postRenounceOwnership)
}

// Handler exposes the routed engine for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves on addr and blocks until Shutdown or a listen error.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("api listening", zap.String("addr", addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.log.Info("api shutting down")
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
