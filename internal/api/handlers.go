package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3ledger/internal/chain"
	"github.com/Mohsinsiddi/w3ledger/internal/ledger"
	"github.com/Mohsinsiddi/w3ledger/internal/units"
)

// apiError is the wire form of a failed request.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func fail(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": apiError{Code: code, Message: err.Error()},
	})
}

// ---------------------------------------------------------------------------
// reads
// ---------------------------------------------------------------------------

func (s *Server) getPortfolio(c *gin.Context) {
	account, err := parseAddr(c.Param("account"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	tokens, err := s.tokensParam(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}

	p, err := s.agg.Portfolio(c.Request.Context(), account, tokens)
	if err != nil {
		s.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) getBalances(c *gin.Context) {
	account, err := parseAddr(c.Query("account"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	tokens, err := s.tokensParam(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}

	balances, err := s.agg.BatchBalances(c.Request.Context(), tokens, account)
	if err != nil {
		s.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account":  account,
		"tokens":   tokens,
		"balances": balances,
	})
}

func (s *Server) getTokenInfo(c *gin.Context) {
	account, err := parseAddr(c.Query("account"))
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	tokens, err := s.tokensParam(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}

	infos, err := s.agg.BatchTokenInfo(c.Request.Context(), tokens, account)
	if err != nil {
		s.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account": account,
		"tokens":  infos,
	})
}

func (s *Server) getIsContract(c *gin.Context) {
	raw, ok := c.GetQuery("accounts")
	if !ok {
		fail(c, http.StatusBadRequest, "MISSING_PARAMETER", errors.New("accounts query parameter required"))
		return
	}
	accounts, err := parseAddrList(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}

	results, err := s.agg.BatchIsContract(c.Request.Context(), accounts)
	if err != nil {
		s.upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accounts": accounts,
		"results":  results,
	})
}

func (s *Server) getLedger(c *gin.Context) {
	balance, err := s.ledger.Balance(c.Request.Context())
	if err != nil {
		s.upstreamError(c, err)
		return
	}

	out := gin.H{
		"address":             s.ledger.Self(),
		"owner":               s.ledger.Owner(),
		"label":               s.ledger.Label(),
		"premium":             s.ledger.Premium(),
		"balance":             balance,
		"total_label_changes": s.ledger.TotalLabelChanges(),
		"total_native_sent":   s.ledger.TotalNativeSent(),
		"total_token_sent":    s.ledger.TotalTokenSent(),
	}
	if raw, ok := c.GetQuery("account"); ok {
		account, err := parseAddr(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
			return
		}
		out["caller"] = gin.H{
			"account":       account,
			"label_changes": s.ledger.LabelChangesBy(account),
			"native_sent":   s.ledger.NativeSentBy(account),
			"token_sent":    s.ledger.TokenSentBy(account),
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getEvents(c *gin.Context) {
	if s.journal == nil {
		fail(c, http.StatusServiceUnavailable, "NO_JOURNAL", errors.New("event journal not configured"))
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fail(c, http.StatusBadRequest, "INVALID_PARAMETER", fmt.Errorf("invalid limit: %q", raw))
			return
		}
		limit = n
	}

	events, err := s.journal.Events(limit)
	if err != nil {
		s.log.Error("listing events", zap.Error(err))
		fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

// ---------------------------------------------------------------------------
// mutations
// ---------------------------------------------------------------------------

type labelRequest struct {
	From  string `json:"from" binding:"required"`
	Label string `json:"label"`
	Value string `json:"value"`
}

func (s *Server) postLabel(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	from, err := parseAddr(req.From)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	value, err := parseOptAmount(req.Value)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_AMOUNT", err)
		return
	}

	msg := ledger.Msg{Sender: from, Value: value}
	if err := s.ledger.SetLabel(c.Request.Context(), msg, req.Label); err != nil {
		s.opError(c, err)
		return
	}
	s.committed(c, gin.H{
		"label":   req.Label,
		"premium": s.ledger.Premium(),
	})
}

type sendRequest struct {
	From   string `json:"from" binding:"required"`
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
	Value  string `json:"value"`
}

func (s *Server) postSend(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	from, err := parseAddr(req.From)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	to, err := parseAddr(req.To)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	amount, err := units.ParseAmount(req.Amount)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_AMOUNT", err)
		return
	}
	value, err := parseOptAmount(req.Value)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_AMOUNT", err)
		return
	}

	msg := ledger.Msg{Sender: from, Value: value}
	if err := s.ledger.SendNative(c.Request.Context(), msg, to, amount); err != nil {
		s.opError(c, err)
		return
	}
	s.committed(c, gin.H{"to": to, "amount": amount})
}

type sendBatchRequest struct {
	From       string   `json:"from" binding:"required"`
	Recipients []string `json:"recipients" binding:"required"`
	Amounts    []string `json:"amounts" binding:"required"`
	Value      string   `json:"value"`
}

func (s *Server) postSendBatch(c *gin.Context) {
	var req sendBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	from, err := parseAddr(req.From)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	recipients, err := parseAddrSlice(req.Recipients)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	amounts, err := parseAmountSlice(req.Amounts)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_AMOUNT", err)
		return
	}
	value, err := parseOptAmount(req.Value)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_AMOUNT", err)
		return
	}

	msg := ledger.Msg{Sender: from, Value: value}
	if err := s.ledger.SendNativeBatch(c.Request.Context(), msg, recipients, amounts); err != nil {
		s.opError(c, err)
		return
	}
	s.committed(c, gin.H{"recipients": len(recipients)})
}

type tokenSendRequest struct {
	From   string `json:"from" binding:"required"`
	Token  string `json:"token" binding:"required"`
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

func (s *Server) postTokenSend(c *gin.Context) {
	var req tokenSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	from, err := parseAddr(req.From)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	token, err := parseAddr(req.Token)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	to, err := parseAddr(req.To)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	amount, err := units.ParseAmount(req.Amount)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_AMOUNT", err)
		return
	}

	msg := ledger.Msg{Sender: from}
	if err := s.ledger.SendToken(c.Request.Context(), msg, token, to, amount); err != nil {
		s.opError(c, err)
		return
	}
	s.committed(c, gin.H{"token": token, "to": to, "amount": amount})
}

type tokenSendBatchRequest struct {
	From       string   `json:"from" binding:"required"`
	Token      string   `json:"token" binding:"required"`
	Recipients []string `json:"recipients" binding:"required"`
	Amounts    []string `json:"amounts" binding:"required"`
}

func (s *Server) postTokenSendBatch(c *gin.Context) {
	var req tokenSendBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	from, err := parseAddr(req.From)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	token, err := parseAddr(req.Token)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	recipients, err := parseAddrSlice(req.Recipients)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	amounts, err := parseAmountSlice(req.Amounts)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_AMOUNT", err)
		return
	}

	msg := ledger.Msg{Sender: from}
	if err := s.ledger.SendTokenBatch(c.Request.Context(), msg, token, recipients, amounts); err != nil {
		s.opError(c, err)
		return
	}
	s.committed(c, gin.H{"token": token, "recipients": len(recipients)})
}

type withdrawRequest struct {
	From string `json:"from" binding:"required"`
}

func (s *Server) postWithdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	from, err := parseAddr(req.From)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}

	if err := s.ledger.Withdraw(c.Request.Context(), ledger.Msg{Sender: from}); err != nil {
		s.opError(c, err)
		return
	}
	s.committed(c, nil)
}

type transferOwnershipRequest struct {
	From     string `json:"from" binding:"required"`
	NewOwner string `json:"new_owner" binding:"required"`
}

func (s *Server) postTransferOwnership(c *gin.Context) {
	var req transferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	from, err := parseAddr(req.From)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}
	newOwner, err := parseAddr(req.NewOwner)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}

	if err := s.ledger.TransferOwnership(ledger.Msg{Sender: from}, newOwner); err != nil {
		s.opError(c, err)
		return
	}
	s.committed(c, gin.H{"owner": newOwner})
}

type renounceRequest struct {
	From string `json:"from" binding:"required"`
}

func (s *Server) postRenounceOwnership(c *gin.Context) {
	var req renounceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	from, err := parseAddr(req.From)
	if err != nil {
		fail(c, http.StatusBadRequest, "INVALID_ADDRESS", err)
		return
	}

	if err := s.ledger.RenounceOwnership(ledger.Msg{Sender: from}); err != nil {
		s.opError(c, err)
		return
	}
	s.committed(c, gin.H{"owner": common.Address{}})
}

// ---------------------------------------------------------------------------
// shared plumbing
// ---------------------------------------------------------------------------

// committed persists state after a successful mutation and writes the
// success envelope. The in-memory operation has already committed; a persist
// failure leaves disk behind memory and is reported as a server error.
func (s *Server) committed(c *gin.Context, data gin.H) {
	if s.persist != nil {
		if err := s.persist(); err != nil {
			s.log.Error("persist failed", zap.Error(err))
			fail(c, http.StatusInternalServerError, "PERSIST_FAILED", err)
			return
		}
	}
	if data == nil {
		data = gin.H{}
	}
	data["success"] = true
	c.JSON(http.StatusOK, data)
}

// opError maps the ledger error taxonomy onto HTTP statuses.
func (s *Server) opError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnauthorizedAccount):
		fail(c, http.StatusForbidden, "UNAUTHORIZED", err)
	case errors.Is(err, ledger.ErrInvalidOwner):
		fail(c, http.StatusBadRequest, "INVALID_OWNER", err)
	case errors.Is(err, ledger.ErrLengthMismatch):
		fail(c, http.StatusBadRequest, "LENGTH_MISMATCH", err)
	case errors.Is(err, ledger.ErrNonpayable):
		fail(c, http.StatusBadRequest, "NONPAYABLE", err)
	case errors.Is(err, ledger.ErrAmountOverflow):
		fail(c, http.StatusBadRequest, "AMOUNT_OVERFLOW", err)
	case errors.Is(err, chain.ErrInsufficientBalance):
		fail(c, http.StatusBadRequest, "INSUFFICIENT_BALANCE", err)
	case errors.Is(err, ledger.ErrTransferFailed):
		fail(c, http.StatusBadGateway, "TRANSFER_FAILED", err)
	case errors.Is(err, chain.ErrCallReverted):
		fail(c, http.StatusBadGateway, "CALL_REVERTED", err)
	default:
		s.log.Error("ledger operation failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
	}
}

// upstreamError reports a failed host read. Fallback values never land here;
// only transport trouble does.
func (s *Server) upstreamError(c *gin.Context, err error) {
	s.log.Error("host read failed", zap.Error(err))
	fail(c, http.StatusBadGateway, "UPSTREAM_ERROR", err)
}

// tokensParam resolves the token set for aggregator endpoints: an explicit
// ?tokens= list, or every token deployed on the sim when absent.
func (s *Server) tokensParam(c *gin.Context) ([]common.Address, error) {
	raw, ok := c.GetQuery("tokens")
	if !ok {
		return s.host.TokenAddresses(), nil
	}
	return parseAddrList(raw)
}

func parseAddr(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseAddrList(raw string) ([]common.Address, error) {
	var addrs []common.Address
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := parseAddr(part)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func parseAddrSlice(raw []string) ([]common.Address, error) {
	addrs := make([]common.Address, len(raw))
	for i, part := range raw {
		addr, err := parseAddr(part)
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}
	return addrs, nil
}

func parseAmountSlice(raw []string) ([]*uint256.Int, error) {
	amounts := make([]*uint256.Int, len(raw))
	for i, part := range raw {
		amount, err := units.ParseAmount(part)
		if err != nil {
			return nil, err
		}
		amounts[i] = amount
	}
	return amounts, nil
}

// parseOptAmount treats an empty string as no value attached.
func parseOptAmount(raw string) (*uint256.Int, error) {
	if raw == "" {
		return nil, nil
	}
	return units.ParseAmount(raw)
}
