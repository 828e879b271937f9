package wallet

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"triplea/internal/api"
	"triplea/internal/auth"
	"triplea/internal/logger"
	"triplea/internal/metrics"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

type TopUpRequest struct {
	AmountPaise int64 `json:"amount_paise" validate:"gt=0"`
}

func (h *Handler) GetBalance(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "member not authenticated"})
		return
	}

	w, err := h.repo.GetOrCreateWallet(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load wallet"})
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) TopUp(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "member not authenticated"})
		return
	}

	var req TopUpRequest
	if !api.BindJSON(c, &req) {
		return
	}

	t, err := h.repo.TopUp(c.Request.Context(), memberID, req.AmountPaise)
	if err != nil {
		logger.Error("Wallet top up failed", "member_id", memberID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to top up wallet"})
		return
	}
	metrics.RecordWalletTopUp()

	c.JSON(http.StatusOK, gin.H{
		"message":     "wallet recharged",
		"transaction": t,
	})
}

func (h *Handler) ListTransactions(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "member not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.repo.GetTransactions(c.Request.Context(), memberID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load transactions"})
		return
	}
	c.JSON(http.StatusOK, txs)
}
