package membership

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"triplea/internal/api"
	"triplea/internal/auth"
	"triplea/internal/logger"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type CreateMembershipRequest struct {
	PlanID    string `json:"plan_id" validate:"required"`
	StartDate Date   `json:"start_date"`
}

type PurchaseMembershipRequest struct {
	PlanID    string `json:"plan_id" validate:"required"`
	StartDate Date   `json:"start_date"`
}

func (h *Handler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Plans())
}

func (h *Handler) MyStatus(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	h.status(c, memberID)
}

func (h *Handler) MyPayments(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	h.payments(c, memberID)
}

func (h *Handler) Purchase(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req PurchaseMembershipRequest
	if !api.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.PurchaseMembership(c.Request.Context(), memberID, req.PlanID, req.StartDate)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// MemberStatus serves an admin's view of one member's status.
func (h *Handler) MemberStatus(c *gin.Context) {
	h.status(c, c.Param("memberID"))
}

func (h *Handler) MemberPayments(c *gin.Context) {
	h.payments(c, c.Param("memberID"))
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateMembershipRequest
	if !api.BindJSON(c, &req) {
		return
	}
	if req.StartDate.IsZero() {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "start_date is required"})
		return
	}

	rec, err := h.service.CreateMembership(c.Request.Context(), actorFrom(c), c.Param("memberID"), req.PlanID, req.StartDate)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Discontinue(c *gin.Context) {
	rec, err := h.service.DiscontinueMembership(c.Request.Context(), actorFrom(c), c.Param("memberID"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) status(c *gin.Context, memberID string) {
	view, err := h.service.ComputeStatus(c.Request.Context(), memberID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) payments(c *gin.Context, memberID string) {
	records, err := h.service.PaymentHistory(c.Request.Context(), memberID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func actorFrom(c *gin.Context) Actor {
	id, _ := auth.GetMemberID(c)
	return Actor{ID: id, IsAdmin: auth.IsAdmin(c)}
}

// RespondError maps membership errors onto HTTP responses.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidMember), errors.Is(err, ErrInvalidDate), errors.Is(err, ErrBackdatedStart):
		status = http.StatusBadRequest
	case errors.Is(err, ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, ErrPlanNotFound), errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrNoActiveMembership), errors.Is(err, ErrAlreadyInactive):
		status = http.StatusConflict
	case errors.Is(err, ErrPaymentFailed):
		status = http.StatusPaymentRequired
	case IsRetryable(err):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Membership request failed", "path", c.FullPath(), "error", err)
	}
	if status == http.StatusServiceUnavailable {
		c.JSON(status, api.ErrorResponse{Error: "service temporarily unavailable", Retryable: true})
		return
	}
	if status == http.StatusInternalServerError {
		c.JSON(status, api.ErrorResponse{Error: "internal error"})
		return
	}
	c.JSON(status, api.ErrorResponse{Error: err.Error()})
}
