package attendance

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"triplea/internal/api"
	"triplea/internal/auth"
	"triplea/internal/membership"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CheckIn(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	v, err := h.service.CheckIn(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) CheckOut(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	v, err := h.service.CheckOut(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) MyHistory(c *gin.Context) {
	memberID, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	h.history(c, memberID)
}

// MemberHistory is the admin view of any member's visits.
func (h *Handler) MemberHistory(c *gin.Context) {
	h.history(c, c.Param("memberID"))
}

func (h *Handler) history(c *gin.Context, memberID string) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	visits, err := h.service.History(c.Request.Context(), memberID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, visits)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMembershipRequired):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrAlreadyCheckedIn), errors.Is(err, ErrNotCheckedIn):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	default:
		membership.RespondError(c, err)
	}
}
