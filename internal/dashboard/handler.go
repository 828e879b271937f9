package dashboard

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"triplea/internal/api"
	"triplea/internal/member"
	"triplea/internal/membership"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Roster(c *gin.Context) {
	roster, err := h.service.Roster(c.Request.Context())
	if err != nil {
		membership.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

func (h *Handler) Member(c *gin.Context) {
	entry, err := h.service.Member(c.Request.Context(), c.Param("memberID"))
	if errors.Is(err, member.ErrMemberNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "member not found"})
		return
	}
	if err != nil {
		membership.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
