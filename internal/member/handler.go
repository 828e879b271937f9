package member

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

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !api.BindJSON(c, &req) {
		return
	}

	m, tokens, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered"})
			return
		}
		logger.Error("Register failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create member"})
		return
	}

	c.JSON(http.StatusCreated, LoginResponse{AccessToken: tokens.Access, RefreshToken: tokens.Refresh, Member: *m})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !api.BindJSON(c, &req) {
		return
	}

	m, tokens, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{AccessToken: tokens.Access, RefreshToken: tokens.Refresh, Member: *m})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if !api.BindJSON(c, &req) {
		return
	}

	access, m, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "member not found"})
			return
		}
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid or expired refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": access,
		"member":       m,
	})
}

func (h *Handler) GetMe(c *gin.Context) {
	id, ok := auth.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Member not authenticated"})
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Member not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) GrantAdmin(c *gin.Context) {
	var req GrantAdminRequest
	if !api.BindJSON(c, &req) {
		return
	}

	m, err := h.service.GrantAdmin(c.Request.Context(), auth.IsAdmin(c), req.Email)
	if err != nil {
		h.respondError(c, err, "Failed to grant admin role")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) CreateMember(c *gin.Context) {
	var req CreateMemberRequest
	if !api.BindJSON(c, &req) {
		return
	}

	m, err := h.service.CreateMember(c.Request.Context(), auth.IsAdmin(c), req)
	if err != nil {
		h.respondError(c, err, "Failed to create member")
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdatePersonalInfo(c *gin.Context) {
	var req PersonalInfoUpdate
	if !api.BindJSON(c, &req) {
		return
	}

	m, err := h.service.UpdatePersonalInfo(c.Request.Context(), auth.IsAdmin(c), c.Param("memberID"), req)
	if err != nil {
		h.respondError(c, err, "Failed to update member")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) ListAdmins(c *gin.Context) {
	admins, err := h.service.ListAdmins(c.Request.Context(), auth.IsAdmin(c))
	if err != nil {
		h.respondError(c, err, "Failed to list admins")
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": admins, "count": len(admins)})
}

func (h *Handler) RevokeAdmin(c *gin.Context) {
	actorID, _ := auth.GetMemberID(c)
	m, err := h.service.RevokeAdmin(c.Request.Context(), actorID, auth.IsAdmin(c), c.Param("memberID"))
	if err != nil {
		h.respondError(c, err, "Failed to revoke admin role")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrMemberNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Member not found"})
	case errors.Is(err, ErrEmailExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered"})
	case errors.Is(err, ErrNotAdmin), errors.Is(err, ErrRevokeSelf):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrEmptyUpdate):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		logger.Error(fallback, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}

// SyncProfile creates a local profile for identities issued by an external
// provider the first time they call the API.
func SyncProfile(service Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.GetMemberID(c)
		if !ok {
			c.Next()
			return
		}
		if err := service.EnsureProfile(c.Request.Context(), id, auth.GetEmail(c), auth.GetName(c)); err != nil {
			logger.Warn("Profile sync failed", "member_id", id, "error", err)
		}
		c.Next()
	}
}
