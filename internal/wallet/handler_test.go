package wallet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"triplea/internal/auth"
)

type memberVerifier struct{}

func (memberVerifier) Verify(context.Context, string) (*auth.Identity, error) {
	return &auth.Identity{MemberID: "m-1"}, nil
}

func setupRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(repo)
	r := gin.New()
	g := r.Group("/wallet", auth.AuthMiddleware(memberVerifier{}))
	g.GET("", h.GetBalance)
	g.POST("/topup", h.TopUp)
	g.GET("/transactions", h.ListTransactions)
	return r
}

func TestHandler_TopUp(t *testing.T) {
	repo := new(MockRepository)
	repo.On("TopUp", mock.Anything, "m-1", int64(50000)).Return(&Transaction{ID: 1, AmountPaise: 50000, BalanceAfter: 50000}, nil)

	req := httptest.NewRequest("POST", "/wallet/topup", strings.NewReader(`{"amount_paise":50000}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	setupRouter(repo).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "wallet recharged")
}

func TestHandler_TopUpRejectsZero(t *testing.T) {
	req := httptest.NewRequest("POST", "/wallet/topup", strings.NewReader(`{"amount_paise":0}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	setupRouter(new(MockRepository)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ListTransactions(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetTransactions", mock.Anything, "m-1", 10, 5).Return([]Transaction{{ID: 3}}, nil)

	req := httptest.NewRequest("GET", "/wallet/transactions?limit=10&offset=5", nil)
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	setupRouter(repo).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}
