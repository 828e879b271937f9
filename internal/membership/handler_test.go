package membership

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"triplea/internal/auth"
)

type tokenVerifier map[string]*auth.Identity

func (v tokenVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	id, ok := v[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return id, nil
}

var testTokens = tokenVerifier{
	"admin":  {MemberID: "admin-1", IsAdmin: true},
	"member": {MemberID: "m-1"},
}

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)

	r := gin.New()
	r.GET("/plans", h.ListPlans)

	authed := r.Group("/", auth.AuthMiddleware(testTokens))
	authed.GET("/me/membership", h.MyStatus)
	authed.GET("/me/payments", h.MyPayments)
	authed.POST("/me/membership/purchase", h.Purchase)

	// No RequireAdmin here so the service's own permission check is exercised.
	authed.GET("/admin/members/:memberID/membership", h.MemberStatus)
	authed.GET("/admin/members/:memberID/payments", h.MemberPayments)
	authed.POST("/admin/members/:memberID/memberships", h.Create)
	authed.POST("/admin/members/:memberID/memberships/discontinue", h.Discontinue)
	return r
}

func doRequest(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_ListPlans(t *testing.T) {
	r := setupRouter(newTestService(NewMemoryRepository(), fixedClock(2024, 5, 1), DefaultPolicy()))

	w := doRequest(r, "GET", "/plans", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var plans []Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plans))
	assert.Len(t, plans, 3)
}

func TestHandler_Lifecycle(t *testing.T) {
	r := setupRouter(newTestService(NewMemoryRepository(), fixedClock(2024, 5, 1), DefaultPolicy()))

	w := doRequest(r, "GET", "/me/membership", "member", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)

	w = doRequest(r, "POST", "/admin/members/m-1/memberships", "member", `{"plan_id":"monthly","start_date":"2024-05-01"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, "POST", "/admin/members/m-1/memberships", "admin", `{"plan_id":"monthly","start_date":"2024-01-31"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var rec Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "2024-02-29", rec.EndDate.String())

	w = doRequest(r, "POST", "/admin/members/m-1/memberships", "admin", `{"plan_id":"monthly","start_date":"2024-05-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, "GET", "/me/membership", "member", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view StatusView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, StatusActive, view.Status)
	assert.Equal(t, "2024-06-01", view.EndDate.String())

	w = doRequest(r, "GET", "/admin/members/m-1/payments", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	var history []Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history, 2)

	w = doRequest(r, "POST", "/admin/members/m-1/memberships/discontinue", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, "POST", "/admin/members/m-1/memberships/discontinue", "admin", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(r, "GET", "/admin/members/m-1/membership", "admin", "")
	assert.Contains(t, w.Body.String(), `"status":"expired"`)
}

func TestHandler_CreateValidation(t *testing.T) {
	r := setupRouter(newTestService(NewMemoryRepository(), fixedClock(2024, 5, 1), DefaultPolicy()))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing plan", `{"start_date":"2024-05-01"}`, http.StatusBadRequest},
		{"missing start", `{"plan_id":"monthly"}`, http.StatusBadRequest},
		{"bad date", `{"plan_id":"monthly","start_date":"2024-02-30"}`, http.StatusBadRequest},
		{"unknown plan", `{"plan_id":"yearly","start_date":"2024-05-01"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, "POST", "/admin/members/m-1/memberships", "admin", tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandler_PurchaseBackdated(t *testing.T) {
	svc := NewService(NewMemoryRepository(), fixedClock(2024, 5, 1), DefaultCatalog(), Options{
		Policy:   DefaultPolicy(),
		Payments: new(MockGateway),
	})
	r := setupRouter(svc)

	w := doRequest(r, "POST", "/me/membership/purchase", "member", `{"plan_id":"monthly","start_date":"2024-04-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_StoreUnavailable(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListByMember", mock.Anything, "m-1").Return(nil, storeError("list", errors.New("i/o timeout")))

	r := setupRouter(newTestService(repo, fixedClock(2024, 5, 1), DefaultPolicy()))

	w := doRequest(r, "GET", "/me/membership", "member", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"service temporarily unavailable","retryable":true}`, w.Body.String())
}

func TestHandler_RequiresToken(t *testing.T) {
	r := setupRouter(newTestService(NewMemoryRepository(), fixedClock(2024, 5, 1), DefaultPolicy()))

	w := doRequest(r, "GET", "/me/membership", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
