package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"triplea/internal/attendance"
	"triplea/internal/auth"
	"triplea/internal/config"
	"triplea/internal/dashboard"
	"triplea/internal/member"
	"triplea/internal/membership"
	"triplea/internal/wallet"
)

// Deps are the services the HTTP layer routes to. Mailer and Checks may be
// nil or empty.
type Deps struct {
	Verifier    auth.Verifier
	Members     member.Service
	Memberships membership.Service
	Attendance  attendance.Service
	Wallets     wallet.Repository
	Dashboard   dashboard.Service
	Mailer      Mailer
	Checks      map[string]Check
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New wires the router. ctx bounds background work such as the rate limiter
// janitor.
func New(ctx context.Context, cfg *config.Config, d Deps) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.CORSOrigins))
	router.Use(RateLimitMiddleware(NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)))

	memberHandler := member.NewHandler(d.Members)
	membershipHandler := membership.NewHandler(d.Memberships)
	attendanceHandler := attendance.NewHandler(d.Attendance)
	walletHandler := wallet.NewHandler(d.Wallets)
	dashboardHandler := dashboard.NewHandler(d.Dashboard)

	router.GET("/health", Health(d.Checks))
	router.GET("/metrics", Metrics())
	router.GET("/plans", membershipHandler.ListPlans)

	if cfg.AuthProvider == config.AuthProviderJWT {
		public := router.Group("/auth")
		{
			public.POST("/register", memberHandler.Register)
			public.POST("/login", memberHandler.Login)
			public.POST("/refresh", memberHandler.RefreshToken)
		}
	}

	authMiddleware := auth.AuthMiddleware(d.Verifier)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	if cfg.AuthProvider == config.AuthProviderFirebase {
		protected.Use(member.SyncProfile(d.Members))
	}
	{
		protected.GET("/me", memberHandler.GetMe)
		protected.GET("/me/membership", membershipHandler.MyStatus)
		protected.GET("/me/payments", membershipHandler.MyPayments)
		protected.POST("/me/membership/purchase", membershipHandler.Purchase)
		protected.GET("/me/attendance", attendanceHandler.MyHistory)

		protected.POST("/attendance/check-in", attendanceHandler.CheckIn)
		protected.POST("/attendance/check-out", attendanceHandler.CheckOut)

		protected.GET("/wallet", walletHandler.GetBalance)
		protected.POST("/wallet/topup", walletHandler.TopUp)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireAdmin())
	{
		admin.GET("/members", dashboardHandler.Roster)
		admin.POST("/members", memberHandler.CreateMember)
		admin.GET("/members/:memberID", dashboardHandler.Member)
		admin.PATCH("/members/:memberID", memberHandler.UpdatePersonalInfo)
		admin.GET("/members/:memberID/membership", membershipHandler.MemberStatus)
		admin.GET("/members/:memberID/payments", membershipHandler.MemberPayments)
		admin.GET("/members/:memberID/attendance", attendanceHandler.MemberHistory)
		admin.POST("/members/:memberID/memberships", membershipHandler.Create)
		admin.POST("/members/:memberID/memberships/discontinue", membershipHandler.Discontinue)
		admin.GET("/admins", memberHandler.ListAdmins)
		admin.POST("/admins", memberHandler.GrantAdmin)
		admin.DELETE("/admins/:memberID", memberHandler.RevokeAdmin)
		if d.Mailer != nil {
			admin.POST("/test-email", TestEmail(d.Mailer))
		}
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. http.ErrServerClosed is returned
// after Shutdown.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
