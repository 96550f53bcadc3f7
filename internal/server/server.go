package server

import (
	"context"
	"net/http"
	"time"

	"studioslot/internal/auth"
	"studioslot/internal/config"
	"studioslot/internal/email"
	"studioslot/internal/membership"
	"studioslot/internal/notify"
	"studioslot/internal/profile"
	"studioslot/internal/reservation"
	"studioslot/internal/schedule"
	"studioslot/internal/stats"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(database *sqlx.DB, cfg *config.Config, emailService *email.Service, hub *notify.Hub) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	profileRepo := profile.NewRepository(database)
	membershipRepo := membership.NewRepository(database)
	scheduleRepo := schedule.NewRepository(database)
	reservationRepo := reservation.NewRepository(database)

	gate := auth.NewGate(profileRepo)

	profileService := profile.NewService(profileRepo, gate, cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
	scheduleService := schedule.NewService(scheduleRepo)
	reservationService := reservation.NewService(
		reservationRepo, scheduleRepo, membershipRepo, profileRepo, emailService, hub)

	profileHandler := profile.NewHandler(profileService)
	membershipHandler := membership.NewHandler(membershipRepo)
	scheduleHandler := schedule.NewHandler(scheduleService)
	reservationHandler := reservation.NewHandler(reservationService)
	notifyHandler := notify.NewHandler(hub)
	statsHandler := stats.NewHandler(stats.NewRepository(database))

	public := router.Group("/auth")
	{
		public.POST("/register", profileHandler.Register)
		public.POST("/login", profileHandler.Login)
		public.POST("/refresh", profileHandler.Refresh)
	}

	authMiddleware := auth.Middleware(cfg.AccessTokenSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.POST("/auth/logout", profileHandler.Logout)
		protected.GET("/me", profileHandler.GetMe)

		protected.GET("/schedule", scheduleHandler.ListSchedule)
		protected.GET("/schedule/:classID/instance", scheduleHandler.GetInstance)
		protected.GET("/schedule/:classID/occupancy", reservationHandler.GetOccupancy)

		protected.POST("/reservations", reservationHandler.BookSeat)
		protected.GET("/reservations", reservationHandler.ListMyReservations)
		protected.POST("/reservations/:reservationID/cancel", reservationHandler.CancelSeat)
	}

	adminMiddleware := auth.RequireRole(auth.RoleAdmin)
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/classes", scheduleHandler.ListClasses)
		admin.POST("/classes", scheduleHandler.CreateClass)
		admin.PATCH("/classes/:classID", scheduleHandler.UpdateClass)
		admin.DELETE("/classes/:classID", scheduleHandler.DeleteClass)
		admin.POST("/classes/:classID/deactivate", scheduleHandler.DeactivateClass)

		admin.GET("/reservations", reservationHandler.ListReservations)

		admin.GET("/members", profileHandler.ListMembers)
		admin.POST("/members", profileHandler.CreateMember)
		admin.PUT("/members/:memberID/role", profileHandler.SetRole)
		admin.GET("/members/:memberID/memberships", membershipHandler.ListByMember)
		admin.POST("/members/:memberID/memberships", membershipHandler.Grant)

		admin.GET("/stats", statsHandler.GetSummary)
		admin.GET("/events", notifyHandler.StreamEvents)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router: router,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
