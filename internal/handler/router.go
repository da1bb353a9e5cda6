package handler

import (
	"net/http"
	"time"

	"club-api/internal/container"
	"club-api/internal/middleware"
	"club-api/pkg/errors"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter configures and returns the HTTP router
func NewRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()
	authMiddleware := middleware.Auth(c.GetAuthService(), log)
	metrics := middleware.NewMetrics(c.Registry)
	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginRateLimit)

	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	// Setup middlewares
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestID(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.Handler)
	r.Use(middleware.CORS(corsConfig, log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	healthHandler := NewHealthHandler(c)
	authHandler := NewAuthHandler(c)
	clubHandler := NewClubHandler(c)
	attendanceHandler := NewAttendanceHandler(c)
	postHandler := NewPostHandler(c)
	scheduleHandler := NewScheduleHandler(c)

	// Health check and metrics (no auth required)
	r.Get("/health", healthHandler.Check)
	r.Handle("/metrics", promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(loginLimiter, log))
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})
			r.With(authMiddleware).Get("/me", authHandler.Me)
		})

		// Protected routes (require authentication)
		r.Route("/clubs", func(r chi.Router) {
			r.Use(authMiddleware)

			r.Post("/", clubHandler.CreateClub)
			r.Get("/my", clubHandler.ListMyClubs)
			r.Post("/join", clubHandler.JoinClub)

			r.Route("/{clubId}", func(r chi.Router) {
				r.Get("/", clubHandler.GetClub)
				r.Delete("/", clubHandler.DeleteClub)
				r.Get("/summary", clubHandler.Summary)
				r.Get("/invite/qr", clubHandler.InviteQRCode)

				r.Get("/members", clubHandler.ListMembers)
				r.Post("/members", clubHandler.AddMember)
				r.Patch("/members/{memberId}", clubHandler.UpdateMemberRole)
				r.Delete("/members/{memberId}", clubHandler.RemoveMember)

				r.Get("/attendance", attendanceHandler.ListAttendance)
				r.Post("/attendance", attendanceHandler.SetAttendance)
				r.Get("/attendance/roster", attendanceHandler.Roster)

				r.Get("/posts", postHandler.ListPosts)
				r.Post("/posts", postHandler.CreatePost)
				r.Get("/posts/{postId}", postHandler.GetPost)
				r.Delete("/posts/{postId}", postHandler.DeletePost)
				r.Post("/posts/{postId}/vote", postHandler.CastVote)

				r.Get("/schedules", scheduleHandler.ListSchedules)
				r.Post("/schedules", scheduleHandler.CreateSchedule)
				r.Get("/schedules.ics", scheduleHandler.ExportICS)
				r.Delete("/schedules/{scheduleId}", scheduleHandler.DeleteSchedule)
			})
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, errors.NewNotFoundError("Endpoint not found").Response())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, errors.ErrorResponse{Error: "Method not allowed"})
	})

	log.Info("Router configured successfully")
	return r
}
