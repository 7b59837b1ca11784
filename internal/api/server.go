package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"reserba/internal/config"
	"reserba/internal/domain"
	"reserba/internal/export"
	"reserba/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer    *http.Server
	router        *chi.Mux
	users         *service.UserService
	bookings      *service.BookingService
	verifications *service.VerificationService
	repo          domain.Repository
	exporter      *export.Exporter
	jwtSecret     []byte
	tokenTTL      time.Duration
	limiter       *clientLimiter
	validate      *validator.Validate
	logger        *zerolog.Logger
}

func New(
	cfg *config.Config,
	users *service.UserService,
	bookings *service.BookingService,
	verifications *service.VerificationService,
	repo domain.Repository,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		users:         users,
		bookings:      bookings,
		verifications: verifications,
		repo:          repo,
		exporter:      exporter,
		jwtSecret:     []byte(cfg.Auth.JWTSecret),
		tokenTTL:      time.Duration(cfg.Auth.TokenTTLHours) * time.Hour,
		limiter:       newClientLimiter(cfg.Booking.RateLimitRPS, cfg.Booking.RateLimitBurst),
		validate:      validator.New(),
		logger:        logger,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger(logger),
		middleware.Timeout(60*time.Second),
		s.rateLimit,
	)

	router.Get("/healthz", s.handleHealthz)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.With(s.requireAuth).Post("/logout", s.handleLogout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleMe)
		})

		r.Route("/facilities", func(r chi.Router) {
			r.Get("/", s.handleListFacilities)
			r.Get("/{id}/time-slots", s.handleListTimeSlots)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateBooking)
			r.Get("/user/{id}", s.handleUserBookings)
			r.Get("/{id}", s.handleGetBooking)
			r.With(s.requireOfficial).Get("/", s.handleListBookings)
			r.With(s.requireOfficial).Put("/{id}/status", s.handleUpdateBookingStatus)
		})

		r.Route("/verification-requests", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleSubmitVerification)
			r.Get("/status/{user_id}", s.handleVerificationStatus)
			r.With(s.requireOfficial).Get("/", s.handleListVerifications)
			r.With(s.requireOfficial).Put("/{id}/status", s.handleDecideVerification)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(s.requireAuth, s.requireOfficial)
			r.Get("/bookings", s.handleBookingsReport)
		})
	})

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Router exposes the chi router for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
