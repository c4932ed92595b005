package web

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/luisvx/inboxcode/internal/database"
	"github.com/luisvx/inboxcode/internal/mailcow"
	"github.com/luisvx/inboxcode/internal/query"
)

// Querier runs one mailbox query end to end
type Querier interface {
	Query(ctx context.Context, req query.Request) (*query.Result, error)
}

// Server is the HTTP boundary: the public search endpoint consumed by the
// front end, and the token-gated operator endpoints.
type Server struct {
	orchestrator Querier
	db           *database.DB
	mailcow      *mailcow.Client // nil disables provisioning
	validate     *validator.Validate
	adminToken   string
	logger       *slog.Logger
}

// Deps are the server's dependencies
type Deps struct {
	Orchestrator Querier
	DB           *database.DB
	Mailcow      *mailcow.Client
	AdminToken   string
	Logger       *slog.Logger
}

// NewServer creates the HTTP server
func NewServer(deps Deps) *Server {
	return &Server{
		orchestrator: deps.Orchestrator,
		db:           deps.DB,
		mailcow:      deps.Mailcow,
		validate:     validator.New(),
		adminToken:   deps.AdminToken,
		logger:       deps.Logger.With("component", "web"),
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/api/search", s.handleSearch)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(s.requireAdminToken)

		r.Route("/resellers", func(r chi.Router) {
			r.Get("/", s.handleListResellers)
			r.Post("/", s.handleCreateReseller)
			r.Get("/{id}", s.handleGetReseller)
			r.Put("/{id}", s.handleUpdateReseller)
			r.Delete("/{id}", s.handleDeleteReseller)
			r.Get("/{id}/accounts", s.handleResellerAccounts)
			r.Get("/{id}/expired-report", s.handleExpiredReport)
			r.Post("/{id}/pin", s.handleGeneratePIN)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", s.handleListCustomers)
			r.Post("/", s.handleCreateCustomer)
			r.Get("/{id}", s.handleGetCustomer)
			r.Put("/{id}", s.handleUpdateCustomer)
			r.Delete("/{id}", s.handleDeleteCustomer)
			r.Get("/{id}/accounts", s.handleCustomerAccounts)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", s.handleCreateAccounts)
			r.Put("/{id}/filters", s.handleUpdateAccountFilters)
			r.Post("/{id}/renew", s.handleRenewAccount)
			r.Delete("/{id}", s.handleDeleteAccount)
		})
	})

	return r
}

func (s *Server) requireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized", "No autorizado.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
