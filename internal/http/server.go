package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hperssn/yofit/internal/admission"
	"github.com/hperssn/yofit/internal/runner"
	"github.com/hperssn/yofit/internal/storage"
)

type Server struct {
	repo     storage.Repository
	sessions *runner.SessionManager
	auth     *Authenticator
	limiter  *admission.Registry
	proxies  *admission.ProxyResolver
	now      func() time.Time
}

type Options struct {
	Repo     storage.Repository
	Sessions *runner.SessionManager
	Auth     *Authenticator
	Limiter  *admission.Registry
	Proxies  *admission.ProxyResolver
	Now      func() time.Time
}

func NewServer(opts Options) *Server {
	s := &Server{
		repo:     opts.Repo,
		sessions: opts.Sessions,
		auth:     opts.Auth,
		limiter:  opts.Limiter,
		proxies:  opts.Proxies,
		now:      opts.Now,
	}
	if s.auth == nil {
		s.auth = NewAuthenticator("", "")
	}
	if s.limiter == nil {
		s.limiter = admission.NewRegistry(admission.DefaultPolicy())
	}
	if s.proxies == nil {
		s.proxies = admission.NewProxyResolver(nil)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(admission.Middleware(s.limiter, s.proxies.ClientIP))
		r.Use(s.auth.Identify)

		r.Get("/classes", s.listClasses)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Get("/classes/{id}", s.getClass)
			r.Post("/classes/{id}/complete", s.completeClass)

			r.Get("/user/profile", s.getProfile)
			r.Put("/user/profile", s.updateProfile)

			r.Get("/subscription/trial", s.getTrial)
			r.Post("/subscription/trial", s.startTrial)

			r.Post("/sessions", s.startSession)
			r.Get("/sessions/stats", s.sessionStats)

			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Post("/resume", s.resumeSession)

				r.Group(func(r chi.Router) {
					r.Use(s.ownSession)

					r.Get("/", s.getSession)
					r.Get("/status", s.getSessionStatus)
					r.Post("/play", s.command(s.sessions.Play))
					r.Post("/toggle", s.command(s.sessions.TogglePlay))
					r.Post("/next", s.command(s.sessions.Next))
					r.Post("/previous", s.command(s.sessions.Previous))
					r.Post("/steps/{idx}", s.goToStep)
					r.Post("/stop", s.stopSession)
					r.Get("/events", StreamSessionEvents(s.sessions))
					r.Get("/ws", s.sessionSocket)
				})
			})
		})
	})

	return r
}
