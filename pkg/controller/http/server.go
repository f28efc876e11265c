package http

import (
	"net/http"
	"time"

	"github.com/Rubix982/triage/pkg/usecase"
	"github.com/Rubix982/triage/pkg/utils/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

type Options func(*Server)

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/content", func(r chi.Router) {
			r.Post("/", s.postContent)
			r.Route("/{contentID}", func(r chi.Router) {
				r.Get("/", s.getContent)
				r.Delete("/", s.deleteContent)
				r.Get("/versions", s.getContentVersions)
				r.Get("/related", s.getContentRelated)
			})
		})

		r.Get("/search", s.getSearch)

		r.Route("/people", func(r chi.Router) {
			r.Get("/", s.listPeople)
			r.Route("/{personID}", func(r chi.Router) {
				r.Get("/", s.getPerson)
				r.Post("/merge", s.postPersonMerge)
				r.Get("/recommendations", s.getPersonRecommendations)
			})
		})

		r.Get("/stats", s.getStats)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
