package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"tablebook/auth"
)

// RequestObserver records per-route request latency.
type RequestObserver interface {
	ObserveRequest(method, route string, code int, elapsed time.Duration)
	Handler() http.Handler
}

func NewRouter(handler *Handler, verifier *auth.Verifier, observer RequestObserver) http.Handler {
	r := mux.NewRouter()
	if observer != nil {
		r.Handle("/metrics", observer.Handler()).Methods("GET")
		r.Use(instrument(observer))
	}
	r.Use(verifier.Middleware)
	handler.RegisterRoutes(r)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key"},
	}).Handler(r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func instrument(observer RequestObserver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			observer.ObserveRequest(r.Method, route, rec.status, time.Since(start))
		})
	}
}
