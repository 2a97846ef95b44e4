package gateway

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BookingSvcURL string
	NotifySvcURL  string
	// FrontendDir holds index.html and static assets. Empty disables them.
	FrontendDir string
}

type Gateway struct {
	config Config
	client HTTPClient
	logger zerolog.Logger
}

func NewGateway(config Config, client HTTPClient, logger zerolog.Logger) *Gateway {
	return &Gateway{
		config: config,
		client: client,
		logger: logger,
	}
}

// Headers that describe a single connection and must not be forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func (g *Gateway) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   "api-gateway",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (g *Gateway) ProxyRequest(w http.ResponseWriter, r *http.Request, targetURL string) {
	started := time.Now()
	url := strings.TrimRight(targetURL, "/") + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, r.Body)
	if err != nil {
		g.logger.Error().Err(err).Str("url", url).Msg("failed to create upstream request")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal", "message": "internal server error"})
		return
	}
	req.ContentLength = r.ContentLength
	copyHeaders(req.Header, r.Header)
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if prior := r.Header.Get("X-Forwarded-For"); prior != "" {
			ip = prior + ", " + ip
		}
		req.Header.Set("X-Forwarded-For", ip)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Str("method", r.Method).Str("upstream", targetURL).Str("path", r.URL.Path).Msg("proxy failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "bad_gateway", "message": "upstream service unavailable"})
		return
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		g.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to copy upstream response")
	}

	g.logger.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("upstream", targetURL).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("proxied")
}

// Upstream picks the service that owns path, or "" when none does.
func (g *Gateway) Upstream(path string) string {
	switch {
	case path == "/api/notifications" || strings.HasPrefix(path, "/api/notifications/"):
		return g.config.NotifySvcURL
	case strings.HasPrefix(path, "/api/restaurants/"),
		strings.HasPrefix(path, "/api/reservations/"),
		path == "/api/me/reservations":
		return g.config.BookingSvcURL
	}
	return ""
}

func (g *Gateway) RouteHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if upstream := g.Upstream(path); upstream != "" {
		g.ProxyRequest(w, r, upstream)
		return
	}

	if strings.HasPrefix(path, "/api/") {
		g.logger.Info().Str("method", r.Method).Str("path", path).Msg("unmatched API route")
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": "API route not found"})
		return
	}

	if g.config.FrontendDir == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(g.config.FrontendDir, "index.html"))
}

func (g *Gateway) SetupRoutes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", g.HealthCheck).Methods("GET")
	r.PathPrefix("/api/").HandlerFunc(g.RouteHandler)
	if g.config.FrontendDir != "" {
		r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(g.config.FrontendDir))))
	}
	r.PathPrefix("/").HandlerFunc(g.RouteHandler)
	return r
}

func copyHeaders(dst, src http.Header) {
	for k, v := range src {
		dst[k] = append([]string(nil), v...)
	}
	for _, h := range hopHeaders {
		dst.Del(h)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
