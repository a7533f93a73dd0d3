package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"ytrelated/internal/domain"
	"ytrelated/internal/scraper"
)

const (
	readHeaderTimeout = 15 * time.Second
	idleTimeout       = 60 * time.Second
)

// RelatedScraper is satisfied by *scraper.Scraper.
type RelatedScraper interface {
	Scrape(ctx context.Context, videoID string, planner scraper.RoutePlanner) ([]domain.RelatedVideo, error)
}

type Server struct {
	scraper   RelatedScraper
	planner   scraper.RoutePlanner
	startedAt time.Time
}

// New wires the handlers. planner may be nil.
func New(s RelatedScraper, planner scraper.RoutePlanner, startedAt time.Time) *Server {
	return &Server{
		scraper:   s,
		planner:   planner,
		startedAt: startedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) Routes() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("GET /query", s.queryRelated)
	router.HandleFunc("GET /health", s.health)
	router.HandleFunc("GET /{$}", s.index)
	router.HandleFunc("/", notFound)

	log.Debug("Routes opened")

	return logRequests(router)
}

// NewHTTPServer listens on all interfaces.
func NewHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, fmt.Sprintf("Route %s:%s not found", r.Method, r.URL.Path), http.StatusNotFound)
}
