package server

import (
	"net/http"
	"time"
)

type uptime struct {
	Seconds float64 `json:"seconds"`
}

type healthResponse struct {
	Health string `json:"health"`
	Uptime uptime `json:"uptime"`
}

type indexResponse struct {
	Path   string `json:"path"`
	Health string `json:"health"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Health: "OK :3",
		Uptime: uptime{Seconds: time.Since(s.startedAt).Seconds()},
	})
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Path:   "/query?url=youtube_url",
		Health: "/health",
	})
}
