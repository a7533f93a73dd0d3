package server

import (
	"net/http"

	"github.com/charmbracelet/log"

	"ytrelated/internal/domain"
	"ytrelated/internal/youtube"
)

const (
	msgMissingURL      = "Missing url querystring."
	msgInvalidURL      = "Invalid URL."
	msgInvalidYoutube  = "Invalid Youtube URL."
	msgRelatedNotFound = "Related videos not found."
)

type relatedVideoResponse struct {
	domain.RelatedVideo
	URL string `json:"url"`
}

func (s *Server) queryRelated(w http.ResponseWriter, r *http.Request) {
	rawURL := youtube.QueryValue(r.URL.RawQuery, "url")
	if rawURL == "" {
		writeError(w, msgMissingURL, http.StatusBadRequest)
		return
	}
	if !youtube.IsURL(rawURL) {
		writeError(w, msgInvalidURL, http.StatusBadRequest)
		return
	}
	if !youtube.ValidateYoutubeURL(rawURL) {
		writeError(w, msgInvalidYoutube, http.StatusBadRequest)
		return
	}

	videoID := youtube.ExtractVideoID(rawURL)
	if videoID == "" {
		writeError(w, msgInvalidYoutube, http.StatusBadRequest)
		return
	}

	videos, err := s.scraper.Scrape(r.Context(), videoID, s.planner)
	if err != nil {
		log.Error("scrape failed", "video_id", videoID, "error", err)
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(videos) == 0 {
		writeError(w, msgRelatedNotFound, http.StatusNotFound)
		return
	}

	response := make([]relatedVideoResponse, 0, len(videos))
	for _, video := range videos {
		response = append(response, relatedVideoResponse{
			RelatedVideo: video,
			URL:          video.ShortURL(),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
