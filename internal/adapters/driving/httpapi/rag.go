package httpapi

import (
	"errors"
	"net/http"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer  string      `json:"answer"`
	Sources []askSource `json:"sources"`
}

type askSource struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	URL        string  `json:"url,omitempty"`
	Score      float64 `json:"score"`
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// handleAsk answers a question from the indexed corpus.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.answerer.Ask(r.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyQuestion):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrGenerationFailed),
			errors.Is(err, domain.ErrVectorUnavailable):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	sources := make([]askSource, 0, len(answer.Sources))
	for _, src := range answer.Sources {
		sources = append(sources, askSource{
			DocumentID: src.DocumentID,
			Title:      src.Title,
			URL:        src.URL,
			Score:      src.Score,
		})
	}
	writeJSON(w, http.StatusOK, askResponse{
		Answer:  answer.Text,
		Sources: sources,
	})
}

// handleHealth pings the answering pipeline's dependencies. Reports 200
// only when every configured component is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string)
	healthy := true

	if s.embedder != nil {
		if err := s.embedder.Ping(r.Context()); err != nil {
			components["embedding"] = err.Error()
			healthy = false
		} else {
			components["embedding"] = "ok"
		}
	}
	if s.llm != nil {
		if err := s.llm.Ping(r.Context()); err != nil {
			components["llm"] = err.Error()
			healthy = false
		} else {
			components["llm"] = "ok"
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, healthResponse{
		Status:     status,
		Components: components,
	})
}
