package httpapi

import (
	"errors"
	"net/http"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
)

type crawlRequest struct {
	SourceID string `json:"source_id"`
}

type crawlResponse struct {
	SourceID   string `json:"source_id"`
	Found      int    `json:"found"`
	Inserted   int    `json:"inserted"`
	Vectorized int    `json:"vectorized"`
	Skipped    int    `json:"skipped"`
	Errors     int    `json:"errors"`
}

type crawlStatusResponse struct {
	SourceID       string `json:"source_id"`
	Running        bool   `json:"running"`
	PagesProcessed int    `json:"pages_processed"`
	ErrorCount     int    `json:"error_count"`
}

type ingestRequest struct {
	Content  string `json:"content"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	SourceID string `json:"source_id,omitempty"`
}

type ingestResponse struct {
	Chunks int `json:"chunks"`
}

// handleCrawl triggers a crawl of one source, or of every source when no
// source_id is given. The crawl runs synchronously.
func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SourceID == "" {
		results, err := s.crawler.CrawlAll(r.Context())
		if err != nil && len(results) == 0 {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		resp := make([]crawlResponse, 0, len(results))
		for _, result := range results {
			resp = append(resp, toCrawlResponse(&result))
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	result, err := s.crawler.Crawl(r.Context(), req.SourceID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSource) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if errors.Is(err, domain.ErrCrawlInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toCrawlResponse(result))
}

// handleCrawlStatus reports the crawl status for a source.
func (s *Server) handleCrawlStatus(w http.ResponseWriter, r *http.Request) {
	sourceID := r.URL.Query().Get("source_id")
	if sourceID == "" {
		writeError(w, http.StatusBadRequest, "source_id is required")
		return
	}

	status, err := s.crawler.Status(r.Context(), sourceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, crawlStatusResponse{
		SourceID:       status.SourceID,
		Running:        status.Running,
		PagesProcessed: status.PagesProcessed,
		ErrorCount:     status.ErrorCount,
	})
}

// handleIngest records a document directly, subject to the same dedup and
// indexing pipeline as crawled pages.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chunks, err := s.crawler.Ingest(r.Context(), req.Content, driving.IngestMetadata{
		SourceID: req.SourceID,
		Title:    req.Title,
		URL:      req.URL,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{Chunks: chunks})
}

func toCrawlResponse(result *domain.CrawlResult) crawlResponse {
	return crawlResponse{
		SourceID:   result.SourceID,
		Found:      result.Found,
		Inserted:   result.Inserted,
		Vectorized: result.Vectorized,
		Skipped:    result.Skipped,
		Errors:     result.Errors,
	}
}
