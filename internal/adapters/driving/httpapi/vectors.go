package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

type vectorStoreRequest struct {
	Text     string            `json:"text"`
	URL      string            `json:"url,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type vectorStoreResponse struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

type vectorSearchRequest struct {
	Query    string  `json:"query"`
	TopK     int     `json:"top_k"`
	MinScore float64 `json:"min_score"`
}

type vectorSearchResponse struct {
	Results []vectorSearchResult `json:"results"`
}

type vectorSearchResult struct {
	DocumentID string            `json:"document_id"`
	Text       string            `json:"text"`
	Score      float64           `json:"score"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type vectorDocumentResponse struct {
	DocumentID string            `json:"document_id"`
	Text       string            `json:"text"`
	ChunkCount int               `json:"chunk_count"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// handleVectorStore writes a document straight into the vector index,
// bypassing the dedup ledger. This is the surface the remote bridge
// pushes to.
func (s *Server) handleVectorStore(w http.ResponseWriter, r *http.Request) {
	var req vectorStoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	fingerprint := req.Metadata["original_id"]
	if fingerprint == "" {
		fingerprint = domain.Fingerprint(req.Text, req.URL)
	}

	doc := &domain.Document{
		Fingerprint: fingerprint,
		SourceID:    req.Metadata["source_id"],
		SourceName:  req.Metadata["source_name"],
		URL:         req.URL,
		Title:       req.Metadata["title"],
		Content:     req.Text,
		CrawledAt:   time.Now().UTC(),
	}
	if doc.URL == "" {
		doc.URL = req.Metadata["url"]
	}

	chunks, err := s.vectors.Store(r.Context(), doc)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, vectorStoreResponse{
		DocumentID: fingerprint,
		Chunks:     chunks,
	})
}

// handleVectorSearch runs a similarity search over the index.
func (s *Server) handleVectorSearch(w http.ResponseWriter, r *http.Request) {
	var req vectorSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	matches, err := s.vectors.Search(r.Context(), req.Query, req.TopK, req.MinScore)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	results := make([]vectorSearchResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, vectorSearchResult{
			DocumentID: match.DocumentID,
			Text:       match.Text,
			Score:      match.Score,
			Metadata:   match.Metadata,
		})
	}
	writeJSON(w, http.StatusOK, vectorSearchResponse{Results: results})
}

// handleVectorGet returns one indexed document, reassembled from its
// chunks.
func (s *Server) handleVectorGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	doc, err := s.vectors.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, vectorDocumentResponse{
		DocumentID: doc.ID,
		Text:       doc.Text,
		ChunkCount: doc.ChunkCount,
		Metadata:   doc.Metadata,
	})
}

// handleVectorClear wipes the index.
func (s *Server) handleVectorClear(w http.ResponseWriter, r *http.Request) {
	if err := s.vectors.Clear(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
