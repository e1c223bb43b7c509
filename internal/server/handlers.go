package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tamgu/internal/core"
	"tamgu/internal/gateway"
	"tamgu/internal/llm"
	"tamgu/internal/parser"
	"tamgu/internal/render"
	"tamgu/internal/store"
	"tamgu/internal/workspace"

	"github.com/go-chi/chi/v5"
)

// User-facing notices for failed AI operations.
const (
	noticeGenerateFailed = "글 생성 중 오류가 발생했습니다."
	noticeAnalyzeFailed  = "AI 분석에 실패했습니다. 잠시 후 다시 시도해주세요."
	noticeNotConfigured  = "AI 서비스가 설정되지 않았습니다. API 키를 확인해주세요."
	noticeBusy           = "이미 AI 요청을 처리하고 있습니다. 잠시 후 다시 시도해주세요."
)

// HealthResponse is returned by /health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type ArticleListResponse struct {
	Articles   []core.Article `json:"articles"`
	Total      int            `json:"total"`
	SelectedID string         `json:"selectedId,omitempty"`
}

type GenerateRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty,omitempty"`
}

type DifficultyRequest struct {
	Difficulty string `json:"difficulty"`
}

type DifficultyResponse struct {
	Difficulty core.Difficulty `json:"difficulty"`
	Label      string          `json:"label"`
}

type AnswerRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// WorksheetResponse is the live worksheet state.
type WorksheetResponse struct {
	Article    *core.Article   `json:"article"`
	SavedMode  bool            `json:"savedMode"`
	Answers    core.W1HAnswers `json:"answers"`
	Quotes     core.W1HQuotes  `json:"quotes"`
	Difficulty core.Difficulty `json:"difficulty"`
	Busy       bool            `json:"busy"`
}

type KeywordsResponse struct {
	Keywords []string `json:"keywords"`
}

type DocumentListResponse struct {
	Documents []core.SavedDocument `json:"documents"`
	Total     int                  `json:"total"`
	Degraded  bool                 `json:"degraded"`
}

// handleHealth handles the /health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"storage": "ok",
		"ai":      s.model,
	}
	if s.ws.StorageDegraded() {
		checks["storage"] = "degraded"
	}

	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Checks: checks,
	})
}

// handleListArticles handles GET /api/articles
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	articles := s.ws.Articles()
	resp := ArticleListResponse{Articles: articles, Total: len(articles)}
	if sel, ok := s.ws.Selected(); ok && !s.ws.SavedMode() {
		resp.SelectedID = sel.ID
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleClearArticles handles DELETE /api/articles
func (s *Server) handleClearArticles(w http.ResponseWriter, r *http.Request) {
	s.ws.ClearArticles()
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerateArticle handles POST /api/articles/generate
func (s *Server) handleGenerateArticle(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		s.respondError(w, http.StatusBadRequest, "Topic is required")
		return
	}
	d := s.ws.Difficulty()
	if req.Difficulty != "" {
		parsed, err := core.ParseDifficulty(req.Difficulty)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		d = parsed
	}

	article, err := s.ws.GenerateWithDifficulty(r.Context(), req.Topic, d)
	if err != nil {
		s.respondDomainError(w, err, noticeGenerateFailed)
		return
	}
	s.respondJSON(w, http.StatusCreated, article)
}

// handleSelectArticle handles POST /api/articles/{id}/select
func (s *Server) handleSelectArticle(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ws.Select(chi.URLParam(r, "id")); err != nil {
		s.respondDomainError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusOK, s.worksheetState())
}

// handleGetDifficulty handles GET /api/difficulty
func (s *Server) handleGetDifficulty(w http.ResponseWriter, r *http.Request) {
	d := s.ws.Difficulty()
	s.respondJSON(w, http.StatusOK, DifficultyResponse{Difficulty: d, Label: d.Label()})
}

// handleSetDifficulty handles PUT /api/difficulty
func (s *Server) handleSetDifficulty(w http.ResponseWriter, r *http.Request) {
	var req DifficultyRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	d, err := core.ParseDifficulty(req.Difficulty)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = s.ws.SetDifficulty(d)
	s.respondJSON(w, http.StatusOK, DifficultyResponse{Difficulty: d, Label: d.Label()})
}

// handleGetWorksheet handles GET /api/worksheet
func (s *Server) handleGetWorksheet(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.worksheetState())
}

// handleUpdateAnswer handles PATCH /api/worksheet
func (s *Server) handleUpdateAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	f, err := core.ParseField(req.Field)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = s.ws.SetAnswer(f, req.Value)
	s.respondJSON(w, http.StatusOK, s.worksheetState())
}

// handleAnalyze handles POST /api/worksheet/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ws.Analyze(r.Context()); err != nil {
		s.respondDomainError(w, err, noticeAnalyzeFailed)
		return
	}
	s.respondJSON(w, http.StatusOK, s.worksheetState())
}

// handleSave handles POST /api/worksheet/save
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ws.Save(r.Context())
	if err != nil {
		s.respondDomainError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

// handlePrintWorksheet handles GET /worksheet/print. ?format=md returns Markdown.
func (s *Server) handlePrintWorksheet(w http.ResponseWriter, r *http.Request) {
	ws, err := s.ws.Worksheet()
	if err != nil {
		s.respondDomainError(w, err, "")
		return
	}

	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(render.Markdown(ws)))
		return
	}

	page, err := render.HTML(ws)
	if err != nil {
		s.log.Error("Failed to render worksheet", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to render worksheet")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

// handleGetKeywords handles GET /api/keywords
func (s *Server) handleGetKeywords(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, KeywordsResponse{Keywords: s.ws.Keywords()})
}

// handleRefreshKeywords handles POST /api/keywords/refresh
func (s *Server) handleRefreshKeywords(w http.ResponseWriter, r *http.Request) {
	keywords, err := s.ws.RefreshKeywords(r.Context())
	if err != nil {
		s.respondDomainError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusOK, KeywordsResponse{Keywords: keywords})
}

// handleListDocuments handles GET /api/documents
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.ws.Documents()
	s.respondJSON(w, http.StatusOK, DocumentListResponse{
		Documents: docs,
		Total:     len(docs),
		Degraded:  s.ws.StorageDegraded(),
	})
}

// handleGetDocument handles GET /api/documents/{id}
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}
	doc, err := s.ws.Document(id)
	if err != nil {
		s.respondDomainError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument handles DELETE /api/documents/{id}
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}
	if err := s.ws.Delete(r.Context(), id); err != nil {
		s.respondDomainError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOpenDocument handles POST /api/documents/{id}/open
func (s *Server) handleOpenDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}
	if _, err := s.ws.Open(id); err != nil {
		s.respondDomainError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusOK, s.worksheetState())
}

func (s *Server) worksheetState() WorksheetResponse {
	resp := WorksheetResponse{
		SavedMode:  s.ws.SavedMode(),
		Answers:    s.ws.Answers(),
		Quotes:     s.ws.Quotes(),
		Difficulty: s.ws.Difficulty(),
		Busy:       s.ws.Busy(),
	}
	if a, ok := s.ws.Selected(); ok {
		resp.Article = &a
	}
	return resp
}

func (s *Server) documentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid document ID")
		return 0, false
	}
	return id, true
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondDomainError maps workspace, store and AI errors to HTTP statuses.
// notice replaces the message of failed AI calls so provider details stay in the log.
func (s *Server) respondDomainError(w http.ResponseWriter, err error, notice string) {
	switch {
	case errors.Is(err, workspace.ErrBusy):
		s.respondError(w, http.StatusConflict, noticeBusy)
	case errors.Is(err, workspace.ErrNoArticle),
		errors.Is(err, workspace.ErrEmptyTopic),
		errors.Is(err, gateway.ErrEmptyText):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrDuplicateID):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, workspace.ErrArticleNotFound),
		errors.Is(err, store.ErrDocumentNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case llm.IsConfigError(err):
		s.log.Error("AI service not configured", "error", err)
		s.respondError(w, http.StatusServiceUnavailable, noticeNotConfigured)
	case llm.IsServiceError(err), parser.IsParseError(err):
		s.log.Error("AI request failed", "error", err)
		if notice == "" {
			notice = noticeAnalyzeFailed
		}
		s.respondError(w, http.StatusBadGateway, notice)
	default:
		s.log.Error("Request failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError writes the standard error envelope
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"status":  status,
			"message": message,
		},
	})
}
