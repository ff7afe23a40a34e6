// Package server exposes the document and chat operations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bull/ragchat/internal/chat"
	"github.com/bull/ragchat/internal/domain"
)

// DocumentService is the document lifecycle surface the server needs.
type DocumentService interface {
	Ingest(ctx context.Context, filename string, content []byte) (*domain.Document, error)
	Remove(ctx context.Context, docID int64) error
	List(ctx context.Context) ([]domain.Document, error)
}

// ChatService answers questions.
type ChatService interface {
	Answer(ctx context.Context, sessionID, question, model string) (*chat.Result, error)
}

// Server is the HTTP API. It translates between the wire format and the
// services; all behavior lives below it.
type Server struct {
	router         chi.Router
	docs           DocumentService
	chats          ChatService
	logger         *slog.Logger
	maxUploadBytes int64
	checks         map[string]func(context.Context) error
}

// New builds the server and its routes. checks are named dependency
// probes run by the health endpoint; nil is fine.
func New(docs DocumentService, chats ChatService, logger *slog.Logger, maxUploadBytes int64, checks map[string]func(context.Context) error) *Server {
	s := &Server{
		docs:           docs,
		chats:          chats,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		checks:         checks,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.handleUpload)
			r.Get("/", s.handleList)
			r.Delete("/{id}", s.handleDelete)
		})
	})

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model,omitempty"`
}

type chatResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err))
		return
	}

	result, err := s.chats.Answer(r.Context(), req.SessionID, req.Question, req.Model)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, chatResponse{
		Answer:    result.Answer,
		SessionID: result.SessionID,
		Model:     result.Model,
	})
}

type documentResponse struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func toDocumentResponse(d domain.Document) documentResponse {
	return documentResponse{ID: d.ID, Filename: d.Filename, UploadedAt: d.UploadedAt}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: parse multipart form: %v", domain.ErrValidation, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: missing file field", domain.ErrValidation))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: read upload: %v", domain.ErrValidation, err))
		return
	}

	doc, err := s.docs.Ingest(r.Context(), header.Filename, content)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toDocumentResponse(*doc))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: document id must be an integer", domain.ErrValidation))
		return
	}
	if err := s.docs.Remove(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	deps := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]any{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	s.respondJSON(w, status, body)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.Code(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "error", err)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = err.Error()
	s.respondJSON(w, status, body)
}

// statusFor maps taxonomy codes to HTTP statuses. Upstream dependency
// failures surface as 502 so callers can tell them from our own faults.
func statusFor(code string) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeExtraction:
		return http.StatusUnprocessableEntity
	case domain.CodeIndexing, domain.CodeRetrieval, domain.CodeGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
		s.logger.Error("encode response", "error", err)
	}
}
