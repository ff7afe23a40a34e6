package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/ragchat/internal/chat"
	"github.com/bull/ragchat/internal/domain"
)

type fakeDocs struct {
	docs      []domain.Document
	ingestErr error
	removeErr error
}

func (f *fakeDocs) Ingest(_ context.Context, filename string, content []byte) (*domain.Document, error) {
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	doc := domain.Document{ID: int64(len(f.docs) + 1), Filename: filename, UploadedAt: time.Now().UTC()}
	f.docs = append(f.docs, doc)
	return &doc, nil
}

func (f *fakeDocs) Remove(_ context.Context, docID int64) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	for i, d := range f.docs {
		if d.ID == docID {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: document %d", domain.ErrNotFound, docID)
}

func (f *fakeDocs) List(context.Context) ([]domain.Document, error) {
	return f.docs, nil
}

type fakeChat struct {
	err error
}

func (f *fakeChat) Answer(_ context.Context, sessionID, question, model string) (*chat.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrValidation)
	}
	if sessionID == "" || sessionID == chat.NewSession {
		sessionID = "minted-session"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &chat.Result{Answer: "an answer", SessionID: sessionID, Model: model}, nil
}

func newTestServer(docs *fakeDocs, chats *fakeChat, checks map[string]func(context.Context) error) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(docs, chats, logger, 1<<20, checks)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestChatEndpoint(t *testing.T) {
	srv := newTestServer(&fakeDocs{}, &fakeChat{}, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/chat",
		chatRequest{Question: "What is a raft?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "an answer", resp.Answer)
	assert.Equal(t, "minted-session", resp.SessionID)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
}

func TestChatSessionPassthrough(t *testing.T) {
	srv := newTestServer(&fakeDocs{}, &fakeChat{}, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/chat",
		chatRequest{Question: "follow up?", SessionID: "s-123", Model: "gpt-4o"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s-123", resp.SessionID)
	assert.Equal(t, "gpt-4o", resp.Model)
}

func TestChatEmptyQuestion(t *testing.T) {
	srv := newTestServer(&fakeDocs{}, &fakeChat{}, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/chat", chatRequest{Question: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.CodeValidation, decodeError(t, rec))
}

func TestChatInvalidJSON(t *testing.T) {
	srv := newTestServer(&fakeDocs{}, &fakeChat{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatUpstreamFailureMapsTo502(t *testing.T) {
	chats := &fakeChat{err: fmt.Errorf("%w: model unavailable", domain.ErrGeneration)}
	srv := newTestServer(&fakeDocs{}, chats, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/chat", chatRequest{Question: "q?"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, domain.CodeGeneration, decodeError(t, rec))
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	docs := &fakeDocs{}
	srv := newTestServer(docs, &fakeChat{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "notes.txt", []byte("hello world")))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp documentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "notes.txt", resp.Filename)
	assert.NotZero(t, resp.ID)
	require.Len(t, docs.docs, 1)
}

func TestUploadMissingFileField(t *testing.T) {
	srv := newTestServer(&fakeDocs{}, &fakeChat{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.CodeValidation, decodeError(t, rec))
}

func TestUploadUnsupportedType(t *testing.T) {
	docs := &fakeDocs{ingestErr: fmt.Errorf("%w: unsupported file type", domain.ErrValidation)}
	srv := newTestServer(docs, &fakeChat{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "image.png", []byte{1, 2, 3}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadExtractionFailure(t *testing.T) {
	docs := &fakeDocs{ingestErr: fmt.Errorf("%w: corrupt pdf", domain.ErrExtraction)}
	srv := newTestServer(docs, &fakeChat{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "broken.pdf", []byte("junk")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, domain.CodeExtraction, decodeError(t, rec))
}

func TestListDocuments(t *testing.T) {
	docs := &fakeDocs{docs: []domain.Document{
		{ID: 2, Filename: "b.txt", UploadedAt: time.Now().UTC()},
		{ID: 1, Filename: "a.txt", UploadedAt: time.Now().UTC()},
	}}
	srv := newTestServer(docs, &fakeChat{}, nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/documents/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Documents []documentResponse `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, int64(2), resp.Documents[0].ID)
}

func TestListDocumentsEmpty(t *testing.T) {
	srv := newTestServer(&fakeDocs{}, &fakeChat{}, nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/documents/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"documents":[]`, "empty corpus is an empty list, not null")
}

func TestDeleteDocument(t *testing.T) {
	docs := &fakeDocs{docs: []domain.Document{{ID: 7, Filename: "a.txt"}}}
	srv := newTestServer(docs, &fakeChat{}, nil)

	rec := doJSON(t, srv.Handler(), http.MethodDelete, "/api/v1/documents/7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, docs.docs)
}

func TestDeleteDocumentNotFound(t *testing.T) {
	srv := newTestServer(&fakeDocs{}, &fakeChat{}, nil)

	rec := doJSON(t, srv.Handler(), http.MethodDelete, "/api/v1/documents/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.CodeNotFound, decodeError(t, rec))
}

func TestDeleteDocumentBadID(t *testing.T) {
	srv := newTestServer(&fakeDocs{}, &fakeChat{}, nil)

	rec := doJSON(t, srv.Handler(), http.MethodDelete, "/api/v1/documents/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteConsistencyFailureMapsTo500(t *testing.T) {
	docs := &fakeDocs{removeErr: fmt.Errorf("%w: record stuck", domain.ErrConsistency)}
	srv := newTestServer(docs, &fakeChat{}, nil)

	rec := doJSON(t, srv.Handler(), http.MethodDelete, "/api/v1/documents/1", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, domain.CodeConsistency, decodeError(t, rec))
}

func TestHealth(t *testing.T) {
	checks := map[string]func(context.Context) error{
		"qdrant": func(context.Context) error { return nil },
	}
	srv := newTestServer(&fakeDocs{}, &fakeChat{}, checks)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHealthDegraded(t *testing.T) {
	checks := map[string]func(context.Context) error{
		"qdrant": func(context.Context) error { return errors.New("unreachable") },
	}
	srv := newTestServer(&fakeDocs{}, &fakeChat{}, checks)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}
