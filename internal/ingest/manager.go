// Package ingest coordinates the document lifecycle across the record
// store and the vector index: upload, indexing, and removal. It owns the
// cross-store consistency rules.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/ragchat/internal/domain"
)

// Extractor converts uploaded bytes to plain text.
type Extractor interface {
	Allowed(filename string) bool
	Extract(filename string, content []byte) (string, error)
}

// Splitter splits extracted text into chunk texts.
type Splitter interface {
	Split(filename, text string) []string
}

// Manager implements the ingest, removal, and listing operations. Writes
// are ordered so that the relational record is the source of truth: a
// record without vectors is a recoverable orphan, vectors without a record
// would be unreachable garbage.
type Manager struct {
	records   domain.RecordStore
	index     domain.VectorIndex
	embedder  domain.Embedder
	extractor Extractor
	splitter  Splitter
	sink      domain.EventSink
	logger    *slog.Logger

	embedTimeout time.Duration
}

// NewManager wires a Manager. A zero embedTimeout disables the deadline on
// the embedding call.
func NewManager(
	records domain.RecordStore,
	index domain.VectorIndex,
	embedder domain.Embedder,
	extractor Extractor,
	splitter Splitter,
	sink domain.EventSink,
	logger *slog.Logger,
	embedTimeout time.Duration,
) *Manager {
	return &Manager{
		records:      records,
		index:        index,
		embedder:     embedder,
		extractor:    extractor,
		splitter:     splitter,
		sink:         sink,
		logger:       logger,
		embedTimeout: embedTimeout,
	}
}

// Ingest validates, extracts, chunks, embeds, and indexes one uploaded
// file. The document record is created before any vector write; if a later
// stage fails, the record is deleted again so a failed ingest leaves no
// trace in either store.
func (m *Manager) Ingest(ctx context.Context, filename string, content []byte) (*domain.Document, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: empty filename", domain.ErrValidation)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrValidation)
	}
	if !m.extractor.Allowed(filename) {
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrValidation, filename)
	}

	doc, err := m.records.CreateDocument(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}
	docID := doc.ID
	m.logger.Info("ingest started", "document_id", docID, "filename", filename, "bytes", len(content))

	text, err := m.extractor.Extract(filename, content)
	if err != nil {
		return nil, m.abort(ctx, docID, fmt.Errorf("%w: %v", domain.ErrExtraction, err))
	}

	chunkTexts := m.splitter.Split(filename, text)
	if len(chunkTexts) == 0 {
		return nil, m.abort(ctx, docID, fmt.Errorf("%w: no extractable text", domain.ErrExtraction))
	}

	embedCtx := ctx
	if m.embedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, m.embedTimeout)
		defer cancel()
	}
	vectors, err := m.embedder.Embed(embedCtx, chunkTexts)
	if err != nil {
		return nil, m.abort(ctx, docID, fmt.Errorf("%w: embed chunks: %v", domain.ErrIndexing, err))
	}
	if len(vectors) != len(chunkTexts) {
		return nil, m.abort(ctx, docID, fmt.Errorf("%w: embedder returned %d vectors for %d chunks",
			domain.ErrIndexing, len(vectors), len(chunkTexts)))
	}

	chunks := make([]domain.Chunk, len(chunkTexts))
	for i, txt := range chunkTexts {
		chunks[i] = domain.Chunk{
			DocumentID: docID,
			Index:      i,
			Text:       txt,
			Embedding:  vectors[i],
		}
	}
	if err := m.index.Upsert(ctx, docID, chunks); err != nil {
		return nil, m.abort(ctx, docID, fmt.Errorf("%w: upsert chunks: %v", domain.ErrIndexing, err))
	}

	m.logger.Info("ingest complete", "document_id", docID, "chunks", len(chunks))
	return doc, nil
}

// abort rolls back the document record after a failed ingest stage. It
// runs even when the caller's context is already cancelled. A rollback
// failure supersedes the original error: the stores now disagree.
func (m *Manager) abort(ctx context.Context, docID int64, cause error) error {
	cleanupCtx := context.WithoutCancel(ctx)
	if _, err := m.records.DeleteDocument(cleanupCtx, docID); err != nil {
		m.sink.Emit(cleanupCtx, domain.Event{
			Name:     domain.EventCompensationFailed,
			Severity: domain.SeverityCritical,
			Err:      err,
			Fields:   map[string]any{"document_id": docID, "cause": cause.Error()},
		})
		return fmt.Errorf("%w: rollback of document %d failed after %v: %v",
			domain.ErrConsistency, docID, cause, err)
	}
	m.logger.Warn("ingest aborted", "document_id", docID, "error", cause)
	return cause
}

// Remove deletes a document from both stores, vectors first. A record that
// survives a vector-delete failure stays visible and retryable; a record
// deleted after its vectors cannot be resurrected, so that order is never
// reversed.
func (m *Manager) Remove(ctx context.Context, docID int64) error {
	if _, err := m.records.GetDocument(ctx, docID); err != nil {
		return err
	}

	count, err := m.index.DeleteByDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("%w: delete vectors for document %d: %v", domain.ErrIndexing, docID, err)
	}
	if count == 0 {
		// The record existed with nothing in the index. Removal still
		// succeeds, but the inconsistency is worth knowing about.
		m.sink.Emit(ctx, domain.Event{
			Name:     domain.EventOrphanedRecord,
			Severity: domain.SeverityWarning,
			Fields:   map[string]any{"document_id": docID},
		})
	}

	if _, err := m.records.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("%w: vectors for document %d deleted but record removal failed: %v",
			domain.ErrConsistency, docID, err)
	}
	m.logger.Info("document removed", "document_id", docID, "vectors_deleted", count)
	return nil
}

// List returns all document records, newest first.
func (m *Manager) List(ctx context.Context) ([]domain.Document, error) {
	return m.records.ListDocuments(ctx)
}
