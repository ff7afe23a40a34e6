// Package domain defines the core types, collaborator contracts, and error
// taxonomy shared by the document lifecycle and conversational pipeline.
package domain

import (
	"context"
	"time"
)

// Document is a registered upload. Records are created on successful ingest
// and never mutated afterwards.
type Document struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ChatTurn is one question/answer exchange within a session. Turns are
// append-only and ordered by (CreatedAt, ID) ascending.
type ChatTurn struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is a contiguous span of a document's extracted text with its
// embedding vector. Chunks live only in the vector index, keyed by the
// owning document id.
type Chunk struct {
	DocumentID int64
	Index      int
	Text       string
	Embedding  []float32
}

// ScoredChunk is a search hit: chunk text plus similarity score.
type ScoredChunk struct {
	DocumentID int64
	Text       string
	Score      float32
}

// RecordStore is the durable mapping of documents and per-session chat
// turns. It has no knowledge of embeddings.
type RecordStore interface {
	CreateDocument(ctx context.Context, filename string) (*Document, error)
	GetDocument(ctx context.Context, id int64) (*Document, error)
	DeleteDocument(ctx context.Context, id int64) (bool, error)
	ListDocuments(ctx context.Context) ([]Document, error)
	AppendTurn(ctx context.Context, turn *ChatTurn) error
	GetTurns(ctx context.Context, sessionID string) ([]ChatTurn, error)
}

// VectorIndex stores embedded chunks keyed by document id and supports
// similarity search and per-document deletion.
type VectorIndex interface {
	Upsert(ctx context.Context, documentID int64, chunks []Chunk) error
	DeleteByDocument(ctx context.Context, documentID int64) (uint64, error)
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredChunk, error)
}

// Embedder converts texts into vector representations.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator is the opaque LLM collaborator. Reformulate rewrites a
// context-dependent question into a standalone retrieval query; Answer
// produces the grounded final answer using the given model.
type Generator interface {
	Reformulate(ctx context.Context, question string, history []ChatTurn) (string, error)
	Answer(ctx context.Context, model, question string, history []ChatTurn, passages []string) (string, error)
}
