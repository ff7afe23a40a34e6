// Package records provides the SQLite record store for documents and chat
// turns. It owns document identity and per-session history and knows
// nothing about embeddings.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bull/ragchat/internal/domain"
)

// Store implements domain.RecordStore on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		uploaded_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		model TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session ON chat_turns(session_id, created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateDocument inserts a document record and returns it with its
// assigned id.
func (s *Store) CreateDocument(ctx context.Context, filename string) (*domain.Document, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (filename, uploaded_at) VALUES (?, ?)`,
		filename, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("document id: %w", err)
	}
	return &domain.Document{ID: id, Filename: filename, UploadedAt: now}, nil
}

// GetDocument returns the document with the given id, or domain.ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	var doc domain.Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, uploaded_at FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Filename, &doc.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	return &doc, nil
}

// DeleteDocument removes a document record. Returns false when no record
// with the given id existed.
func (s *Store) DeleteDocument(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListDocuments returns all document records, newest first. The order is
// stable across calls absent mutation.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, uploaded_at FROM documents ORDER BY uploaded_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// AppendTurn persists one chat turn. Turns are append-only; CreatedAt is
// set here when the caller left it zero.
func (s *Store) AppendTurn(ctx context.Context, turn *domain.ChatTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_turns (session_id, question, answer, model, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		turn.SessionID, turn.Question, turn.Answer, turn.Model, turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	turn.ID, _ = res.LastInsertId()
	return nil
}

// GetTurns returns the session's turns ordered by creation time ascending.
// The (created_at, id) order makes replay stable even when two turns share
// a timestamp.
func (s *Store) GetTurns(ctx context.Context, sessionID string) ([]domain.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, question, answer, model, created_at
		 FROM chat_turns WHERE session_id = ? ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ChatTurn
	for rows.Next() {
		var t domain.ChatTurn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Question, &t.Answer, &t.Model, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
