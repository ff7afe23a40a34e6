// Package mcp exposes the document corpus and chat pipeline as MCP tools.
package mcp

import "time"

// AskQuestionInput defines the input parameters for the ask_question tool.
type AskQuestionInput struct {
	// Question is the natural-language question to answer from the corpus.
	Question string `json:"question" jsonschema:"required,description=The question to answer from the indexed documents"`
	// SessionID continues an existing conversation. Omit or pass "new" to start one.
	SessionID string `json:"session_id,omitempty" jsonschema:"description=Session id from a previous call to continue that conversation"`
	// Model overrides the default chat model.
	Model string `json:"model,omitempty" jsonschema:"description=Chat model override (e.g. gpt-4o)"`
}

// AskQuestionOutput contains the grounded answer.
type AskQuestionOutput struct {
	// Answer is generated only from indexed document passages.
	Answer string `json:"answer"`
	// SessionID identifies the conversation; pass it back for follow-ups.
	SessionID string `json:"session_id"`
	// Model is the model that produced the answer.
	Model string `json:"model"`
}

// ListDocumentsInput defines the input parameters for the list_documents
// tool. The tool takes no parameters.
type ListDocumentsInput struct{}

// DocumentInfo is one indexed document.
type DocumentInfo struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ListDocumentsOutput contains all indexed documents.
type ListDocumentsOutput struct {
	Documents []DocumentInfo `json:"documents"`
	Count     int            `json:"count"`
}

// RemoveDocumentInput defines the input parameters for the remove_document
// tool.
type RemoveDocumentInput struct {
	// ID is the document id as returned by list_documents.
	ID int64 `json:"id" jsonschema:"required,description=The id of the document to remove"`
}

// RemoveDocumentOutput confirms the removal.
type RemoveDocumentOutput struct {
	Removed bool  `json:"removed"`
	ID      int64 `json:"id"`
}
