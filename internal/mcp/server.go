package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/ragchat/internal/chat"
	"github.com/bull/ragchat/internal/domain"
)

// DocumentService is the document surface the tools need.
type DocumentService interface {
	Remove(ctx context.Context, docID int64) error
	List(ctx context.Context) ([]domain.Document, error)
}

// ChatService answers questions.
type ChatService interface {
	Answer(ctx context.Context, sessionID, question, model string) (*chat.Result, error)
}

// Server wraps the MCP server with its dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Documents DocumentService
	Chat      ChatService
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "ragchat-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Ask a question answered only from the indexed document corpus. Returns a session id; pass it back to ask follow-up questions in context.",
	}, makeAskHandler(cfg.Chat))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all indexed documents with their ids and upload times.",
	}, makeListHandler(cfg.Documents))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_document",
		Description: "Remove a document and all of its indexed content by id.",
	}, makeRemoveHandler(cfg.Documents))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client
// disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance. Used by transport
// handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
