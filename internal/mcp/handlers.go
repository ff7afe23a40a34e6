package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/ragchat/internal/domain"
)

// makeAskHandler creates the ask_question tool handler.
func makeAskHandler(chats ChatService) func(
	context.Context, *mcp.CallToolRequest, AskQuestionInput,
) (*mcp.CallToolResult, AskQuestionOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskQuestionInput) (
		*mcp.CallToolResult, AskQuestionOutput, error,
	) {
		result, err := chats.Answer(ctx, input.SessionID, input.Question, input.Model)
		if err != nil {
			return nil, AskQuestionOutput{}, fmt.Errorf("%s: %w", domain.Code(err), err)
		}
		return nil, AskQuestionOutput{
			Answer:    result.Answer,
			SessionID: result.SessionID,
			Model:     result.Model,
		}, nil
	}
}

// makeListHandler creates the list_documents tool handler.
func makeListHandler(docs DocumentService) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		list, err := docs.List(ctx)
		if err != nil {
			return nil, ListDocumentsOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}

		out := make([]DocumentInfo, 0, len(list))
		for _, d := range list {
			out = append(out, DocumentInfo{ID: d.ID, Filename: d.Filename, UploadedAt: d.UploadedAt})
		}
		return nil, ListDocumentsOutput{Documents: out, Count: len(out)}, nil
	}
}

// makeRemoveHandler creates the remove_document tool handler. An unknown
// id is reported in the output rather than as a tool error so clients can
// treat removal as idempotent.
func makeRemoveHandler(docs DocumentService) func(
	context.Context, *mcp.CallToolRequest, RemoveDocumentInput,
) (*mcp.CallToolResult, RemoveDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RemoveDocumentInput) (
		*mcp.CallToolResult, RemoveDocumentOutput, error,
	) {
		if err := docs.Remove(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, RemoveDocumentOutput{Removed: false, ID: input.ID}, nil
			}
			return nil, RemoveDocumentOutput{}, fmt.Errorf("%s: %w", domain.Code(err), err)
		}
		return nil, RemoveDocumentOutput{Removed: true, ID: input.ID}, nil
	}
}
