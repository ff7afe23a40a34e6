// Package chat implements the conversational retrieval pipeline: session
// resolution, history-aware query reformulation, similarity search, and
// grounded answer generation.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bull/ragchat/internal/domain"
)

// NewSession is the sentinel session id that requests a fresh session.
// An empty id means the same thing.
const NewSession = "new"

// Options tune the pipeline.
type Options struct {
	// TopK is the number of passages retrieved per question.
	TopK int

	// DefaultModel answers questions that do not name a model.
	DefaultModel string

	// SearchTimeout bounds embedding plus similarity search. Zero
	// disables the deadline.
	SearchTimeout time.Duration

	// GenerateTimeout bounds each LLM call. Zero disables the deadline.
	GenerateTimeout time.Duration
}

// Result is one answered question.
type Result struct {
	Answer    string
	SessionID string
	Model     string
}

// Pipeline answers questions against the indexed corpus. Each call is one
// turn: resolve the session, reformulate against its history, retrieve,
// generate, persist.
type Pipeline struct {
	records   domain.RecordStore
	index     domain.VectorIndex
	embedder  domain.Embedder
	generator domain.Generator
	sink      domain.EventSink
	logger    *slog.Logger
	opts      Options

	newSessionID func() string
}

// NewPipeline wires a Pipeline. Zero Options fields get conservative
// defaults.
func NewPipeline(
	records domain.RecordStore,
	index domain.VectorIndex,
	embedder domain.Embedder,
	generator domain.Generator,
	sink domain.EventSink,
	logger *slog.Logger,
	opts Options,
) *Pipeline {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	return &Pipeline{
		records:      records,
		index:        index,
		embedder:     embedder,
		generator:    generator,
		sink:         sink,
		logger:       logger,
		opts:         opts,
		newSessionID: uuid.NewString,
	}
}

// Answer runs one conversational turn. A sessionID of "" or "new" mints a
// fresh session; any other value continues that session's history. The
// model argument overrides the default when non-empty.
//
// The turn is persisted only after a successful answer. If persisting
// fails the answer is still returned and the degradation is reported
// through the event sink.
func (p *Pipeline) Answer(ctx context.Context, sessionID, question, model string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrValidation)
	}
	if model == "" {
		model = p.opts.DefaultModel
	}

	fresh := sessionID == "" || sessionID == NewSession
	if fresh {
		sessionID = p.newSessionID()
	}

	var history []domain.ChatTurn
	if !fresh {
		var err error
		history, err = p.records.GetTurns(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("%w: load history: %v", domain.ErrRetrieval, err)
		}
	}

	// With no prior turns there is nothing to disambiguate, so the
	// reformulation call is skipped.
	query := question
	if len(history) > 0 {
		genCtx, cancel := p.withTimeout(ctx, p.opts.GenerateTimeout)
		reformulated, err := p.generator.Reformulate(genCtx, question, history)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: reformulate query: %v", domain.ErrRetrieval, err)
		}
		query = reformulated
	}

	passages, err := p.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := p.withTimeout(ctx, p.opts.GenerateTimeout)
	answer, err := p.generator.Answer(genCtx, model, question, history, passages)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	turn := &domain.ChatTurn{
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		Model:     model,
	}
	if err := p.records.AppendTurn(ctx, turn); err != nil {
		p.sink.Emit(ctx, domain.Event{
			Name:     domain.EventTurnLogFailed,
			Severity: domain.SeverityWarning,
			Err:      err,
			Fields:   map[string]any{"session_id": sessionID},
		})
	}

	p.logger.Info("turn answered", "session_id", sessionID, "model", model, "passages", len(passages))
	return &Result{Answer: answer, SessionID: sessionID, Model: model}, nil
}

// retrieve embeds the query and returns the top-k passage texts by
// similarity.
func (p *Pipeline) retrieve(ctx context.Context, query string) ([]string, error) {
	searchCtx, cancel := p.withTimeout(ctx, p.opts.SearchTimeout)
	defer cancel()

	vectors, err := p.embedder.Embed(searchCtx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrRetrieval, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for one query", domain.ErrRetrieval, len(vectors))
	}

	scored, err := p.index.Search(searchCtx, vectors[0], p.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search: %v", domain.ErrRetrieval, err)
	}

	passages := make([]string, len(scored))
	for i, s := range scored {
		passages[i] = s.Text
	}
	return passages, nil
}

func (p *Pipeline) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
