// Package chat orchestrates one conversation turn: authorize, persist the
// user's message, assemble the context window, call the completion provider,
// relay the reply, and persist it.
package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/zulandar/quire/internal/completion"
	"github.com/zulandar/quire/internal/extract"
	"github.com/zulandar/quire/internal/models"
	"github.com/zulandar/quire/internal/prompt"
)

// DefaultHistoryLimit is the number of prior messages included in the
// context window.
const DefaultHistoryLimit = 6

// ConversationStore is the slice of the store the orchestrator needs.
type ConversationStore interface {
	FindOwnedDocument(documentID, userID string) (*models.Document, error)
	Append(documentID, userID string, isUserMessage bool, text string) (*models.Message, error)
	RecentWindow(documentID string, limit int) ([]models.Message, error)
}

// Completer is the slice of the completion client the orchestrator needs.
type Completer interface {
	Complete(ctx context.Context, messages []completion.Message, opts completion.Options) (string, error)
	Stream(ctx context.Context, messages []completion.Message, opts completion.Options, onFragment func(string) error) (string, error)
}

// Orchestrator runs conversation turns. Construct once and share across
// requests; all state lives in the injected collaborators.
type Orchestrator struct {
	store        ConversationStore
	extractor    extract.Extractor
	fetcher      Fetcher
	completer    Completer
	options      completion.Options
	historyLimit int
}

// OrchestratorOpts holds parameters for creating an Orchestrator.
type OrchestratorOpts struct {
	Store        ConversationStore
	Extractor    extract.Extractor
	Fetcher      Fetcher
	Completer    Completer
	Options      completion.Options
	HistoryLimit int // defaults to DefaultHistoryLimit
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts OrchestratorOpts) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("chat: store is required")
	}
	if opts.Extractor == nil {
		return nil, fmt.Errorf("chat: extractor is required")
	}
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("chat: fetcher is required")
	}
	if opts.Completer == nil {
		return nil, fmt.Errorf("chat: completer is required")
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Orchestrator{
		store:        opts.Store,
		extractor:    opts.Extractor,
		fetcher:      opts.Fetcher,
		completer:    opts.Completer,
		options:      opts.Options,
		historyLimit: limit,
	}, nil
}

// TurnRequest is one inbound chat message.
type TurnRequest struct {
	UserID     string
	DocumentID string
	Message    string
	Stream     bool
}

// TurnResult is the outcome of a successful turn.
type TurnResult struct {
	Reply            string
	UserMessage      *models.Message
	AssistantMessage *models.Message // nil when the reply write failed
}

// Run executes one turn. In streaming mode each reply fragment is forwarded
// through onFragment as it arrives; the full reply is persisted at stream
// end either way. A failing onFragment stops forwarding but does not abort
// the upstream call — the reply is still accumulated and persisted.
func (o *Orchestrator) Run(ctx context.Context, req TurnRequest, onFragment func(string) error) (*TurnResult, error) {
	if req.Message == "" {
		return nil, fmt.Errorf("%w: message must not be empty", ErrInvalidInput)
	}
	if _, err := uuid.Parse(req.DocumentID); err != nil {
		return nil, fmt.Errorf("%w: malformed document ID %q", ErrInvalidInput, req.DocumentID)
	}

	doc, err := o.store.FindOwnedDocument(req.DocumentID, req.UserID)
	if err != nil {
		return nil, err
	}

	// The question is durably recorded before any completion work starts.
	userMsg, err := o.store.Append(doc.ID, req.UserID, true, req.Message)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	excerpt, err := o.excerpt(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	prior, err := o.priorMessages(doc.ID, userMsg.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	messages := prompt.Build(excerpt, prior, req.Message)

	// The upstream call and reply persistence outlive a client disconnect:
	// the answer is kept even if nobody is left to read it.
	callCtx := context.WithoutCancel(ctx)

	var reply string
	if req.Stream {
		reply, err = o.completer.Stream(callCtx, messages, o.options, dropAfterFailure(onFragment))
	} else {
		reply, err = o.completer.Complete(callCtx, messages, o.options)
	}
	if err != nil {
		return nil, err
	}

	result := &TurnResult{Reply: reply, UserMessage: userMsg}
	asstMsg, err := o.store.Append(doc.ID, req.UserID, false, reply)
	if err != nil {
		// The reply may already be on the wire; keep it and log the gap.
		log.Printf("chat: persist assistant message for document %s: %v", doc.ID, err)
		return result, nil
	}
	result.AssistantMessage = asstMsg
	return result, nil
}

// excerpt fetches the document bytes and extracts the bounded text context.
func (o *Orchestrator) excerpt(ctx context.Context, doc *models.Document) (string, error) {
	data, err := o.fetcher.Fetch(ctx, doc.SourceURL)
	if err != nil {
		return "", err
	}
	result, err := o.extractor.Extract(data)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// priorMessages returns up to historyLimit messages preceding the current
// turn, oldest first, excluding the just-persisted user message.
func (o *Orchestrator) priorMessages(documentID, currentID string) ([]models.Message, error) {
	window, err := o.store.RecentWindow(documentID, o.historyLimit+1)
	if err != nil {
		return nil, err
	}
	prior := make([]models.Message, 0, len(window))
	for _, msg := range window {
		if msg.ID != currentID {
			prior = append(prior, msg)
		}
	}
	if len(prior) > o.historyLimit {
		prior = prior[len(prior)-o.historyLimit:]
	}
	return prior, nil
}

// dropAfterFailure wraps a fragment sink so that a send failure (client
// disconnect) silences further forwarding without aborting the stream.
func dropAfterFailure(sink func(string) error) func(string) error {
	if sink == nil {
		return nil
	}
	dead := false
	return func(fragment string) error {
		if dead {
			return nil
		}
		if err := sink(fragment); err != nil {
			log.Printf("chat: stopping fragment forwarding: %v", err)
			dead = true
		}
		return nil
	}
}
