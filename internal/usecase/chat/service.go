package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/domain"
	"github.com/kailas-cloud/ideascout/internal/domain/chat"
	"github.com/kailas-cloud/ideascout/internal/domain/query"
	"github.com/kailas-cloud/ideascout/internal/usecase/search"
)

// SearchResultLimit is how many items an ai_search turn returns.
const SearchResultLimit = 3

// MsgSearchCompleted is the reply message of an ai_search turn.
const MsgSearchCompleted = "Search completed"

// Request is one chat call. Search is only used in ai_search mode.
type Request struct {
	Mode   chat.Mode
	Turn   chat.Turn
	Search query.Query
}

// Response is the chat answer. Items is set in ai_search mode only.
type Response struct {
	Message        string
	UpdatedContent *string
	Items          []map[string]any
}

type handler func(ctx context.Context, req *Request) (Response, error)

// Service dispatches chat turns by mode.
type Service struct {
	handlers  map[chat.Mode]handler
	responder Responder
	agg       Aggregator
	threshold float64
	logger    *zap.Logger
}

// New creates a chat service. ai_search is unavailable when agg is nil.
func New(responder Responder, agg Aggregator, threshold float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{responder: responder, agg: agg, threshold: threshold, logger: logger}
	s.handlers = map[chat.Mode]handler{
		chat.Normal: s.respond,
		chat.Agent:  s.respond,
	}
	if agg != nil {
		s.handlers[chat.AISearch] = s.search
	}
	return s
}

// Reply answers one turn.
func (s *Service) Reply(ctx context.Context, req *Request) (Response, error) {
	h, ok := s.handlers[req.Mode]
	if !ok {
		return Response{}, fmt.Errorf("%q: %w", req.Mode, domain.ErrUnknownChatMode)
	}
	return h(ctx, req)
}

func (s *Service) respond(ctx context.Context, req *Request) (Response, error) {
	reply, err := s.responder.Respond(ctx, req.Turn)
	if err != nil {
		return Response{}, fmt.Errorf("chat %s: %w", req.Mode, err)
	}
	return Response{Message: reply.Message, UpdatedContent: reply.UpdatedContent}, nil
}

// search runs the aggregation with the prompt as both the raw and the enriched query.
func (s *Service) search(ctx context.Context, req *Request) (Response, error) {
	items, err := s.agg.Aggregate(ctx, req.Search, req.Search.Text())
	if err != nil {
		return Response{}, fmt.Errorf("chat search: %w", err)
	}
	ranked := search.Rank(items, s.threshold, min(SearchResultLimit, req.Search.Limit()))
	s.logger.Debug("chat search completed",
		zap.Int("candidates", len(items)),
		zap.Int("results", len(ranked)),
	)
	return Response{Message: MsgSearchCompleted, Items: ranked}, nil
}
