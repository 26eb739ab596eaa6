package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ideascout/internal/domain"
	domchat "github.com/kailas-cloud/ideascout/internal/domain/chat"
	"github.com/kailas-cloud/ideascout/internal/domain/event"
	"github.com/kailas-cloud/ideascout/internal/domain/query"
	"github.com/kailas-cloud/ideascout/internal/domain/source"
	logpkg "github.com/kailas-cloud/ideascout/internal/logger"
	chatuc "github.com/kailas-cloud/ideascout/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/ideascout/internal/usecase/health"
	streamuc "github.com/kailas-cloud/ideascout/internal/usecase/stream"
)

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error codes returned before a stream starts or by JSON endpoints.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnknownSource          ErrorCode = "unknown_source"
	CodeUnsupportedFilter      ErrorCode = "unsupported_filter"
	CodeUnknownChatMode        ErrorCode = "unknown_chat_mode"
	CodeChatProviderError      ErrorCode = "chat_provider_error"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeStreamingUnsupported   ErrorCode = "streaming_unsupported"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRunner streams one search.
type SearchRunner interface {
	Run(ctx context.Context, q query.Query, emit streamuc.EmitFunc) error
}

// ChatReplier answers one chat turn.
type ChatReplier interface {
	Reply(ctx context.Context, req *chatuc.Request) (chatuc.Response, error)
}

// HealthReporter reports component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search stream, chat and health endpoints.
type Server struct {
	search        SearchRunner
	chat          ChatReplier
	health        HealthReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search SearchRunner, chat ChatReplier, health HealthReporter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search: search,
		chat:   chat,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler(domain.ErrInvalidQuery, CodeValidationFailed),
		validationHandler(domain.ErrUnknownSource, CodeUnknownSource),
		validationHandler(domain.ErrUnsupportedFilter, CodeUnsupportedFilter),
		validationHandler(domain.ErrUnknownChatMode, CodeUnknownChatMode),
		sentinelHandler(domain.ErrChatProviderError, http.StatusBadGateway, CodeChatProviderError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
	return s
}

// categoryParams maps the per-source category query parameters to sources.
var categoryParams = []struct {
	name string
	src  source.Source
}{
	{"arxiv_categories", source.Arxiv},
	{"reddit_categories", source.Reddit},
	{"product_hunt_categories", source.ProductHunt},
	{"ycombinator_categories", source.YCombinator},
}

// SearchStream handles GET /search.
func (s *Server) SearchStream(w http.ResponseWriter, r *http.Request) {
	q, err := searchQueryFromParams(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, CodeStreamingUnsupported, "streaming unsupported")
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(ev event.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", ev.Type(), err)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return fmt.Errorf("write %s event: %w", ev.Type(), err)
		}
		flusher.Flush()
		return nil
	}

	if err := s.search.Run(r.Context(), q, emit); err != nil {
		logpkg.FromContext(r.Context()).Info("search stream ended early", zap.Error(err))
	}
}

func searchQueryFromParams(params url.Values) (query.Query, error) {
	var (
		text       string
		sources    []string
		recency    int
		numResults int
	)
	if err := runtime.BindQueryParameter("form", true, true, "query", params, &text); err != nil {
		return query.Query{}, invalidParam(err)
	}
	if err := runtime.BindQueryParameter("form", false, true, "valid_sources", params, &sources); err != nil {
		return query.Query{}, invalidParam(err)
	}
	if err := runtime.BindQueryParameter("form", true, true, "recency", params, &recency); err != nil {
		return query.Query{}, invalidParam(err)
	}
	if err := runtime.BindQueryParameter("form", true, true, "num_results", params, &numResults); err != nil {
		return query.Query{}, invalidParam(err)
	}

	srcs, err := parseSources(sources)
	if err != nil {
		return query.Query{}, err
	}

	categories := make(map[source.Source][]string)
	for _, p := range categoryParams {
		var vals []string
		if err := runtime.BindQueryParameter("form", false, false, p.name, params, &vals); err != nil {
			return query.Query{}, invalidParam(err)
		}
		if len(vals) > 0 {
			categories[p.src] = vals
		}
	}

	return query.New(text, srcs, numResults, recency, categories)
}

func parseSources(names []string) ([]source.Source, error) {
	out := make([]source.Source, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		src, err := source.Parse(n)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func invalidParam(err error) error {
	return fmt.Errorf("%s: %w", err.Error(), domain.ErrInvalidQuery)
}

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	IdeaID          string     `json:"idea_id"`
	Prompt          string     `json:"prompt"`
	IdeaContent     string     `json:"idea_content"`
	SelectedSection string     `json:"selected_section"`
	IdeaName        string     `json:"idea_name"`
	ChatContext     string     `json:"chat_context"`
	ChatMode        string     `json:"chat_mode"`
	EditingActive   bool       `json:"editing_active"`
	SectionContent  string     `json:"section_content"`
	ValidSources    SourceList `json:"valid_sources"`
	Recency         int        `json:"recency"`
	NumResults      int        `json:"num_results"`
}

// ChatResponse is the POST /chat answer.
type ChatResponse struct {
	Message        string           `json:"message"`
	UpdatedContent *string          `json:"updated_content,omitempty"`
	Items          []map[string]any `json:"items,omitempty"`
}

// SourceList accepts either a JSON array or a comma-separated string.
type SourceList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *SourceList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var csv string
	if err := json.Unmarshal(data, &csv); err != nil {
		return fmt.Errorf("valid_sources must be a list or a comma-separated string: %w", err)
	}
	*l = query.SplitCSV(csv)
	return nil
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return
	}

	req, err := chatRequestFromBody(&body)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.chat.Reply(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Message:        resp.Message,
		UpdatedContent: resp.UpdatedContent,
		Items:          resp.Items,
	})
}

func chatRequestFromBody(body *ChatRequest) (*chatuc.Request, error) {
	if body.Prompt == "" {
		return nil, fmt.Errorf("prompt is required: %w", domain.ErrInvalidQuery)
	}
	mode, err := domchat.ParseMode(body.ChatMode)
	if err != nil {
		return nil, err
	}

	req := &chatuc.Request{
		Mode: mode,
		Turn: domchat.Turn{
			Context:        body.ChatContext,
			IdeaName:       body.IdeaName,
			IdeaContent:    body.IdeaContent,
			Section:        body.SelectedSection,
			SectionContent: body.SectionContent,
			Prompt:         body.Prompt,
			EditingActive:  body.EditingActive,
		},
	}
	if mode != domchat.AISearch {
		return req, nil
	}

	srcs, err := parseSources(body.ValidSources)
	if err != nil {
		return nil, err
	}
	limit := body.NumResults
	if limit == 0 {
		limit = chatuc.SearchResultLimit
	}
	q, err := query.New(body.Prompt, srcs, limit, body.Recency, nil)
	if err != nil {
		return nil, err
	}
	req.Search = q
	return req, nil
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrChatProviderError,
		domain.ErrEmbeddingProviderError,
		domain.ErrEnrichmentFailed,
		domain.ErrLiteratureAPI,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// validationHandler answers 400 with the full message. Validation errors are
// built from request input only.
func validationHandler(sentinel error, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, _ string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusBadRequest, code, err.Error())
		return true
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
