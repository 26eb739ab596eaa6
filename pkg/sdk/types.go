package sdk

import "fmt"

// SearchParams are the GET /search query parameters.
type SearchParams struct {
	Query      string
	Sources    []string
	Recency    int // days, 0 = unbounded
	NumResults int
	// Categories is keyed by source name: arxiv, reddit, product_hunt, y_combinator.
	Categories map[string][]string
}

// Event is one server-sent progress event.
type Event struct {
	Type    string           `json:"type"`
	Message string           `json:"message,omitempty"`
	Items   []map[string]any `json:"items,omitempty"`
}

// Event types.
const (
	EventStatus  = "status"
	EventResults = "results"
	EventError   = "error"
)

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventResults || e.Type == EventError
}

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	IdeaID          string   `json:"idea_id,omitempty"`
	Prompt          string   `json:"prompt"`
	IdeaContent     string   `json:"idea_content,omitempty"`
	SelectedSection string   `json:"selected_section,omitempty"`
	IdeaName        string   `json:"idea_name,omitempty"`
	ChatContext     string   `json:"chat_context,omitempty"`
	ChatMode        string   `json:"chat_mode,omitempty"`
	EditingActive   bool     `json:"editing_active,omitempty"`
	SectionContent  string   `json:"section_content,omitempty"`
	ValidSources    []string `json:"valid_sources,omitempty"`
	Recency         int      `json:"recency,omitempty"`
	NumResults      int      `json:"num_results,omitempty"`
}

// Chat modes.
const (
	ChatModeNormal   = "normal"
	ChatModeAISearch = "ai_search"
)

// ChatResponse is the POST /chat answer.
type ChatResponse struct {
	Message        string           `json:"message"`
	UpdatedContent *string          `json:"updated_content,omitempty"`
	Items          []map[string]any `json:"items,omitempty"`
}

// Health is the GET /health answer.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// APIError is a non-2xx server answer.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ideascout: %d %s: %s", e.StatusCode, e.Code, e.Message)
}
