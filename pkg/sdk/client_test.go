package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/", opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func writeSSE(w http.ResponseWriter, events ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, ev := range events {
		fmt.Fprintf(w, "data: %s\n\n", ev)
		w.(http.Flusher).Flush()
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080/x", "::"} {
		if _, err := NewClient(raw); err == nil {
			t.Errorf("NewClient(%q): expected error", raw)
		}
	}
}

func TestSearch_StreamsEvents(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("query") != "sleep tracker" || q.Get("valid_sources") != "reddit,arxiv" ||
			q.Get("num_results") != "5" || q.Get("recency") != "30" {
			t.Errorf("query = %v", q)
		}
		if q.Get("arxiv_categories") != "cs.AI,cs.HC" {
			t.Errorf("arxiv_categories = %q", q.Get("arxiv_categories"))
		}
		if r.Header.Get("Authorization") != "Bearer k1" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		writeSSE(w,
			`{"type":"status","message":"Analyzing your idea..."}`,
			`{"type":"results","items":[{"title":"A"}]}`,
			`{"type":"status","message":"ignored"}`,
		)
	}, WithAPIKey("k1"))

	var got []Event
	err := c.Search(context.Background(), &SearchParams{
		Query:      "sleep tracker",
		Sources:    []string{"reddit", "arxiv"},
		Recency:    30,
		NumResults: 5,
		Categories: map[string][]string{"arxiv": {"cs.AI", "cs.HC"}},
	}, func(ev Event) error {
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2 (stop after terminal)", len(got))
	}
	if got[0].Type != EventStatus || got[0].Message != "Analyzing your idea..." {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Type != EventResults || len(got[1].Items) != 1 || got[1].Items[0]["title"] != "A" {
		t.Errorf("last = %+v", got[1])
	}
}

func TestSearch_CallbackError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeSSE(w, `{"type":"status","message":"x"}`, `{"type":"results","items":[]}`)
	})

	stop := errors.New("stop")
	calls := 0
	err := c.Search(context.Background(), &SearchParams{Query: "x", Sources: []string{"reddit"}, NumResults: 1},
		func(Event) error {
			calls++
			return stop
		})
	if !errors.Is(err, stop) {
		t.Errorf("err = %v, want callback error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSearch_StreamClosedEarly(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeSSE(w, `{"type":"status","message":"x"}`)
	})
	err := c.Search(context.Background(), &SearchParams{Query: "x", Sources: []string{"reddit"}, NumResults: 1},
		func(Event) error { return nil })
	if !errors.Is(err, ErrStreamClosed) {
		t.Errorf("err = %v, want ErrStreamClosed", err)
	}
}

func TestSearch_ValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"unknown_source","message":"\"myspace\": unknown source"}`))
	})

	err := c.Search(context.Background(), &SearchParams{Query: "x", Sources: []string{"myspace"}, NumResults: 1},
		func(Event) error {
			t.Error("no events expected")
			return nil
		})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "unknown_source" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestCollect(t *testing.T) {
	t.Run("results", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeSSE(w, `{"type":"results","items":[{"title":"A"},{"title":"B"}]}`)
		})
		items, err := c.Collect(context.Background(), &SearchParams{Query: "x", Sources: []string{"reddit"}, NumResults: 2})
		if err != nil {
			t.Fatalf("Collect: %v", err)
		}
		if len(items) != 2 {
			t.Errorf("items = %d, want 2", len(items))
		}
	})

	t.Run("error event", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeSSE(w, `{"type":"error","message":"embedding provider error"}`)
		})
		if _, err := c.Collect(context.Background(), &SearchParams{Query: "x", Sources: []string{"reddit"}, NumResults: 2}); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Prompt != "refine" || body.ChatMode != ChatModeNormal || !body.EditingActive {
			t.Errorf("body = %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"done","updated_content":"new text"}`))
	})

	resp, err := c.Chat(context.Background(), &ChatRequest{
		Prompt: "refine", ChatMode: ChatModeNormal, EditingActive: true,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message != "done" || resp.UpdatedContent == nil || *resp.UpdatedContent != "new text" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestChat_EmptyPrompt(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("request must not be sent")
	})
	if _, err := c.Chat(context.Background(), &ChatRequest{Prompt: "  "}); err == nil {
		t.Fatal("expected error")
	}
}

func TestChat_ProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"code":"chat_provider_error","message":"chat provider error"}`))
	})
	_, err := c.Chat(context.Background(), &ChatRequest{Prompt: "hi"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("err = %v", err)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"ok", http.StatusOK, `{"status":"ok","checks":{"database":"ok"}}`, "ok"},
		{"degraded", http.StatusServiceUnavailable, `{"status":"degraded","checks":{"database":"error"}}`, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			h, err := c.Health(context.Background())
			if err != nil {
				t.Fatalf("Health: %v", err)
			}
			if h.Status != tt.want {
				t.Errorf("status = %q, want %q", h.Status, tt.want)
			}
		})
	}
}

func TestHealth_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("nope"))
	})
	_, err := c.Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "nope" {
		t.Errorf("err = %v", err)
	}
}
