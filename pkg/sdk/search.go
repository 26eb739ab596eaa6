package sdk

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const maxEventSize = 4 << 20

// ErrStreamClosed is returned when the server closes the stream before a
// terminal event.
var ErrStreamClosed = errors.New("ideascout: stream closed before a terminal event")

func (p *SearchParams) values() url.Values {
	q := url.Values{}
	q.Set("query", p.Query)
	q.Set("valid_sources", strings.Join(p.Sources, ","))
	q.Set("recency", strconv.Itoa(p.Recency))
	q.Set("num_results", strconv.Itoa(p.NumResults))
	for src, cats := range p.Categories {
		if len(cats) > 0 {
			q.Set(src+"_categories", strings.Join(cats, ","))
		}
	}
	return q
}

// Search opens the progress stream and calls fn for every event until a
// terminal one arrives. An error returned by fn aborts the stream.
func (c *Client) Search(ctx context.Context, p *SearchParams, fn func(Event) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/search", p.values(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64<<10), maxEventSize)

	var data strings.Builder
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if data.Len() == 0 {
				continue
			}
			var ev Event
			if err := json.Unmarshal([]byte(data.String()), &ev); err != nil {
				return fmt.Errorf("ideascout: decode event: %w", err)
			}
			data.Reset()
			if err := fn(ev); err != nil {
				return err
			}
			if ev.Terminal() {
				return nil
			}
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("ideascout: read stream: %w", err)
	}
	return ErrStreamClosed
}

// Collect runs a search and returns the delivered items. A terminal error
// event is returned as an error.
func (c *Client) Collect(ctx context.Context, p *SearchParams) ([]map[string]any, error) {
	var items []map[string]any
	var failure string
	err := c.Search(ctx, p, func(ev Event) error {
		switch ev.Type {
		case EventResults:
			items = ev.Items
		case EventError:
			failure = ev.Message
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if failure != "" {
		return nil, fmt.Errorf("ideascout: search failed: %s", failure)
	}
	return items, nil
}
