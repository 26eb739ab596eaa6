// Package sdk is an HTTP client for a running ideascout server.
//
//	c, _ := sdk.NewClient("http://localhost:8080", sdk.WithAPIKey(os.Getenv("IDEASCOUT_API_KEY")))
//
//	err := c.Search(ctx, &sdk.SearchParams{
//	    Query:      "AI tool for tracking sleep habits",
//	    Sources:    []string{"reddit", "arxiv"},
//	    NumResults: 10,
//	}, func(ev sdk.Event) error {
//	    fmt.Println(ev.Type, ev.Message)
//	    return nil
//	})
//
//	reply, _ := c.Chat(ctx, &sdk.ChatRequest{Prompt: "Who are the competitors?"})
package sdk
