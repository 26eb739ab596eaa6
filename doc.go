// Package ideascout searches for prior art of a product idea across an
// indexed catalog (community posts, launch listings, accelerator companies)
// and the arXiv literature, streaming progress while it works.
//
// # Embedded use
//
//	client, _ := ideascout.New(ctx,
//	    ideascout.WithValkey("localhost:6379", ""),
//	    ideascout.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	)
//	defer client.Close()
//
//	_ = client.EnsureIndex(ctx)
//	_, _ = client.Ingest(ctx, items)
//
//	err := client.Search(ctx, &ideascout.SearchRequest{
//	    Query:       "AI tool for tracking sleep habits",
//	    Sources:     []ideascout.Source{ideascout.SourceReddit, ideascout.SourceArxiv},
//	    Limit:       10,
//	    RecencyDays: 30,
//	}, func(ev ideascout.Event) error {
//	    fmt.Println(ev.Type, ev.Message, len(ev.Items))
//	    return nil
//	})
//
// A remote server is consumed with the pkg/sdk client instead.
package ideascout
