// Package govdocs embeds the government document search cascade in a Go
// program without running the HTTP API.
//
// A search runs up to three tiers and stops at the first that returns
// anything: a case-insensitive keyword match, an embedding similarity
// ranking, and a keyword list proposed by a generative model.
//
//	client, err := govdocs.New(ctx,
//	    govdocs.WithMongo("mongodb://localhost:27017", "govdocs"),
//	    govdocs.WithGemini(os.Getenv("GEMINI_API_KEY")),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	resp, err := client.Search(ctx, "railway recruitment 2024")
//	if errors.Is(err, govdocs.ErrNoResults) {
//	    fmt.Println(govdocs.Suggestions())
//	}
//
// Without an AI key only the keyword tier runs.
package govdocs
