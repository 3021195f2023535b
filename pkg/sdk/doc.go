// Package decayscope embeds the knowledge decay analysis in a Go program,
// with analyses persisted to Redis.
//
// A verdict says whether a document has gone stale. It combines document age
// against a per-type freshness window, statements contradicted by related
// documents, drift between the current content and prior versions, and how
// well neighbors corroborate it.
//
//	client, _ := decayscope.New(ctx, decayscope.WithRedis("localhost:6379", ""))
//	defer client.Close()
//
//	a, _ := client.Analyze(ctx, decayscope.AnalyzeRequest{
//	    Document:      doc,
//	    Versions:      history,
//	    CandidatePool: workspaceDocs,
//	})
//	if a.Verdict.DecayDetected {
//	    _, _ = client.Review(ctx, a.ID, decayscope.ReviewActioned)
//	}
//
// Without WithEmbedder, similarity uses lexical term vectors.
package decayscope
