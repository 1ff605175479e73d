// Package api is the typed HTTP client for the sweet-shop REST backend.
//
// It covers the full consumed surface: authentication (login, register,
// whoami) and the sweets inventory (list, search, create, update, delete,
// purchase, restock). All calls take a context, return structured *Error
// values instead of panicking, and are instrumented with OpenTelemetry
// spans and Prometheus metrics.
//
// Usage:
//
//	client := api.New("http://localhost:8000/api")
//	tok, err := client.Login(ctx, "alice", "secret")
//	if err != nil {
//	    // err is *api.Error; err.Kind tells you what went wrong
//	}
//	client.SetToken(tok.AccessToken)
//	sweets, err := client.ListSweets(ctx)
//
// The client is safe for concurrent use. The bearer token is shared by
// all calls made through the same Client; use one Client per identity.
package api
