// Package web serves the storefront: server-rendered views over the
// session and inventory stores, a WebSocket endpoint for live search,
// and the admin console.
//
// Every browser gets its own store pair, keyed by a session cookie, so
// one visitor's bearer token never leaks into another visitor's
// requests. Views hold no state of their own; each handler reads from
// the stores, invokes a store operation, and re-renders.
package web
