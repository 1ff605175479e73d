// Package store holds the client-side state every view depends on: the
// authenticated session and the cached inventory snapshot.
//
// Views never talk to the backend directly. Control flow is strictly
// view -> store operation -> API call -> store mutation -> re-render.
// Both stores are explicit objects handed to their callers; there are
// no package-level singletons.
//
// SessionStore owns the identity and its bearer credential, persisting
// it through a credstore.Store so a restart (or a new CLI invocation)
// can restore the session. InventoryStore mirrors the backend's sweet
// list wholesale: every fetch, search, and mutation round-trip replaces
// the cached snapshot with the server's latest state. Out-of-order
// responses are discarded using a monotonic fetch sequence number.
package store
