// Package entity defines the closed set of record collections and the
// immutable in-memory Store document that holds them.
//
// The Store is owned by the caller. Engine operations receive a *Store and
// return a new *Store; they never modify the one they were given. Untouched
// collections are shared between the two values by reference.
package entity
