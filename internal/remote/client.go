// Package remote provides access to the list-based store that holds the data
// of record.
//
// # Overview
//
// The store is schema-loose: each collection is a list identified by a list
// id within a site, and each item is a flat bag of fields. Client abstracts
// the four item operations plus site resolution; three implementations are
// provided:
//
//  1. GraphClient talks to the Microsoft Graph list-items REST API.
//  2. FirestoreClient maps each collection onto a Firestore collection.
//  3. MemoryClient keeps everything in process, for offline runs and tests.
//
// # Error Handling
//
// HTTP failures surface as *HTTPError. Callers can match ErrUnauthorized and
// ErrNotFound with errors.Is.
package remote

import (
	"context"
	"fmt"
)

// Record is a raw remote item: field name to loosely typed value.
// The remote item id is always present under the "id" key.
type Record map[string]any

// CollectionRef identifies a list within a site.
type CollectionRef struct {
	Site string `json:"site"`
	List string `json:"list"`
}

func (r CollectionRef) String() string {
	return fmt.Sprintf("%s/%s", r.Site, r.List)
}

// Client is the remote list-items API consumed by the tracker.
type Client interface {
	// Resolve binds the given collections to their concrete remote locations.
	// It must be called before any other operation on those collections.
	Resolve(ctx context.Context, refs ...CollectionRef) error
	List(ctx context.Context, ref CollectionRef) ([]Record, error)
	// Create stores a new item and returns it as stored, including its id.
	Create(ctx context.Context, ref CollectionRef, fields Record) (Record, error)
	Update(ctx context.Context, ref CollectionRef, id string, fields Record) error
	Delete(ctx context.Context, ref CollectionRef, id string) error
}

// Factory builds a Client bound to a bearer token.
type Factory func(token string) (Client, error)
