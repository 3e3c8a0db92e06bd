// Package models defines domain entities shared across the music snapshot tool.
//
// Two categories of types live here:
//
// 1. History-side values built from the listening-history service:
//   - [PlayEvent] : A single timestamped scrobble
//   - [PlayHistory] : Normalized ascending sequence of play events
//   - [SessionRange] : Inclusive index pair selecting one listening session
//
// 2. Catalog-side values built from the target streaming service:
//   - [Track] : Song metadata from the target catalog's search index
//   - [Playlist] : Playlist metadata for the created snapshot
//   - [CatalogMatch] : The resolved catalog entry for one play event
//
// All raw API response shapes are decoded into these types at the client
// boundary (internal/services); no other package touches untyped JSON.
package models
