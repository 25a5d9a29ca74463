// Package engine implements the hybrid retrieve-or-synthesize asset engine.
// Given a composed sound query it first searches the asset library by
// embedding similarity, falls back to keyword search when embeddings are
// unavailable, synthesizes a new asset on a miss, and degrades to a silent
// placeholder when synthesis is also unavailable. Produce never fails the
// caller; every degradation step yields a usable result with its provenance
// recorded.
package engine
