// Package library persists the growing asset library backed by SQLite.
//
// Every synthesized clip is written back here with its query embedding, so
// later runs can reuse near-duplicate sounds instead of paying for new
// synthesis. Vector search is exhaustive cosine over the stored embeddings;
// a keyword fallback covers stores whose rows carry no usable embedding.
package library
