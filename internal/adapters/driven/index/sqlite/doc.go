// Package sqlite implements the vector index store on SQLite. Embeddings
// are stored inline as little-endian float32 blobs and similarity search
// is a brute-force cosine scan, which is plenty for a personal-scale
// index. All writes funnel through a single-writer queue.
package sqlite
