// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

// Package vectorstore implements the vector knowledge source: an in-memory
// embedding index searched by cosine similarity, with a pluggable Embedder.
// Relevance scores are cosine similarity normalized to [0,1]. The index is
// safe for concurrent use.
package vectorstore
