// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

// Package decompose turns a raw medical question into an ordered list of
// prioritized sub-questions. Simple questions pass through as a single
// sub-question; complex questions are split using the configured capability
// provider with a rule-based fallback. Definition questions are prioritized
// before relationship questions so later retrieval can build on established
// terms.
package decompose
