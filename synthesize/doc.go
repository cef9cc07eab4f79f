// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

// Package synthesize merges per-SubQuestion retrieval and research results
// into one SynthesizedAnswer, and owns the escalation decision that gates
// external research.
package synthesize
