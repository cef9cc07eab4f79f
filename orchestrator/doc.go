// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

// Package orchestrator drives one query through the pipeline: decomposition,
// concurrent retrieval, optional research escalation, synthesis, and
// rendering. Components are injected as interfaces; the orchestrator owns
// only the per-query state machine and its timeouts.
package orchestrator
