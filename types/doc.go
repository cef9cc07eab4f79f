// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

/*
Package types provides the shared data contracts of the faqflow pipeline.

types is the lowest-level public package and depends on no other faqflow
package. It defines the objects that flow between the decomposer, the
retrieval coordinator, the escalation policy, the synthesizer and the
orchestrator, plus the structured error taxonomy used across them.

Core types:

  - Query / SubQuestion: a user question and its prioritized fragments
  - CandidateRecord: one retrieved fact with score and provenance
  - RetrievalResult: scored candidate aggregate for one SubQuestion
  - ResearchResult: external research aggregate with source URLs
  - SynthesizedAnswer: the final per-query answer object
  - Feedback: user feedback forwarded to the learning pipeline
  - ChatRequest/ChatResponse: the request/response shape seen by callers
  - Error / ErrorCode: structured errors with retryable marking
*/
package types
