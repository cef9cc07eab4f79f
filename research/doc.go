// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

// Package research escalates unanswered questions to external web search.
// The actual search provider is injected as a SearchFunc; this package owns
// rate limiting, timeouts, result caching, and conversion of raw web hits
// into scored candidate records.
package research
