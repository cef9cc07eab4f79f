// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

/*
Package retrieval coordinates knowledge lookup for one sub-question at a
time. The coordinator fans out to the graph and vector adapters
concurrently, degrades a failing adapter to zero candidates instead of
aborting, merges and deduplicates the surviving candidates, and scores the
aggregate:

	confidence = max(candidate scores)*0.6 + coverage*0.4

where coverage is the fraction of sources that returned at least one
candidate. A first pass scoring below the rewrite threshold may trigger a
single capability-rewritten retry; retries never recurse.
*/
package retrieval
