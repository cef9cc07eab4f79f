// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

// Package capability defines the text-understanding capability the pipeline
// delegates to an upstream model: complexity classification, query
// decomposition and query rewriting. The core owns only the control-flow
// contract; prompt wording lives here and model selection lives with the
// Provider implementation.
package capability
