// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

// Package cache provides a redis-backed result cache for retrieval.
// This package is internal and should not be imported by external projects.
package cache
