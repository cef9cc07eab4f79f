// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

// Package graphstore implements the graph knowledge source on an embedded
// SQL database. Medical entities and their typed relations live in two
// tables; Search matches entity names and aliases against the query text and
// expands one hop of relations, Related walks the relation graph
// breadth-first with depth-decayed scores.
package graphstore
