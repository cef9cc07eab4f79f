// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

// Package feedback accepts user verdicts on answers and forwards them to the
// external learning pipeline. The intake validates the minimal contract and
// forwards the payload unchanged; interpretation of corrections happens
// downstream.
package feedback
