// Copyright (c) FAQFlow Authors.
// Licensed under the MIT License.

// Package config loads the FAQFlow configuration. Precedence is defaults,
// then the YAML file, then FAQFLOW_* environment variables.
package config
