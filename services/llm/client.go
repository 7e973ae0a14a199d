// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm provides the completion-service client used by every
// component of the repair loop.
//
// Four call sites share this single contract with different prompt
// templates: initial code generation, line-targeted regeneration, test
// case generation, and review. All calls are synchronous, blocking
// HTTP requests bounded by the caller's context.
//
// Thread Safety:
//
//	All types in this package are safe for concurrent use.
package llm

import "context"

// GenerationParams tunes sampling for a single completion call.
//
// Nil pointer fields fall back to client defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Client defines the standard interface for any completion backend.
type Client interface {
	// Generate produces text from a prompt.
	//
	// Inputs:
	//   ctx - Context for cancellation and timeout.
	//   prompt - The full prompt text.
	//   params - Sampling options. Zero value uses defaults.
	//
	// Outputs:
	//   string - The raw completion text.
	//   error - Non-nil if the request failed. Callers downgrade
	//           transport failures to safe defaults; a single failed
	//           call never aborts the loop.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// Model returns the model identifier used for requests.
	Model() string
}

// Float32Ptr is a convenience helper for GenerationParams literals.
func Float32Ptr(v float32) *float32 { return &v }

// IntPtr is a convenience helper for GenerationParams literals.
func IntPtr(v int) *int { return &v }
