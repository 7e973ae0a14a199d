// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package reviewer turns test results into structured repair feedback.
//
// The ReviewAgent issues one completion per review cycle and demands a
// strict line-addressed feedback format so the editor can patch files
// without re-reading the model's mind.
package reviewer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devloop-ai/devloop/services/llm"
)

// ReviewAgent requests code reviews from the completion service.
//
// Thread Safety:
//
//	Owned by the single control goroutine of the repair loop. NOT safe
//	for concurrent use.
type ReviewAgent struct {
	client llm.Client
	logger *slog.Logger

	// originalPrompt is the user's initial request, echoed into every
	// review so the model keeps the end goal in sight.
	originalPrompt string
}

// NewReviewAgent creates a review agent.
//
// Inputs:
//
//	client - Completion client. Must not be nil.
//	logger - Structured logger. Nil falls back to slog.Default().
func NewReviewAgent(client llm.Client, logger *slog.Logger) *ReviewAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewAgent{client: client, logger: logger}
}

// SetOriginalPrompt records the user's initial request for inclusion
// in subsequent reviews.
func (a *ReviewAgent) SetOriginalPrompt(prompt string) {
	a.originalPrompt = prompt
}

// Review requests one code review.
//
// Description:
//
//	Builds the review prompt from the test output, the per-iteration
//	request, and optional context, and issues a single completion
//	call. A transport failure never propagates as an error; the
//	returned string describes the failure so the loop can surface it
//	and move on. The loop decides what to do with the feedback, the
//	agent only fetches it.
//
// Inputs:
//
//	ctx - Context for cancellation and timeout.
//	testOutput - Formatted test results.
//	prompt - The review request for this iteration.
//	reviewContext - Optional extra context (success rates, failures).
//
// Outputs:
//
//	string - The review feedback, or an error description.
func (a *ReviewAgent) Review(ctx context.Context, testOutput, prompt, reviewContext string) string {
	response, err := a.client.Generate(ctx, a.buildReviewPrompt(testOutput, prompt, reviewContext),
		llm.GenerationParams{Temperature: llm.Float32Ptr(0.2)})
	if err != nil {
		a.logger.Error("Review call failed", "error", err)
		return fmt.Sprintf("Error getting response from review model: %v", err)
	}

	a.logger.Info("Review received", "length", len(response))
	return response
}

// buildReviewPrompt assembles the full review request.
func (a *ReviewAgent) buildReviewPrompt(testOutput, prompt, reviewContext string) string {
	var sb strings.Builder

	sb.WriteString("You're a code review assistant. Analyze the test results below and provide actionable feedback.\n\n")
	sb.WriteString("CRITICAL FORMATTING REQUIREMENT:\n")
	sb.WriteString(LineRangeFormatInstructions())
	sb.WriteString("\n")

	if a.originalPrompt != "" {
		fmt.Fprintf(&sb, "ORIGINAL REQUEST/PROMPT:\n%s\n\n", a.originalPrompt)
	}
	if reviewContext != "" {
		fmt.Fprintf(&sb, "Context: %s\n\n", reviewContext)
	}
	if prompt != "" {
		sb.WriteString(prompt)
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "Test output:\n```\n%s\n```\n\n", testOutput)
	sb.WriteString("If the code fully satisfies the original request and all tests pass, reply with the single word SUCCESS.\n")
	sb.WriteString("Otherwise, list the problems and how to fix them using the required format.\n")
	return sb.String()
}

// LineRangeFormatInstructions is the canonical contract for how
// reviews must reference code locations. The editor's feedback parser
// depends on this exact shape.
func LineRangeFormatInstructions() string {
	return strings.Join([]string{
		"When referencing code locations, you MUST use one of these exact formats:",
		"  Line N: <comment>         (for a single line)",
		"  Lines N-M: <comment>      (for a range of lines)",
		"Start each finding with 'ISSUE:' or 'SUGGESTION:' on its own line.",
		"Put replacement code in fenced code blocks (```language ... ```) directly after the finding it belongs to.",
		"Line numbers are 1-indexed and refer to the current file contents.",
	}, "\n") + "\n"
}
