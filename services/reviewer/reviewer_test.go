// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package reviewer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/devloop-ai/devloop/services/llm"
)

func TestReviewReturnsFeedback(t *testing.T) {
	client := llm.NewMockClient("ISSUE: Line 3: off-by-one in the loop")
	agent := NewReviewAgent(client, nil)

	feedback := agent.Review(context.Background(), "Test Summary: 0/1 tests passed", "review this", "")
	if feedback != "ISSUE: Line 3: off-by-one in the loop" {
		t.Errorf("feedback = %q", feedback)
	}
}

func TestReviewTransportFailureReturnsErrorString(t *testing.T) {
	client := llm.NewMockClient("")
	client.SetError(errors.New("connection refused"))
	agent := NewReviewAgent(client, nil)

	feedback := agent.Review(context.Background(), "output", "prompt", "")
	if !strings.Contains(feedback, "Error getting response from review model") {
		t.Errorf("feedback = %q, want transport error description", feedback)
	}
	if !strings.Contains(feedback, "connection refused") {
		t.Errorf("feedback = %q, want underlying cause", feedback)
	}
}

func TestReviewPromptContents(t *testing.T) {
	client := llm.NewMockClient("SUCCESS")
	agent := NewReviewAgent(client, nil)
	agent.SetOriginalPrompt("build a calculator")

	agent.Review(context.Background(), "Test Summary: 3/3 tests passed", "final check", "Success rate: 100.0%")

	calls := client.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	sent := calls[0]
	for _, want := range []string{
		"CRITICAL FORMATTING REQUIREMENT",
		"Line N:",
		"Lines N-M:",
		"ORIGINAL REQUEST/PROMPT:\nbuild a calculator",
		"Context: Success rate: 100.0%",
		"final check",
		"Test Summary: 3/3 tests passed",
		"SUCCESS",
	} {
		if !strings.Contains(sent, want) {
			t.Errorf("review prompt missing %q", want)
		}
	}
}

func TestLineRangeFormatInstructions(t *testing.T) {
	instructions := LineRangeFormatInstructions()
	for _, want := range []string{"Line N:", "Lines N-M:", "ISSUE:", "SUGGESTION:", "1-indexed"} {
		if !strings.Contains(instructions, want) {
			t.Errorf("instructions missing %q", want)
		}
	}
}
