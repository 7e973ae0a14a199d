// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tester

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/devloop-ai/devloop/services/llm"
)

// generatedCase is the wire shape the completion service returns test
// cases in.
type generatedCase struct {
	Name           string  `json:"name"`
	Command        string  `json:"command"`
	Input          string  `json:"input"`
	WaitTime       float64 `json:"wait_time"`
	ExpectedOutput string  `json:"expected_output"`
	Description    string  `json:"description"`
}

type generatedSuite struct {
	TestCases []generatedCase `json:"test_cases"`
}

// GenerateTests asks the completion service for test cases covering a
// program, converts them to actions, and queues them.
//
// Description:
//
//	One completion call at low temperature requesting a JSON suite.
//	The JSON is pulled from a ```json fence, any fence, or the first
//	bare object in the response, in that order. Every generated
//	command is re-validated through the safety gate; invalid ones are
//	skipped with a warning rather than failing the batch.
//
// Inputs:
//
//	ctx - Context for cancellation and timeout.
//	prompt - The original user request, for intent.
//	code - The current program source.
//	runCommand - The base command that executes the program.
//	count - How many test cases to request.
//
// Outputs:
//
//	int - The number of actions queued.
//	error - Wraps ErrTestGeneration when nothing usable came back.
func (r *TestRunner) GenerateTests(ctx context.Context, prompt, code, runCommand string, count int) (int, error) {
	if count < 1 {
		count = 1
	}

	response, err := r.client.Generate(ctx, buildTestPrompt(prompt, code, runCommand, count),
		llm.GenerationParams{Temperature: llm.Float32Ptr(0.3)})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTestGeneration, err)
	}

	payload := extractJSON(response)
	if payload == "" {
		return 0, fmt.Errorf("%w: response contained no JSON", ErrTestGeneration)
	}

	var suite generatedSuite
	if err := json.Unmarshal([]byte(payload), &suite); err != nil {
		return 0, fmt.Errorf("%w: malformed JSON: %v", ErrTestGeneration, err)
	}
	if len(suite.TestCases) == 0 {
		return 0, fmt.Errorf("%w: empty test suite", ErrTestGeneration)
	}

	queued := 0
	for _, tc := range suite.TestCases {
		if strings.TrimSpace(tc.Command) == "" {
			continue
		}
		if err := r.validator.Validate(tc.Command); err != nil {
			r.logger.Warn("Skipping generated test with unsafe command",
				"name", tc.Name, "command", tc.Command, "error", err)
			continue
		}
		action := Action{
			Name:           tc.Name,
			Command:        tc.Command,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			Description:    tc.Description,
		}
		if tc.WaitTime > 0 {
			action.Timeout = time.Duration(tc.WaitTime * float64(time.Second))
		}
		r.QueueActions(action)
		queued++
	}

	if queued == 0 {
		return 0, fmt.Errorf("%w: no generated command passed validation", ErrTestGeneration)
	}

	r.logger.Info("Queued generated tests", "requested", count, "queued", queued)
	return queued, nil
}

// SmokeTestAction is the minimal fallback when test generation fails:
// run the program once and require only a clean exit.
func SmokeTestAction(runCommand string) Action {
	return Action{
		Name:        "smoke test",
		Command:     runCommand,
		Timeout:     3 * time.Second,
		Description: "Run the program and check it exits cleanly",
	}
}

// buildTestPrompt constructs the test-generation request.
func buildTestPrompt(prompt, code, runCommand string, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d test cases for the following program.\n\n", count)
	if prompt != "" {
		fmt.Fprintf(&sb, "The program was written for this request:\n%s\n\n", prompt)
	}
	fmt.Fprintf(&sb, "Program source:\n```\n%s\n```\n\n", code)
	fmt.Fprintf(&sb, "The program is executed with: %s\n\n", runCommand)
	sb.WriteString("Respond with ONLY a JSON object in this exact format:\n")
	sb.WriteString(`{"test_cases": [{"name": "test name", "command": "command to run", "input": "stdin input or empty", "wait_time": 3, "expected_output": "substring expected in stdout or empty", "description": "what this test checks"}]}`)
	sb.WriteString("\n\nEach command must be a complete, runnable shell command. Do not include explanations.\n")
	return sb.String()
}

// extractJSON pulls a JSON object out of a completion response.
func extractJSON(response string) string {
	for _, tag := range []string{"```json", "```"} {
		start := strings.Index(response, tag)
		if start < 0 {
			continue
		}
		rest := response[start+len(tag):]
		if end := strings.Index(rest, "```"); end >= 0 {
			candidate := strings.TrimSpace(rest[:end])
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return response[start : end+1]
	}
	return ""
}
