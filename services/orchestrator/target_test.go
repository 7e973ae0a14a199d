// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devloop-ai/devloop/services/llm"
)

func TestInferLanguage(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{"build a flask web app", "python"},
		{"a react dashboard", "javascript"},
		{"write it in typescript please", "typescript"},
		{"a cargo workspace tool in rust", "rust"},
		{"c++ matrix library", "c++"},
		{"some c programming exercise", "c"},
		{"a spring boot service", "java"},
		{"a golang http proxy", "go"},
		{"a rails blog", "ruby"},
		{"sort a list of numbers", "python"},
	}

	for _, tc := range tests {
		t.Run(tc.prompt, func(t *testing.T) {
			assert.Equal(t, tc.want, InferLanguage(tc.prompt))
		})
	}
}

func TestInferLanguageRuleOrder(t *testing.T) {
	// "node.js" style prompts mention js; typescript must still win
	// when named explicitly.
	assert.Equal(t, "typescript", InferLanguage("a typescript node service"))
}

func TestInferTargetFileDeterministic(t *testing.T) {
	orch := New(testConfig(t), llm.NewMockClient(""), nil)

	tests := []struct {
		prompt string
		want   string
	}{
		{"a calculator in python", "calculator.py"},
		{"a todo list in javascript", "todo.js"},
		{"a web app in python", "app.py"},
		{"a web page in js", "server.js"},
		{"a game in rust", "game.rs"},
		{"an api in ruby", "api.rb"},
		{"a calculator in java", "Calculator.java"},
		{"sort numbers in python", "main.py"},
	}

	for _, tc := range tests {
		t.Run(tc.prompt, func(t *testing.T) {
			assert.Equal(t, tc.want, orch.InferTargetFile(context.Background(), tc.prompt))
		})
	}
}

func TestInferTargetFileEscalatesForComplexPrompts(t *testing.T) {
	client := llm.NewMockClient(`{"filename": "scheduler.py"}`)
	orch := New(testConfig(t), client, nil)

	got := orch.InferTargetFile(context.Background(), "an advanced task scheduler in python")
	assert.Equal(t, "scheduler.py", got)
	assert.Equal(t, 1, client.CallCount())
}

func TestInferTargetFileKeepsDefaultOnBadAnswer(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no json", "I would call it scheduler"},
		{"empty name", `{"filename": ""}`},
		{"path traversal", `{"filename": "../evil.py"}`},
		{"no extension", `{"filename": "scheduler"}`},
		{"malformed", `{"filename": scheduler.py}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := llm.NewMockClient(tc.response)
			orch := New(testConfig(t), client, nil)

			got := orch.InferTargetFile(context.Background(), "a complex python tool")
			assert.Equal(t, "main.py", got)
		})
	}
}

func TestPromptLooksComplex(t *testing.T) {
	assert.False(t, promptLooksComplex("a calculator in python"))
	assert.True(t, promptLooksComplex("an advanced calculator"))
	assert.True(t, promptLooksComplex("something complex"))
	assert.True(t, promptLooksComplex(strings.Repeat("word ", 16)))
}
