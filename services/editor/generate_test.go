// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package editor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devloop-ai/devloop/services/llm"
)

func TestGenerateInitialCodeWritesExtractedCode(t *testing.T) {
	project := ProjectContext{
		Type:      "cli",
		RootDir:   t.TempDir(),
		Languages: []string{"python"},
		OS:        "linux",
	}
	client := llm.NewMockClient("Sure!\n```python\nprint('generated')\n```")
	e := NewSourceEditor(project, client, nil)

	if err := e.GenerateInitialCode(context.Background(), "print a greeting", "main.py"); err != nil {
		t.Fatalf("GenerateInitialCode: %v", err)
	}

	onDisk, err := os.ReadFile(filepath.Join(project.RootDir, "main.py"))
	if err != nil {
		t.Fatalf("reading generated file: %v", err)
	}
	if string(onDisk) != "print('generated')" {
		t.Errorf("file content = %q", onDisk)
	}

	log := e.ChangeLog()
	if len(log) != 1 {
		t.Fatalf("change log entries = %d, want 1", len(log))
	}
	if log[0].ID == "" {
		t.Error("change log entry has no id")
	}
	if !strings.Contains(log[0].Description, "print a greeting") {
		t.Errorf("change description = %q", log[0].Description)
	}
}

func TestGenerateInitialCodePromptCarriesFocus(t *testing.T) {
	project := ProjectContext{RootDir: t.TempDir(), Languages: []string{"python"}}
	client := llm.NewMockClient("```python\nprint('x')\n```")
	e := NewSourceEditor(project, client, nil)
	e.SetFocus(EditFocus{
		Description: "command line calculator",
		Components:  []string{"parser", "repl"},
	})

	if err := e.GenerateInitialCode(context.Background(), "build a calculator", "main.py"); err != nil {
		t.Fatalf("GenerateInitialCode: %v", err)
	}

	calls := client.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if !strings.Contains(calls[0], "Current focus: command line calculator") {
		t.Errorf("prompt missing focus description:\n%s", calls[0])
	}
	if !strings.Contains(calls[0], "Components in focus: parser, repl") {
		t.Errorf("prompt missing focus components:\n%s", calls[0])
	}
}

func TestGenerateInitialCodeEmptyResponse(t *testing.T) {
	project := ProjectContext{RootDir: t.TempDir(), Languages: []string{"python"}}
	client := llm.NewMockClient("I cannot help with that.")
	e := NewSourceEditor(project, client, nil)

	err := e.GenerateInitialCode(context.Background(), "do nothing", "main.py")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("error = %v, want ErrGenerationFailed", err)
	}
	if _, statErr := os.Stat(filepath.Join(project.RootDir, "main.py")); !os.IsNotExist(statErr) {
		t.Error("file was written despite failed generation")
	}
}

func TestGenerateInitialCodeTransportError(t *testing.T) {
	project := ProjectContext{RootDir: t.TempDir(), Languages: []string{"python"}}
	client := llm.NewMockClient("")
	client.SetError(errors.New("connection refused"))
	e := NewSourceEditor(project, client, nil)

	err := e.GenerateInitialCode(context.Background(), "anything", "main.py")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("error = %v, want ErrGenerationFailed", err)
	}
}

func TestWritePlaceholder(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"python stub", "main.py", "def main():"},
		{"go stub", "main.go", "package main"},
		{"javascript stub", "app.js", "console.log"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			project := ProjectContext{RootDir: t.TempDir()}
			e := NewSourceEditor(project, llm.NewMockClient(""), nil)

			if err := e.WritePlaceholder(tc.target, "build a widget"); err != nil {
				t.Fatalf("WritePlaceholder: %v", err)
			}

			onDisk, err := os.ReadFile(filepath.Join(project.RootDir, tc.target))
			if err != nil {
				t.Fatalf("reading placeholder: %v", err)
			}
			if !strings.Contains(string(onDisk), tc.want) {
				t.Errorf("placeholder missing %q:\n%s", tc.want, onDisk)
			}
			if !strings.Contains(string(onDisk), "build a widget") {
				t.Error("placeholder does not mention the prompt")
			}
		})
	}
}
