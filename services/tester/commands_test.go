// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tester

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/devloop-ai/devloop/services/llm"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
		wantErr bool
	}{
		{"simple", "python app.py", []string{"python", "app.py"}, false},
		{"extra whitespace", "  python   app.py  ", []string{"python", "app.py"}, false},
		{"single quotes", "python -c 'print(1, 2)'", []string{"python", "-c", "print(1, 2)"}, false},
		{"double quotes", `echo "hello world"`, []string{"echo", "hello world"}, false},
		{"escaped space", `cat my\ file.txt`, []string{"cat", "my file.txt"}, false},
		{"escaped quote in double quotes", `echo "say \"hi\""`, []string{"echo", `say "hi"`}, false},
		{"empty quoted token", `echo ''`, []string{"echo", ""}, false},
		{"unterminated single", "echo 'oops", nil, true},
		{"unterminated double", `echo "oops`, nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Tokenize(tc.command)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Tokenize(%q) = %v, want error", tc.command, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Tokenize(%q): %v", tc.command, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Tokenize(%q) = %#v, want %#v", tc.command, got, tc.want)
			}
		})
	}
}

func TestNeedsShell(t *testing.T) {
	tests := []struct {
		command string
		want    bool
	}{
		{"python app.py", false},
		{"python app.py | head", true},
		{"a && b", true},
		{"echo hi > out.txt", true},
		{"cargo run --bin x || rustc x.rs", true},
		{"echo $(date)", true},
	}

	for _, tc := range tests {
		if got := NeedsShell(tc.command); got != tc.want {
			t.Errorf("NeedsShell(%q) = %t, want %t", tc.command, got, tc.want)
		}
	}
}

func TestRunCommandForFileKnownExtensions(t *testing.T) {
	r := NewTestRunner(llm.NewMockClient(""), t.TempDir(), 0, nil)

	tests := []struct {
		path string
		want string
	}{
		{"app.py", "python app.py"},
		{"server.js", "node server.js"},
		{"script.sh", "bash script.sh"},
		{"tool.go", "go run tool.go"},
		{"sub/Main.java", "java -cp sub Main"},
	}

	for _, tc := range tests {
		if got := r.RunCommandForFile(context.Background(), tc.path); got != tc.want {
			t.Errorf("RunCommandForFile(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestRunCommandForFileUnknownExtensionQueriesOnce(t *testing.T) {
	client := llm.NewMockClient("elixir {filepath}")
	r := NewTestRunner(client, t.TempDir(), 0, nil)

	first := r.RunCommandForFile(context.Background(), "app.exs")
	if first != "elixir app.exs" {
		t.Errorf("first lookup = %q", first)
	}

	// The template is cached; no second completion call.
	second := r.RunCommandForFile(context.Background(), "other.exs")
	if second != "elixir other.exs" {
		t.Errorf("second lookup = %q", second)
	}
	if client.CallCount() != 1 {
		t.Errorf("completion calls = %d, want 1", client.CallCount())
	}
}

func TestRunCommandForFileAppendsPlaceholder(t *testing.T) {
	client := llm.NewMockClient("elixir")
	r := NewTestRunner(client, t.TempDir(), 0, nil)

	if got := r.RunCommandForFile(context.Background(), "app.exs"); got != "elixir app.exs" {
		t.Errorf("RunCommandForFile = %q", got)
	}
}

func TestRunCommandForFileLookupFailure(t *testing.T) {
	client := llm.NewMockClient("")
	client.SetError(errors.New("backend down"))
	r := NewTestRunner(client, t.TempDir(), 0, nil)

	if got := r.RunCommandForFile(context.Background(), "app.exs"); got != "./app.exs" {
		t.Errorf("RunCommandForFile = %q, want direct execution fallback", got)
	}
}
