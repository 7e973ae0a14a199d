// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package editor

import (
	"strings"
	"testing"
)

func TestExtractCodePrefersTargetLanguageFence(t *testing.T) {
	response := "Here is the code:\n" +
		"```javascript\nconsole.log('wrong');\n```\n" +
		"```python\nprint('right')\n```\n"

	got := ExtractCode(response, "python")
	if got != "print('right')" {
		t.Errorf("ExtractCode = %q", got)
	}
}

func TestExtractCodeAcceptsLanguageAliases(t *testing.T) {
	response := "```py\nprint('aliased')\n```"
	if got := ExtractCode(response, "python"); got != "print('aliased')" {
		t.Errorf("ExtractCode = %q", got)
	}
}

func TestExtractCodeFallsBackToAnyFence(t *testing.T) {
	response := "Explanation first.\n```\nx = 1\n```"
	if got := ExtractCode(response, "python"); got != "x = 1" {
		t.Errorf("ExtractCode = %q", got)
	}
}

func TestExtractCodeJoinsMultipleBlocks(t *testing.T) {
	response := "```python\na = 1\n```\ntext between\n```python\nb = 2\n```"
	got := ExtractCode(response, "python")
	if got != "a = 1\n\nb = 2" {
		t.Errorf("ExtractCode = %q", got)
	}
}

func TestExtractCodeDropsProseWithoutFences(t *testing.T) {
	response := "Here is a simple program that prints a greeting.\n" +
		"\n" +
		"print('hello')\n" +
		"print('world')\n"

	got := ExtractCode(response, "python")
	if strings.Contains(got, "Here is") {
		t.Errorf("prose survived: %q", got)
	}
	if !strings.Contains(got, "print('hello')") {
		t.Errorf("code dropped: %q", got)
	}
}

func TestLanguageForFile(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.py", "python"},
		{"app.js", "javascript"},
		{"lib.RS", "rust"},
		{"Main.java", "java"},
		{"tool.go", "go"},
		{"unknown.xyz", "python"},
		{"noext", "python"},
	}

	for _, tc := range tests {
		if got := LanguageForFile(tc.path); got != tc.want {
			t.Errorf("LanguageForFile(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
