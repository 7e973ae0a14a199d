// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tester

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// FixKind classifies a suggested fix.
type FixKind string

const (
	// FixDependency means a missing package or module.
	FixDependency FixKind = "dependency"

	// FixSyntax means a parse-level defect in the source.
	FixSyntax FixKind = "syntax"

	// FixRuntime means a runtime error in otherwise valid code.
	FixRuntime FixKind = "runtime"

	// FixOutput means the program ran but produced the wrong output.
	FixOutput FixKind = "output"
)

// FixSuggestion is a heuristic diagnosis of a test failure.
type FixSuggestion struct {
	Kind        FixKind `json:"kind"`
	Description string  `json:"description"`

	// Command, when set, is a shell command that may resolve the
	// problem directly (e.g. installing a missing package).
	Command string `json:"command,omitempty"`

	// SourceFile, when set, is the file the error points at.
	SourceFile string `json:"source_file,omitempty"`
}

var moduleNotFoundPattern = regexp.MustCompile(`ModuleNotFoundError: No module named '([^']+)'`)

var valueErrorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`invalid literal for int\(\)`),
	regexp.MustCompile(`could not convert string to float`),
}

// SuggestFixes diagnoses the failures in a report.
//
// Description:
//
//	Pattern-matches stderr of each failed result against known error
//	shapes and emits one suggestion per recognized failure. Output
//	verification mismatches are diagnosed from the expected/actual
//	pair. Unrecognized failures produce no suggestion; the review
//	step handles those.
func SuggestFixes(rep Report) []FixSuggestion {
	var fixes []FixSuggestion

	for i, result := range rep.Results {
		if result.Success {
			continue
		}

		stderr := result.Stderr
		switch {
		case moduleNotFoundPattern.MatchString(stderr):
			module := moduleNotFoundPattern.FindStringSubmatch(stderr)[1]
			fixes = append(fixes, FixSuggestion{
				Kind:        FixDependency,
				Description: fmt.Sprintf("Missing module '%s'. Install it before rerunning.", module),
				Command:     "pip install " + module,
			})
		case strings.Contains(stderr, "SyntaxError"):
			fixes = append(fixes, FixSuggestion{
				Kind:        FixSyntax,
				Description: "Syntax error detected. Review the reported line for typos, unbalanced brackets, or bad indentation.",
				SourceFile:  FindSourceFileForError(stderr),
			})
		case strings.Contains(stderr, "TypeError"):
			fixes = append(fixes, FixSuggestion{
				Kind:        FixRuntime,
				Description: "Type error detected. Check that operands and arguments have the expected types.",
				SourceFile:  FindSourceFileForError(stderr),
			})
		case matchesAny(stderr, valueErrorPatterns) || strings.Contains(stderr, "ValueError"):
			fixes = append(fixes, FixSuggestion{
				Kind:        FixRuntime,
				Description: "Value error detected. Validate and convert user input before using it.",
				SourceFile:  FindSourceFileForError(stderr),
			})
		case strings.Contains(stderr, "IndexError") || strings.Contains(stderr, "KeyError"):
			fixes = append(fixes, FixSuggestion{
				Kind:        FixRuntime,
				Description: "Out-of-range index or missing key. Guard collection access with bounds or membership checks.",
				SourceFile:  FindSourceFileForError(stderr),
			})
		case strings.Contains(stderr, "ZeroDivisionError"):
			fixes = append(fixes, FixSuggestion{
				Kind:        FixRuntime,
				Description: "Division by zero. Check the divisor before dividing.",
				SourceFile:  FindSourceFileForError(stderr),
			})
		case result.ExitCode == 0 && !result.OutputVerified:
			expected := ""
			if rep.FirstFailure != nil && rep.FirstFailure.ActionIndex == i {
				expected = rep.FirstFailure.Action.ExpectedOutput
			}
			fixes = append(fixes, FixSuggestion{
				Kind: FixOutput,
				Description: fmt.Sprintf("Output mismatch. Expected '%s' but got '%s'",
					expected, clip(result.Stdout, 200)),
			})
		}
	}

	return fixes
}

// sourceFilePatterns locate a file reference inside an error trace.
// Evaluated in order; the first existing file wins.
var sourceFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`File "([^"]+)"`),
	regexp.MustCompile(`at ([^:\s]+):\d+`),
	regexp.MustCompile(`from ([^:\s]+):\d+`),
	regexp.MustCompile(`([^:\s]+\.py):\d+`),
	regexp.MustCompile(`([^:\s]+\.(?:js|cpp|c|h|java|ts)):\d+`),
}

// FindSourceFileForError extracts the source file an error trace
// points at, returning "" when no referenced file exists on disk.
func FindSourceFileForError(errorText string) string {
	for _, pattern := range sourceFilePatterns {
		for _, m := range pattern.FindAllStringSubmatch(errorText, -1) {
			candidate := m[1]
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
