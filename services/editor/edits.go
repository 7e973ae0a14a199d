// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package editor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/devloop-ai/devloop/services/llm"
)

// EditType says how an Edit is applied.
type EditType string

const (
	// EditReplace carries code to splice into a line range.
	EditReplace EditType = "replace"

	// EditManual carries a suggestion; the replacement code is
	// requested from the completion service at apply time.
	EditManual EditType = "manual"
)

// Edit is an instruction to change a target file. Each edit is
// consumed once by ApplyEdits and then discarded; the outcome is
// folded into the change log.
type Edit struct {
	Filepath   string
	Type       EditType
	LineStart  int
	LineEnd    int
	Code       string
	Suggestion string
}

// hasRange reports whether the edit carries an explicit line range.
func (ed Edit) hasRange() bool {
	return ed.LineStart > 0 && ed.LineEnd > 0
}

// smallFileThreshold bounds the whole-file-replacement tier: an
// unranged edit may replace the entire file only when it has at most
// this many lines (or is empty).
const smallFileThreshold = 10

// GenerateEditsFromFeedback converts actionable items into edits.
//
// Description:
//
//	Every item becomes a manual edit carrying its description as the
//	suggestion; an item with attached code becomes a replace edit.
//	Both inherit any line range found on the item. The target file
//	defaults to the first cached file when the item names none; items
//	with no resolvable file are skipped.
func (e *SourceEditor) GenerateEditsFromFeedback(items []ActionableItem) []Edit {
	edits := make([]Edit, 0, len(items))

	for _, item := range items {
		edit := Edit{
			Type:       EditManual,
			Suggestion: item.Description,
		}
		if item.HasRange() {
			edit.LineStart = item.LineStart
			edit.LineEnd = item.LineEnd
		}
		if item.Code != "" {
			edit.Code = item.Code
			edit.Type = EditReplace
		}

		filepath := item.TargetFile
		if filepath == "" {
			filepath = e.defaultTargetFile()
		}
		if filepath == "" {
			e.logger.Warn("Skipping edit",
				"kind", string(item.Kind),
				"description", truncate(item.Description, 60),
				"error", ErrNoTargetFile,
			)
			continue
		}
		edit.Filepath = filepath
		edits = append(edits, edit)
	}

	return edits
}

// ApplyEdit splices replacement text into a 1-indexed inclusive line
// range of a file.
//
// Description:
//
//	Validates 1 <= start <= end <= lineCount+1; end == lineCount+1
//	addresses the append position. An invalid range returns
//	ErrInvalidRange with no mutation, in memory or on disk. On success
//	the file is written back eagerly.
func (e *SourceEditor) ApplyEdit(path string, lineStart, lineEnd int, replacement string) error {
	content, ok := e.files[path]
	if !ok {
		var err error
		content, err = e.LoadFile(path)
		if err != nil {
			return err
		}
	}

	lines := strings.Split(content, "\n")
	if lineStart < 1 || lineStart > lineEnd || lineEnd > len(lines)+1 {
		return fmt.Errorf("%w: %d-%d for file with %d lines",
			ErrInvalidRange, lineStart, lineEnd, len(lines))
	}

	cutEnd := lineEnd
	if cutEnd > len(lines) {
		cutEnd = len(lines)
	}
	startIdx := lineStart - 1
	if startIdx > len(lines) {
		startIdx = len(lines)
	}

	replaced := strings.Split(replacement, "\n")
	next := make([]string, 0, len(lines)-(cutEnd-startIdx)+len(replaced))
	next = append(next, lines[:startIdx]...)
	next = append(next, replaced...)
	next = append(next, lines[cutEnd:]...)

	return e.SaveFile(path, strings.Join(next, "\n"))
}

// definitionHeaderPatterns extract a definition name from the first
// matching header in a code snippet. Indentation-based block-end
// detection is a deliberate simplification; the system never parses
// target-language syntax.
var definitionHeaderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*def\s+([A-Za-z0-9_]+)`),
	regexp.MustCompile(`(?m)^\s*class\s+([A-Za-z0-9_]+)`),
	regexp.MustCompile(`(?m)^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z0-9_]+)`),
	regexp.MustCompile(`(?m)^\s*function\s+([A-Za-z0-9_]+)`),
}

// InferLineRanges locates where a code snippet belongs in a file.
//
// Description:
//
//	Extracts a definition name from the snippet's header, scans the
//	file for a line declaring the same name, then walks forward until
//	indentation returns to at most the header's indentation (or EOF)
//	to find the block end.
//
// Outputs:
//
//	start, end - 1-indexed inclusive range covering the block.
//	ok - False when no placement could be determined.
func InferLineRanges(snippet, fileContent string) (start, end int, ok bool) {
	if strings.TrimSpace(snippet) == "" || strings.TrimSpace(fileContent) == "" {
		return 0, 0, false
	}

	var name string
	var headerWord string
	for _, pattern := range definitionHeaderPatterns {
		if m := pattern.FindStringSubmatch(snippet); m != nil {
			name = m[1]
			headerWord = strings.Fields(strings.TrimSpace(m[0]))[0]
			break
		}
	}
	if name == "" {
		return 0, 0, false
	}

	headerPattern := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(headerWord) + `\s+(?:\([^)]*\)\s*)?` + regexp.QuoteMeta(name) + `\b`)

	lines := strings.Split(fileContent, "\n")
	for i, line := range lines {
		if !headerPattern.MatchString(line) {
			continue
		}
		headerIndent := indentOf(line)
		end = len(lines)
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			if indentOf(lines[j]) <= headerIndent {
				end = j
				break
			}
		}
		return i + 1, end, true
	}

	return 0, 0, false
}

// indentOf counts leading spaces and tabs.
func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// ApplyEdits applies a batch of edits and returns the ones that landed.
//
// Description:
//
//	Replace edits with an explicit range go straight to ApplyEdit.
//	Unranged replace edits run the tiered fallback: infer a range from
//	the snippet; failing that, replace the whole file only when it is
//	trivially small (<= 10 lines or empty); otherwise append the code
//	as a clearly marked trailing block. The ordering bounds the blast
//	radius of an unranged suggestion on a non-trivial file.
//
//	Manual edits build a focused re-prompt (with surrounding context
//	when a range is known) and request a one-shot replacement from the
//	completion service, applied through the same tiered policy. Any
//	completion failure leaves the file untouched.
func (e *SourceEditor) ApplyEdits(ctx context.Context, edits []Edit) []Edit {
	applied := make([]Edit, 0, len(edits))

	for _, edit := range edits {
		if edit.Filepath == "" {
			continue
		}
		if _, ok := e.files[edit.Filepath]; !ok {
			if _, err := e.LoadFile(edit.Filepath); err != nil {
				e.logger.Warn("Skipping edit for unloadable file", "path", edit.Filepath, "error", err)
				continue
			}
		}

		var err error
		switch edit.Type {
		case EditReplace:
			err = e.applyReplaceEdit(&edit)
		case EditManual:
			err = e.applyManualEdit(ctx, &edit)
		default:
			continue
		}

		if err != nil {
			e.logger.Warn("Edit not applied",
				"path", edit.Filepath,
				"type", string(edit.Type),
				"error", err,
			)
			continue
		}

		applied = append(applied, edit)
		description := edit.Suggestion
		if description == "" {
			description = "Code update"
		}
		e.recordChange(edit.Filepath, edit.LineStart, edit.LineEnd, edit.Code, description)
	}

	return applied
}

// applyReplaceEdit applies a replace edit through the tiered policy.
func (e *SourceEditor) applyReplaceEdit(edit *Edit) error {
	if edit.hasRange() {
		if err := e.ApplyEdit(edit.Filepath, edit.LineStart, edit.LineEnd, edit.Code); err != nil {
			return err
		}
		e.logger.Info("Applied edit", "path", edit.Filepath, "lines", fmt.Sprintf("%d-%d", edit.LineStart, edit.LineEnd))
		return nil
	}
	return e.applyUnranged(edit, edit.Code)
}

// applyUnranged runs the tiered fallback for code with no line range.
func (e *SourceEditor) applyUnranged(edit *Edit, code string) error {
	content := e.files[edit.Filepath]

	if start, end, ok := InferLineRanges(code, content); ok {
		if err := e.ApplyEdit(edit.Filepath, start, end, code); err != nil {
			return err
		}
		edit.LineStart, edit.LineEnd = start, end
		e.logger.Info("Applied edit (inferred range)", "path", edit.Filepath, "lines", fmt.Sprintf("%d-%d", start, end))
		return nil
	}

	if len(strings.Split(content, "\n")) <= smallFileThreshold || strings.TrimSpace(content) == "" {
		if err := e.SaveFile(edit.Filepath, code); err != nil {
			return err
		}
		e.logger.Info("Replaced entire file (small file)", "path", edit.Filepath)
		return nil
	}

	marker := fmt.Sprintf("\n\n%s Added code based on feedback:\n", commentPrefix(LanguageForFile(edit.Filepath)))
	if err := e.SaveFile(edit.Filepath, content+marker+code); err != nil {
		return err
	}
	e.logger.Info("Appended code to end of file (no line range)", "path", edit.Filepath)
	return nil
}

// applyManualEdit asks the completion service to realize a suggestion.
func (e *SourceEditor) applyManualEdit(ctx context.Context, edit *Edit) error {
	if edit.Suggestion == "" {
		return fmt.Errorf("manual edit carries no suggestion")
	}

	if !edit.hasRange() && e.focus.LineStart > 0 && e.focus.LineEnd > 0 {
		edit.LineStart, edit.LineEnd = e.focus.LineStart, e.focus.LineEnd
	}

	content := e.files[edit.Filepath]
	updated, err := e.QueryForImplementation(ctx, edit.Suggestion, edit.Filepath, content, edit.LineStart, edit.LineEnd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(updated) == "" || updated == content {
		return fmt.Errorf("completion produced no change")
	}

	if edit.hasRange() {
		if err := e.ApplyEdit(edit.Filepath, edit.LineStart, edit.LineEnd, updated); err != nil {
			return err
		}
		edit.Code = updated
		e.logger.Info("Applied generated change", "path", edit.Filepath, "lines", fmt.Sprintf("%d-%d", edit.LineStart, edit.LineEnd))
		return nil
	}

	edit.Code = updated
	return e.applyUnranged(edit, updated)
}

// contextLines is how many surrounding lines a focused re-prompt shows.
const contextLines = 3

// QueryForImplementation requests replacement code for a suggestion.
//
// Description:
//
//	Builds a focused prompt around the suggestion. When a line range
//	is known (passed in, parsed out of the suggestion itself, or
//	inherited from the cycle's focus), the prompt shows the focus
//	lines plus surrounding context. On any
//	completion failure the original content is returned unchanged
//	along with the error, so callers can treat it as a no-op.
func (e *SourceEditor) QueryForImplementation(ctx context.Context, suggestion, path, content string, lineStart, lineEnd int) (string, error) {
	if lineStart == 0 || lineEnd == 0 {
		if s, en, _, ok := ParseLineRange(suggestion); ok {
			lineStart, lineEnd = s, en
		} else if e.focus.LineStart > 0 && e.focus.LineEnd > 0 {
			// Fall back to the cycle's focus when the suggestion
			// itself carries no line reference.
			lineStart, lineEnd = e.focus.LineStart, e.focus.LineEnd
		}
	}

	language := LanguageForFile(path)
	task := suggestion
	if lineStart > 0 && lineEnd > 0 {
		lines := strings.Split(content, "\n")
		startIdx := lineStart - 1
		endIdx := lineEnd
		if startIdx < 0 {
			startIdx = 0
		}
		if endIdx > len(lines) {
			endIdx = len(lines)
		}
		if startIdx <= endIdx {
			ctxStart := startIdx - contextLines
			if ctxStart < 0 {
				ctxStart = 0
			}
			ctxEnd := endIdx + contextLines
			if ctxEnd > len(lines) {
				ctxEnd = len(lines)
			}
			task = fmt.Sprintf("Update lines %d-%d: %s\n\nFocus on these lines:\n```%s\n%s\n```\n\nHere is some context around those lines:\n```%s\n%s\n```",
				lineStart, lineEnd, suggestion,
				language, strings.Join(lines[startIdx:endIdx], "\n"),
				language, strings.Join(lines[ctxStart:ctxEnd], "\n"))
		}
	}

	var sb strings.Builder
	sb.WriteString("You are an expert programmer helping to improve code.\n\n")
	fmt.Fprintf(&sb, "Task: %s\n\n", task)
	fmt.Fprintf(&sb, "Current code:\n```%s\n%s\n```\n\n", language, content)
	sb.WriteString("Provide the exact updated code for ONLY the portion that needs to be changed.\n")
	sb.WriteString("Return ONLY the revised code with no explanations.\n")
	sb.WriteString("The code should be correctly indented and ready to use as a direct replacement.\n")

	response, err := e.client.Generate(ctx, sb.String(),
		llm.GenerationParams{Temperature: llm.Float32Ptr(0.3)})
	if err != nil {
		e.logger.Warn("Completion call for implementation failed", "error", err)
		return content, err
	}

	updated := ExtractCode(response, language)
	if strings.TrimSpace(updated) == "" {
		return content, fmt.Errorf("%w: empty implementation", ErrGenerationFailed)
	}
	return updated, nil
}
