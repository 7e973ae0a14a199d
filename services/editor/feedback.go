// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package editor

import (
	"regexp"
	"strconv"
	"strings"
)

// ItemKind classifies an actionable item.
type ItemKind string

const (
	// KindIssue marks a defect the reviewer found.
	KindIssue ItemKind = "issue"

	// KindSuggestion marks an improvement the reviewer proposed.
	KindSuggestion ItemKind = "suggestion"
)

// ActionableItem is a normalized record extracted from free-text
// reviewer feedback. Items are produced fresh each review cycle and
// never persisted across iterations.
type ActionableItem struct {
	Kind        ItemKind
	Description string

	// LineStart/LineEnd bound the item when the feedback carried a
	// "Line N" / "Lines N-M" reference. Zero means unset.
	LineStart   int
	LineEnd     int
	LineComment string

	// Code holds the verbatim contents of an attached fenced block.
	Code string

	// CodeLanguage is the fence language tag, when present.
	CodeLanguage string

	// TargetFile names the file the item refers to, when stated.
	TargetFile string
}

// HasRange reports whether the item carries a line range.
func (a ActionableItem) HasRange() bool {
	return a.LineStart > 0 && a.LineEnd > 0
}

// lineRefPattern matches the review contract's line references:
// "Line N: text" and "Lines N-M: text".
var lineRefPattern = regexp.MustCompile(`^Line[s]?\s+(\d+)(?:-(\d+))?\s*:\s*(.*)`)

// ParseReviewerFeedback extracts actionable items from review text.
//
// Description:
//
//	Single-pass line scan. "ISSUE:" and "SUGGESTION:" start a new item,
//	closing and emitting the previous one. Lines matching the line
//	reference pattern set the range and comment on the open item; other
//	non-empty lines append to its description. Triple-fence markers
//	toggle code-capture mode; captured lines become the item's code,
//	kept verbatim. The final open item is emitted at end of input.
//
// Inputs:
//
//	feedback - The raw review text.
//
// Outputs:
//
//	[]ActionableItem - Items in the order encountered. Empty when the
//	feedback contained no ISSUE/SUGGESTION blocks.
func ParseReviewerFeedback(feedback string) []ActionableItem {
	var items []ActionableItem
	var current *ActionableItem
	var codeLines []string
	inCodeBlock := false

	for _, raw := range strings.Split(feedback, "\n") {
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			if inCodeBlock {
				codeLines = nil
				if current != nil {
					current.CodeLanguage = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				}
			} else if current != nil {
				current.Code = strings.Join(codeLines, "\n")
			}
			continue
		}

		if inCodeBlock {
			// Keep the raw line so indentation survives into the patch.
			codeLines = append(codeLines, raw)
			continue
		}

		switch {
		case strings.HasPrefix(line, "ISSUE:"):
			if current != nil {
				items = append(items, *current)
			}
			current = &ActionableItem{
				Kind:        KindIssue,
				Description: strings.TrimSpace(strings.TrimPrefix(line, "ISSUE:")),
			}
		case strings.HasPrefix(line, "SUGGESTION:"):
			if current != nil {
				items = append(items, *current)
			}
			current = &ActionableItem{
				Kind:        KindSuggestion,
				Description: strings.TrimSpace(strings.TrimPrefix(line, "SUGGESTION:")),
			}
		case current != nil && line != "":
			if m := lineRefPattern.FindStringSubmatch(line); m != nil {
				start, _ := strconv.Atoi(m[1])
				end := start
				if m[2] != "" {
					end, _ = strconv.Atoi(m[2])
				}
				current.LineStart = start
				current.LineEnd = end
				current.LineComment = m[3]
			} else {
				current.Description += " " + line
			}
		}
	}

	if current != nil {
		items = append(items, *current)
	}

	return items
}

// lineRangePatterns are the prompt-side variants accepted when a
// manual-edit suggestion itself mentions a range. Evaluated in order.
var lineRangePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)^(?:Line[s]?\s+(\d+)(?:-(\d+))?):\s*(.+)`),
	regexp.MustCompile(`(?is)On\s+lines?\s+(\d+)(?:-(\d+))?,\s*(.+)`),
	regexp.MustCompile(`(?is)At\s+lines?\s+(\d+)(?:-(\d+))?,\s*(.+)`),
	regexp.MustCompile(`(?is)Issue\s+in\s+lines?\s+(\d+)(?:-(\d+))?:\s*(.+)`),
}

// anywherePatterns catch bare line mentions when no structured form
// matched; the whole comment is kept as the text.
var anywherePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:in|at|on)\s+lines?\s+(\d+)(?:-(\d+))?`),
	regexp.MustCompile(`(?i)lines?\s+(\d+)(?:-(\d+))?`),
}

// ParseLineRange scans a comment for a line range specification.
//
// Outputs:
//
//	start, end - 1-indexed inclusive range.
//	text - The comment with the range prefix stripped when possible.
//	ok - False if no range was found.
func ParseLineRange(comment string) (start, end int, text string, ok bool) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return 0, 0, "", false
	}

	for _, pattern := range lineRangePatterns {
		if m := pattern.FindStringSubmatch(comment); m != nil {
			start, _ = strconv.Atoi(m[1])
			end = start
			if m[2] != "" {
				end, _ = strconv.Atoi(m[2])
			}
			return start, end, strings.TrimSpace(m[3]), true
		}
	}

	for _, pattern := range anywherePatterns {
		if m := pattern.FindStringSubmatch(comment); m != nil {
			start, _ = strconv.Atoi(m[1])
			end = start
			if m[2] != "" {
				end, _ = strconv.Atoi(m[2])
			}
			return start, end, comment, true
		}
	}

	return 0, 0, "", false
}
