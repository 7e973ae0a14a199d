// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package editor

import (
	"regexp"
	"strings"
)

// langFenceTags maps language names to the tags they appear under in
// markdown code fences.
var langFenceTags = map[string][]string{
	"python":     {"python", "py"},
	"javascript": {"javascript", "js"},
	"typescript": {"typescript", "ts"},
	"rust":       {"rust", "rs"},
	"c":          {"c"},
	"c++":        {"cpp", "c++"},
	"go":         {"go", "golang"},
	"java":       {"java"},
	"ruby":       {"ruby", "rb"},
}

// prosePattern matches lines that look like explanations rather than
// code, used by the fallback when no fence is found.
var prosePattern = regexp.MustCompile(`^(Here|This|The|I|Now|First|Next|Then|Finally|Note)\b`)

// ExtractCode pulls code out of a completion response.
//
// Description:
//
//	Tries, in order:
//	  1. Fenced blocks tagged with the target language.
//	  2. Any fenced block.
//	  3. The whole response with prose-looking lines dropped.
//
//	Multiple matching blocks are joined with a blank line.
//
// Inputs:
//
//	response - Raw completion text.
//	language - Target language for tag-aware matching.
//
// Outputs:
//
//	string - The extracted code. May be empty.
func ExtractCode(response, language string) string {
	tags := langFenceTags[strings.ToLower(language)]
	if len(tags) == 0 {
		tags = []string{strings.ToLower(language)}
	}

	for _, tag := range tags {
		if blocks := fencedBlocks(response, tag); len(blocks) > 0 {
			return strings.Join(blocks, "\n\n")
		}
	}

	if blocks := fencedBlocks(response, ""); len(blocks) > 0 {
		return strings.Join(blocks, "\n\n")
	}

	return dropProse(response)
}

// fencedBlocks returns the contents of ```tag fenced blocks. An empty
// tag matches any fence.
func fencedBlocks(response, tag string) []string {
	var blocks []string
	lines := strings.Split(response, "\n")
	var current []string
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !inBlock {
			if strings.HasPrefix(trimmed, "```") {
				fenceTag := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "```")))
				if tag == "" || fenceTag == tag {
					inBlock = true
					current = nil
				}
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") {
			inBlock = false
			blocks = append(blocks, strings.Join(current, "\n"))
			continue
		}
		current = append(current, line)
	}
	return blocks
}

// dropProse strips explanation-looking lines from an unfenced response.
func dropProse(response string) string {
	lines := strings.Split(response, "\n")
	filtered := make([]string, 0, len(lines))
	inExplanation := false

	for _, line := range lines {
		if prosePattern.MatchString(line) && !inExplanation {
			inExplanation = true
			continue
		}
		if inExplanation && strings.TrimSpace(line) == "" {
			inExplanation = false
			continue
		}
		if !inExplanation {
			filtered = append(filtered, line)
		}
	}

	return strings.Join(filtered, "\n")
}
