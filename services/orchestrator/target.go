// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/devloop-ai/devloop/services/llm"
)

// languageRule pairs a match predicate with the language it selects.
// Rules are evaluated strictly in order; the first hit wins, so more
// specific keywords must come before broader ones.
type languageRule struct {
	language string
	match    func(prompt string) bool
}

// keywordRule builds a rule matching any of the given keywords as
// whole words in the lowercased prompt. Word boundaries are only
// anchored where the keyword edge is a word character, so keywords
// like "c++" still match.
func keywordRule(language string, keywords ...string) languageRule {
	patterns := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		expr := regexp.QuoteMeta(kw)
		if isWordChar(kw[0]) {
			expr = `\b` + expr
		}
		if isWordChar(kw[len(kw)-1]) {
			expr += `\b`
		}
		patterns[i] = regexp.MustCompile(expr)
	}
	return languageRule{
		language: language,
		match: func(prompt string) bool {
			for _, p := range patterns {
				if p.MatchString(prompt) {
					return true
				}
			}
			return false
		},
	}
}

func isWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// languageRules infer the target language from prompt keywords.
var languageRules = []languageRule{
	keywordRule("typescript", "typescript", "ts-node"),
	keywordRule("javascript", "javascript", "js", "node", "react", "vue", "angular"),
	keywordRule("python", "python", "flask", "django", "pandas", "numpy"),
	keywordRule("rust", "rust", "cargo"),
	keywordRule("c++", "c++", "cpp"),
	keywordRule("c", "c programming", "c language"),
	keywordRule("java", "java", "spring"),
	keywordRule("go", "golang", "go language"),
	keywordRule("ruby", "ruby", "rails"),
}

// languageExtensions maps inferred languages to file extensions.
var languageExtensions = map[string]string{
	"python":     ".py",
	"javascript": ".js",
	"typescript": ".ts",
	"rust":       ".rs",
	"c":          ".c",
	"c++":        ".cpp",
	"java":       ".java",
	"go":         ".go",
	"ruby":       ".rb",
}

// InferLanguage picks the target language for a prompt, defaulting to
// python when no rule matches.
func InferLanguage(prompt string) string {
	lowered := strings.ToLower(prompt)
	for _, rule := range languageRules {
		if rule.match(lowered) {
			return rule.language
		}
	}
	return "python"
}

// projectFilenameRule maps a project-type keyword to per-language
// base names. Evaluated in order.
type projectFilenameRule struct {
	keyword string
	base    string
}

var projectFilenameRules = []projectFilenameRule{
	{"calculator", "calculator"},
	{"todo", "todo"},
	{"web", "web"},
	{"game", "game"},
	{"api", "api"},
}

// baseFilename picks the base name (no extension) for a prompt and
// language, honoring per-language conventions for web projects.
func baseFilename(prompt, language string) string {
	lowered := strings.ToLower(prompt)
	for _, rule := range projectFilenameRules {
		if !strings.Contains(lowered, rule.keyword) {
			continue
		}
		if rule.keyword == "web" {
			switch language {
			case "python":
				return "app"
			case "javascript", "typescript":
				return "server"
			}
		}
		return rule.base
	}
	return "main"
}

// InferTargetFile decides the filename the generated program lives in.
//
// Description:
//
//	Deterministic keyword rules pick a base name and the language's
//	extension; java capitalizes the base to match class-per-file
//	conventions. Prompts that look non-trivial (mention "advanced" or
//	"complex", or run past fifteen words) escalate to a completion
//	query that may override the default. A malformed answer keeps the
//	deterministic choice, never an empty name.
func (o *Orchestrator) InferTargetFile(ctx context.Context, prompt string) string {
	language := InferLanguage(prompt)
	ext, ok := languageExtensions[language]
	if !ok {
		ext = ".py"
	}

	base := baseFilename(prompt, language)
	if language == "java" {
		base = strings.ToUpper(base[:1]) + base[1:]
	}
	target := base + ext

	if !promptLooksComplex(prompt) {
		return target
	}

	suggested, err := o.queryFilename(ctx, prompt, language, target)
	if err != nil {
		o.logger.Warn("Filename query failed, keeping default", "default", target, "error", err)
		return target
	}
	return suggested
}

// promptLooksComplex gates the completion-backed filename escalation.
func promptLooksComplex(prompt string) bool {
	lowered := strings.ToLower(prompt)
	if strings.Contains(lowered, "advanced") || strings.Contains(lowered, "complex") {
		return true
	}
	return len(strings.Fields(prompt)) > 15
}

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// queryFilename asks the completion service for a better filename.
func (o *Orchestrator) queryFilename(ctx context.Context, prompt, language, fallback string) (string, error) {
	request := fmt.Sprintf(
		"Suggest a single filename for the main source file of this %s project:\n%s\n\n"+
			`Reply with ONLY a JSON object: {"filename": "name.ext"}`, language, prompt)

	response, err := o.llmClient.Generate(ctx, request,
		llm.GenerationParams{Temperature: llm.Float32Ptr(0.1)})
	if err != nil {
		return "", err
	}

	payload := jsonObjectPattern.FindString(response)
	if payload == "" {
		return "", fmt.Errorf("no JSON object in response")
	}

	var parsed struct {
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return "", fmt.Errorf("malformed filename JSON: %w", err)
	}

	name := strings.TrimSpace(parsed.Filename)
	if name == "" || strings.ContainsAny(name, "/\\ ") || !strings.Contains(name, ".") {
		return "", fmt.Errorf("unusable filename %q", parsed.Filename)
	}

	o.logger.Info("Using model-suggested filename", "filename", name, "default", fallback)
	return name, nil
}
