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
	"path/filepath"
	"strings"

	"github.com/devloop-ai/devloop/services/llm"
)

// extensionToLanguage maps file extensions to language names.
var extensionToLanguage = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".rs":   "rust",
	".c":    "c",
	".cpp":  "c++",
	".h":    "c",
	".java": "java",
	".go":   "go",
	".rb":   "ruby",
}

// LanguageForFile returns the language implied by a file extension,
// defaulting to python.
func LanguageForFile(path string) string {
	if lang, ok := extensionToLanguage[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "python"
}

// GenerateInitialCode produces the first version of the target file.
//
// Description:
//
//	Issues one completion call embedding the project metadata and the
//	user prompt, extracts a code block from the response, and writes
//	the result to targetPath. An empty extraction is an error; the
//	caller substitutes a minimal placeholder file so the loop always
//	has something to test.
//
// Inputs:
//
//	ctx - Context for cancellation and timeout.
//	prompt - The user's description of what to build.
//	targetPath - Path (relative to the project root) to write.
//
// Outputs:
//
//	error - Wraps ErrGenerationFailed when no usable code came back.
func (e *SourceEditor) GenerateInitialCode(ctx context.Context, prompt, targetPath string) error {
	language := LanguageForFile(targetPath)

	e.logger.Info("Generating initial code",
		"prompt", truncate(prompt, 80),
		"target", targetPath,
		"language", language,
	)

	response, err := e.client.Generate(ctx, e.buildGenerationPrompt(prompt, language),
		llm.GenerationParams{Temperature: llm.Float32Ptr(0.7)})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	code := ExtractCode(response, language)
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: response contained no code", ErrGenerationFailed)
	}

	if err := e.SaveFile(targetPath, code); err != nil {
		return err
	}

	e.recordChange(targetPath, 0, 0, code,
		fmt.Sprintf("Initial code generated from prompt: %s", truncate(prompt, 50)))
	return nil
}

// WritePlaceholder writes a minimal language-appropriate stub so the
// loop always has something to test after a failed generation.
func (e *SourceEditor) WritePlaceholder(targetPath, prompt string) error {
	language := LanguageForFile(targetPath)
	name := filepath.Base(targetPath)

	var stub string
	switch language {
	case "go":
		stub = fmt.Sprintf("// %s\n// Purpose: %s\n\npackage main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"Hello, World!\")\n\tfmt.Println(\"This is a placeholder for: %s\")\n}\n", name, prompt, prompt)
	case "javascript", "typescript":
		stub = fmt.Sprintf("// %s\n// Purpose: %s\n\nconsole.log(\"Hello, World!\");\nconsole.log(\"This is a placeholder for: %s\");\n", name, prompt, prompt)
	default:
		stub = fmt.Sprintf("# %s\n# Purpose: %s\n\ndef main():\n    print(\"Hello, World!\")\n    print(\"This is a placeholder for: %s\")\n\nif __name__ == \"__main__\":\n    main()\n", name, prompt, prompt)
	}

	e.logger.Warn("Writing placeholder stub", "target", targetPath, "language", language)
	return e.SaveFile(targetPath, stub)
}

// buildGenerationPrompt embeds project metadata around the user request.
func (e *SourceEditor) buildGenerationPrompt(userPrompt, language string) string {
	languages := strings.Join(e.project.Languages, ", ")
	if languages == "" {
		languages = language
	}

	var sb strings.Builder
	sb.WriteString("You are an expert software engineer. Write code according to these requirements:\n\n")
	sb.WriteString("PROJECT DETAILS:\n")
	fmt.Fprintf(&sb, "- Project type: %s\n", e.project.Type)
	fmt.Fprintf(&sb, "- Target programming language: %s\n", language)
	fmt.Fprintf(&sb, "- Programming languages: %s\n", languages)
	fmt.Fprintf(&sb, "- Operating system: %s\n", e.project.OS)
	fmt.Fprintf(&sb, "- Project description: %s\n", e.project.Description)
	if e.focus.Description != "" {
		fmt.Fprintf(&sb, "- Current focus: %s\n", e.focus.Description)
	}
	if len(e.focus.Components) > 0 {
		fmt.Fprintf(&sb, "- Components in focus: %s\n", strings.Join(e.focus.Components, ", "))
	}
	sb.WriteString("\n")
	sb.WriteString("USER REQUEST:\n")
	sb.WriteString(userPrompt)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "IMPORTANT: Generate code ONLY in %s.\n", language)
	fmt.Fprintf(&sb, "Use proper syntax, conventions and best practices specific to %s.\n\n", language)
	sb.WriteString("Write clean, well-documented, error-handled code that fulfills this request.\n")
	sb.WriteString("Do not include explanations outside of the code - only the code itself.\n")
	return sb.String()
}

// truncate shortens a string for log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
