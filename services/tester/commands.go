// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tester

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/devloop-ai/devloop/services/llm"
)

// commandTemplates maps file extensions to run-command templates.
// Placeholders: {filepath}, {dirpath}, {basename}, {classname}.
var commandTemplates = map[string]string{
	".py":     "python {filepath}",
	".js":     "node {filepath}",
	".ts":     "ts-node {filepath}",
	".rb":     "ruby {filepath}",
	".php":    "php {filepath}",
	".pl":     "perl {filepath}",
	".sh":     "bash {filepath}",
	".lua":    "lua {filepath}",
	".go":     "go run {filepath}",
	".swift":  "swift {filepath}",
	".kt":     "kotlinc -script {filepath}",
	".groovy": "groovy {filepath}",
	".java":   "java -cp {dirpath} {classname}",
	".rs":     "cargo run --bin {basename} || (cd {dirpath} && rustc {filepath} -o {basename} && ./{basename})",
	".c":      "(cd {dirpath} && gcc {filepath} -o {basename} && ./{basename})",
	".cpp":    "(cd {dirpath} && g++ {filepath} -o {basename} && ./{basename})",
	".cs":     "dotnet run --project {filepath}",
}

// RunCommandForFile builds the command that executes a source file.
//
// Description:
//
//	Looks the extension up in the template table. Unknown extensions
//	fall back to a one-shot completion query asking for a template;
//	the answer is cached in the table so the model is asked at most
//	once per extension per process. If the completion fails, the file
//	is run directly as "./{filepath}".
func (r *TestRunner) RunCommandForFile(ctx context.Context, path string) string {
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.Lock()
	template, ok := r.commands[ext]
	r.mu.Unlock()

	if !ok {
		template = r.queryRunTemplate(ctx, ext)
		r.mu.Lock()
		r.commands[ext] = template
		r.mu.Unlock()
	}

	return expandTemplate(template, path)
}

// queryRunTemplate asks the completion service how to run an unknown
// file type. Failure degrades to direct execution.
func (r *TestRunner) queryRunTemplate(ctx context.Context, ext string) string {
	prompt := fmt.Sprintf(
		"What is the command-line command to execute a file with the '%s' extension?\n"+
			"Reply with ONLY the command template, using {filepath} as the placeholder for the file path.\n"+
			"Example answer for '.py': python {filepath}", ext)

	response, err := r.client.Generate(ctx, prompt,
		llm.GenerationParams{Temperature: llm.Float32Ptr(0.1)})
	if err != nil {
		r.logger.Warn("Run-command lookup failed, falling back to direct execution",
			"extension", ext, "error", err)
		return "./{filepath}"
	}

	template := strings.TrimSpace(strings.Trim(strings.TrimSpace(response), "`"))
	if template == "" {
		return "./{filepath}"
	}
	if idx := strings.IndexByte(template, '\n'); idx >= 0 {
		template = strings.TrimSpace(template[:idx])
	}
	if !strings.Contains(template, "{filepath}") {
		template += " {filepath}"
	}
	r.logger.Info("Learned run command for extension", "extension", ext, "template", template)
	return template
}

// expandTemplate fills placeholders with values derived from the path.
func expandTemplate(template, path string) string {
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	replacer := strings.NewReplacer(
		"{filepath}", path,
		"{dirpath}", dir,
		"{basename}", base,
		"{classname}", base,
	)
	return replacer.Replace(template)
}

// shellFeatures are the substrings that force a command through the
// shell instead of direct argv execution.
var shellFeatures = []string{"|", ">", "<", "&", ";", "$(", "`", "&&", "||"}

// NeedsShell reports whether a command uses shell syntax.
func NeedsShell(command string) bool {
	for _, feature := range shellFeatures {
		if strings.Contains(command, feature) {
			return true
		}
	}
	return false
}

// Tokenize splits a command line into argv the way a POSIX shell
// would, honoring single quotes, double quotes, and backslash escapes.
//
// Outputs:
//
//	[]string - The tokens.
//	error - Unterminated quoting.
func Tokenize(command string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inToken := false
	var quote rune

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case quote == '\'':
			if c == '\'' {
				quote = 0
			} else {
				current.WriteRune(c)
			}
		case quote == '"':
			switch c {
			case '"':
				quote = 0
			case '\\':
				if i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\\' || runes[i+1] == '$' || runes[i+1] == '`') {
					i++
					current.WriteRune(runes[i])
				} else {
					current.WriteRune(c)
				}
			default:
				current.WriteRune(c)
			}
		case c == '\'' || c == '"':
			quote = c
			inToken = true
		case c == '\\':
			if i+1 < len(runes) {
				i++
				current.WriteRune(runes[i])
				inToken = true
			}
		case c == ' ' || c == '\t' || c == '\n':
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(c)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %q quote", quote)
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}
