// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tester

import (
	"fmt"
	"regexp"
	"strings"
)

// denyRule pairs a compiled pattern with the reason it blocks a
// command. Rules are evaluated in order; the first hit wins.
type denyRule struct {
	pattern *regexp.Regexp
	reason  string
}

// denyRules block commands that could damage the host. The gate is a
// last line of defense for model-generated commands, not a sandbox.
var denyRules = []denyRule{
	{regexp.MustCompile(`(?i)\brm\s+(-[rf]+\s+|--recursive\s+|--force\s+)`), "recursive or forced file removal"},
	{regexp.MustCompile(`(?i)\bremove\s+(-[rf]+\s+)`), "recursive or forced file removal"},
	{regexp.MustCompile(`(?i)\bdel\s+(/[sqa]\s+)`), "bulk file deletion"},
	{regexp.MustCompile(`(?i)\bformat\s+`), "disk formatting"},
	{regexp.MustCompile(`(?i)\bdd\s+if=`), "raw disk write"},
	{regexp.MustCompile(`(?i);\s*rm\s`), "chained file removal"},
	{regexp.MustCompile(`(?i);\s*del\s`), "chained file deletion"},
	{regexp.MustCompile(`(?i)\bmkfs\b`), "filesystem creation"},
	{regexp.MustCompile(`(?i):\(\)\s*\{\s*:`), "fork bomb"},
	{regexp.MustCompile(`(?i)\beval\b`), "dynamic code evaluation"},
	{regexp.MustCompile(`(?i)\bexec\b`), "dynamic code execution"},
}

// maxSemicolons bounds command chaining. More than this many
// separators is treated as an injection attempt.
const maxSemicolons = 3

// CommandValidator is the safety gate every command passes through
// before execution. Stateless and safe for concurrent use.
type CommandValidator struct{}

// NewCommandValidator returns a validator with the built-in rule set.
func NewCommandValidator() *CommandValidator {
	return &CommandValidator{}
}

// Validate checks a command string against the deny rules.
//
// Description:
//
//	Rejects commands that are too short to be meaningful, match any
//	deny rule, chain more than maxSemicolons statements, or carry
//	unbalanced quotes. Returns ErrUnsafeCommand with the reason; a
//	failing command must never reach the shell.
func (v *CommandValidator) Validate(command string) error {
	trimmed := strings.TrimSpace(command)
	if len(trimmed) < 2 {
		return fmt.Errorf("%w: command too short", ErrUnsafeCommand)
	}

	for _, rule := range denyRules {
		if rule.pattern.MatchString(trimmed) {
			return fmt.Errorf("%w: %s", ErrUnsafeCommand, rule.reason)
		}
	}

	if strings.Count(trimmed, ";") > maxSemicolons {
		return fmt.Errorf("%w: too many chained statements", ErrUnsafeCommand)
	}

	if strings.Count(trimmed, `'`)%2 != 0 || strings.Count(trimmed, `"`)%2 != 0 {
		return fmt.Errorf("%w: unbalanced quotes", ErrUnsafeCommand)
	}

	return nil
}
