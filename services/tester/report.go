// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tester

import (
	"fmt"
	"strings"
)

// Failure identifies the first failing action of a run.
type Failure struct {
	ActionIndex int    `json:"action_index"`
	Action      Action `json:"action"`
	Result      Result `json:"result"`
}

// Report aggregates one fail-fast test run.
type Report struct {
	TotalActions      int      `json:"total_actions"`
	SuccessfulActions int      `json:"successful_actions"`
	FailedActions     int      `json:"failed_actions"`
	SuccessRate       string   `json:"success_rate"`
	Results           []Result `json:"results"`
	ErrorLogs         []string `json:"error_logs,omitempty"`
	FirstFailure      *Failure `json:"first_failure,omitempty"`
}

// AllPassed reports whether every queued action succeeded.
func (rep Report) AllPassed() bool {
	return rep.TotalActions > 0 && rep.SuccessfulActions == rep.TotalActions
}

// finalize computes the success rate once counts are settled.
func (rep *Report) finalize() {
	if rep.TotalActions == 0 {
		rep.SuccessRate = "0.0%"
		return
	}
	rate := float64(rep.SuccessfulActions) / float64(rep.TotalActions) * 100
	rep.SuccessRate = fmt.Sprintf("%.1f%%", rate)
}

// outputClip bounds how much stdout/stderr the formatted report shows
// per test.
const outputClip = 500

// FormatReport renders a report as the plain-text summary fed to the
// review step.
func FormatReport(rep Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Test Summary: %d/%d tests passed\n", rep.SuccessfulActions, rep.TotalActions)
	fmt.Fprintf(&sb, "Success Rate: %s\n", rep.SuccessRate)

	if len(rep.ErrorLogs) > 0 {
		sb.WriteString("\nERROR LOGS:\n")
		for _, log := range rep.ErrorLogs {
			fmt.Fprintf(&sb, "- %s\n", log)
		}
	}

	sb.WriteString("\nDetailed Results:\n")
	for i, result := range rep.Results {
		fmt.Fprintf(&sb, "\nTest %d:\n", i+1)
		fmt.Fprintf(&sb, "  Command: %s\n", result.Command)
		fmt.Fprintf(&sb, "  Exit Code: %d\n", result.ExitCode)
		fmt.Fprintf(&sb, "  Output Verified: %t\n", result.OutputVerified)
		if out := clip(result.Stdout, outputClip); out != "" {
			fmt.Fprintf(&sb, "  Output: %s\n", out)
		}
		if errOut := clip(result.Stderr, outputClip); errOut != "" {
			fmt.Fprintf(&sb, "  Error: %s\n", errOut)
		}
		fmt.Fprintf(&sb, "  Success: %t\n", result.Success)
	}

	return sb.String()
}

// clip truncates output for display.
func clip(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
