// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tester runs generated programs and verifies their output.
//
// The TestRunner validates every command through a safety gate,
// executes actions strictly in order with fail-fast semantics, and
// aggregates outcomes into a report the review step can consume.
package tester

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/devloop-ai/devloop/services/llm"
)

// Synthetic exit codes for failures that never produced a process
// exit status.
const (
	// ExitTimeout marks an action killed by its deadline.
	ExitTimeout = -1

	// ExitSpawnError marks an action whose process never started.
	ExitSpawnError = -2

	// ExitRejected marks an action the safety gate refused to run.
	ExitRejected = -3
)

// Action is one executable test step.
type Action struct {
	// Name identifies the action in reports.
	Name string `json:"name"`

	// Command is the shell command to run.
	Command string `json:"command"`

	// Input is written to the process's stdin.
	Input string `json:"input,omitempty"`

	// Timeout bounds execution. Zero falls back to the runner default.
	Timeout time.Duration `json:"timeout,omitempty"`

	// ExpectedOutput, when non-empty, must appear as a substring of
	// stdout for the action to count as verified.
	ExpectedOutput string `json:"expected_output,omitempty"`

	// Description says what the action checks.
	Description string `json:"description,omitempty"`
}

// Result is the outcome of one action.
type Result struct {
	Command        string        `json:"command"`
	ExitCode       int           `json:"exit_code"`
	Stdout         string        `json:"stdout"`
	Stderr         string        `json:"stderr"`
	OutputVerified bool          `json:"output_verified"`
	Success        bool          `json:"success"`
	Duration       time.Duration `json:"duration"`
}

// TestRunner validates and executes test actions.
//
// Thread Safety:
//
//	The command-template cache is guarded by mu; running actions from
//	multiple goroutines is otherwise unsupported and unnecessary, the
//	loop is strictly sequential.
type TestRunner struct {
	client    llm.Client
	validator *CommandValidator
	logger    *slog.Logger

	// workDir is the directory commands run in.
	workDir string

	// defaultTimeout applies when an action carries none.
	defaultTimeout time.Duration

	mu       sync.Mutex
	commands map[string]string

	// queued holds generated actions awaiting the next run.
	queued []Action
}

// NewTestRunner creates a runner rooted at workDir.
//
// Inputs:
//
//	client - Completion client for test generation and command lookup.
//	workDir - Working directory for executed commands.
//	defaultTimeout - Per-action deadline when the action carries none.
//	logger - Structured logger. Nil falls back to slog.Default().
func NewTestRunner(client llm.Client, workDir string, defaultTimeout time.Duration, logger *slog.Logger) *TestRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 5 * time.Second
	}
	commands := make(map[string]string, len(commandTemplates))
	for ext, template := range commandTemplates {
		commands[ext] = template
	}
	return &TestRunner{
		client:         client,
		validator:      NewCommandValidator(),
		logger:         logger,
		workDir:        workDir,
		defaultTimeout: defaultTimeout,
		commands:       commands,
	}
}

// QueueActions appends actions to run on the next ExecuteAll call.
func (r *TestRunner) QueueActions(actions ...Action) {
	r.queued = append(r.queued, actions...)
}

// QueuedActions returns a copy of the pending actions.
func (r *TestRunner) QueuedActions() []Action {
	out := make([]Action, len(r.queued))
	copy(out, r.queued)
	return out
}

// ClearActions drops all pending actions.
func (r *TestRunner) ClearActions() {
	r.queued = nil
}

// ExecuteAction validates and runs a single action.
//
// Description:
//
//	The command passes through the safety gate first; a rejection
//	yields a synthetic ExitRejected result and the process is never
//	started. Commands using shell syntax run via "sh -c"; plain
//	commands are tokenized and executed directly, falling back to the
//	shell when tokenization fails. Timeouts and spawn failures map to
//	their synthetic exit codes. Success requires exit 0 and, when an
//	expected output is set, a stdout substring match.
func (r *TestRunner) ExecuteAction(ctx context.Context, action Action) Result {
	result := Result{Command: action.Command}

	if err := r.validator.Validate(action.Command); err != nil {
		r.logger.Warn("Command rejected by safety gate", "command", action.Command, "error", err)
		result.ExitCode = ExitRejected
		result.Stderr = "Command validation failed: potentially unsafe operation"
		return result
	}

	timeout := action.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if NeedsShell(action.Command) {
		cmd = exec.CommandContext(runCtx, "sh", "-c", action.Command)
	} else {
		argv, err := Tokenize(action.Command)
		if err != nil || len(argv) == 0 {
			cmd = exec.CommandContext(runCtx, "sh", "-c", action.Command)
		} else {
			cmd = exec.CommandContext(runCtx, argv[0], argv[1:]...)
		}
	}
	cmd.Dir = r.workDir
	if action.Input != "" {
		cmd.Stdin = strings.NewReader(action.Input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.ExitCode = ExitTimeout
		result.Stderr = fmt.Sprintf("Timeout after %gs", timeout.Seconds())
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = ExitSpawnError
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		}
	default:
		result.ExitCode = 0
	}

	result.OutputVerified = action.ExpectedOutput == "" ||
		strings.Contains(result.Stdout, action.ExpectedOutput)
	result.Success = result.ExitCode == 0 && result.OutputVerified

	r.logger.Info("Executed action",
		"command", action.Command,
		"exit_code", result.ExitCode,
		"success", result.Success,
		"duration", result.Duration,
	)
	return result
}

// ExecuteAll runs the queued actions strictly in order, stopping at
// the first failure.
//
// Description:
//
//	Every action up to and including the first failing one gets a
//	result; actions after it are never started. Failure details are
//	collected into the report's error log for the review prompt. The
//	queue is consumed by the run.
func (r *TestRunner) ExecuteAll(ctx context.Context) Report {
	actions := r.queued
	r.queued = nil

	report := Report{TotalActions: len(actions)}

	for i, action := range actions {
		result := r.ExecuteAction(ctx, action)
		report.Results = append(report.Results, result)

		if result.Success {
			report.SuccessfulActions++
			continue
		}

		report.FailedActions++
		report.ErrorLogs = append(report.ErrorLogs, errorLogFor(action, result))
		report.FirstFailure = &Failure{
			ActionIndex: i,
			Action:      action,
			Result:      result,
		}
		break
	}

	report.finalize()
	r.logger.Info("Test run complete",
		"total", report.TotalActions,
		"passed", report.SuccessfulActions,
		"failed", report.FailedActions,
	)
	return report
}

// errorLogFor renders a one-line failure summary for the error log.
func errorLogFor(action Action, result Result) string {
	if result.ExitCode != 0 {
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			detail = "no error output"
		}
		return fmt.Sprintf("Command '%s' failed with exit code %d: %s",
			action.Command, result.ExitCode, detail)
	}
	return fmt.Sprintf("Command '%s' output verification failed. Expected '%s' but got '%s'",
		action.Command, action.ExpectedOutput, strings.TrimSpace(result.Stdout))
}
