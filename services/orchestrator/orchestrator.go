// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package orchestrator drives the generate, test, review, patch loop.
//
// One Orchestrator owns one run at a time. Each iteration generates or
// patches code, runs the test actions fail-fast, asks the review agent
// for feedback, and either declares success or feeds the findings back
// into the editor. The loop is bounded by the configured iteration
// budget; exhausting it is a normal outcome, not an error.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/devloop-ai/devloop/pkg/config"
	"github.com/devloop-ai/devloop/services/editor"
	"github.com/devloop-ai/devloop/services/llm"
	"github.com/devloop-ai/devloop/services/reviewer"
	"github.com/devloop-ai/devloop/services/tester"
)

var tracer = otel.Tracer("devloop.orchestrator")

// successVerdictPattern matches the SUCCESS token as its own word at
// the start of a line. Incidental wording like "ran successfully"
// inside a failure sentence must not end the run.
var successVerdictPattern = regexp.MustCompile(`(?m)^\s*SUCCESS\b`)

// hasSuccessVerdict reports whether review feedback accepts the code.
func hasSuccessVerdict(feedback string) bool {
	return successVerdictPattern.MatchString(feedback)
}

// Status is the terminal state of a run.
type Status string

const (
	// StatusSuccess means the review accepted the code or all tests
	// passed.
	StatusSuccess Status = "SUCCESS"

	// StatusExhausted means the iteration budget ran out before the
	// code was accepted.
	StatusExhausted Status = "EXHAUSTED"
)

// RunResult summarizes one completed run.
type RunResult struct {
	ID         string        `json:"id"`
	Prompt     string        `json:"prompt"`
	TargetFile string        `json:"target_file"`
	Status     Status        `json:"status"`
	Iterations int           `json:"iterations"`
	Report     tester.Report `json:"report"`
	Feedback   string        `json:"feedback,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Orchestrator wires the editor, runner, and reviewer into the loop.
//
// Thread Safety:
//
//	One run at a time. The last-run snapshot is read by the API server
//	only after Run returns.
type Orchestrator struct {
	cfg       config.Config
	llmClient llm.Client
	editor    *editor.SourceEditor
	runner    *tester.TestRunner
	reviewer  *reviewer.ReviewAgent
	logger    *slog.Logger

	lastRun *RunResult
}

// New creates an orchestrator and its collaborators. The source
// editor is created per run inside Run, since its project context
// carries the run's prompt and inferred language.
//
// Inputs:
//
//	cfg - Validated run configuration.
//	client - Completion client shared by all collaborators.
//	logger - Structured logger. Nil falls back to slog.Default().
func New(cfg config.Config, client llm.Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		cfg:       cfg,
		llmClient: client,
		runner:    tester.NewTestRunner(client, cfg.Project.RootDir, cfg.ActionTimeout, logger),
		reviewer:  reviewer.NewReviewAgent(client, logger),
		logger:    logger,
	}
}

// LastRun returns the most recent completed run, or nil.
func (o *Orchestrator) LastRun() *RunResult {
	return o.lastRun
}

// Run executes the full repair loop for a prompt.
//
// Description:
//
//	Iteration zero infers the target file and generates initial code,
//	degrading to a placeholder stub on generation failure so the loop
//	always has something to test. Every iteration then queues tests
//	(or a smoke test when generation fails), executes them fail-fast,
//	requests a review, and decides: a SUCCESS verdict or a fully
//	passing run terminates the loop; anything else feeds the parsed
//	feedback into the editor for the next iteration.
//
// Outputs:
//
//	*RunResult - Always non-nil on a nil error, including EXHAUSTED.
//	error - Only infrastructure failures (context cancelled, target
//	file unwritable). Test failures are not errors.
func (o *Orchestrator) Run(ctx context.Context, prompt string) (*RunResult, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.Run",
		trace.WithAttributes(attribute.Int("max_iterations", o.cfg.MaxIterations)))
	defer span.End()

	result := &RunResult{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		StartedAt: time.Now(),
	}
	o.reviewer.SetOriginalPrompt(prompt)

	// The editor is built per run so each run starts with a fresh file
	// cache and a project context describing this run's request.
	o.editor = editor.NewSourceEditor(editor.ProjectContext{
		Description: prompt,
		Type:        o.cfg.Project.Type,
		RootDir:     o.cfg.Project.RootDir,
		Languages:   []string{InferLanguage(prompt)},
		OS:          o.cfg.Project.OS,
	}, o.llmClient, o.logger)

	targetFile := o.InferTargetFile(ctx, prompt)
	result.TargetFile = targetFile
	o.logger.Info("Starting run", "run_id", result.ID, "target", targetFile)

	var feedback string
	for iteration := 0; iteration < o.cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		iterStart := time.Now()
		iterationsTotal.Inc()
		result.Iterations = iteration + 1
		o.logger.Info("Iteration start", "iteration", iteration+1, "of", o.cfg.MaxIterations)

		if iteration == 0 {
			o.editor.SetFocus(editor.EditFocus{Description: prompt})
			if err := o.editor.GenerateInitialCode(ctx, prompt, targetFile); err != nil {
				o.logger.Warn("Initial generation failed, using placeholder", "error", err)
				if err := o.editor.WritePlaceholder(targetFile, prompt); err != nil {
					return nil, fmt.Errorf("failed to write target file: %w", err)
				}
			}
		} else {
			items := editor.ParseReviewerFeedback(feedback)
			if len(items) > 0 {
				o.editor.SetFocus(editor.EditFocus{
					Description: items[0].Description,
					LineStart:   items[0].LineStart,
					LineEnd:     items[0].LineEnd,
				})
			}
			edits := o.editor.GenerateEditsFromFeedback(items)
			applied := o.editor.ApplyEdits(ctx, edits)
			o.logger.Info("Applied feedback", "items", len(items), "edits", len(edits), "applied", len(applied))
		}

		report := o.testIteration(ctx, prompt, targetFile)
		result.Report = report

		feedback = o.reviewIteration(ctx, prompt, report)
		result.Feedback = feedback

		iterationDuration.Observe(time.Since(iterStart).Seconds())

		if hasSuccessVerdict(feedback) || report.AllPassed() {
			result.Status = StatusSuccess
			break
		}
	}

	if result.Status == "" {
		result.Status = StatusExhausted
	}
	result.FinishedAt = time.Now()
	runsTotal.WithLabelValues(string(result.Status)).Inc()
	span.SetAttributes(
		attribute.String("status", string(result.Status)),
		attribute.Int("iterations", result.Iterations),
	)

	o.logger.Info("Run finished",
		"run_id", result.ID,
		"status", string(result.Status),
		"iterations", result.Iterations,
	)
	o.lastRun = result
	return result, nil
}

// testIteration queues tests for the current code and executes them.
func (o *Orchestrator) testIteration(ctx context.Context, prompt, targetFile string) tester.Report {
	runCommand := o.runner.RunCommandForFile(ctx, targetFile)

	code, _ := o.editor.FileContent(targetFile)
	if _, err := o.runner.GenerateTests(ctx, prompt, code, runCommand, o.cfg.TestCount); err != nil {
		o.logger.Warn("Test generation failed, falling back to smoke test", "error", err)
		o.runner.ClearActions()
		o.runner.QueueActions(tester.SmokeTestAction(runCommand))
	}

	report := o.runner.ExecuteAll(ctx)
	actionsTotal.WithLabelValues("passed").Add(float64(report.SuccessfulActions))
	actionsTotal.WithLabelValues("failed").Add(float64(report.FailedActions))
	return report
}

// reviewIteration requests feedback on a test report.
func (o *Orchestrator) reviewIteration(ctx context.Context, prompt string, report tester.Report) string {
	reviewCtx, cancel := context.WithTimeout(ctx, o.cfg.ReviewTimeout)
	defer cancel()

	reviewPrompt := fmt.Sprintf(
		"Review the code changes for this request: %s\n"+
			"%d of %d tests passed.\n"+
			"Format your response with clear sections for ISSUES, SUGGESTIONS, and CODE.",
		prompt, report.SuccessfulActions, report.TotalActions)

	reviewContext := fmt.Sprintf("Success rate: %s", report.SuccessRate)
	if report.FirstFailure != nil {
		reviewContext += fmt.Sprintf("; first failure: action %d ('%s'), exit code %d",
			report.FirstFailure.ActionIndex+1,
			report.FirstFailure.Action.Command,
			report.FirstFailure.Result.ExitCode)
	}
	if fixes := tester.SuggestFixes(report); len(fixes) > 0 {
		var hints []string
		for _, fix := range fixes {
			hints = append(hints, fix.Description)
		}
		reviewContext += "; suggested fixes: " + strings.Join(hints, " | ")
	}

	return o.reviewer.Review(reviewCtx, tester.FormatReport(report), reviewPrompt, reviewContext)
}
