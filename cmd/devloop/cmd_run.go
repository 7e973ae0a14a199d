// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devloop-ai/devloop/pkg/config"
	"github.com/devloop-ai/devloop/pkg/logging"
	"github.com/devloop-ai/devloop/services/llm"
	"github.com/devloop-ai/devloop/services/orchestrator"
)

// Exit codes for the run command.
const (
	exitSuccess   = 0
	exitExhausted = 2
)

// outcomeExitCode maps a run outcome to the process exit code.
func outcomeExitCode(status orchestrator.Status) int {
	if status == orchestrator.StatusSuccess {
		return exitSuccess
	}
	return exitExhausted
}

// loadConfig loads the file config and applies CLI flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	if projectDir != "" {
		cfg.Project.RootDir = projectDir
	}
	if maxIterations > 0 {
		cfg.MaxIterations = maxIterations
	}
	if modelName != "" {
		cfg.Ollama.Model = modelName
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, config.Validate(cfg)
}

// runLoop is the entry point for "devloop run".
func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		Service: "devloop",
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	prompt := ""
	if len(args) > 0 {
		prompt = strings.TrimSpace(args[0])
	}
	if prompt == "" {
		prompt, err = readPrompt()
		if err != nil {
			return err
		}
	}
	if prompt == "" {
		return fmt.Errorf("no prompt provided")
	}

	client, err := llm.NewOllamaClient(cfg.Ollama.BaseURL, cfg.Ollama.Model)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := orchestrator.New(cfg, client, logger.Logger)
	result, err := orch.Run(ctx, prompt)
	if err != nil {
		return err
	}

	printRunSummary(result)
	if code := outcomeExitCode(result.Status); code != exitSuccess {
		// os.Exit skips deferred calls; flush the file log first.
		logger.Close()
		os.Exit(code)
	}
	return nil
}

// readPrompt asks for the prompt interactively when none was given.
func readPrompt() (string, error) {
	fmt.Print("What would you like to build? ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read prompt: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// printRunSummary writes the human-facing outcome to stdout.
func printRunSummary(result *orchestrator.RunResult) {
	fmt.Printf("\nRun %s finished: %s\n", result.ID, result.Status)
	fmt.Printf("Target file: %s\n", result.TargetFile)
	fmt.Printf("Iterations: %d\n", result.Iterations)
	fmt.Printf("Tests: %d/%d passed (%s)\n",
		result.Report.SuccessfulActions, result.Report.TotalActions, result.Report.SuccessRate)
	if result.Status != orchestrator.StatusSuccess && result.Feedback != "" {
		fmt.Printf("\nLast review feedback:\n%s\n", result.Feedback)
	}
}
