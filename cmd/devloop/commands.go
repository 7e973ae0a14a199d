// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath    string
	projectDir    string
	maxIterations int
	modelName     string
	logLevel      string
	servePort     int

	rootCmd = &cobra.Command{
		Use:   "devloop",
		Short: "A closed-loop code generation and repair tool",
		Long: `Devloop generates code from a prompt, runs it against generated
tests, reviews the failures, and patches the code until it passes
or the iteration budget runs out. All completions go through a
local Ollama server.`,
	}

	runCmd = &cobra.Command{
		Use:   "run [prompt]",
		Short: "Generate code for a prompt and repair it until tests pass",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLoop, // Defined in cmd_run.go
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve run status and metrics over HTTP",
		RunE:  runServe, // Defined in cmd_serve.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	runCmd.Flags().StringVar(&projectDir, "project-dir", "", "Directory generated files are written to")
	runCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Iteration budget for the repair loop")
	runCmd.Flags().StringVar(&modelName, "model", "", "Ollama model to use")

	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&projectDir, "project-dir", "", "Directory generated files are written to")
	serveCmd.Flags().StringVar(&modelName, "model", "", "Ollama model to use")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}
