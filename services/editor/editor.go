// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package editor implements the source-editing side of the repair loop.
//
// The SourceEditor owns the in-memory file cache, generates code from
// prompts, parses reviewer feedback into structured items, and applies
// line-addressed patches. It never parses target-language syntax; all
// placement decisions are text heuristics.
//
// Thread Safety:
//
//	SourceEditor is owned by the single control goroutine of the
//	orchestrator and is NOT safe for concurrent use.
package editor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devloop-ai/devloop/services/llm"
)

// ProjectContext is the immutable per-run project description.
//
// It is built once during initialization and passed by value into each
// component constructor.
type ProjectContext struct {
	// Description is the free-text project description.
	Description string

	// Type is the coarse project category (cli, backend, library, ...).
	Type string

	// RootDir is the directory all file paths are resolved against.
	RootDir string

	// Languages are the target languages, primary first.
	Languages []string

	// OS is a free-form environment descriptor for prompts.
	OS string
}

// PrimaryLanguage returns the first configured language, defaulting
// to python.
func (p ProjectContext) PrimaryLanguage() string {
	if len(p.Languages) > 0 {
		return p.Languages[0]
	}
	return "python"
}

// EditFocus narrows what a generation or edit cycle should touch.
//
// Set once per cycle.
type EditFocus struct {
	// Description says what the cycle is working on.
	Description string

	// LineStart/LineEnd optionally bound the focus. Zero means unset.
	LineStart int
	LineEnd   int

	// Components optionally name the components in focus.
	Components []string
}

// ChangeLogEntry records one applied change. The change log is
// append-only for the life of the run and used for audit, never for
// rollback.
type ChangeLogEntry struct {
	ID          string    `json:"id"`
	Filepath    string    `json:"filepath"`
	LineStart   int       `json:"line_start,omitempty"`
	LineEnd     int       `json:"line_end,omitempty"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	AppliedAt   time.Time `json:"applied_at"`
}

// SourceEditor generates, parses, and patches source files.
type SourceEditor struct {
	project ProjectContext
	client  llm.Client
	logger  *slog.Logger

	// files is the single authoritative in-memory mirror of disk,
	// loaded lazily and written eagerly on every successful apply.
	files map[string]string

	// order preserves first-seen order so "the first cached file" is
	// deterministic when feedback names no file.
	order []string

	// changes is the append-only audit log.
	changes []ChangeLogEntry

	focus EditFocus
}

// NewSourceEditor creates a SourceEditor for the given project.
//
// Inputs:
//
//	project - Immutable project context.
//	client - Completion client. Must not be nil.
//	logger - Structured logger. Nil falls back to slog.Default().
func NewSourceEditor(project ProjectContext, client llm.Client, logger *slog.Logger) *SourceEditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceEditor{
		project: project,
		client:  client,
		logger:  logger,
		files:   make(map[string]string),
	}
}

// Project returns the project context.
func (e *SourceEditor) Project() ProjectContext {
	return e.project
}

// SetFocus sets the focus for the current generation/edit cycle. The
// generation prompt surfaces the focus description and components,
// and unranged manual edits inherit the focus line range.
func (e *SourceEditor) SetFocus(focus EditFocus) {
	e.focus = focus
}

// Focus returns the current cycle's focus.
func (e *SourceEditor) Focus() EditFocus {
	return e.focus
}

// ChangeLog returns a copy of the audit log.
func (e *SourceEditor) ChangeLog() []ChangeLogEntry {
	out := make([]ChangeLogEntry, len(e.changes))
	copy(out, e.changes)
	return out
}

// CachedFiles returns the cached filepaths in first-seen order.
func (e *SourceEditor) CachedFiles() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// cachePut stores content and tracks first-seen order.
func (e *SourceEditor) cachePut(path, content string) {
	if _, seen := e.files[path]; !seen {
		e.order = append(e.order, path)
	}
	e.files[path] = content
}

// FileContent returns the cached content for a filepath.
func (e *SourceEditor) FileContent(path string) (string, bool) {
	content, ok := e.files[path]
	return content, ok
}

// fullPath resolves a filepath against the project root.
func (e *SourceEditor) fullPath(path string) string {
	if filepath.IsAbs(path) || e.project.RootDir == "" {
		return path
	}
	return filepath.Join(e.project.RootDir, path)
}

// LoadFile reads a file from disk into the cache.
//
// Outputs:
//
//	string - The file content.
//	error - Wraps ErrFileNotLoaded on read failure.
func (e *SourceEditor) LoadFile(path string) (string, error) {
	full := e.fullPath(path)
	data, err := os.ReadFile(full)
	if err != nil {
		e.logger.Warn("Failed to load file", "path", full, "error", err)
		return "", fmt.Errorf("%w: %s: %v", ErrFileNotLoaded, path, err)
	}
	content := string(data)
	e.cachePut(path, content)
	return content, nil
}

// SaveFile writes content to disk and updates the cache.
//
// Description:
//
//	Directories are created on demand. The write goes to a temp file
//	in the same directory followed by an atomic rename, so a crash
//	mid-write never leaves a truncated target file. There is still no
//	rollback path once the rename lands.
func (e *SourceEditor) SaveFile(path, content string) error {
	full := e.fullPath(path)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".devloop-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	e.cachePut(path, content)
	return nil
}

// recordChange appends an entry to the audit log.
func (e *SourceEditor) recordChange(path string, lineStart, lineEnd int, code, description string) {
	e.changes = append(e.changes, ChangeLogEntry{
		ID:          uuid.NewString(),
		Filepath:    path,
		LineStart:   lineStart,
		LineEnd:     lineEnd,
		Code:        code,
		Description: description,
		AppliedAt:   time.Now(),
	})
}

// StandardFixes returns the checklist of routine fixes to try before
// escalating to code changes. Advisory only.
func StandardFixes() []string {
	return []string{
		"Check for syntax errors",
		"Verify all imports/dependencies are installed",
		"Check file permissions",
		"Restart development server/environment",
		"Clear cache files",
		"Check for outdated packages",
	}
}

// defaultTargetFile returns the first cached file, or "" when the
// cache is empty. Used when feedback names no file.
func (e *SourceEditor) defaultTargetFile() string {
	for _, path := range e.CachedFiles() {
		return path
	}
	return ""
}

// commentPrefix returns the single-line comment marker for a language.
func commentPrefix(language string) string {
	switch strings.ToLower(language) {
	case "go", "javascript", "typescript", "java", "c", "c++", "cpp", "rust":
		return "//"
	default:
		return "#"
	}
}
