// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"testing"

	"github.com/devloop-ai/devloop/services/orchestrator"
)

func TestOutcomeExitCode(t *testing.T) {
	tests := []struct {
		name   string
		status orchestrator.Status
		want   int
	}{
		{"success exits zero", orchestrator.StatusSuccess, exitSuccess},
		{"exhausted exits two", orchestrator.StatusExhausted, exitExhausted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := outcomeExitCode(tc.status); got != tc.want {
				t.Errorf("outcomeExitCode(%s) = %d, want %d", tc.status, got, tc.want)
			}
		})
	}
}
