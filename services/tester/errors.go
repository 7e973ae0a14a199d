// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tester

import "errors"

var (
	// ErrUnsafeCommand marks a command the safety gate rejected.
	// Rejected commands are never executed.
	ErrUnsafeCommand = errors.New("command failed safety validation")

	// ErrNoCommand means a command could not be built for a file.
	ErrNoCommand = errors.New("no run command available")

	// ErrTestGeneration means the completion service produced no
	// usable test cases.
	ErrTestGeneration = errors.New("test generation failed")
)
