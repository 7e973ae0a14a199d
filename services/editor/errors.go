// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package editor

import "errors"

var (
	// ErrInvalidRange indicates a line range that fails validation.
	// The target file is never mutated when this is returned.
	ErrInvalidRange = errors.New("invalid line range")

	// ErrFileNotLoaded indicates the target file could not be read
	// into the cache.
	ErrFileNotLoaded = errors.New("file not loaded")

	// ErrNoTargetFile indicates an edit carried no filepath and none
	// could be defaulted from the cache.
	ErrNoTargetFile = errors.New("no target file for edit")

	// ErrGenerationFailed indicates the completion service produced
	// no usable code.
	ErrGenerationFailed = errors.New("code generation failed")
)
