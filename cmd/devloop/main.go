// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command devloop runs the closed-loop code generation and repair tool.
//
// Usage:
//
//	devloop run "write a calculator in python"
//	devloop run --max-iterations 10 --model llama3.2
//	devloop serve --port 8080
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
