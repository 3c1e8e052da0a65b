// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. Check commands return it when the check ran but found
// defects: the exit code is the defect count, and the command has
// already logged the report.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this interface on
// returned errors to distinguish "handled non-zero exit" from
// "unexpected error to display".
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitWithCount returns nil for a zero count and an *ExitError
// otherwise. Exit statuses are eight bits wide, so counts above 255
// are reported as 255 rather than wrapping to a success.
func ExitWithCount(count int) error {
	if count <= 0 {
		return nil
	}
	return &ExitError{Code: min(count, 255)}
}
