// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1.
func Fatal(err error) {
	report(os.Stderr, err)
	os.Exit(1)
}

func report(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}
