// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteScript writes body as an executable /bin/sh script named name in
// a fresh temporary directory and returns its absolute path. The
// shebang line is added automatically.
//
//	fake := testutil.WriteScript(t, "xdotool", `echo 41943041`)
func WriteScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("writing script %s: %v", name, err)
	}
	return path
}
