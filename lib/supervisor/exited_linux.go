// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"errors"

	"golang.org/x/sys/unix"
)

// childExited reports whether the child pid has already exited, without
// reaping it. A child that has been reaped counts as exited.
func childExited(pid int) bool {
	for {
		var info unix.Siginfo
		err := unix.Waitid(unix.P_PID, pid, &info, unix.WEXITED|unix.WNOHANG|unix.WNOWAIT, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return errors.Is(err, unix.ECHILD)
		}
		// With WNOHANG the kernel leaves si_signo zero while the child
		// is still running.
		return info.Signo != 0
	}
}
