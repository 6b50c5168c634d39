//go:build !unix

package runner

import "os/exec"

// killProcessGroup is a no-op where process groups are unavailable; the
// default cancellation kills the connector process only.
func killProcessGroup(*exec.Cmd) {}
