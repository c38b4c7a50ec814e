//go:build !windows

package render

import "os/exec"

func applyHiddenWindow(*exec.Cmd) {}
