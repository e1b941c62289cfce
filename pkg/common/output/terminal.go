package output

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/term"
)

// DetectPager returns $PAGER when set, else less or more from PATH, else "".
func DetectPager() string {
	if pager := strings.TrimSpace(os.Getenv("PAGER")); pager != "" {
		return pager
	}
	for _, candidate := range []string{"less", "more"} {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// RunPager shows content through pager.
func RunPager(pager string, content string) error {
	fields := strings.Fields(pager)
	if len(fields) == 0 {
		return fmt.Errorf("empty pager command")
	}
	args := fields[1:]
	if fields[0] == "less" && len(args) == 0 {
		args = []string{"-R"}
	}

	cmd := exec.Command(fields[0], args...)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pager %s failed: %w", fields[0], err)
	}
	return nil
}

// ClearTerminal wipes the screen and scrollback so secrets do not linger.
func ClearTerminal() {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print("\033[2J\033[3J\033[H")
	}
	if clearCmd := GetClearCommand(); clearCmd != "" {
		cmd := exec.Command(clearCmd)
		cmd.Stdout = os.Stdout
		_ = cmd.Run()
	}
}

// GetClearCommand returns the platform's clear command found on PATH, or "".
func GetClearCommand() string {
	candidates := []string{"clear"}
	if runtime.GOOS == "windows" {
		candidates = []string{"cls", "clear"}
	}
	for _, candidate := range candidates {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
