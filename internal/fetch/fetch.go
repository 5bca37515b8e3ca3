// Package fetch resolves a repository locator to a local working tree.
// Local paths pass through; remote URLs are cloned with the git binary.
package fetch

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// IsRemote reports whether the locator needs a git clone.
func IsRemote(locator string) bool {
	return strings.HasPrefix(locator, "http://") ||
		strings.HasPrefix(locator, "https://") ||
		strings.HasPrefix(locator, "git@") ||
		strings.HasSuffix(locator, ".git")
}

// Resolve returns the local working tree for a locator. Remote locators
// are cloned beneath workDir; local paths are validated and returned
// unchanged. Clone output streams over lines until the channel closes,
// then exactly one result follows on done.
func Resolve(ctx context.Context, locator, ref, workDir string) (lines <-chan string, done <-chan Result) {
	lineCh := make(chan string, 16)
	doneCh := make(chan Result, 1)

	go func() {
		defer close(lineCh)
		defer close(doneCh)

		if !IsRemote(locator) {
			path, err := resolveLocal(locator)
			doneCh <- Result{Path: path, Err: err}
			return
		}

		path, err := clone(ctx, locator, ref, workDir, lineCh)
		doneCh <- Result{Path: path, Err: err}
	}()

	return lineCh, doneCh
}

// Result is the single terminal message after the line stream ends.
type Result struct {
	Path string
	Err  error
}

func resolveLocal(locator string) (string, error) {
	abs, err := filepath.Abs(locator)
	if err != nil {
		return "", fmt.Errorf("resolve repository path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat repository: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("repository path %q is not a directory", abs)
	}
	return abs, nil
}

func clone(ctx context.Context, locator, ref, workDir string, lines chan<- string) (string, error) {
	dest := filepath.Join(workDir, "checkout")
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("clear checkout directory: %w", err)
	}

	args := []string{"clone", "--depth", "1", "--progress"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, locator, dest)

	cmd := exec.CommandContext(ctx, "git", args...)
	// Git writes progress to stderr.
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("pipe git output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start git clone: %w", err)
	}

	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanCloneOutput)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines <- line
		}
	}

	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("git clone %s: %w", locator, err)
	}
	return dest, nil
}

// scanCloneOutput splits on newline or carriage return so git's
// progress updates (which rewrite the line with \r) stream as lines.
func scanCloneOutput(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
