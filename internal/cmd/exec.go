// Package cmd provides helpers for executing external commands with proper error handling.
package cmd

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/raphi011/shelf/internal/log"
)

// RunContext runs name with args in dir (empty means the current directory).
// A failure returns stderr as the error message if there was any.
// If ctx is done the error is ctx.Err().
func RunContext(ctx context.Context, dir, name string, args ...string) error {
	_, err := run(ctx, dir, name, args, false)
	return err
}

// OutputContext is like RunContext but returns stdout.
func OutputContext(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return run(ctx, dir, name, args, true)
}

// Start launches name detached from the current process and does not wait.
// A relative path in name is resolved against the current directory, not dir.
func Start(ctx context.Context, dir, name string, args ...string) error {
	if dir != "" && strings.ContainsRune(name, filepath.Separator) && !filepath.IsAbs(name) {
		abs, err := filepath.Abs(name)
		if err != nil {
			return err
		}
		name = abs
	}
	log.FromContext(ctx).Command(name, args...)
	c := exec.Command(name, args...)
	c.Dir = dir
	if err := c.Start(); err != nil {
		return err
	}
	return c.Process.Release()
}

func run(ctx context.Context, dir, name string, args []string, capture bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.FromContext(ctx).Command(name, args...)

	c := exec.CommandContext(ctx, name, args...)
	c.Dir = dir
	var stdout, stderr bytes.Buffer
	if capture {
		c.Stdout = &stdout
	}
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errMsg := strings.TrimSpace(stderr.String()); errMsg != "" {
			return nil, errors.New(errMsg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
