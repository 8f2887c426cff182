// Package cmd provides helpers for executing external commands with proper error handling.
//
// Failures carry the command's stderr as the error message, which makes
// a failing package listing or launcher readable to users.
//
// # Usage
//
//	out, err := cmd.OutputContext(ctx, "", "powershell", "-File", "list.ps1")
//	if err != nil {
//	    return fmt.Errorf("list packages: %w", err)
//	}
//
// Every command is echoed by the context logger in verbose mode.
//
// # Cancellation
//
// When ctx is done before or while the command runs, the returned error
// is exactly ctx.Err(), so callers can compare against context.Canceled.
package cmd
