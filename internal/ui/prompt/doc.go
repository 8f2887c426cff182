// Package prompt provides the interactive prompts shelf shows on a terminal.
//
//   - [Confirm]: yes/no question, defaulting to no
//   - [Select]: filterable list of options, used to choose one app package
//
// Both render to stderr so stdout stays clean for piping. Callers check
// for a terminal first; neither prompt is shown for --json output.
package prompt
