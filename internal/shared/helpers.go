// Package shared provides common utility functions used across multiple
// packages in the dh-release codebase.
package shared

import (
	"fmt"
	"strings"

	"dh-release/internal/types"
)

// PackageEnvVar names the directory variable exported for a package:
// dashes are dropped, the rest upper-cased, and DIR appended.
func PackageEnvVar(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "")) + "DIR"
}

// RenderEnvironment formats setup statements as bash lines.
func RenderEnvironment(env types.Environment) string {
	var builder strings.Builder
	for _, statement := range env.Statements {
		switch statement.Kind {
		case types.EnvStatementExport:
			builder.WriteString("export " + statement.Name + "=" + statement.Value + "\n")
		case types.EnvStatementSource:
			builder.WriteString("source " + statement.Value + "\n")
		default:
			builder.WriteString(statement.Value + "\n")
		}
	}
	return builder.String()
}

// CommandLine renders a command for logs and error messages.
func CommandLine(command types.Command) string {
	parts := append([]string{command.Name}, command.Args...)
	return strings.Join(parts, " ")
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// HTTPStatusErrorWithBody creates a formatted error that includes the
// response body for non-2xx HTTP responses.
func HTTPStatusErrorWithBody(status int, url string, body string) error {
	return fmt.Errorf("status=%d url=%s response=%s", status, url, body)
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}
