package runner

import "al.essio.dev/pkg/shellescape"

// FormatCommand renders argv as a shell command line. Tokens holding
// whitespace or shell metacharacters are single-quoted.
func FormatCommand(argv []string) string {
	return shellescape.QuoteCommand(argv)
}
