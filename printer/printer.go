// Package printer renders the pipeline's terminal output: green ticks
// for passing stages, yellow warnings, red crosses for failures.
// Colors are forced on unless NO_COLOR is set.
package printer

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
)

func init() {
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a green tick line.
func Success(format string, a ...any) {
	green.Printf("✓ %s", fmt.Sprintf(format, a...))
}

// Warning prints a yellow warning line.
func Warning(format string, a ...any) {
	yellow.Printf("⚠ %s", fmt.Sprintf(format, a...))
}

// Failure prints a red cross line.
func Failure(format string, a ...any) {
	red.Printf("✗ %s", fmt.Sprintf(format, a...))
}

// Step prints a cyan arrow line, marking one stage of a multi-step
// operation.
func Step(format string, a ...any) {
	cyan.Printf("→ %s", fmt.Sprintf(format, a...))
}

// Info prints a plain message.
func Info(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Println prints a plain line.
func Println(a ...any) {
	fmt.Println(a...)
}

// Printf prints a plain formatted message.
func Printf(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Error writes a formatted failure to stderr and returns a bare error
// carrying only the title, so cobra does not print the details twice.
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error with key/value details between the
// explanation and the suggestions. Keys print sorted.
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(os.Stderr, "%s\n", explanation)
	}

	if len(context) > 0 {
		fmt.Fprintln(os.Stderr)
		keys := make([]string, 0, len(context))
		for key := range context {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", key, context[key])
		}
	}

	switch {
	case len(suggestions) == 1:
		fmt.Fprintf(os.Stderr, "\n%s\n", suggestions[0])
	case len(suggestions) > 1:
		fmt.Fprintf(os.Stderr, "\nEither:\n")
		for i, suggestion := range suggestions {
			fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, suggestion)
		}
	}

	return fmt.Errorf("%s", strings.TrimSpace(title))
}
