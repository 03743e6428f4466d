// Package cli provides shared console formatting for the netkit commands.
package cli

import (
	"os"
	"strings"
)

// colorEnabled is false when NO_COLOR env var is set (per no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

// SetColor turns ANSI colors on or off. The CLI disables them when stdout
// is not a terminal. NO_COLOR always wins.
func SetColor(on bool) {
	colorEnabled = on && os.Getenv("NO_COLOR") == ""
}

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Green wraps s in ANSI green.
func Green(s string) string { return paint("32", s) }

// Yellow wraps s in ANSI yellow.
func Yellow(s string) string { return paint("33", s) }

// Red wraps s in ANSI red.
func Red(s string) string { return paint("31", s) }

// Bold wraps s in ANSI bold.
func Bold(s string) string { return paint("1", s) }

// Dim wraps s in ANSI dim.
func Dim(s string) string { return paint("2", s) }

// DotPad pads name with dots to the given width.
// Example: DotPad("core-sw1", 20) → "core-sw1 ..........."
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	dots := width - len(name) - 1
	return name + " " + strings.Repeat(".", dots)
}

// OrDash returns "-" for an empty table cell.
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
